// internal/app/store/achievements/achievementstore.go
package achievementstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/covenantapps/flockhub/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("achievements")}
}

// Replace upserts the member's badge set wholesale. Recomputing is
// idempotent: the stored badges always equal the latest computation, never
// an accumulation of past runs.
func (s *Store) Replace(ctx context.Context, memberID primitive.ObjectID, badges []string) error {
	if badges == nil {
		badges = []string{}
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"member_id": memberID},
		bson.M{"$set": bson.M{
			"badges":      badges,
			"computed_at": time.Now(),
		}},
		options.Update().SetUpsert(true))
	return err
}

// ByMember loads a member's achievement document. A member with no document
// yet gets an empty badge list, not an error.
func (s *Store) ByMember(ctx context.Context, memberID primitive.ObjectID) (*models.Achievement, error) {
	var a models.Achievement
	err := s.c.FindOne(ctx, bson.M{"member_id": memberID}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return &models.Achievement{MemberID: memberID, Badges: []string{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// TotalAwarded returns the number of badges held across all members.
func (s *Store) TotalAwarded(ctx context.Context) (int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": bson.M{"$size": "$badges"}},
		}}},
	})
	if err != nil {
		return 0, err
	}
	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// DeleteByMember removes the member's achievement document. Used by the
// member cascade delete.
func (s *Store) DeleteByMember(ctx context.Context, memberID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"member_id": memberID})
	return err
}
