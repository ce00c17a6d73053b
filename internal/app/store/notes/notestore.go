// internal/app/store/notes/notestore.go
package notestore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/covenantapps/flockhub/internal/app/system/htmlsanitize"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("member_notes")}
}

// Create inserts a note with a sanitized body.
func (s *Store) Create(ctx context.Context, n models.MemberNote) (models.MemberNote, error) {
	n.ID = primitive.NewObjectID()
	n.Body = htmlsanitize.Sanitize(n.Body)
	now := time.Now()
	n.CreatedAt = now
	n.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.MemberNote{}, err
	}
	return n, nil
}

// ByMember returns a member's notes, newest first.
func (s *Store) ByMember(ctx context.Context, memberID primitive.ObjectID) ([]models.MemberNote, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"member_id": memberID}, opts)
	if err != nil {
		return nil, err
	}
	var out []models.MemberNote
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OpenFollowUps returns notes still awaiting follow-up, oldest first so the
// longest-waiting members surface at the top of the dashboard.
func (s *Store) OpenFollowUps(ctx context.Context) ([]models.MemberNote, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx,
		bson.M{"follow_up_required": true, "follow_up_completed": false}, opts)
	if err != nil {
		return nil, err
	}
	var out []models.MemberNote
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteFollowUp marks a note's follow-up done. Only an open follow-up
// matches; closing one twice returns mongo.ErrNoDocuments.
func (s *Store) CompleteFollowUp(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "follow_up_required": true, "follow_up_completed": false},
		bson.M{"$set": bson.M{"follow_up_completed": true, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteByMember removes all of a member's notes. Used by the member cascade
// delete.
func (s *Store) DeleteByMember(ctx context.Context, memberID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"member_id": memberID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
