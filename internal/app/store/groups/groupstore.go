// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/covenantapps/flockhub/internal/domain/models"
)

// Group visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

// Create inserts a group owned by ownerID.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	g.ID = primitive.NewObjectID()
	g.NameCI = text.Fold(g.Name)
	if g.Visibility == "" {
		g.Visibility = VisibilityPublic
	}
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// GetByID loads one group.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Update rewrites a group's descriptive fields and visibility.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, description, visibility string) error {
	set := bson.M{
		"name":        name,
		"name_ci":     text.Fold(name),
		"description": description,
		"visibility":  visibility,
		"updated_at":  time.Now(),
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetModerators replaces the moderator list.
func (s *Store) SetModerators(ctx context.Context, id primitive.ObjectID, moderators []primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"moderators": moderators, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes the group document. Memberships are removed by the caller's
// cascade.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// List returns groups sorted by name. With publicOnly, private groups are
// excluded; they are only discoverable by their members.
func (s *Store) List(ctx context.Context, publicOnly bool) ([]models.Group, error) {
	q := bson.M{}
	if publicOnly {
		q["visibility"] = VisibilityPublic
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	var out []models.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByIDs loads the groups with the given ids.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var out []models.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
