// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
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
	return &Store{c: db.Collection("events")}
}

// Create inserts an event with a sanitized description.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	e.ID = primitive.NewObjectID()
	e.NameCI = text.Fold(e.Name)
	e.Description = htmlsanitize.Sanitize(e.Description)
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// GetByID loads one event.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Update rewrites the editable event fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, description, date, location string, capacity int) error {
	set := bson.M{
		"name":        name,
		"name_ci":     text.Fold(name),
		"description": htmlsanitize.Sanitize(description),
		"date":        date,
		"location":    location,
		"capacity":    capacity,
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

// List returns events newest first.
func (s *Store) List(ctx context.Context, limit, offset int64) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if offset > 0 {
		opts.SetSkip(offset)
	}
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var out []models.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// All returns every event for the participation rollup.
func (s *Store) All(ctx context.Context) ([]models.Event, error) {
	return s.List(ctx, 0, 0)
}
