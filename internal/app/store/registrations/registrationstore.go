// internal/app/store/registrations/registrationstore.go
package registrationstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/covenantapps/flockhub/internal/domain/models"
)

// ErrAlreadyRegistered is returned when the member is already registered for
// the event, backed by the unique (event_id, member_id) index.
var ErrAlreadyRegistered = errors.New("member already registered for this event")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("event_registrations")}
}

// Register records one member's registration for an event.
func (s *Store) Register(ctx context.Context, eventID primitive.ObjectID, memberID string) (models.EventRegistration, error) {
	reg := models.EventRegistration{
		ID:           primitive.NewObjectID(),
		EventID:      eventID,
		MemberID:     memberID,
		RegisteredAt: time.Now(),
	}
	if _, err := s.c.InsertOne(ctx, reg); err != nil {
		if wafflemongo.IsDup(err) {
			return models.EventRegistration{}, ErrAlreadyRegistered
		}
		return models.EventRegistration{}, err
	}
	return reg, nil
}

// Unregister removes a member's registration.
func (s *Store) Unregister(ctx context.Context, eventID primitive.ObjectID, memberID string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"event_id": eventID, "member_id": memberID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ByEvent returns the registrations for one event.
func (s *Store) ByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.EventRegistration, error) {
	cur, err := s.c.Find(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return nil, err
	}
	var out []models.EventRegistration
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByEvent returns the registration head count for capacity checks.
func (s *Store) CountByEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"event_id": eventID})
}

// All returns every registration for the participation rollup.
func (s *Store) All(ctx context.Context) ([]models.EventRegistration, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var out []models.EventRegistration
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
