// internal/app/store/sessions/sessionstore.go
package sessionstore

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
	return &Store{c: db.Collection("attendance_sessions")}
}

// GetByID loads one session.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.AttendanceSession, error) {
	var sess models.AttendanceSession
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Create inserts a session.
func (s *Store) Create(ctx context.Context, sess models.AttendanceSession) (models.AttendanceSession, error) {
	sess.ID = primitive.NewObjectID()
	now := time.Now()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return models.AttendanceSession{}, err
	}
	return sess, nil
}

// Update rewrites the editable session fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, date, eventType, department string) error {
	set := bson.M{
		"name":       name,
		"date":       date,
		"event_type": eventType,
		"department": department,
		"updated_at": time.Now(),
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

// Delete removes the session document only. Deleting its attendance records
// is the caller's job, inside a transaction where available.
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

// List returns sessions newest first.
func (s *Store) List(ctx context.Context, limit, offset int64) ([]models.AttendanceSession, error) {
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
	var out []models.AttendanceSession
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// All returns every session. The streak and badge computations join the full
// set against attendance records.
func (s *Store) All(ctx context.Context) ([]models.AttendanceSession, error) {
	return s.List(ctx, 0, 0)
}
