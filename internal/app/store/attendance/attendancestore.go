// internal/app/store/attendance/attendancestore.go
package attendancestore

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

// ErrAlreadyMarked is returned when the member is already marked present for
// the session. Backed by the unique (session_id, member_id) index, so two
// devices marking at once cannot create a duplicate.
var ErrAlreadyMarked = errors.New("member already marked present for this session")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("attendance_records")}
}

// Mark records a member present at a session.
func (s *Store) Mark(ctx context.Context, sessionID primitive.ObjectID, memberID string, markedBy primitive.ObjectID) (models.AttendanceRecord, error) {
	rec := models.AttendanceRecord{
		ID:        primitive.NewObjectID(),
		SessionID: sessionID,
		MemberID:  memberID,
		MarkedAt:  time.Now(),
		MarkedBy:  markedBy,
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		if wafflemongo.IsDup(err) {
			return models.AttendanceRecord{}, ErrAlreadyMarked
		}
		return models.AttendanceRecord{}, err
	}
	return rec, nil
}

// Unmark removes a member's record for a session.
func (s *Store) Unmark(ctx context.Context, sessionID primitive.ObjectID, memberID string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"session_id": sessionID, "member_id": memberID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// BySession returns the records for one session.
func (s *Store) BySession(ctx context.Context, sessionID primitive.ObjectID) ([]models.AttendanceRecord, error) {
	cur, err := s.c.Find(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return nil, err
	}
	var out []models.AttendanceRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByMemberIDs returns records whose member_id is any of ids. Callers pass
// both of a member's identifiers.
func (s *Store) ByMemberIDs(ctx context.Context, ids []string) ([]models.AttendanceRecord, error) {
	cur, err := s.c.Find(ctx, bson.M{"member_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var out []models.AttendanceRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// All returns every attendance record for the aggregation paths.
func (s *Store) All(ctx context.Context) ([]models.AttendanceRecord, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var out []models.AttendanceRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteBySession removes all records for a session. Used by the session
// cascade delete.
func (s *Store) DeleteBySession(ctx context.Context, sessionID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByMemberIDs removes records under any of a member's identifiers.
// Used by the member cascade delete.
func (s *Store) DeleteByMemberIDs(ctx context.Context, ids []string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"member_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountBySession returns per-session head counts for the dashboard.
func (s *Store) CountBySession(ctx context.Context, sessionID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"session_id": sessionID})
}
