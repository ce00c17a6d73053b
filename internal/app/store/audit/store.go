// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLogout                   = "logout"
	EventUserRegistered           = "user_registered"
	EventGoogleSignIn             = "google_sign_in"
)

// Admin event types
const (
	EventMemberCreated        = "member_created"
	EventMemberUpdated        = "member_updated"
	EventMemberDeleted        = "member_deleted"
	EventSessionCreated       = "session_created"
	EventSessionDeleted       = "session_deleted"
	EventAttendanceMarked     = "attendance_marked"
	EventAttendanceUnmarked   = "attendance_unmarked"
	EventContributionRecorded = "contribution_recorded"
	EventContributionUpdated  = "contribution_updated"
	EventContributionDeleted  = "contribution_deleted"
	EventVisitorCreated       = "visitor_created"
	EventVisitorConverted     = "visitor_converted"
	EventMinistryCreated      = "ministry_created"
	EventMinistryUpdated      = "ministry_updated"
	EventGroupCreated         = "group_created"
	EventGroupUpdated         = "group_updated"
	EventGroupDeleted         = "group_deleted"
	EventJoinRequestDecided   = "join_request_decided"
	EventEventCreated         = "event_created"
	EventEventRegistration    = "event_registration"
	EventNoteCreated          = "note_created"
)

// Event represents one audit record.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	// UserID is the affected user; ActorID is who performed the action.
	UserID  *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"`

	IP        string `bson:"ip" json:"ip"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter narrows List results.
type QueryFilter struct {
	UserID    *primitive.ObjectID
	ActorID   *primitive.ObjectID
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log inserts one event, stamping the timestamp if unset.
func (s *Store) Log(ctx context.Context, ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	_, err := s.c.InsertOne(ctx, ev)
	return err
}

// List returns events newest first, applying the filter.
func (s *Store) List(ctx context.Context, f QueryFilter) ([]Event, error) {
	q := bson.M{}
	if f.UserID != nil {
		q["user_id"] = *f.UserID
	}
	if f.ActorID != nil {
		q["actor_id"] = *f.ActorID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		tr := bson.M{}
		if f.StartTime != nil {
			tr["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			tr["$lte"] = *f.EndTime
		}
		q["timestamp"] = tr
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	if f.Offset > 0 {
		opts.SetSkip(f.Offset)
	}

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	var out []Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of events matching the filter.
func (s *Store) Count(ctx context.Context, f QueryFilter) (int64, error) {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.UserID != nil {
		q["user_id"] = *f.UserID
	}
	return s.c.CountDocuments(ctx, q)
}
