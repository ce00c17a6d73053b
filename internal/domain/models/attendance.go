// internal/domain/models/attendance.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AttendanceSession is one service or meeting that attendance is marked against.
type AttendanceSession struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Date       string             `bson:"date" json:"date"` // "2006-01-02"; legacy rows may hold free text
	EventType  string             `bson:"event_type,omitempty" json:"event_type,omitempty"`
	Department string             `bson:"department,omitempty" json:"department,omitempty"`
	CreatedBy  primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// AttendanceRecord marks one member present at one session.
//
// MemberID usually holds the member's business id, but rows written by older
// clients hold the member document's hex ObjectID instead. Consumers must
// match both (see stats.MemberRef).
type AttendanceRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID primitive.ObjectID `bson:"session_id" json:"session_id"`
	MemberID  string             `bson:"member_id" json:"member_id"`
	MarkedAt  time.Time          `bson:"marked_at" json:"marked_at"`
	MarkedBy  primitive.ObjectID `bson:"marked_by,omitempty" json:"marked_by,omitempty"`
}
