// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is a church-wide event members can register for.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Date        string             `bson:"date" json:"date"` // "2006-01-02"
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	Capacity    int                `bson:"capacity,omitempty" json:"capacity,omitempty"`
	Status      string             `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EventRegistration is one member's registration for an event.
// MemberID carries the dual-identifier caveat (business id or doc id).
type EventRegistration struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID      primitive.ObjectID `bson:"event_id" json:"event_id"`
	MemberID     string             `bson:"member_id" json:"member_id"`
	RegisteredAt time.Time          `bson:"registered_at" json:"registered_at"`
}
