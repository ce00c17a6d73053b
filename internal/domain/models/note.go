// internal/domain/models/note.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberNote is a pastoral-care annotation on a member. Body is sanitized HTML.
type MemberNote struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MemberID          primitive.ObjectID `bson:"member_id" json:"member_id"`
	Category          string             `bson:"category" json:"category"` // pastoral | prayer | admin
	Priority          string             `bson:"priority,omitempty" json:"priority,omitempty"`
	Body              string             `bson:"body" json:"body"`
	FollowUpRequired  bool               `bson:"follow_up_required" json:"follow_up_required"`
	FollowUpCompleted bool               `bson:"follow_up_completed" json:"follow_up_completed"`
	AuthorID          primitive.ObjectID `bson:"author_id,omitempty" json:"author_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
