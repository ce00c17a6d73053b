// internal/domain/models/groupmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership status values.
const (
	MembershipPending  = "pending"
	MembershipApproved = "approved"
	MembershipRejected = "rejected"
)

// GroupMembership links a user to a group. Exactly one row per (group, user);
// approval moves the row between statuses instead of inserting a new one.
type GroupMembership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Status    string             `bson:"status" json:"status"`
	DecidedBy primitive.ObjectID `bson:"decided_by,omitempty" json:"decided_by,omitempty"`
	DecidedAt *time.Time         `bson:"decided_at,omitempty" json:"decided_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
