// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a small group / cell group with a join-approval workflow.
type Group struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	NameCI      string               `bson:"name_ci" json:"name_ci"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Visibility  string               `bson:"visibility" json:"visibility"` // public | private
	OwnerID     primitive.ObjectID   `bson:"owner_id" json:"owner_id"`
	Moderators  []primitive.ObjectID `bson:"moderators,omitempty" json:"moderators,omitempty"`
	Status      string               `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
