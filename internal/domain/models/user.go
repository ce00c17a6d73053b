// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an application login (staff, leaders, read-only viewers).
// Role is read from this collection once at sign-in and cached in the
// session for its lifetime.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"full_name_ci"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	AuthMethod   string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // internal | google
	Role         string             `bson:"role" json:"role"`                                   // admin | leader | viewer
	Status       string             `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
