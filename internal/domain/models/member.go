// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member is a church member record.
//
// NOTE:
//   - Members carry two identifiers: the Mongo ObjectID (_id) and the
//     human-assigned MemberID (e.g. "GCC-0042"). Older attendance and
//     contribution rows reference either one; joins must match both.
type Member struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MemberID       string             `bson:"member_id" json:"member_id"`
	FullName       string             `bson:"full_name" json:"full_name"`
	FullNameCI     string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Departments    []string           `bson:"departments,omitempty" json:"departments,omitempty"`
	MembershipType string             `bson:"membership_type,omitempty" json:"membership_type,omitempty"` // full | associate | youth
	DateOfBirth    string             `bson:"date_of_birth,omitempty" json:"date_of_birth,omitempty"`     // "2006-01-02"; legacy rows hold free text
	Email          string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone          string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address        string             `bson:"address,omitempty" json:"address,omitempty"`
	Status         string             `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
