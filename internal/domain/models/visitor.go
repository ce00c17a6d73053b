// internal/domain/models/visitor.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Visitor tracks a first-time or returning visitor through follow-up.
// Conversion to member is a manual flag, not an automated transition; the
// visitor document stays around after conversion.
type Visitor struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VisitorID         string             `bson:"visitor_id" json:"visitor_id"`
	FullName          string             `bson:"full_name" json:"full_name"`
	FullNameCI        string             `bson:"full_name_ci" json:"full_name_ci"`
	Phone             string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Email             string             `bson:"email,omitempty" json:"email,omitempty"`
	VisitDate         string             `bson:"visit_date" json:"visit_date"`
	InvitedBy         string             `bson:"invited_by,omitempty" json:"invited_by,omitempty"`
	ServiceAttended   string             `bson:"service_attended,omitempty" json:"service_attended,omitempty"`
	FollowUpStatus    string             `bson:"follow_up_status" json:"follow_up_status"` // pending | contacted | visited | closed
	ConvertedToMember bool               `bson:"converted_to_member" json:"converted_to_member"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
