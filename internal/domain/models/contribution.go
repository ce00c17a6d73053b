// internal/domain/models/contribution.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contribution is a single giving record (tithe, offering, pledge, ...).
//
// MemberID carries the same dual-identifier caveat as AttendanceRecord.
// MemberName is denormalized at write time so receipts and reports do not
// need a member lookup.
type Contribution struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MemberID         string             `bson:"member_id" json:"member_id"`
	MemberName       string             `bson:"member_name" json:"member_name"`
	ContributionType string             `bson:"contribution_type" json:"contribution_type"` // Tithe | Offering | Pledge | Project | Other
	Amount           float64            `bson:"amount" json:"amount"`
	Date             string             `bson:"date" json:"date"` // "2006-01-02"
	PaymentMethod    string             `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
	ReceiptNumber    string             `bson:"receipt_number" json:"receipt_number"`
	RecordedBy       primitive.ObjectID `bson:"recorded_by,omitempty" json:"recorded_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
