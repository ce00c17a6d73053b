// internal/domain/models/ministry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ministry is a serving unit (choir, ushering, media, ...).
//
// Leaders, members, announcements and resources are embedded arrays on the
// ministry document. This mirrors how the data already exists in production;
// the arrays are unbounded and large ministries will eventually need their
// own collections.
type Ministry struct {
	ID              primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Name            string                 `bson:"name" json:"name"`
	NameCI          string                 `bson:"name_ci" json:"name_ci"`
	Type            string                 `bson:"type,omitempty" json:"type,omitempty"`
	Description     string                 `bson:"description,omitempty" json:"description,omitempty"`
	Leaders         []primitive.ObjectID   `bson:"leaders,omitempty" json:"leaders,omitempty"`
	Members         []primitive.ObjectID   `bson:"members,omitempty" json:"members,omitempty"`
	MeetingSchedule string                 `bson:"meeting_schedule,omitempty" json:"meeting_schedule,omitempty"`
	Announcements   []MinistryAnnouncement `bson:"announcements,omitempty" json:"announcements,omitempty"`
	Resources       []MinistryResource     `bson:"resources,omitempty" json:"resources,omitempty"`
	Status          string                 `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MinistryAnnouncement is an embedded announcement. Body is sanitized HTML.
type MinistryAnnouncement struct {
	ID       primitive.ObjectID `bson:"id" json:"id"`
	Title    string             `bson:"title" json:"title"`
	Body     string             `bson:"body" json:"body"`
	PostedBy primitive.ObjectID `bson:"posted_by,omitempty" json:"posted_by,omitempty"`
	PostedAt time.Time          `bson:"posted_at" json:"posted_at"`
}

// MinistryResource is an embedded link or file reference.
type MinistryResource struct {
	ID      primitive.ObjectID `bson:"id" json:"id"`
	Title   string             `bson:"title" json:"title"`
	URL     string             `bson:"url" json:"url"`
	AddedAt time.Time          `bson:"added_at" json:"added_at"`
}
