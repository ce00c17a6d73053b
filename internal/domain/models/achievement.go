// internal/domain/models/achievement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Achievement stores the computed badge set for one member. One document per
// member; recomputation replaces the badge list wholesale, so rerunning the
// calculation never accumulates.
type Achievement struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MemberID   primitive.ObjectID `bson:"member_id" json:"member_id"`
	Badges     []string           `bson:"badges" json:"badges"`
	ComputedAt time.Time          `bson:"computed_at" json:"computed_at"`
}
