// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/covenantapps/flockhub/internal/domain/models"
)

var (
	// ErrAlreadyRequested is returned when a (group, user) row already exists.
	ErrAlreadyRequested = errors.New("a join request for this group already exists")
	errBadDecision      = errors.New(`decision must be "approved"|"rejected"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_memberships")}
}

// Request creates a pending join request. The unique (group, user) index
// makes a second request an error rather than a duplicate row.
func (s *Store) Request(ctx context.Context, groupID, userID primitive.ObjectID) (models.GroupMembership, error) {
	gm := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Status:    models.MembershipPending,
		CreatedAt: time.Now(),
	}
	if _, err := s.c.InsertOne(ctx, gm); err != nil {
		if wafflemongo.IsDup(err) {
			return models.GroupMembership{}, ErrAlreadyRequested
		}
		return models.GroupMembership{}, err
	}
	return gm, nil
}

// Approve joins a user to a public group directly, skipping the pending state.
func (s *Store) Approve(ctx context.Context, groupID, userID, decidedBy primitive.ObjectID) (models.GroupMembership, error) {
	now := time.Now()
	gm := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Status:    models.MembershipApproved,
		DecidedBy: decidedBy,
		DecidedAt: &now,
		CreatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, gm); err != nil {
		if wafflemongo.IsDup(err) {
			return models.GroupMembership{}, ErrAlreadyRequested
		}
		return models.GroupMembership{}, err
	}
	return gm, nil
}

// Decide moves a pending request to approved or rejected. Only pending rows
// can be decided; deciding twice returns mongo.ErrNoDocuments.
func (s *Store) Decide(ctx context.Context, id primitive.ObjectID, approve bool, decidedBy primitive.ObjectID) error {
	newStatus := models.MembershipApproved
	if !approve {
		newStatus = models.MembershipRejected
	}
	now := time.Now()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.MembershipPending},
		bson.M{"$set": bson.M{"status": newStatus, "decided_by": decidedBy, "decided_at": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Get loads one membership row.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.GroupMembership, error) {
	var gm models.GroupMembership
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&gm); err != nil {
		return nil, err
	}
	return &gm, nil
}

// Leave removes a user's membership row for a group.
func (s *Store) Leave(ctx context.Context, groupID, userID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"group_id": groupID, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ByGroup returns a group's membership rows, optionally filtered by status.
func (s *Store) ByGroup(ctx context.Context, groupID primitive.ObjectID, status string) ([]models.GroupMembership, error) {
	q := bson.M{"group_id": groupID}
	if status != "" {
		q["status"] = status
	}
	cur, err := s.c.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	var out []models.GroupMembership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByUser returns a user's membership rows, optionally filtered by status.
func (s *Store) ByUser(ctx context.Context, userID primitive.ObjectID, status string) ([]models.GroupMembership, error) {
	q := bson.M{"user_id": userID}
	if status != "" {
		q["status"] = status
	}
	cur, err := s.c.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	var out []models.GroupMembership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByGroup removes all membership rows for a group. Used by the group
// cascade delete.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
