// internal/app/store/visitors/visitorstore.go
package visitorstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/covenantapps/flockhub/internal/app/system/normalize"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

// Follow-up statuses a visitor moves through.
const (
	FollowUpPending   = "pending"
	FollowUpContacted = "contacted"
	FollowUpVisited   = "visited"
	FollowUpClosed    = "closed"
)

var (
	ErrDuplicateVisitorID = errors.New("a visitor with this visitor id already exists")
	errBadFollowUp        = errors.New(`follow-up status must be "pending"|"contacted"|"visited"|"closed"`)
)

func validFollowUp(s string) bool {
	switch s {
	case FollowUpPending, FollowUpContacted, FollowUpVisited, FollowUpClosed:
		return true
	}
	return false
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("visitors")}
}

// Create inserts a visitor, assigning a VisitorID when missing.
func (s *Store) Create(ctx context.Context, v models.Visitor) (models.Visitor, error) {
	v.ID = primitive.NewObjectID()
	v.FullName = normalize.Name(v.FullName)
	v.FullNameCI = text.Fold(v.FullName)
	v.Email = normalize.Email(v.Email)
	if v.FollowUpStatus == "" {
		v.FollowUpStatus = FollowUpPending
	}
	if !validFollowUp(v.FollowUpStatus) {
		return models.Visitor{}, errBadFollowUp
	}
	if v.VisitorID == "" {
		next, err := s.nextVisitorID(ctx)
		if err != nil {
			return models.Visitor{}, err
		}
		v.VisitorID = next
	}

	now := time.Now()
	v.CreatedAt = now
	v.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, v); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Visitor{}, ErrDuplicateVisitorID
		}
		return models.Visitor{}, err
	}
	return v, nil
}

// GetByID loads one visitor.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Visitor, error) {
	var v models.Visitor
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SetFollowUpStatus advances a visitor's follow-up state.
func (s *Store) SetFollowUpStatus(ctx context.Context, id primitive.ObjectID, followUp string) error {
	if !validFollowUp(followUp) {
		return errBadFollowUp
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"follow_up_status": followUp, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkConverted flags the visitor as converted. The document stays; the
// member record is created separately by the caller.
func (s *Store) MarkConverted(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"converted_to_member": true, "follow_up_status": FollowUpClosed, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListFilter narrows List results.
type ListFilter struct {
	FollowUpStatus string
	Limit          int64
	Offset         int64
}

// List returns visitors, most recent visit first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Visitor, error) {
	q := bson.M{}
	if f.FollowUpStatus != "" {
		q["follow_up_status"] = f.FollowUpStatus
	}

	opts := options.Find().SetSort(bson.D{{Key: "visit_date", Value: -1}, {Key: "_id", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	if f.Offset > 0 {
		opts.SetSkip(f.Offset)
	}

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	var out []models.Visitor
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns visitor counts, optionally by follow-up status.
func (s *Store) Count(ctx context.Context, followUpStatus string) (int64, error) {
	q := bson.M{}
	if followUpStatus != "" {
		q["follow_up_status"] = followUpStatus
	}
	return s.c.CountDocuments(ctx, q)
}

func (s *Store) nextVisitorID(ctx context.Context) (string, error) {
	counters := s.c.Database().Collection("counters")
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "visitor_id"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("VIS-%04d", doc.Seq), nil
}
