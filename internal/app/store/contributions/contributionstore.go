// internal/app/store/contributions/contributionstore.go
package contributionstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/covenantapps/flockhub/internal/app/system/receipts"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

var (
	// ErrBadAmount rejects zero and negative contribution amounts.
	ErrBadAmount = errors.New("contribution amount must be positive")
	// ErrDuplicateReceipt should not occur; receipt numbers carry a random
	// suffix. Surfaced anyway so a collision is loud instead of silent.
	ErrDuplicateReceipt = errors.New("receipt number already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contributions")}
}

// Create inserts a contribution and issues its receipt number.
func (s *Store) Create(ctx context.Context, c models.Contribution) (models.Contribution, error) {
	if c.Amount <= 0 {
		return models.Contribution{}, ErrBadAmount
	}
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now()
	if c.ReceiptNumber == "" {
		c.ReceiptNumber = receipts.Number(c.ContributionType, c.CreatedAt)
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Contribution{}, ErrDuplicateReceipt
		}
		return models.Contribution{}, err
	}
	return c, nil
}

// GetByID loads one contribution.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Contribution, error) {
	var c models.Contribution
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Update rewrites editable fields. The receipt number is permanent and never
// reissued on edit.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, contributionType string, amount float64, date, paymentMethod string) error {
	if amount <= 0 {
		return ErrBadAmount
	}
	set := bson.M{
		"contribution_type": contributionType,
		"amount":            amount,
		"date":              date,
		"payment_method":    paymentMethod,
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a contribution.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListFilter narrows List results.
type ListFilter struct {
	MemberIDs        []string // both identifiers of one member
	ContributionType string
	DateFrom         string // "2006-01-02", inclusive
	DateTo           string
	Limit            int64
	Offset           int64
}

// List returns contributions newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Contribution, error) {
	q := bson.M{}
	if len(f.MemberIDs) > 0 {
		q["member_id"] = bson.M{"$in": f.MemberIDs}
	}
	if f.ContributionType != "" {
		q["contribution_type"] = f.ContributionType
	}
	if f.DateFrom != "" || f.DateTo != "" {
		dr := bson.M{}
		if f.DateFrom != "" {
			dr["$gte"] = f.DateFrom
		}
		if f.DateTo != "" {
			dr["$lte"] = f.DateTo
		}
		q["date"] = dr
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
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
	var out []models.Contribution
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// All returns every contribution for the rollup paths.
func (s *Store) All(ctx context.Context) ([]models.Contribution, error) {
	return s.List(ctx, ListFilter{})
}
