// internal/app/store/members/memberstore.go
package memberstore

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
	"github.com/covenantapps/flockhub/internal/app/system/status"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("members")}
}

var (
	// ErrDuplicateMemberID is returned when the business member id is taken.
	ErrDuplicateMemberID = errors.New("a member with this member id already exists")
	errBadStatus         = errors.New(`status must be "active"|"inactive"`)
)

// GetByID loads a member by document ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByMemberID loads a member by business id (e.g. "GCC-0042").
func (s *Store) GetByMemberID(ctx context.Context, memberID string) (*models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, bson.M{"member_id": memberID}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Resolve finds a member under either identifier: a valid hex string is
// tried as a document id first, then as a business id.
func (s *Store) Resolve(ctx context.Context, id string) (*models.Member, error) {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		if m, err := s.GetByID(ctx, oid); err == nil {
			return m, nil
		}
	}
	return s.GetByMemberID(ctx, id)
}

// Create inserts a new member after normalizing fields. A missing MemberID is
// assigned from the next sequence value.
func (s *Store) Create(ctx context.Context, m models.Member) (models.Member, error) {
	m.ID = primitive.NewObjectID()
	m.FullName = normalize.Name(m.FullName)
	m.FullNameCI = text.Fold(m.FullName)
	m.Email = normalize.Email(m.Email)
	if m.Status == "" {
		m.Status = status.Active
	}
	if !status.IsValid(m.Status) {
		return models.Member{}, errBadStatus
	}

	if m.MemberID == "" {
		next, err := s.nextMemberID(ctx)
		if err != nil {
			return models.Member{}, err
		}
		m.MemberID = next
	}

	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateMemberID
		}
		return models.Member{}, err
	}
	return m, nil
}

// Update holds the editable member fields.
type Update struct {
	FullName       string
	Departments    []string
	MembershipType string
	DateOfBirth    string
	Email          string
	Phone          string
	Address        string
	Status         string
}

// Update rewrites a member's editable fields. The business MemberID is
// immutable; attendance and contribution rows reference it.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) error {
	if upd.Status != "" && !status.IsValid(upd.Status) {
		return errBadStatus
	}
	set := bson.M{
		"full_name":       normalize.Name(upd.FullName),
		"full_name_ci":    text.Fold(upd.FullName),
		"departments":     upd.Departments,
		"membership_type": upd.MembershipType,
		"date_of_birth":   upd.DateOfBirth,
		"email":           normalize.Email(upd.Email),
		"phone":           upd.Phone,
		"address":         upd.Address,
		"updated_at":      time.Now(),
	}
	if upd.Status != "" {
		set["status"] = upd.Status
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

// Delete removes the member document. Dependent records are cleaned up by
// the caller (see the members feature cascade).
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
	Status     string
	Department string
	Search     string // case-insensitive name prefix
	Limit      int64
	Offset     int64
}

// List returns members sorted by folded name, stable on _id.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Member, error) {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Department != "" {
		q["departments"] = f.Department
	}
	if f.Search != "" {
		q["full_name_ci"] = bson.M{"$regex": "^" + text.Fold(f.Search)}
	}

	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
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
	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// All returns every member. The aggregation paths need the full set to
// resolve dual identifiers.
func (s *Store) All(ctx context.Context) ([]models.Member, error) {
	return s.List(ctx, ListFilter{})
}

// Count returns the number of members matching the status filter.
func (s *Store) Count(ctx context.Context, statusFilter string) (int64, error) {
	q := bson.M{}
	if statusFilter != "" {
		q["status"] = statusFilter
	}
	return s.c.CountDocuments(ctx, q)
}

// nextMemberID allocates the next business id from a counter document in the
// counters collection, so concurrent creates never collide.
func (s *Store) nextMemberID(ctx context.Context) (string, error) {
	counters := s.c.Database().Collection("counters")
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "member_id"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("GCC-%04d", doc.Seq), nil
}
