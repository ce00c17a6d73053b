// internal/app/store/ministries/ministrystore.go
package ministrystore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/covenantapps/flockhub/internal/app/system/htmlsanitize"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

// ErrDuplicateName is returned when a ministry with the same name exists.
var ErrDuplicateName = errors.New("a ministry with this name already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("ministries")}
}

// Create inserts a ministry.
func (s *Store) Create(ctx context.Context, m models.Ministry) (models.Ministry, error) {
	m.ID = primitive.NewObjectID()
	m.NameCI = text.Fold(m.Name)
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Ministry{}, ErrDuplicateName
		}
		return models.Ministry{}, err
	}
	return m, nil
}

// GetByID loads one ministry.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ministry, error) {
	var m models.Ministry
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Update rewrites the ministry's descriptive fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, mtype, description, schedule string) error {
	set := bson.M{
		"name":             name,
		"name_ci":          text.Fold(name),
		"type":             mtype,
		"description":      description,
		"meeting_schedule": schedule,
		"updated_at":       time.Now(),
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateName
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// List returns all ministries sorted by name.
func (s *Store) List(ctx context.Context) ([]models.Ministry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var out []models.Ministry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMember adds a member to the embedded members array, idempotently.
func (s *Store) AddMember(ctx context.Context, id, memberID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"members": memberID}, "$set": bson.M{"updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RemoveMember removes a member from the embedded members array.
func (s *Store) RemoveMember(ctx context.Context, id, memberID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$pull": bson.M{"members": memberID}, "$set": bson.M{"updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetLeaders replaces the leader list.
func (s *Store) SetLeaders(ctx context.Context, id primitive.ObjectID, leaders []primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"leaders": leaders, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// PostAnnouncement appends a sanitized announcement.
func (s *Store) PostAnnouncement(ctx context.Context, id primitive.ObjectID, title, body string, postedBy primitive.ObjectID) (models.MinistryAnnouncement, error) {
	a := models.MinistryAnnouncement{
		ID:       primitive.NewObjectID(),
		Title:    title,
		Body:     htmlsanitize.Sanitize(body),
		PostedBy: postedBy,
		PostedAt: time.Now(),
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$push": bson.M{"announcements": a}, "$set": bson.M{"updated_at": time.Now()}})
	if err != nil {
		return models.MinistryAnnouncement{}, err
	}
	if res.MatchedCount == 0 {
		return models.MinistryAnnouncement{}, mongo.ErrNoDocuments
	}
	return a, nil
}

// AddResource appends a link resource.
func (s *Store) AddResource(ctx context.Context, id primitive.ObjectID, title, url string) (models.MinistryResource, error) {
	r := models.MinistryResource{
		ID:      primitive.NewObjectID(),
		Title:   title,
		URL:     url,
		AddedAt: time.Now(),
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$push": bson.M{"resources": r}, "$set": bson.M{"updated_at": time.Now()}})
	if err != nil {
		return models.MinistryResource{}, err
	}
	if res.MatchedCount == 0 {
		return models.MinistryResource{}, mongo.ErrNoDocuments
	}
	return r, nil
}
