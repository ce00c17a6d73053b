// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/covenantapps/flockhub/internal/domain/models"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateMember inserts a member with the given name and business id.
func (f *Fixtures) CreateMember(ctx context.Context, fullName, memberID string) models.Member {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Member{
		ID:         primitive.NewObjectID(),
		MemberID:   memberID,
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return m
}

// CreateSession inserts an attendance session on the given date ("2006-01-02").
func (f *Fixtures) CreateSession(ctx context.Context, name, date string) models.AttendanceSession {
	f.t.Helper()

	now := time.Now().UTC()
	s := models.AttendanceSession{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("attendance_sessions").InsertOne(ctx, s); err != nil {
		f.t.Fatalf("failed to create test session: %v", err)
	}
	return s
}

// MarkAttendance inserts an attendance record directly.
func (f *Fixtures) MarkAttendance(ctx context.Context, sessionID primitive.ObjectID, memberID string) models.AttendanceRecord {
	f.t.Helper()

	rec := models.AttendanceRecord{
		ID:        primitive.NewObjectID(),
		SessionID: sessionID,
		MemberID:  memberID,
		MarkedAt:  time.Now().UTC(),
	}
	if _, err := f.db.Collection("attendance_records").InsertOne(ctx, rec); err != nil {
		f.t.Fatalf("failed to create test attendance record: %v", err)
	}
	return rec
}

// CreateContribution inserts a contribution for a member.
func (f *Fixtures) CreateContribution(ctx context.Context, memberID, memberName string, amount float64, date string) models.Contribution {
	f.t.Helper()

	c := models.Contribution{
		ID:               primitive.NewObjectID(),
		MemberID:         memberID,
		MemberName:       memberName,
		ContributionType: "tithe",
		Amount:           amount,
		Date:             date,
		PaymentMethod:    "cash",
		ReceiptNumber:    fmt.Sprintf("TIT-TEST-%s", primitive.NewObjectID().Hex()[:8]),
		CreatedAt:        time.Now().UTC(),
	}
	if _, err := f.db.Collection("contributions").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test contribution: %v", err)
	}
	return c
}

// CreateUser inserts an application login with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		AuthMethod: "internal",
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateVisitor inserts a visitor with pending follow-up.
func (f *Fixtures) CreateVisitor(ctx context.Context, fullName, visitorID, visitDate string) models.Visitor {
	f.t.Helper()

	now := time.Now().UTC()
	v := models.Visitor{
		ID:             primitive.NewObjectID(),
		VisitorID:      visitorID,
		FullName:       fullName,
		FullNameCI:     text.Fold(fullName),
		VisitDate:      visitDate,
		FollowUpStatus: "pending",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("visitors").InsertOne(ctx, v); err != nil {
		f.t.Fatalf("failed to create test visitor: %v", err)
	}
	return v
}

// CreateGroup inserts a group owned by ownerID.
func (f *Fixtures) CreateGroup(ctx context.Context, name, visibility string, ownerID primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:         primitive.NewObjectID(),
		Name:       name,
		NameCI:     text.Fold(name),
		Visibility: visibility,
		OwnerID:    ownerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}
