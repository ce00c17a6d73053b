// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(name string, fn func(context.Context, *mongo.Database) error) {
		if err := fn(ctx, db); err != nil {
			problems = append(problems, name+": "+err.Error())
		}
	}

	ensure("users", ensureUsers)
	ensure("members", ensureMembers)
	ensure("attendance_sessions", ensureAttendanceSessions)
	ensure("attendance_records", ensureAttendanceRecords)
	ensure("contributions", ensureContributions)
	ensure("visitors", ensureVisitors)
	ensure("ministries", ensureMinistries)
	ensure("groups", ensureGroups)
	ensure("group_memberships", ensureGroupMemberships)
	ensure("events", ensureEvents)
	ensure("event_registrations", ensureEventRegistrations)
	ensure("member_notes", ensureMemberNotes)
	ensure("achievements", ensureAchievements)
	ensure("audit_events", ensureAuditEvents)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameUnique(a, b *bool) bool {
	av, bv := false, false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// ensureIndexSet reconciles the desired indexes for one collection. An index
// with the same keys and uniqueness is reused; a uniqueness mismatch drops
// and recreates it.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing := map[string]existingIndex{} // key signature -> index
	cur, err := coll.Indexes().List(ctx)
	if err == nil {
		for cur.Next(ctx) {
			var idx existingIndex
			if err := cur.Decode(&idx); err != nil {
				zap.L().Warn("failed to decode existing index",
					zap.String("collection", coll.Name()), zap.Error(err))
				continue
			}
			existing[keySig(idx.Key)] = idx
		}
		cur.Close(ctx)
	}

	var errs []string
	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))

		if ex, ok := existing[sig]; ok {
			if sameUnique(desiredUnique, ex.Unique) {
				continue
			}
			// Uniqueness changed (e.g. upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index, duplicates present", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}
		zap.L().Info("index created",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", sig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_users_role_status"),
		},
	})
}

func ensureMembers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("members"), []mongo.IndexModel{
		// Business member id is the join key for attendance/contributions.
		{
			Keys:    bson.D{{Key: "member_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_members_member_id"),
		},
		// Sorted listing and case-insensitive name search.
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "full_name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_members_status_fullnameci_id"),
		},
		{
			Keys:    bson.D{{Key: "departments", Value: 1}},
			Options: options.Index().SetName("idx_members_departments"),
		},
	})
}

func ensureAttendanceSessions(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("attendance_sessions"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_sessions_date_desc"),
		},
	})
}

func ensureAttendanceRecords(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("attendance_records"), []mongo.IndexModel{
		// One mark per member per session; concurrent double-marks lose here.
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "member_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_attendance_session_member"),
		},
		{
			Keys:    bson.D{{Key: "member_id", Value: 1}},
			Options: options.Index().SetName("idx_attendance_member"),
		},
	})
}

func ensureContributions(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("contributions"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "receipt_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_contributions_receipt"),
		},
		{
			Keys:    bson.D{{Key: "member_id", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_contributions_member_date"),
		},
		{
			Keys:    bson.D{{Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_contributions_date_desc"),
		},
	})
}

func ensureVisitors(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("visitors"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "visitor_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_visitors_visitor_id"),
		},
		{
			Keys:    bson.D{{Key: "follow_up_status", Value: 1}, {Key: "visit_date", Value: -1}},
			Options: options.Index().SetName("idx_visitors_followup_date"),
		},
	})
}

func ensureMinistries(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("ministries"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_ministries_name"),
		},
	})
}

func ensureGroups(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("groups"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "visibility", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetName("idx_groups_visibility_name"),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}},
			Options: options.Index().SetName("idx_groups_owner"),
		},
	})
}

func ensureGroupMemberships(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("group_memberships"), []mongo.IndexModel{
		// Exactly one membership row per (group, user); a second join request
		// updates the existing row instead of adding another.
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_gm_group_user"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_gm_user_status"),
		},
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_gm_group_status"),
		},
	})
}

func ensureEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_events_date_desc"),
		},
	})
}

func ensureEventRegistrations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("event_registrations"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "member_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_registrations_event_member"),
		},
	})
}

func ensureMemberNotes(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("member_notes"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "member_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_notes_member_created"),
		},
		{
			Keys:    bson.D{{Key: "follow_up_required", Value: 1}, {Key: "follow_up_completed", Value: 1}},
			Options: options.Index().SetName("idx_notes_followup"),
		},
	})
}

func ensureAchievements(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("achievements"), []mongo.IndexModel{
		// One achievement document per member; recompute replaces it.
		{
			Keys:    bson.D{{Key: "member_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_achievements_member"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp_desc"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_timestamp"),
		},
	})
}
