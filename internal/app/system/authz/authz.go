// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/covenantapps/flockhub/internal/app/system/auth"
)

// Role values. Admins manage everything, leaders run day-to-day records,
// viewers get read-only dashboards.
const (
	RoleAdmin  = "admin"
	RoleLeader = "leader"
	RoleViewer = "viewer"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a
// found flag. If no user is present or the user ID is malformed it returns
// "visitor", "", NilObjectID, false, so ok=true always means a valid,
// authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session. Fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == RoleAdmin
}

// IsLeader reports whether the current request's user is a leader.
func IsLeader(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == RoleLeader
}

// CanRecord reports whether the current user may write attendance,
// contribution, and visitor records. Admins and leaders can; viewers cannot.
func CanRecord(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && (role == RoleAdmin || role == RoleLeader)
}

// CanManageGroup reports whether the current user may change a group's
// settings and decide join requests. Admins always can; otherwise the user
// must be the owner or one of the moderators.
func CanManageGroup(r *http.Request, ownerID primitive.ObjectID, moderators []primitive.ObjectID) bool {
	role, _, userID, ok := UserCtx(r)
	if !ok {
		return false
	}
	if role == RoleAdmin {
		return true
	}
	if userID == ownerID {
		return true
	}
	for _, m := range moderators {
		if m == userID {
			return true
		}
	}
	return false
}
