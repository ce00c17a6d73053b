// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	attendancefeature "github.com/covenantapps/flockhub/internal/app/features/attendance"
	auditlogfeature "github.com/covenantapps/flockhub/internal/app/features/auditlog"
	authgooglefeature "github.com/covenantapps/flockhub/internal/app/features/authgoogle"
	contributionsfeature "github.com/covenantapps/flockhub/internal/app/features/contributions"
	dashboardfeature "github.com/covenantapps/flockhub/internal/app/features/dashboard"
	eventsfeature "github.com/covenantapps/flockhub/internal/app/features/events"
	groupsfeature "github.com/covenantapps/flockhub/internal/app/features/groups"
	healthfeature "github.com/covenantapps/flockhub/internal/app/features/health"
	livefeature "github.com/covenantapps/flockhub/internal/app/features/live"
	loginfeature "github.com/covenantapps/flockhub/internal/app/features/login"
	logoutfeature "github.com/covenantapps/flockhub/internal/app/features/logout"
	membersfeature "github.com/covenantapps/flockhub/internal/app/features/members"
	ministriesfeature "github.com/covenantapps/flockhub/internal/app/features/ministries"
	notesfeature "github.com/covenantapps/flockhub/internal/app/features/notes"
	registerfeature "github.com/covenantapps/flockhub/internal/app/features/register"
	usersfeature "github.com/covenantapps/flockhub/internal/app/features/users"
	visitorsfeature "github.com/covenantapps/flockhub/internal/app/features/visitors"
	"github.com/covenantapps/flockhub/internal/app/store/audit"
	userstore "github.com/covenantapps/flockhub/internal/app/store/users"
	"github.com/covenantapps/flockhub/internal/app/system/auditlog"
	"github.com/covenantapps/flockhub/internal/app/system/auth"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. FlockHub builds the session manager and
// the audit logger here, applies session middleware globally, and mounts a
// feature router for each application area.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewManager(appCfg.SessionKey, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	client := deps.MongoClient
	users := userstore.New(db)

	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	r := chi.NewRouter()

	// Global auth middleware: loads the SessionUser into context if signed
	// in, which makes the current user available via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthfeature.MountRoutes(r, healthfeature.NewHandler(client, deps.Hub, logger))

	// Authentication
	loginfeature.MountRoutes(r, loginfeature.NewHandler(users, sessionMgr, auditLogger, logger))
	logoutfeature.MountRoutes(r, logoutfeature.NewHandler(sessionMgr, auditLogger, logger))
	registerfeature.MountRoutes(r, registerfeature.NewHandler(users, sessionMgr, auditLogger, logger))

	// Google sign-in is optional; the routes are only mounted when the
	// OAuth client is fully configured.
	googleHandler := authgooglefeature.NewHandler(
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.GoogleRedirectURL,
		appCfg.OAuthStateKey, users, sessionMgr, auditLogger, logger)
	if googleHandler.IsConfigured() {
		authgooglefeature.MountRoutes(r, googleHandler)
	}

	// Overview dashboard (cached reads)
	dashboardfeature.MountRoutes(r, dashboardfeature.NewHandler(db, deps.Cache, logger))

	// Membership roster and per-member profiles
	r.Mount("/members", membersfeature.Routes(membersfeature.NewHandler(client, db, auditLogger, logger)))

	// Attendance sessions and marks
	r.Mount("/attendance", attendancefeature.Routes(attendancefeature.NewHandler(client, db, auditLogger, logger)))

	// Giving records, receipts, reports, and statements
	r.Mount("/contributions", contributionsfeature.Routes(contributionsfeature.NewHandler(db, auditLogger, logger)))

	// Visitor follow-up pipeline
	r.Mount("/visitors", visitorsfeature.Routes(visitorsfeature.NewHandler(client, db, auditLogger, logger)))

	// Ministries (departments) with rosters and announcements
	r.Mount("/ministries", ministriesfeature.Routes(ministriesfeature.NewHandler(db, auditLogger, logger)))

	// Small groups with join approval
	r.Mount("/groups", groupsfeature.Routes(groupsfeature.NewHandler(client, db, auditLogger, logger)))

	// Church events with capacity-limited registration
	r.Mount("/events", eventsfeature.Routes(eventsfeature.NewHandler(db, auditLogger, logger)))

	// Pastoral notes and follow-up queue
	r.Mount("/notes", notesfeature.Routes(notesfeature.NewHandler(db, auditLogger, logger)))

	// Account administration
	r.Mount("/users", usersfeature.Routes(usersfeature.NewHandler(db, logger)))

	// Reactive collection watches (SSE)
	r.Mount("/live", livefeature.Routes(livefeature.NewHandler(deps.Live, logger)))

	// Audit trail
	r.Mount("/audit", auditlogfeature.Routes(auditlogfeature.NewHandler(db, logger)))

	return r, nil
}
