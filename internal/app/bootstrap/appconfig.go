// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging,
// CORS, timeouts). AppConfig is everything specific to FlockHub: database
// connection details, session signing, the snapshot cache, audit routing,
// Google sign-in, and the background worker schedule.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionDomain string // Cookie domain (blank means current host)

	// Snapshot cache (serves live-query fallbacks and dashboard reads)
	CachePath string        // On-disk cache directory; blank means in-memory
	CacheTTL  time.Duration // How long cached snapshots stay valid

	// Audit logging: "all" (db+log), "db", "log", or "off" per category
	AuditLogAuth  string
	AuditLogAdmin string

	// Google OAuth sign-in (optional; routes are only mounted when set)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	OAuthStateKey      string // Signing key for the OAuth state cookie

	// Background workers
	BadgeRecomputeSchedule string // Cron expression; blank means nightly at 02:00
	CacheSweepSchedule     string // Cron expression; blank means hourly
}
