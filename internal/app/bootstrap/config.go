// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"

	"github.com/covenantapps/flockhub/internal/app/system/cache"
)

// appConfigKeys defines the configuration keys for FlockHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_key, etc.
//   - Environment variables: FLOCKHUB_MONGO_URI, FLOCKHUB_SESSION_KEY, etc.
//   - Command-line flags: --mongo_uri, --session_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "flock_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Snapshot cache
	{Name: "cache_path", Default: "./data/cache", Desc: "Snapshot cache directory (blank for in-memory)"},
	{Name: "cache_ttl", Default: "30m", Desc: "Snapshot cache TTL (e.g., 30m, 1h)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "google_redirect_url", Default: "", Desc: "Google OAuth2 callback URL (e.g., https://flockhub.example/auth/google/callback)"},
	{Name: "oauth_state_key", Default: "dev-only-state-key-0123456789ABCDEF", Desc: "Signing key for the OAuth state cookie"},

	// Background workers
	{Name: "badge_recompute_schedule", Default: "0 2 * * *", Desc: "Cron schedule for the nightly badge recompute"},
	{Name: "cache_sweep_schedule", Default: "@hourly", Desc: "Cron schedule for the cache sweep"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have access
// to configuration before any backends or handlers are built. WAFFLE's
// config.LoadWithAppConfig merges .env files, config files, environment
// variables (WAFFLE_* for core, FLOCKHUB_* for app), and command-line flags,
// with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "FLOCKHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionDomain: appValues.String("session_domain"),

		CachePath: appValues.String("cache_path"),
		CacheTTL:  appValues.Duration("cache_ttl", cache.DefaultTTL),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		GoogleRedirectURL:  appValues.String("google_redirect_url"),
		OAuthStateKey:      appValues.String("oauth_state_key"),

		BadgeRecomputeSchedule: appValues.String("badge_recompute_schedule"),
		CacheSweepSchedule:     appValues.String("cache_sweep_schedule"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// FlockHub validates the MongoDB URI format to catch configuration errors
// early, before attempting to connect, and insists that a partially
// configured Google sign-in is either completed or removed.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	googleSet := 0
	for _, v := range []string{appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.GoogleRedirectURL} {
		if v != "" {
			googleSet++
		}
	}
	if googleSet != 0 && googleSet != 3 {
		return fmt.Errorf("google sign-in needs google_client_id, google_client_secret, and google_redirect_url all set (or none)")
	}

	if appCfg.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %s", appCfg.CacheTTL)
	}

	return nil
}
