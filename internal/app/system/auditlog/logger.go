// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/covenantapps/flockhub/internal/app/store/audit"
)

// Config controls where each event category goes.
// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only),
// "off" (disabled).
type Config struct {
	Auth  string
	Admin string
}

// Logger records audit events to MongoDB (via audit.Store) and to structured
// logs (via zap). A nil *Logger is a valid no-op, which keeps handler tests
// free of audit wiring.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates an audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// Log records an audit event according to its category's config setting.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := "all"
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" || setting == "" {
		l.logToZap(event)
	}
	if setting == "all" || setting == "db" || setting == "" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

// AuthEvent records an authentication event tied to an HTTP request.
func (l *Logger) AuthEvent(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, success bool, failureReason string) {
	if l == nil {
		return
	}
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        userID,
		IP:            clientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       success,
		FailureReason: failureReason,
	})
}

// AdminEvent records an administrative action performed by actorID.
func (l *Logger) AdminEvent(ctx context.Context, r *http.Request, eventType string, actorID primitive.ObjectID, details map[string]string) {
	if l == nil {
		return
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   &actorID,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   details,
	})
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// clientIP extracts the client IP, honoring reverse-proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
