// internal/app/system/txn/txn.go
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// IsNotSupported reports whether err means the deployment cannot run
// multi-document transactions (standalone server, no replica set). Callers
// use it to fall back to sequential writes.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	pairs := [][2]string{
		{"transaction", "replica set"},
		{"session", "not supported"},
		{"transaction", "session"},
		{"illegal", "operation"},
	}
	for _, p := range pairs {
		if strings.Contains(msg, p[0]) && strings.Contains(msg, p[1]) {
			return true
		}
	}
	return false
}

// Run executes fn inside a transaction when the deployment supports one.
// On deployments without transaction support fn runs once, sequentially,
// against the plain context; partial failure then leaves whatever fn already
// wrote, which callers must tolerate. A nil client skips the session and
// runs fn directly.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	if client == nil {
		return fn(ctx)
	}

	session, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			log.Warn("transactions unavailable, running sequentially", zap.Error(err))
			return fn(ctx)
		}
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Warn("transactions unavailable, running sequentially", zap.Error(err))
		return fn(ctx)
	}
	return err
}
