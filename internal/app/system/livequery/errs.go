// internal/app/system/livequery/errs.go
package livequery

import (
	"context"
	"errors"
	"io"
	"net"

	"go.mongodb.org/mongo-driver/mongo"
)

// IsTransient reports whether a stream failure is worth reconnecting over.
// Network drops, timeouts, and resumable server hiccups are transient;
// everything else (bad filter, unauthorized, decode failures) is permanent
// and surfaces to the subscriber as-is.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorLabel("ResumableChangeStreamError") || se.HasErrorLabel("NetworkError")
	}
	var ne net.Error
	return errors.As(err, &ne)
}
