// internal/app/system/livequery/source.go
package livequery

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record is one document in a snapshot, keyed by field name. The store's
// "_id" is always presented as "id" in hex form so handlers and clients never
// see driver types.
type Record map[string]any

// SortField is one sort criterion. Order matters, so Options carries a slice
// rather than a map.
type SortField struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// Options narrows a collection subscription to a filtered, ordered window.
// The zero value subscribes to the whole collection.
type Options struct {
	Filter map[string]any `json:"filter,omitempty"`
	Sort   []SortField    `json:"sort,omitempty"`
	Limit  int64          `json:"limit,omitempty"`
}

// Source opens live streams over a backing store. The manager depends on this
// rather than on the driver so tests can script stream behavior.
type Source interface {
	Open(ctx context.Context, collection string, opts Options) (Stream, error)
}

// Stream delivers full result-set snapshots. The first Next returns the
// initial snapshot; each later Next blocks until the underlying data changes
// and then returns the refreshed snapshot.
type Stream interface {
	Next(ctx context.Context) ([]Record, error)
	Close(ctx context.Context) error
}

// normalize rewrites the store identifier into the wire shape.
func normalize(rec Record) Record {
	v, ok := rec["_id"]
	if !ok {
		return rec
	}
	if oid, isOID := v.(primitive.ObjectID); isOID {
		rec["id"] = oid.Hex()
	} else {
		rec["id"] = fmt.Sprint(v)
	}
	delete(rec, "_id")
	return rec
}
