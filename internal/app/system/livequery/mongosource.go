// internal/app/system/livequery/mongosource.go
package livequery

import (
	"context"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSource opens change-stream backed subscriptions on a database. Each
// change triggers a fresh query so subscribers always see a complete,
// correctly ordered result set instead of raw deltas.
type MongoSource struct {
	db *mongo.Database
}

// NewMongoSource returns a source over db. The database must be on a replica
// set or mongos; standalone servers reject change streams at Open time.
func NewMongoSource(db *mongo.Database) *MongoSource {
	return &MongoSource{db: db}
}

func (s *MongoSource) Open(ctx context.Context, collection string, opts Options) (Stream, error) {
	coll := s.db.Collection(collection)
	cs, err := coll.Watch(ctx, mongo.Pipeline{},
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, err
	}
	return &mongoStream{coll: coll, cs: cs, opts: opts}, nil
}

type mongoStream struct {
	coll   *mongo.Collection
	cs     *mongo.ChangeStream
	opts   Options
	primed bool
}

// Next returns the initial snapshot on the first call, then blocks on the
// change stream and re-queries after each change. A burst of buffered changes
// is drained into a single snapshot.
func (s *mongoStream) Next(ctx context.Context) ([]Record, error) {
	if !s.primed {
		s.primed = true
		return s.snapshot(ctx)
	}

	if !s.cs.Next(ctx) {
		if err := s.cs.Err(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	for s.cs.TryNext(ctx) {
	}
	if err := s.cs.Err(); err != nil {
		return nil, err
	}
	return s.snapshot(ctx)
}

func (s *mongoStream) Close(ctx context.Context) error {
	return s.cs.Close(ctx)
}

func (s *mongoStream) snapshot(ctx context.Context) ([]Record, error) {
	filter := bson.M{}
	for k, v := range s.opts.Filter {
		filter[k] = v
	}

	fo := options.Find()
	if len(s.opts.Sort) > 0 {
		sort := bson.D{}
		for _, f := range s.opts.Sort {
			dir := 1
			if f.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: f.Field, Value: dir})
		}
		fo.SetSort(sort)
	}
	if s.opts.Limit > 0 {
		fo.SetLimit(s.opts.Limit)
	}

	cur, err := s.coll.Find(ctx, filter, fo)
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, normalize(Record(d)))
	}
	return out, nil
}
