// internal/app/system/livequery/manager.go
package livequery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/covenantapps/flockhub/internal/app/system/cache"
	"github.com/covenantapps/flockhub/internal/app/system/connectivity"
)

const (
	defaultRetryDelay = 3 * time.Second
	defaultMaxRetries = 5
)

// UpdateFunc receives each fresh snapshot for a subscription.
type UpdateFunc func(records []Record)

// ErrorFunc receives the terminal error when a subscription gives up.
type ErrorFunc func(err error)

// Manager owns live subscriptions over a Source. Each subscription runs its
// own goroutine: snapshots are cached and pushed to the subscriber; transient
// stream failures flip connectivity to Offline, replay the cached snapshot,
// and reconnect with a fixed delay up to the retry cap. Permanent failures
// and an exhausted retry budget end the subscription through its ErrorFunc.
type Manager struct {
	src   Source
	cache *cache.Cache
	hub   *connectivity.Hub
	log   *zap.Logger

	retryDelay time.Duration
	maxRetries int

	mu     sync.Mutex
	subs   map[int]context.CancelFunc
	nextID int
	closed bool
	wg     sync.WaitGroup
}

// NewManager wires a manager over the given source, cache, and hub.
func NewManager(src Source, c *cache.Cache, hub *connectivity.Hub, logger *zap.Logger) *Manager {
	return &Manager{
		src:        src,
		cache:      c,
		hub:        hub,
		log:        logger,
		retryDelay: defaultRetryDelay,
		maxRetries: defaultMaxRetries,
		subs:       make(map[int]context.CancelFunc),
	}
}

// Subscribe opens a live subscription on a collection. onUpdate fires with the
// initial snapshot and again after every change; onError fires at most once,
// when the subscription ends for any reason other than unsubscribing. The
// returned func cancels the subscription and is safe to call more than once.
func (m *Manager) Subscribe(collection string, opts Options, onUpdate UpdateFunc, onError ErrorFunc) (unsubscribe func()) {
	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return func() {}
	}
	id := m.nextID
	m.nextID++
	m.subs[id] = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(ctx, collection, opts, onUpdate, onError)

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// Close cancels every live subscription and waits for their goroutines.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	for _, cancel := range m.subs {
		cancel()
	}
	m.subs = make(map[int]context.CancelFunc)
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context, collection string, opts Options, onUpdate UpdateFunc, onError ErrorFunc) {
	defer m.wg.Done()

	key := cache.Key(collection, opts)
	attempts := 0
	servedCached := false

	for {
		if ctx.Err() != nil {
			return
		}

		stream, err := m.src.Open(ctx, collection, opts)
		if err == nil {
			err = m.consume(ctx, stream, key, &attempts, &servedCached, onUpdate)
			_ = stream.Close(context.Background())
		}
		if ctx.Err() != nil {
			return
		}
		if !m.recover(ctx, collection, key, err, &attempts, &servedCached, onUpdate, onError) {
			return
		}
	}
}

// consume pushes snapshots until the stream fails. Every delivered snapshot
// resets the retry budget and marks the backend Online.
func (m *Manager) consume(ctx context.Context, stream Stream, key string, attempts *int, servedCached *bool, onUpdate UpdateFunc) error {
	for {
		records, err := stream.Next(ctx)
		if err != nil {
			return err
		}

		*attempts = 0
		*servedCached = false
		m.hub.Set(connectivity.Online)

		if err := m.cache.Put(key, records); err != nil {
			m.log.Warn("snapshot cache write failed", zap.String("key", key), zap.Error(err))
		}
		onUpdate(records)
	}
}

// recover decides whether the loop reconnects. It returns false when the
// subscription is over.
func (m *Manager) recover(ctx context.Context, collection, key string, err error, attempts *int, servedCached *bool, onUpdate UpdateFunc, onError ErrorFunc) bool {
	if !IsTransient(err) {
		m.log.Error("subscription ended",
			zap.String("collection", collection), zap.Error(err))
		onError(err)
		return false
	}

	m.hub.Set(connectivity.Offline)

	// Bridge the outage with the last known snapshot, once per outage.
	if !*servedCached {
		*servedCached = true
		var cached []Record
		if m.cache.Get(key, &cached) {
			m.log.Info("serving cached snapshot during reconnect",
				zap.String("collection", collection), zap.Int("records", len(cached)))
			onUpdate(cached)
		}
	}

	*attempts++
	if *attempts > m.maxRetries {
		m.log.Error("reconnect budget exhausted",
			zap.String("collection", collection), zap.Int("attempts", m.maxRetries), zap.Error(err))
		onError(fmt.Errorf("live query on %s: gave up after %d reconnect attempts: %w", collection, m.maxRetries, err))
		return false
	}

	m.log.Warn("stream interrupted, reconnecting",
		zap.String("collection", collection), zap.Int("attempt", *attempts), zap.Error(err))

	select {
	case <-ctx.Done():
		return false
	case <-time.After(m.retryDelay):
		return true
	}
}
