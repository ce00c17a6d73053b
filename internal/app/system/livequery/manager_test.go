package livequery

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/covenantapps/flockhub/internal/app/system/cache"
	"github.com/covenantapps/flockhub/internal/app/system/connectivity"
)

type streamEvent struct {
	records []Record
	err     error
}

// fakeStream replays scripted events; once the script runs out it blocks
// until the subscription is cancelled.
type fakeStream struct {
	events chan streamEvent
}

func newFakeStream(events ...streamEvent) *fakeStream {
	ch := make(chan streamEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	return &fakeStream{events: ch}
}

func (s *fakeStream) Next(ctx context.Context) ([]Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ev := <-s.events:
		return ev.records, ev.err
	}
}

func (s *fakeStream) Close(ctx context.Context) error { return nil }

type openResult struct {
	stream *fakeStream
	err    error
}

// fakeSource hands out scripted streams in order. An exhausted script fails
// every further Open with a transient error.
type fakeSource struct {
	mu    sync.Mutex
	queue []openResult
	opens int
}

func (s *fakeSource) Open(ctx context.Context, collection string, opts Options) (Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	if len(s.queue) == 0 {
		return nil, io.EOF
	}
	r := s.queue[0]
	s.queue = s.queue[1:]
	if r.err != nil {
		return nil, r.err
	}
	return r.stream, nil
}

func (s *fakeSource) openCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

func newTestManager(t *testing.T, src Source) (*Manager, *cache.Cache, *connectivity.Hub) {
	t.Helper()
	c, err := cache.Open("", 0, zap.NewNop())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	hub := connectivity.NewHub(zap.NewNop())
	m := NewManager(src, c, hub, zap.NewNop())
	m.retryDelay = 5 * time.Millisecond
	t.Cleanup(m.Close)
	return m, c, hub
}

func awaitUpdate(t *testing.T, ch <-chan []Record) []Record {
	t.Helper()
	select {
	case recs := <-ch:
		return recs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a snapshot")
		return nil
	}
}

func awaitError(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the subscription error")
		return nil
	}
}

func TestSubscribe_DeliversSnapshots(t *testing.T) {
	first := []Record{{"id": "a1", "name": "Ama"}}
	second := []Record{{"id": "a1", "name": "Ama"}, {"id": "b2", "name": "Kofi"}}
	src := &fakeSource{queue: []openResult{
		{stream: newFakeStream(streamEvent{records: first}, streamEvent{records: second})},
	}}
	m, c, _ := newTestManager(t, src)

	updates := make(chan []Record, 8)
	m.Subscribe("members", Options{}, func(recs []Record) { updates <- recs }, func(err error) {
		t.Errorf("unexpected subscription error: %v", err)
	})

	if got := awaitUpdate(t, updates); len(got) != 1 {
		t.Fatalf("initial snapshot: got %d records, want 1", len(got))
	}
	if got := awaitUpdate(t, updates); len(got) != 2 {
		t.Fatalf("refreshed snapshot: got %d records, want 2", len(got))
	}

	var cached []Record
	if !c.Get(cache.Key("members", Options{}), &cached) {
		t.Fatal("latest snapshot was not cached")
	}
	if len(cached) != 2 {
		t.Errorf("cached snapshot: got %d records, want 2", len(cached))
	}
}

func TestSubscribe_TransientFailureServesCacheThenReconnects(t *testing.T) {
	first := []Record{{"id": "a1", "name": "Ama"}}
	second := []Record{{"id": "a1", "name": "Ama Mensah"}}
	src := &fakeSource{queue: []openResult{
		{stream: newFakeStream(streamEvent{records: first}, streamEvent{err: io.EOF})},
		{stream: newFakeStream(streamEvent{records: second})},
	}}
	m, _, hub := newTestManager(t, src)

	transitions := make(chan connectivity.Status, 8)
	cancel := hub.Subscribe(func(s connectivity.Status) { transitions <- s })
	defer cancel()

	updates := make(chan []Record, 8)
	m.Subscribe("members", Options{}, func(recs []Record) { updates <- recs }, func(err error) {
		t.Errorf("unexpected subscription error: %v", err)
	})

	awaitUpdate(t, updates) // live snapshot

	// The outage replays the cached snapshot before reconnecting.
	replay := awaitUpdate(t, updates)
	if len(replay) != 1 || replay[0]["name"] != "Ama" {
		t.Errorf("cached replay: got %v", replay)
	}

	fresh := awaitUpdate(t, updates)
	if len(fresh) != 1 || fresh[0]["name"] != "Ama Mensah" {
		t.Errorf("post-reconnect snapshot: got %v", fresh)
	}

	select {
	case s := <-transitions:
		if s != connectivity.Offline {
			t.Errorf("first transition: got %v, want offline", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no offline transition observed")
	}
	select {
	case s := <-transitions:
		if s != connectivity.Online {
			t.Errorf("second transition: got %v, want online", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no online transition observed")
	}
}

func TestSubscribe_PermanentErrorStopsImmediately(t *testing.T) {
	permanent := errors.New("unauthorized")
	src := &fakeSource{queue: []openResult{{err: permanent}}}
	m, _, _ := newTestManager(t, src)

	errs := make(chan error, 1)
	m.Subscribe("members", Options{}, func([]Record) {
		t.Error("no snapshot expected")
	}, func(err error) { errs <- err })

	if err := awaitError(t, errs); !errors.Is(err, permanent) {
		t.Errorf("got %v, want the permanent error", err)
	}

	time.Sleep(50 * time.Millisecond)
	if n := src.openCount(); n != 1 {
		t.Errorf("permanent errors must not retry: %d opens", n)
	}
}

func TestSubscribe_RetryBudgetExhausted(t *testing.T) {
	src := &fakeSource{} // every Open fails transiently
	m, _, _ := newTestManager(t, src)
	m.maxRetries = 2

	errs := make(chan error, 1)
	m.Subscribe("members", Options{}, func([]Record) {}, func(err error) { errs <- err })

	if err := awaitError(t, errs); !errors.Is(err, io.EOF) {
		t.Errorf("terminal error should wrap the stream failure, got %v", err)
	}
	if n := src.openCount(); n != 3 {
		t.Errorf("got %d opens, want 3 (initial attempt plus 2 retries)", n)
	}
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	src := &fakeSource{queue: []openResult{
		{stream: newFakeStream(streamEvent{records: []Record{{"id": "a1"}}})},
	}}
	m, _, _ := newTestManager(t, src)

	updates := make(chan []Record, 8)
	unsubscribe := m.Subscribe("members", Options{}, func(recs []Record) { updates <- recs }, func(err error) {
		t.Errorf("unexpected subscription error: %v", err)
	})

	awaitUpdate(t, updates)
	unsubscribe()
	unsubscribe() // second call is a no-op

	select {
	case recs := <-updates:
		t.Errorf("update after unsubscribe: %v", recs)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClose_StopsAllSubscriptions(t *testing.T) {
	src := &fakeSource{queue: []openResult{
		{stream: newFakeStream()},
		{stream: newFakeStream()},
	}}
	m, _, _ := newTestManager(t, src)

	m.Subscribe("members", Options{}, func([]Record) {}, func(error) {})
	m.Subscribe("visitors", Options{}, func([]Record) {}, func(error) {})

	done := make(chan struct{})
	go func() {
		m.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	// Subscriptions after Close never start.
	m.Subscribe("members", Options{}, func([]Record) {
		t.Error("subscription started after Close")
	}, func(error) {})
	time.Sleep(20 * time.Millisecond)
}
