package cache

import (
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
)

func openTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := Open("", ttl, zap.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

type snapshot struct {
	Name  string   `json:"name"`
	Dates []string `json:"dates"`
}

func TestCache_RoundTrip(t *testing.T) {
	c := openTestCache(t, time.Minute)

	in := []snapshot{
		{Name: "Sunday Service", Dates: []string{"2025-10-20", "2025-10-27"}},
		{Name: "Midweek", Dates: []string{"2025-10-22"}},
	}
	if err := c.Put("attendance_sessions:abc", in); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var out []snapshot
	if !c.Get("attendance_sessions:abc", &out) {
		t.Fatal("Get: expected hit within TTL")
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip: got %+v, want %+v", out, in)
	}
}

func TestCache_MissOnAbsence(t *testing.T) {
	c := openTestCache(t, time.Minute)

	var out []snapshot
	if c.Get("no-such-key", &out) {
		t.Error("Get: expected miss for absent key")
	}
}

func TestCache_MissAfterExpiry(t *testing.T) {
	c := openTestCache(t, 30*time.Minute)

	if err := c.Put("k", snapshot{Name: "x"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Jump the clock past the TTL.
	c.now = func() time.Time { return time.Now().Add(31 * time.Minute) }

	var out snapshot
	if c.Get("k", &out) {
		t.Error("Get: expected miss after expiry")
	}
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	c := openTestCache(t, time.Minute)

	if err := c.Put("k", snapshot{Name: "x"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Decode into an incompatible shape; must be a miss, not a panic or error.
	var out int
	if c.Get("k", &out) {
		t.Error("Get: expected miss for type-incompatible entry")
	}
}

func TestCache_ClearAllByPrefix(t *testing.T) {
	c := openTestCache(t, time.Minute)

	for _, k := range []string{"members:a", "members:b", "visitors:a"} {
		if err := c.Put(k, snapshot{Name: k}); err != nil {
			t.Fatalf("Put(%s) failed: %v", k, err)
		}
	}

	if err := c.ClearAll("members:"); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}

	var out snapshot
	if c.Get("members:a", &out) || c.Get("members:b", &out) {
		t.Error("members entries should be cleared")
	}
	if !c.Get("visitors:a", &out) {
		t.Error("visitors entry should survive a members clear")
	}
}

func TestKey_StablePerOptions(t *testing.T) {
	type opts struct {
		Status string `json:"status"`
		Limit  int    `json:"limit"`
	}

	a := Key("members", opts{Status: "active", Limit: 50})
	b := Key("members", opts{Status: "active", Limit: 50})
	if a != b {
		t.Errorf("same options must hash to the same key: %q vs %q", a, b)
	}

	c := Key("members", opts{Status: "inactive", Limit: 50})
	if a == c {
		t.Error("different options must hash to different keys")
	}

	d := Key("visitors", opts{Status: "active", Limit: 50})
	if a == d {
		t.Error("different collections must hash to different keys")
	}
}

func TestCache_SweepIsCleanNoOp(t *testing.T) {
	c := openTestCache(t, time.Minute)
	if err := c.Put("sweep:a", snapshot{Name: "x"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := c.Sweep(); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	var out snapshot
	if !c.Get("sweep:a", &out) {
		t.Fatal("live entry lost after sweep")
	}
}
