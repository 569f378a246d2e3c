package infra

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, ok, _ := s.Get(ctx, "missing"); ok {
		t.Error("Get on empty store: got ok=true")
	}

	val := []byte("payload")
	if err := s.Set(ctx, "k", val, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val[0] = 'X'

	got, ok, err := s.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get: got ok=%v err=%v", ok, err)
	}
	if string(got) != "payload" {
		t.Errorf("Get: got %q, want %q", got, "payload")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	_ = s.Set(ctx, "short", []byte("a"), time.Second)
	_ = s.Set(ctx, "long", []byte("b"), time.Hour)

	now = now.Add(2 * time.Second)
	if _, ok, _ := s.Get(ctx, "short"); ok {
		t.Error("expired entry should not be returned")
	}
	if _, ok, _ := s.Get(ctx, "long"); !ok {
		t.Error("live entry should be returned")
	}

	s.Cleanup()
	if s.Len() != 1 {
		t.Errorf("Len after Cleanup: got %d, want 1", s.Len())
	}
}

func TestMemoryStoreClose(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Set(ctx, "k", []byte("v"), time.Minute)

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len after Close: got %d, want 0", s.Len())
	}
}

func TestRunCleanupStopsOnCancel(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunCleanup(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunCleanup did not return after cancel")
	}
}

func TestNewRedisStoreBadURL(t *testing.T) {
	if _, err := NewRedisStore(context.Background(), "not-a-redis-url", "cd:"); err == nil {
		t.Error("NewRedisStore with bad url: want error")
	}
}

var _ Store = (*MemoryStore)(nil)
var _ Store = (*RedisStore)(nil)
