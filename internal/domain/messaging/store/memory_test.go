package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(Config{
		TTL:    time.Second,
		Memory: &MemoryConfig{GCInterval: 10 * time.Millisecond},
	})
	t.Cleanup(func() {
		_ = s.Close(ctx)
	})

	rec := SessionRecord{
		SessionID:   "session-basic",
		Credentials: []byte(`{"token":"abc"}`),
		State:       "ready",
	}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := s.Load(ctx, rec.SessionID)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got.SessionID != rec.SessionID || string(got.Credentials) != string(rec.Credentials) {
		t.Fatalf("unexpected record: %+v", got)
	}

	ids, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(ids) != 1 || ids[0] != rec.SessionID {
		t.Fatalf("unexpected list: %v", ids)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats["type"] != "memory" || stats["active"] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	if err := s.Delete(ctx, rec.SessionID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := s.Load(ctx, rec.SessionID); err == nil {
		t.Fatalf("expected missing session after delete")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(Config{
		TTL:    20 * time.Millisecond,
		Memory: &MemoryConfig{GCInterval: 5 * time.Millisecond},
	})
	t.Cleanup(func() {
		_ = s.Close(ctx)
	})

	if err := s.Save(ctx, SessionRecord{SessionID: "session-expiring"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if _, err := s.Load(ctx, "session-expiring"); err == nil {
		t.Fatalf("expected expired session")
	}
}

func TestMemoryStoreRejectsEmptyID(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(Config{})
	t.Cleanup(func() {
		_ = s.Close(ctx)
	})

	if err := s.Save(ctx, SessionRecord{}); err == nil {
		t.Fatalf("expected error for empty session id")
	}
}
