package store

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	s, err := NewRedis(Config{
		TTL: time.Minute,
		Redis: &RedisConfig{
			Addr: mr.Addr(),
		},
	})
	if err != nil {
		t.Fatalf("NewRedis error: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close(ctx)
	})

	rec := SessionRecord{
		SessionID:   "redis-session",
		Credentials: []byte(`{"token":"abc"}`),
		State:       "authenticated",
	}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := s.Load(ctx, rec.SessionID)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.SessionID != rec.SessionID || got.State != rec.State {
		t.Fatalf("unexpected record: %+v", got)
	}

	ids, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(ids) != 1 || ids[0] != rec.SessionID {
		t.Fatalf("unexpected list: %v", ids)
	}

	if err := s.Delete(ctx, rec.SessionID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := s.Load(ctx, rec.SessionID); err == nil {
		t.Fatalf("expected missing session after delete")
	}
}

func TestRedisStoreRequiresAddr(t *testing.T) {
	if _, err := NewRedis(Config{Redis: &RedisConfig{}}); err == nil {
		t.Fatalf("expected error for missing address")
	}
	if _, err := NewRedis(Config{}); err == nil {
		t.Fatalf("expected error for missing redis config")
	}
}
