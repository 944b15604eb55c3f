package store

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestFactorySelectsDriver(t *testing.T) {
	ctx := context.Background()

	s, err := New(Config{}, Dependencies{})
	if err != nil {
		t.Fatalf("default driver error: %v", err)
	}
	_ = s.Close(ctx)

	if _, err := New(Config{Driver: "bolt"}, Dependencies{}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
	if _, err := New(Config{Driver: DriverSQLite}, Dependencies{}); err == nil {
		t.Fatalf("expected error for sqlite without database handle")
	}
}

func TestSQLiteStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	s, err := New(Config{Driver: DriverSQLite, TTL: time.Minute}, Dependencies{SQLiteDB: db})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close(ctx)
	})

	rec := SessionRecord{
		SessionID:   "sqlite-session",
		Credentials: []byte(`{"token":"abc"}`),
		State:       "ready",
	}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := s.Load(ctx, rec.SessionID)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.State != "ready" {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Saving again replaces the row instead of duplicating it.
	rec.State = "disconnected"
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("second Save error: %v", err)
	}
	ids, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected single session, got %v", ids)
	}

	if err := s.Delete(ctx, rec.SessionID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := s.Load(ctx, rec.SessionID); err == nil {
		t.Fatalf("expected missing session after delete")
	}
}
