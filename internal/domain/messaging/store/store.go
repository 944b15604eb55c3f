// Package store persists WhatsApp session credentials so a restart can
// resume an authenticated session without a new QR scan.
package store

import (
	"context"
	"time"
)

// SessionRecord is the opaque credential blob handed over by the bridge
// after authentication, plus bookkeeping fields.
type SessionRecord struct {
	SessionID   string     `json:"session_id" gorm:"uniqueIndex;not null"`
	Credentials []byte     `json:"credentials"`
	State       string     `json:"state"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Store defines the behaviour required by the messaging client.
type Store interface {
	Save(ctx context.Context, rec SessionRecord) error
	Load(ctx context.Context, sessionID string) (SessionRecord, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

// Config describes the high level store selection parameters.
type Config struct {
	Driver string
	TTL    time.Duration
	Redis  *RedisConfig
	SQLite *SQLiteConfig
	Memory *MemoryConfig
}

// MemoryConfig holds in-memory tuning knobs.
type MemoryConfig struct {
	GCInterval time.Duration
}

// SQLiteConfig provides the database dependency.
type SQLiteConfig struct {
	DSN string
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}
