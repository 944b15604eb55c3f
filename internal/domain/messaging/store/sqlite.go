package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// sessionRow is the gorm model backing the sqlite driver.
type sessionRow struct {
	ID          uint       `gorm:"primaryKey"`
	SessionID   string     `gorm:"uniqueIndex;not null"`
	Credentials []byte     `gorm:"type:blob"`
	State       string     `gorm:"index"`
	UpdatedAt   time.Time  ``
	ExpiresAt   *time.Time ``
}

func (sessionRow) TableName() string {
	return "messaging_sessions"
}

type sqliteStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewSQLite builds a SQLite-backed session store.
func NewSQLite(db *gorm.DB, cfg Config) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	if err := db.AutoMigrate(&sessionRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session table: %w", err)
	}
	return &sqliteStore{
		db:  db,
		ttl: cfg.TTL,
	}, nil
}

func (s *sqliteStore) Save(ctx context.Context, rec SessionRecord) error {
	if rec.SessionID == "" {
		return fmt.Errorf("session id required")
	}
	now := time.Now()
	rec.UpdatedAt = now
	if rec.ExpiresAt == nil && s.ttl > 0 {
		exp := now.Add(s.ttl)
		rec.ExpiresAt = &exp
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", rec.SessionID).Delete(&sessionRow{}).Error; err != nil {
			return err
		}
		row := &sessionRow{
			SessionID:   rec.SessionID,
			Credentials: rec.Credentials,
			State:       rec.State,
			UpdatedAt:   rec.UpdatedAt,
			ExpiresAt:   rec.ExpiresAt,
		}
		return tx.Create(row).Error
	})
}

func (s *sqliteStore) Load(ctx context.Context, sessionID string) (SessionRecord, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return SessionRecord{}, fmt.Errorf("session not found: %s", sessionID)
	}
	if err != nil {
		return SessionRecord{}, err
	}
	if row.ExpiresAt != nil && time.Now().After(*row.ExpiresAt) {
		_ = s.Delete(ctx, sessionID)
		return SessionRecord{}, fmt.Errorf("session expired: %s", sessionID)
	}
	return SessionRecord{
		SessionID:   row.SessionID,
		Credentials: row.Credentials,
		State:       row.State,
		UpdatedAt:   row.UpdatedAt,
		ExpiresAt:   row.ExpiresAt,
	}, nil
}

func (s *sqliteStore) Delete(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&sessionRow{}).Error
}

func (s *sqliteStore) List(ctx context.Context) ([]string, error) {
	var rows []sessionRow
	if err := s.db.WithContext(ctx).Select("session_id", "expires_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.ExpiresAt == nil || now.Before(*row.ExpiresAt) {
			ids = append(ids, row.SessionID)
		}
	}
	return ids, nil
}

func (s *sqliteStore) Stats(ctx context.Context) (map[string]any, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&sessionRow{}).Count(&total).Error; err != nil {
		return nil, err
	}
	return map[string]any{
		"type":        "sqlite",
		"total":       total,
		"ttl_seconds": int(s.ttl.Seconds()),
	}, nil
}

func (s *sqliteStore) Close(context.Context) error {
	return nil
}
