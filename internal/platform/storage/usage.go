package storage

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// RequestRecord is one accounted API request.
type RequestRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Method     string    `gorm:"size:8" json:"method"`
	Path       string    `gorm:"index" json:"path"`
	Status     int       `json:"status"`
	Capability string    `gorm:"index" json:"capability"`
	Provider   string    `json:"provider"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (RequestRecord) TableName() string {
	return "request_records"
}

// UsageSummary aggregates the request log for the stats endpoint.
type UsageSummary struct {
	TotalRequests int64            `json:"total_requests"`
	Failed        int64            `json:"failed"`
	ByCapability  map[string]int64 `json:"by_capability"`
	AvgDurationMS float64          `json:"avg_duration_ms"`
}

// UsageStore records served requests in sqlite.
type UsageStore struct {
	db *gorm.DB
}

func NewUsageStore(db *gorm.DB) (*UsageStore, error) {
	if err := db.AutoMigrate(&RequestRecord{}); err != nil {
		return nil, err
	}
	return &UsageStore{db: db}, nil
}

// Record appends one request to the log. Failures here must never
// affect request handling, so callers log and continue.
func (s *UsageStore) Record(ctx context.Context, rec RequestRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

// Summary aggregates everything recorded since the given time. A zero
// time aggregates the whole log.
func (s *UsageStore) Summary(ctx context.Context, since time.Time) (UsageSummary, error) {
	query := s.db.WithContext(ctx).Model(&RequestRecord{})
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	summary := UsageSummary{ByCapability: make(map[string]int64)}
	if err := query.Count(&summary.TotalRequests).Error; err != nil {
		return UsageSummary{}, err
	}
	if summary.TotalRequests == 0 {
		return summary, nil
	}

	failedQuery := s.db.WithContext(ctx).Model(&RequestRecord{}).Where("status >= ?", 400)
	if !since.IsZero() {
		failedQuery = failedQuery.Where("created_at >= ?", since)
	}
	if err := failedQuery.Count(&summary.Failed).Error; err != nil {
		return UsageSummary{}, err
	}

	type bucket struct {
		Capability string
		Count      int64
	}
	var buckets []bucket
	capQuery := s.db.WithContext(ctx).Model(&RequestRecord{}).
		Select("capability, count(*) as count").
		Where("capability <> ''").
		Group("capability")
	if !since.IsZero() {
		capQuery = capQuery.Where("created_at >= ?", since)
	}
	if err := capQuery.Scan(&buckets).Error; err != nil {
		return UsageSummary{}, err
	}
	for _, b := range buckets {
		summary.ByCapability[b.Capability] = b.Count
	}

	avgQuery := s.db.WithContext(ctx).Model(&RequestRecord{}).Select("avg(duration_ms)")
	if !since.IsZero() {
		avgQuery = avgQuery.Where("created_at >= ?", since)
	}
	if err := avgQuery.Scan(&summary.AvgDurationMS).Error; err != nil {
		return UsageSummary{}, err
	}
	return summary, nil
}
