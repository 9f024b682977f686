package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/smartfactory/smartfactory/internal/types"
)

// RecentLimit caps the default alert listing
const RecentLimit = 100

// AlertStore is the GORM-backed alert record store
type AlertStore struct {
	db *gorm.DB
}

// NewAlertStore creates an alert store on db
func NewAlertStore(db *gorm.DB) *AlertStore {
	return &AlertStore{db: db}
}

// Insert persists alert and fills in its id and CreatedAt
func (s *AlertStore) Insert(ctx context.Context, alert *types.Alert) error {
	if alert.Message == "" {
		return fmt.Errorf("alert message is required: %w", ErrInvalid)
	}
	if alert.Severity == "" {
		alert.Severity = types.SeverityInfo
	}
	if !alert.Severity.Valid() {
		return fmt.Errorf("alert severity %q: %w", alert.Severity, ErrInvalid)
	}
	if alert.OccurredAt.IsZero() {
		alert.OccurredAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("inserting alert: %w", err)
	}
	return nil
}

// Count returns the number of stored alerts
func (s *AlertStore) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&types.Alert{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("counting alerts: %w", err)
	}
	return total, nil
}

// FindOrderedByCreatedAt returns up to limit alerts ordered by creation
// time, ties broken by id in the same direction. limit <= 0 means no limit.
func (s *AlertStore) FindOrderedByCreatedAt(ctx context.Context, dir types.SortDirection, limit int) ([]types.Alert, error) {
	q := s.db.WithContext(ctx).
		Order("created_at " + dir.String()).
		Order("id " + dir.String())
	if limit > 0 {
		q = q.Limit(limit)
	}

	var alerts []types.Alert
	if err := q.Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	return alerts, nil
}

// DeleteBatch removes the alerts with the given ids
func (s *AlertStore) DeleteBatch(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Delete(&types.Alert{}, ids).Error; err != nil {
		return fmt.Errorf("deleting %d alerts: %w", len(ids), err)
	}
	return nil
}

// DeleteAll removes every alert and returns how many were deleted
func (s *AlertStore) DeleteAll(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&types.Alert{})
	if res.Error != nil {
		return 0, fmt.Errorf("clearing alerts: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListRecent returns the newest alerts, at most RecentLimit
func (s *AlertStore) ListRecent(ctx context.Context) ([]types.Alert, error) {
	return s.FindOrderedByCreatedAt(ctx, types.Descending, RecentLimit)
}

// ListSince returns alerts created at or after since, newest first
func (s *AlertStore) ListSince(ctx context.Context, since time.Time) ([]types.Alert, error) {
	var alerts []types.Alert
	err := s.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Order("id DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("listing alerts since %s: %w", since.Format(time.RFC3339), err)
	}
	return alerts, nil
}

// Get loads a single alert
func (s *AlertStore) Get(ctx context.Context, id uint) (*types.Alert, error) {
	var alert types.Alert
	if err := s.db.WithContext(ctx).First(&alert, id).Error; err != nil {
		return nil, notFound(err, "alert", id)
	}
	return &alert, nil
}

// MarkRead flags an alert as read
func (s *AlertStore) MarkRead(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&types.Alert{}).Where("id = ?", id).Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("marking alert %d read: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		// Already-read rows may report zero affected rows on mysql
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes one alert, returning ErrNotFound when absent
func (s *AlertStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&types.Alert{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting alert %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("alert %d: %w", id, ErrNotFound)
	}
	return nil
}

// Stats aggregates counts on every call; nothing is cached
func (s *AlertStore) Stats(ctx context.Context) (*types.AlertStats, error) {
	stats := &types.AlertStats{ByLevel: make(map[types.Severity]int64)}
	db := s.db.WithContext(ctx).Model(&types.Alert{})

	if err := db.Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("counting alerts: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&types.Alert{}).Where("is_read = ?", false).Count(&stats.Unread).Error; err != nil {
		return nil, fmt.Errorf("counting unread alerts: %w", err)
	}

	var rows []struct {
		Level types.Severity
		Count int64
	}
	err := s.db.WithContext(ctx).Model(&types.Alert{}).
		Select("level, COUNT(*) AS count").
		Group("level").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("grouping alerts by level: %w", err)
	}
	for _, row := range rows {
		stats.ByLevel[row.Level] = row.Count
	}
	return stats, nil
}
