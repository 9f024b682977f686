package types

import (
	"fmt"
	"time"
)

// Severity is the display level of an alert
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Valid reports whether s is one of the known severities
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return true
	}
	return false
}

// ParseSeverity converts a raw level string into a Severity
func ParseSeverity(raw string) (Severity, error) {
	s := Severity(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown severity %q", raw)
	}
	return s, nil
}

// Alert is a persisted alert record.
// OccurredAt is the synthesis time, CreatedAt the store insertion time.
type Alert struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OccurredAt time.Time `gorm:"column:time;not null" json:"occurredAt"`
	Message    string    `gorm:"size:255;not null" json:"message"`
	Severity   Severity  `gorm:"column:level;size:16;not null;default:info;index" json:"severity"`
	DeviceRef  *string   `gorm:"column:device_id;size:50" json:"deviceId"`
	AreaRef    *string   `gorm:"column:area_id;size:50" json:"areaId"`
	IsRead     bool      `gorm:"column:is_read;not null;default:false" json:"isRead"`
	CreatedAt  time.Time `gorm:"column:created_at;index" json:"createdAt"`
}

// TableName keeps the table name used by existing deployments
func (Alert) TableName() string {
	return "alerts"
}

// AlertStats is the on-read aggregate over stored alerts
type AlertStats struct {
	Total   int64              `json:"total"`
	Unread  int64              `json:"unread"`
	ByLevel map[Severity]int64 `json:"byLevel"`
}

// SortDirection orders range queries
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// String returns the SQL keyword for the direction
func (d SortDirection) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// StrPtr returns a pointer to s, or nil when s is empty
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
