package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type IntervalKind string

const (
	IntervalHourly IntervalKind = "hourly"
	IntervalDaily  IntervalKind = "daily"
	IntervalWeekly IntervalKind = "weekly"
	IntervalCustom IntervalKind = "custom"
)

// Schedule is the recurring-sync descriptor embedded in a Connection. The live
// timer state is never persisted, only this description; enabled schedules are
// rebuilt into live triggers on process startup.
type Schedule struct {
	IntervalType  IntervalKind `json:"interval_type"`
	IntervalValue int          `json:"interval_value,omitempty"`
	CustomCron    string       `json:"custom_cron,omitempty"`
	Enabled       bool         `json:"enabled"`
	Description   string       `json:"description,omitempty"`
	NextRun       *time.Time   `json:"next_run,omitempty"`
}

// Value implements driver.Valuer interface for GORM
func (s *Schedule) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner interface for GORM
func (s *Schedule) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Schedule", value)
	}

	return json.Unmarshal(bytes, s)
}
