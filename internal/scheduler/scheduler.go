package scheduler

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"dataviz-sync/internal/model"
)

// SyncFunc runs one sync pass for a connection when its trigger fires
type SyncFunc func(connectionID string)

// ConfigError reports a schedule definition the trigger builder rejects
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// JobID derives the scheduler job identity for a connection
func JobID(connectionID string) string {
	return "sync_" + connectionID
}

// TriggerSpec converts a schedule into a cron spec string.
// Interval kinds map to @every durations, custom passes through a
// standard five-field cron expression.
func TriggerSpec(schedule *model.Schedule) (string, error) {
	switch schedule.IntervalType {
	case model.IntervalHourly, model.IntervalDaily, model.IntervalWeekly:
		value := schedule.IntervalValue
		if value <= 0 {
			value = 1
		}
		hours := value
		switch schedule.IntervalType {
		case model.IntervalDaily:
			hours = value * 24
		case model.IntervalWeekly:
			hours = value * 168
		}
		return fmt.Sprintf("@every %dh", hours), nil
	case model.IntervalCustom:
		if schedule.CustomCron == "" {
			return "", &ConfigError{Message: "custom schedule requires a cron expression"}
		}
		if _, err := cron.ParseStandard(schedule.CustomCron); err != nil {
			return "", &ConfigError{Message: fmt.Sprintf("invalid cron expression %q: %v", schedule.CustomCron, err)}
		}
		return schedule.CustomCron, nil
	default:
		return "", &ConfigError{Message: fmt.Sprintf("unknown interval type: %s", schedule.IntervalType)}
	}
}

// Describe renders a human-readable summary of a schedule
func Describe(schedule *model.Schedule) string {
	value := schedule.IntervalValue
	if value <= 0 {
		value = 1
	}
	switch schedule.IntervalType {
	case model.IntervalHourly:
		if value == 1 {
			return "every hour"
		}
		return fmt.Sprintf("every %d hours", value)
	case model.IntervalDaily:
		if value == 1 {
			return "every day"
		}
		return fmt.Sprintf("every %d days", value)
	case model.IntervalWeekly:
		if value == 1 {
			return "every week"
		}
		return fmt.Sprintf("every %d weeks", value)
	case model.IntervalCustom:
		return fmt.Sprintf("cron: %s", schedule.CustomCron)
	default:
		return string(schedule.IntervalType)
	}
}

// Scheduler owns the cron runner and the per-connection job registry
type Scheduler struct {
	cron    *cron.Cron
	syncFn  SyncFunc
	entries map[string]cron.EntryID
	mutex   sync.Mutex
}

// NewScheduler creates a stopped scheduler; call Start to begin firing jobs
func NewScheduler(syncFn SyncFunc) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		syncFn:  syncFn,
		entries: make(map[string]cron.EntryID),
	}
}

// Start begins the cron runner in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron runner without waiting for running jobs
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Register installs or replaces the sync job for a connection and returns
// the job's next fire time. A disabled schedule removes any existing job.
func (s *Scheduler) Register(connectionID string, schedule *model.Schedule) (*time.Time, error) {
	if schedule == nil || !schedule.Enabled {
		s.Remove(connectionID)
		return nil, nil
	}

	spec, err := TriggerSpec(schedule)
	if err != nil {
		return nil, err
	}
	parsed, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("invalid trigger spec %q: %v", spec, err)}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entryID, exists := s.entries[connectionID]; exists {
		s.cron.Remove(entryID)
		delete(s.entries, connectionID)
	}

	jobID := JobID(connectionID)
	entryID, err := s.cron.AddFunc(spec, func() {
		log.Printf("scheduler: firing job %s", jobID)
		s.syncFn(connectionID)
	})
	if err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("failed to register job %s: %v", jobID, err)}
	}
	s.entries[connectionID] = entryID

	next := parsed.Next(time.Now())
	return &next, nil
}

// Remove drops the sync job for a connection; unknown connections are a no-op
func (s *Scheduler) Remove(connectionID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entryID, exists := s.entries[connectionID]; exists {
		s.cron.Remove(entryID)
		delete(s.entries, connectionID)
	}
}

// NextRun reports the next fire time for a connection's job
func (s *Scheduler) NextRun(connectionID string) (*time.Time, bool) {
	s.mutex.Lock()
	entryID, exists := s.entries[connectionID]
	s.mutex.Unlock()

	if !exists {
		return nil, false
	}
	entry := s.cron.Entry(entryID)
	if !entry.Valid() {
		return nil, false
	}
	next := entry.Next
	return &next, true
}

// Count returns the number of registered jobs
func (s *Scheduler) Count() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.entries)
}
