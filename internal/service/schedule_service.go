package service

import (
	"context"
	"fmt"
	"log"

	"dataviz-sync/internal/middleware"
	"dataviz-sync/internal/model"
	"dataviz-sync/internal/repository"
	"dataviz-sync/internal/scheduler"
	"dataviz-sync/internal/utils"
)

const (
	ScheduleStateScheduled    = "scheduled"
	ScheduleStateDisabled     = "disabled"
	ScheduleStateNotScheduled = "not_scheduled"
)

type ScheduleRequest struct {
	IntervalType  model.IntervalKind `json:"interval_type" validate:"required"`
	IntervalValue int                `json:"interval_value"`
	CustomCron    string             `json:"custom_cron"`
	Enabled       *bool              `json:"enabled"`
}

// ScheduleStatus is the view of a connection's schedule returned to callers
type ScheduleStatus struct {
	Status   string          `json:"status"`
	Schedule *model.Schedule `json:"schedule"`
}

type ScheduleService interface {
	// SetSchedule installs, replaces, or disables the recurring sync for a
	// connection and persists the descriptor on its record
	SetSchedule(ctx context.Context, id string, req *ScheduleRequest) (*ScheduleStatus, error)

	// GetSchedule reports the persisted schedule and its live next-run time
	GetSchedule(ctx context.Context, id string) (*ScheduleStatus, error)

	// RemoveSchedule drops both the live trigger and the persisted descriptor
	RemoveSchedule(ctx context.Context, id string) error

	// RestoreAll rebuilds live triggers for every enabled persisted schedule;
	// returns how many were restored
	RestoreAll(ctx context.Context) (int, error)
}

type scheduleService struct {
	repo repository.ConnectionRepository
	cron *scheduler.Scheduler
}

// NewScheduleService creates a new instance of ScheduleService
func NewScheduleService(repo repository.ConnectionRepository, cron *scheduler.Scheduler) ScheduleService {
	return &scheduleService{
		repo: repo,
		cron: cron,
	}
}

func (s *scheduleService) SetSchedule(ctx context.Context, id string, req *ScheduleRequest) (*ScheduleStatus, error) {
	conn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	// A disabled request clears any live trigger and persists no schedule.
	// It needs no interval fields, so nothing is validated here.
	if !enabled {
		s.cron.Remove(conn.ID)
		if err := s.repo.SetSchedule(ctx, conn.ID, nil); err != nil {
			return nil, fmt.Errorf("failed to clear schedule: %w", err)
		}
		middleware.SetScheduledJobs(s.cron.Count())
		return &ScheduleStatus{Status: ScheduleStateDisabled, Schedule: nil}, nil
	}

	schedule := &model.Schedule{
		IntervalType:  req.IntervalType,
		IntervalValue: req.IntervalValue,
		CustomCron:    req.CustomCron,
		Enabled:       true,
	}
	schedule.Description = scheduler.Describe(schedule)

	nextRun, err := s.cron.Register(conn.ID, schedule)
	if err != nil {
		return nil, err
	}
	schedule.NextRun = nextRun

	if err := s.repo.SetSchedule(ctx, conn.ID, schedule); err != nil {
		s.cron.Remove(conn.ID)
		return nil, fmt.Errorf("failed to persist schedule: %w", err)
	}

	middleware.SetScheduledJobs(s.cron.Count())

	return &ScheduleStatus{Status: ScheduleStateScheduled, Schedule: schedule}, nil
}

func (s *scheduleService) GetSchedule(ctx context.Context, id string) (*ScheduleStatus, error) {
	conn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if conn.Schedule == nil || !conn.Schedule.Enabled {
		return &ScheduleStatus{Status: ScheduleStateNotScheduled, Schedule: nil}, nil
	}

	schedule := *conn.Schedule
	if next, ok := s.cron.NextRun(conn.ID); ok {
		schedule.NextRun = next
	}
	return &ScheduleStatus{Status: ScheduleStateScheduled, Schedule: &schedule}, nil
}

func (s *scheduleService) RemoveSchedule(ctx context.Context, id string) error {
	conn, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	s.cron.Remove(conn.ID)
	if err := s.repo.SetSchedule(ctx, conn.ID, nil); err != nil {
		return fmt.Errorf("failed to clear schedule: %w", err)
	}

	middleware.SetScheduledJobs(s.cron.Count())
	return nil
}

func (s *scheduleService) RestoreAll(ctx context.Context) (int, error) {
	connections, err := s.repo.ListScheduled(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list scheduled connections: %w", err)
	}

	restored := 0
	for _, conn := range connections {
		nextRun, err := s.cron.Register(conn.ID, conn.Schedule)
		if err != nil {
			// A descriptor that no longer parses must not block startup
			log.Printf("scheduler: skipping connection %s: %v", conn.ID, err)
			continue
		}

		conn.Schedule.NextRun = nextRun
		if err := s.repo.SetSchedule(ctx, conn.ID, conn.Schedule); err != nil {
			log.Printf("scheduler: failed to refresh next run for %s: %v", conn.ID, err)
		}
		restored++
	}

	middleware.SetScheduledJobs(s.cron.Count())
	return restored, nil
}

func (s *scheduleService) load(ctx context.Context, id string) (*model.Connection, error) {
	if !utils.IsValidUUID(id) {
		return nil, repository.ErrInvalidUUID
	}
	return s.repo.GetByID(ctx, id)
}
