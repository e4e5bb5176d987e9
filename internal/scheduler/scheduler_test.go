package scheduler

import (
	"errors"
	"testing"
	"time"

	"dataviz-sync/internal/model"
)

func TestJobID(t *testing.T) {
	if got := JobID("abc-123"); got != "sync_abc-123" {
		t.Errorf("JobID = %q, want sync_abc-123", got)
	}
}

func TestTriggerSpecIntervals(t *testing.T) {
	cases := []struct {
		kind  model.IntervalKind
		value int
		want  string
	}{
		{model.IntervalHourly, 1, "@every 1h"},
		{model.IntervalHourly, 6, "@every 6h"},
		{model.IntervalDaily, 1, "@every 24h"},
		{model.IntervalDaily, 3, "@every 72h"},
		{model.IntervalWeekly, 1, "@every 168h"},
		{model.IntervalWeekly, 2, "@every 336h"},
		// Zero and negative values fall back to 1
		{model.IntervalHourly, 0, "@every 1h"},
		{model.IntervalDaily, -5, "@every 24h"},
	}

	for _, tc := range cases {
		spec, err := TriggerSpec(&model.Schedule{IntervalType: tc.kind, IntervalValue: tc.value})
		if err != nil {
			t.Errorf("TriggerSpec(%s, %d) failed: %v", tc.kind, tc.value, err)
			continue
		}
		if spec != tc.want {
			t.Errorf("TriggerSpec(%s, %d) = %q, want %q", tc.kind, tc.value, spec, tc.want)
		}
	}
}

func TestTriggerSpecCustomCron(t *testing.T) {
	spec, err := TriggerSpec(&model.Schedule{IntervalType: model.IntervalCustom, CustomCron: "0 2 * * *"})
	if err != nil {
		t.Fatalf("TriggerSpec failed: %v", err)
	}
	if spec != "0 2 * * *" {
		t.Errorf("custom cron should pass through, got %q", spec)
	}
}

func TestTriggerSpecRejectsBadInput(t *testing.T) {
	cases := []*model.Schedule{
		{IntervalType: model.IntervalCustom},
		{IntervalType: model.IntervalCustom, CustomCron: "not a cron"},
		{IntervalType: "fortnightly"},
	}

	for _, schedule := range cases {
		_, err := TriggerSpec(schedule)
		if err == nil {
			t.Errorf("expected error for %+v", schedule)
			continue
		}
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("expected ConfigError, got %T", err)
		}
	}
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		schedule model.Schedule
		want     string
	}{
		{model.Schedule{IntervalType: model.IntervalHourly, IntervalValue: 1}, "every hour"},
		{model.Schedule{IntervalType: model.IntervalHourly, IntervalValue: 4}, "every 4 hours"},
		{model.Schedule{IntervalType: model.IntervalDaily, IntervalValue: 1}, "every day"},
		{model.Schedule{IntervalType: model.IntervalWeekly, IntervalValue: 2}, "every 2 weeks"},
		{model.Schedule{IntervalType: model.IntervalCustom, CustomCron: "0 2 * * *"}, "cron: 0 2 * * *"},
	}

	for _, tc := range cases {
		if got := Describe(&tc.schedule); got != tc.want {
			t.Errorf("Describe(%+v) = %q, want %q", tc.schedule, got, tc.want)
		}
	}
}

func TestRegisterAndRemove(t *testing.T) {
	s := NewScheduler(func(string) {})

	schedule := &model.Schedule{IntervalType: model.IntervalHourly, IntervalValue: 1, Enabled: true}
	next, err := s.Register("conn-1", schedule)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if next == nil {
		t.Fatal("expected next run time")
	}
	if next.Before(time.Now()) {
		t.Errorf("next run should be in the future, got %v", next)
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 job, got %d", s.Count())
	}

	// Registering again replaces rather than duplicates
	if _, err := s.Register("conn-1", schedule); err != nil {
		t.Fatalf("re-register failed: %v", err)
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 job after replace, got %d", s.Count())
	}

	s.Remove("conn-1")
	if s.Count() != 0 {
		t.Errorf("expected 0 jobs after remove, got %d", s.Count())
	}

	// Removing an unknown connection is a no-op
	s.Remove("conn-unknown")
}

func TestRegisterDisabledRemovesJob(t *testing.T) {
	s := NewScheduler(func(string) {})

	enabled := &model.Schedule{IntervalType: model.IntervalDaily, IntervalValue: 1, Enabled: true}
	if _, err := s.Register("conn-1", enabled); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	disabled := &model.Schedule{IntervalType: model.IntervalDaily, IntervalValue: 1, Enabled: false}
	next, err := s.Register("conn-1", disabled)
	if err != nil {
		t.Fatalf("Register with disabled schedule failed: %v", err)
	}
	if next != nil {
		t.Errorf("disabled schedule should have no next run, got %v", next)
	}
	if s.Count() != 0 {
		t.Errorf("expected 0 jobs, got %d", s.Count())
	}
}

func TestNextRun(t *testing.T) {
	s := NewScheduler(func(string) {})
	s.Start()
	defer s.Stop()

	schedule := &model.Schedule{IntervalType: model.IntervalHourly, IntervalValue: 2, Enabled: true}
	if _, err := s.Register("conn-1", schedule); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	next, ok := s.NextRun("conn-1")
	if !ok {
		t.Fatal("expected next run for registered connection")
	}
	if next == nil || next.Before(time.Now()) {
		t.Errorf("unexpected next run: %v", next)
	}

	if _, ok := s.NextRun("conn-unknown"); ok {
		t.Error("expected no next run for unknown connection")
	}
}
