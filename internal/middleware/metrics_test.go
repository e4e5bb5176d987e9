package middleware

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHelpers(t *testing.T) {
	// Helpers are nil-guarded before initialization
	RecordConnectionTest("mysql", "success")
	RecordSync("mysql", "success", time.Second)
	RecordRowsMaterialized("mysql", 10)
	SetScheduledJobs(1)

	// promauto registers with the default registry, so init exactly once
	InitMetrics()

	RecordConnectionTest("mysql", "success")
	RecordConnectionTest("mysql", "success")
	RecordConnectionTest("mysql", "error")
	RecordSync("postgresql", "error", 250*time.Millisecond)
	RecordRowsMaterialized("mongodb", 42)
	SetScheduledJobs(3)

	m := GetMetrics()
	if got := testutil.ToFloat64(m.ConnectionTests.WithLabelValues("mysql", "success")); got != 2 {
		t.Errorf("expected 2 successful mysql tests, got %v", got)
	}
	if got := testutil.ToFloat64(m.ConnectionTests.WithLabelValues("mysql", "error")); got != 1 {
		t.Errorf("expected 1 failed mysql test, got %v", got)
	}
	if got := testutil.ToFloat64(m.SyncTotal.WithLabelValues("postgresql", "error")); got != 1 {
		t.Errorf("expected 1 failed postgresql sync, got %v", got)
	}
	if got := testutil.ToFloat64(m.RowsMaterialized.WithLabelValues("mongodb")); got != 42 {
		t.Errorf("expected 42 mongodb rows, got %v", got)
	}
	if got := testutil.ToFloat64(m.ScheduledJobs); got != 3 {
		t.Errorf("expected 3 scheduled jobs, got %v", got)
	}
}
