package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	r := New()

	r.Attempt("stoup-ballard", OutcomeRetryable)
	r.Attempt("stoup-ballard", OutcomeSuccess)
	r.Attempt("urban-family", OutcomeFatal)
	r.Failure("urban-family", "Parser Error")
	r.Events("stoup-ballard", 4)
	r.Events("stoup-ballard", 3)
	r.RunFinished(1500*time.Millisecond, time.Unix(1700000000, 0))

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"retryable attempts", testutil.ToFloat64(r.attempts.WithLabelValues("stoup-ballard", OutcomeRetryable)), 1},
		{"success attempts", testutil.ToFloat64(r.attempts.WithLabelValues("stoup-ballard", OutcomeSuccess)), 1},
		{"failures", testutil.ToFloat64(r.failures.WithLabelValues("urban-family", "Parser Error")), 1},
		{"events gauge keeps last value", testutil.ToFloat64(r.events.WithLabelValues("stoup-ballard")), 3},
		{"run duration", testutil.ToFloat64(r.runDuration), 1.5},
		{"last run", testutil.ToFloat64(r.lastRun), 1700000000},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestRecorder_Independent(t *testing.T) {
	a, b := New(), New()
	a.Attempt("x", OutcomeSuccess)

	if got := testutil.CollectAndCount(b.attempts); got != 0 {
		t.Errorf("second recorder has %d attempt series, want 0", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.Attempt("stoup-ballard", OutcomeSuccess)

	path := filepath.Join(t.TempDir(), "atg.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !strings.Contains(string(data), `atg_source_attempts_total{outcome="success",source="stoup-ballard"} 1`) {
		t.Errorf("textfile missing attempts series:\n%s", data)
	}
}
