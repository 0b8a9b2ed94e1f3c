package fanout

import (
	"sync"
	"time"

	"github.com/gaswatch-project/gaswatch/internal/alerting"
	"github.com/gaswatch-project/gaswatch/internal/push"
)

type PassStatus string

const (
	PassCompleted          PassStatus = "completed"
	PassConfigurationError PassStatus = "configuration_error"
	PassLoadError          PassStatus = "load_error"
	PassEncodingError      PassStatus = "encoding_error"
)

// Report summarizes one fan-out pass. It only feeds logs and metrics.
type Report struct {
	PassID        string
	Event         alerting.AlertEvent
	Status        PassStatus
	Err           error
	Attempted     int
	Delivered     int
	Gone          int
	Failed        int
	PruneFailures int
	Duration      time.Duration
}

type tally struct {
	mu     sync.Mutex
	report *Report
}

func (t *tally) record(outcome push.Outcome, pruneErr error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.report.Attempted++
	switch outcome {
	case push.Delivered:
		t.report.Delivered++
	case push.Gone:
		t.report.Gone++
		if pruneErr != nil {
			t.report.PruneFailures++
		}
	default:
		t.report.Failed++
	}
}
