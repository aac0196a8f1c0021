package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/log"
)

// ConsistencyWarning records a dual-write where one side landed and the
// other did not, leaving Event.carsRegistered and Car.registeredEvents out of
// step until the reconciler runs.
type ConsistencyWarning struct {
	Op      string    `json:"op"`
	EventID string    `json:"eventId"`
	CarID   string    `json:"carId"`
	Detail  string    `json:"detail"`
	Err     error     `json:"-"`
	At      time.Time `json:"at"`
}

func (w *ConsistencyWarning) Error() string {
	return fmt.Sprintf("consistency warning: %s event=%s car=%s: %s: %v", w.Op, w.EventID, w.CarID, w.Detail, w.Err)
}

func (w *ConsistencyWarning) Unwrap() error { return w.Err }

// ConsistencyReporter is the operator channel for consistency warnings.
type ConsistencyReporter interface {
	Report(ctx context.Context, w *ConsistencyWarning)
}

const defaultRecentWarnings = 100

// LogReporter logs each warning and keeps the most recent ones in memory.
type LogReporter struct {
	mu     sync.Mutex
	recent []ConsistencyWarning
	limit  int
	total  int
}

// NewLogReporter returns a reporter that remembers up to limit warnings.
func NewLogReporter(limit int) *LogReporter {
	if limit <= 0 {
		limit = defaultRecentWarnings
	}
	return &LogReporter{limit: limit}
}

// Report implements ConsistencyReporter.
func (r *LogReporter) Report(_ context.Context, w *ConsistencyWarning) {
	if w.At.IsZero() {
		w.At = time.Now().UTC()
	}
	log.Warn(log.CatConsistency, "cross-reference mismatch",
		"op", w.Op, "event_id", w.EventID, "car_id", w.CarID, "detail", w.Detail, "error", w.Err)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.total++
	r.recent = append(r.recent, *w)
	if len(r.recent) > r.limit {
		r.recent = r.recent[len(r.recent)-r.limit:]
	}
}

// Recent returns the retained warnings, oldest first.
func (r *LogReporter) Recent() []ConsistencyWarning {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ConsistencyWarning{}, r.recent...)
}

// Total returns how many warnings were reported since start.
func (r *LogReporter) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}
