// Package metrics collects per-section timing, attempt and outcome data for
// one workflow run and condenses it into a flat summary at the end. The
// Collector is the engine's single piece of deliberately shared mutable
// state: sections running concurrently in the same stage all record into it,
// so every method locks.
package metrics

import (
	"sync"
	"time"
)

// TaskMetrics is the per-section slice of a run summary.
type TaskMetrics struct {
	DurationMs    int64  `json:"duration_ms"`
	Attempts      int    `json:"attempts"`
	Retries       int    `json:"retries"`
	OutputSize    int    `json:"output_size"`
	Succeeded     bool   `json:"succeeded"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// Summary is the finalized, read-only aggregate for a completed run. It
// serializes to a flat record consumable by any telemetry sink.
type Summary struct {
	RunID         string                 `json:"run_id"`
	StartedAt     time.Time              `json:"started_at"`
	EndedAt       time.Time              `json:"ended_at"`
	TotalDuration time.Duration          `json:"total_duration"`
	Tasks         map[string]TaskMetrics `json:"tasks"`
	TotalTasks    int                    `json:"total_tasks"`
	Succeeded     int                    `json:"succeeded"`
	Failed        int                    `json:"failed"`
	Cancelled     int                    `json:"cancelled"`
	TotalRetries  int                    `json:"total_retries"`
	SuccessRate   float64                `json:"success_rate"`
}

// taskRecord accumulates one section's data during the run.
type taskRecord struct {
	startedAt     time.Time
	endedAt       time.Time
	attempts      int
	retries       int
	outputSize    int
	succeeded     bool
	cancelled     bool
	failureReason string
	terminal      bool
}

// Collector records execution data for one run. Safe for concurrent use.
type Collector struct {
	mu        sync.Mutex
	runID     string
	startedAt time.Time
	endedAt   time.Time
	tasks     map[string]*taskRecord
	observer  Observer
}

// Observer receives the same events the Collector records, for bridging
// into an external metrics system. Implementations must be safe for
// concurrent use; the Collector invokes them outside its own lock ordering
// guarantees beyond per-call serialization.
type Observer interface {
	TaskSucceeded(name string, duration time.Duration)
	TaskFailed(name string, duration time.Duration)
	TaskCancelled(name string, duration time.Duration)
	TaskRetried(name string)
}

// NewCollector returns a Collector ready for Start.
func NewCollector() *Collector {
	return &Collector{tasks: make(map[string]*taskRecord)}
}

// SetObserver attaches an Observer. Must be called before Start.
func (c *Collector) SetObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = o
}

// Start marks the beginning of a run.
func (c *Collector) Start(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runID = runID
	c.startedAt = time.Now()
}

// End marks the end of a run. Calling it more than once keeps the first
// end time.
func (c *Collector) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.endedAt.IsZero() {
		c.endedAt = time.Now()
	}
}

// RecordStart marks one section as started. The first attempt is counted
// here; retries add further attempts via RecordRetry.
func (c *Collector) RecordStart(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks[name] = &taskRecord{startedAt: time.Now(), attempts: 1}
}

// RecordEnd marks one section as completed successfully with the given
// output size.
func (c *Collector) RecordEnd(name string, outputSize int) {
	c.mu.Lock()
	rec := c.record(name)
	rec.endedAt = time.Now()
	rec.outputSize = outputSize
	rec.succeeded = true
	rec.terminal = true
	observer := c.observer
	duration := rec.endedAt.Sub(rec.startedAt)
	c.mu.Unlock()

	if observer != nil {
		observer.TaskSucceeded(name, duration)
	}
}

// RecordRetry counts one retry (and therefore one extra attempt) for the
// section.
func (c *Collector) RecordRetry(name string) {
	c.mu.Lock()
	rec := c.record(name)
	rec.retries++
	rec.attempts++
	observer := c.observer
	c.mu.Unlock()

	if observer != nil {
		observer.TaskRetried(name)
	}
}

// RecordFailure marks one section as terminally failed with the given
// reason.
func (c *Collector) RecordFailure(name string, reason string) {
	c.mu.Lock()
	rec := c.record(name)
	rec.endedAt = time.Now()
	rec.failureReason = reason
	rec.terminal = true
	observer := c.observer
	duration := rec.endedAt.Sub(rec.startedAt)
	c.mu.Unlock()

	if observer != nil {
		observer.TaskFailed(name, duration)
	}
}

// RecordCancelled marks one section as cancelled, either mid-flight or
// before it ever started. Cancellations are tallied apart from failures.
func (c *Collector) RecordCancelled(name string, reason string) {
	c.mu.Lock()
	rec := c.record(name)
	rec.endedAt = time.Now()
	rec.failureReason = reason
	rec.cancelled = true
	rec.terminal = true
	observer := c.observer
	duration := rec.endedAt.Sub(rec.startedAt)
	c.mu.Unlock()

	if observer != nil {
		observer.TaskCancelled(name, duration)
	}
}

// record returns the task record, creating it if RecordStart was never
// called (a failure before start, e.g. a cancelled section).
func (c *Collector) record(name string) *taskRecord {
	rec, ok := c.tasks[name]
	if !ok {
		now := time.Now()
		rec = &taskRecord{startedAt: now}
		c.tasks[name] = rec
	}
	return rec
}

// Summary computes the aggregate for the run so far. Typically called once
// after End; calling it mid-run yields a consistent snapshot.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	end := c.endedAt
	if end.IsZero() {
		end = time.Now()
	}

	s := Summary{
		RunID:     c.runID,
		StartedAt: c.startedAt,
		EndedAt:   end,
		Tasks:     make(map[string]TaskMetrics, len(c.tasks)),
	}
	if !c.startedAt.IsZero() {
		s.TotalDuration = end.Sub(c.startedAt)
	}

	for name, rec := range c.tasks {
		taskEnd := rec.endedAt
		if taskEnd.IsZero() {
			taskEnd = end
		}
		s.Tasks[name] = TaskMetrics{
			DurationMs:    taskEnd.Sub(rec.startedAt).Milliseconds(),
			Attempts:      rec.attempts,
			Retries:       rec.retries,
			OutputSize:    rec.outputSize,
			Succeeded:     rec.succeeded,
			FailureReason: rec.failureReason,
		}
		s.TotalTasks++
		s.TotalRetries += rec.retries
		switch {
		case rec.succeeded:
			s.Succeeded++
		case rec.cancelled:
			s.Cancelled++
		case rec.terminal:
			s.Failed++
		}
	}

	if s.TotalTasks > 0 {
		s.SuccessRate = float64(s.Succeeded) / float64(s.TotalTasks)
	}

	return s
}
