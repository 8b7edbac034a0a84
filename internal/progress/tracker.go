// Package progress maintains a per-section state machine for one workflow
// run and notifies registered observers on every transition.
//
// Callbacks run synchronously under the tracker's lock, so events for a
// single section are delivered in exactly the order they happened, and a
// slow callback delays the section that produced the event. Callbacks that
// need to do I/O should hand the event off to a buffered channel and return
// (see modules/socketio for the pattern).
package progress

import "sync"

// State names for section progress. Stored as strings so events serialize
// directly into telemetry payloads.
const (
	StatePending   = "pending"
	StateRunning   = "running"
	StateRetrying  = "retrying"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

// Event describes one state transition. Events are transient: they are
// passed to callbacks and discarded, never retained by the tracker.
type Event struct {
	Task    string `json:"task"`
	From    string `json:"from"`
	To      string `json:"to"`
	Attempt int    `json:"attempt,omitempty"`
	Message string `json:"message,omitempty"`
}

// Callback observes progress events.
type Callback func(Event)

// Snapshot is a point-in-time view of run progress.
type Snapshot struct {
	Total     int               `json:"total"`
	Completed int               `json:"completed"`
	Failed    int               `json:"failed"`
	Cancelled int               `json:"cancelled"`
	States    map[string]string `json:"states"`
}

// Tracker tracks per-section state for one run. Safe for concurrent use;
// transitions from sections running in parallel are serialized.
type Tracker struct {
	mu        sync.Mutex
	total     int
	states    map[string]string
	callbacks []Callback
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[string]string)}
}

// RegisterCallback adds an observer for all subsequent events.
func (t *Tracker) RegisterCallback(fn Callback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callbacks = append(t.callbacks, fn)
}

// Start records the total number of steps in the run.
func (t *Tracker) Start(totalSteps int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = totalSteps
}

// StepStart transitions a section to running.
func (t *Tracker) StepStart(name string) {
	t.transition(name, StateRunning, 0, "")
}

// StepRetry transitions a section to retrying after the given failed
// attempt.
func (t *Tracker) StepRetry(name string, attempt int) {
	t.transition(name, StateRetrying, attempt, "")
}

// StepComplete transitions a section to succeeded.
func (t *Tracker) StepComplete(name string) {
	t.transition(name, StateSucceeded, 0, "")
}

// StepFailed transitions a section to failed with a reason.
func (t *Tracker) StepFailed(name string, reason string) {
	t.transition(name, StateFailed, 0, reason)
}

// StepCancelled marks a section that never started because the run was
// cancelled.
func (t *Tracker) StepCancelled(name string) {
	t.transition(name, StateCancelled, 0, "")
}

func (t *Tracker) transition(name, to string, attempt int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	from, ok := t.states[name]
	if !ok {
		from = StatePending
	}
	t.states[name] = to

	ev := Event{Task: name, From: from, To: to, Attempt: attempt, Message: message}
	for _, fn := range t.callbacks {
		fn(ev)
	}
}

// Snapshot returns the current per-section states and aggregate counts.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{Total: t.total, States: make(map[string]string, len(t.states))}
	for name, state := range t.states {
		s.States[name] = state
		switch state {
		case StateSucceeded:
			s.Completed++
		case StateFailed:
			s.Failed++
		case StateCancelled:
			s.Cancelled++
		}
	}
	return s
}
