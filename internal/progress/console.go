package progress

import "log/slog"

// NewConsoleCallback returns a callback that logs each transition through
// the given logger, in the same register the rest of the app logs with.
func NewConsoleCallback(logger *slog.Logger) Callback {
	return func(ev Event) {
		switch ev.To {
		case StateRunning:
			logger.Info("▶️ Section started", "section", ev.Task)
		case StateRetrying:
			logger.Warn("🔁 Section retrying", "section", ev.Task, "attempt", ev.Attempt)
		case StateSucceeded:
			logger.Info("✅ Section finished", "section", ev.Task)
		case StateFailed:
			logger.Error("❌ Section failed", "section", ev.Task, "reason", ev.Message)
		case StateCancelled:
			logger.Warn("⏹️ Section cancelled", "section", ev.Task)
		}
	}
}
