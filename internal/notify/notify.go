package notify

import (
	"log/slog"

	"github.com/meltforce/liftlog/internal/models"
)

// Notifier receives rest-timer completion events. Sound and vibration are
// client-side effects; failures are logged and never propagated.
type Notifier interface {
	RestFinished(exerciseID string, vibration models.VibrationLength)
}

// LogNotifier records rest-timer completions to the structured log. The
// connected client picks the event up from the session snapshot and plays
// the configured sound/vibration itself.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) RestFinished(exerciseID string, vibration models.VibrationLength) {
	n.log.Info("rest timer finished", "exercise_id", exerciseID, "vibration", vibration)
}
