// Package notify carries user-facing outcome messages out of the
// synchronization core. It is the fire-and-forget analog of a toast layer:
// the core reports what happened and never waits on delivery.
package notify

import "log/slog"

// Notifier receives human-readable outcome messages.
type Notifier interface {
	Info(msg string)
	Error(msg string, err error)
}

// SlogNotifier writes notifications to a structured logger. It is the
// default sink when no UI layer is attached.
type SlogNotifier struct {
	logger *slog.Logger
}

// NewSlogNotifier creates a notifier backed by the given logger.
func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogNotifier{logger: logger}
}

func (n *SlogNotifier) Info(msg string) {
	n.logger.Info(msg)
}

func (n *SlogNotifier) Error(msg string, err error) {
	n.logger.Error(msg, "error", err)
}

// Noop discards all notifications.
type Noop struct{}

func (Noop) Info(string)         {}
func (Noop) Error(string, error) {}
