package notify

import (
	"context"
	"log/slog"
)

// Notifier delivers user-facing notifications, standing in for the platform
// notification facility. Permitted reflects a permission the user granted
// elsewhere; callers must check it and never request permission as a side
// effect of background work.
type Notifier interface {
	// Notify delivers one notification.
	// PRE: Permitted() is true
	// POST: Notification is delivered best-effort
	Notify(ctx context.Context, title, body string) error

	// Permitted reports whether the user has already granted notification
	// permission.
	Permitted() bool
}

// LogNotifier writes notifications to the structured log. It is the default
// delivery mechanism for the locally served dashboard.
type LogNotifier struct {
	Granted bool
}

// NewLogNotifier creates a LogNotifier with the given pre-granted permission.
func NewLogNotifier(granted bool) *LogNotifier {
	return &LogNotifier{Granted: granted}
}

// Notify logs the notification.
// PRE: none
// POST: Notification recorded in the log
func (n *LogNotifier) Notify(_ context.Context, title, body string) error {
	slog.Info("notification", "title", title, "body", body)
	return nil
}

// Permitted reports the configured permission flag.
func (n *LogNotifier) Permitted() bool {
	return n.Granted
}

// NoopNotifier never has permission and never delivers. Tests and permission-
// denied configurations use it.
type NoopNotifier struct{}

// Notify does nothing.
func (NoopNotifier) Notify(_ context.Context, _, _ string) error { return nil }

// Permitted always reports false.
func (NoopNotifier) Permitted() bool { return false }
