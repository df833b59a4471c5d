package notestore

import "log/slog"

// Notifier shows transient user-facing messages.
type Notifier interface {
	Success(msg string)
	Failure(msg string, err error)
}

// LogNotifier reports notifications through slog.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Success(msg string) {
	n.logger().Info(msg)
}

func (n LogNotifier) Failure(msg string, err error) {
	n.logger().Error(msg, slog.String("error", err.Error()))
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}
