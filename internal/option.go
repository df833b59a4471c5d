package internal

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/murmur/internal/notestore"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	logger   *slog.Logger
	notifier notestore.Notifier
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger overrides the default JSON logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithNotifier sets where note store notifications are shown.
func WithNotifier(n notestore.Notifier) Option {
	return func(a *application) {
		a.notifier = n
	}
}

// newApplication applies opts and fills in a JSON logger writing to logOut.
func newApplication(logOut io.Writer, opts ...Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}
	if app.notifier == nil {
		app.notifier = notestore.LogNotifier{Logger: app.logger}
	}
	return app, nil
}
