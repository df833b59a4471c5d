package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/murmur/internal/audioflow"
	"github.com/starford/murmur/internal/backend"
	"github.com/starford/murmur/internal/editor"
	"github.com/starford/murmur/internal/mcpserver"
	"github.com/starford/murmur/internal/notestore"
	"github.com/starford/murmur/internal/prefs"
	"github.com/starford/murmur/internal/storage"
	"github.com/starford/murmur/internal/theme"
)

// Client is the explicitly constructed client state: the bridge to the host,
// the note store and the theme. Close releases everything Open acquired.
type Client struct {
	Bridge backend.Bridge
	// Search is nil when the bridge cannot search.
	Search backend.Searcher
	Notes  *notestore.Store
	Theme  *theme.State
	Logger *slog.Logger

	cfg   *Config
	close func() error
}

// Open builds a client. With bridge mode "local" the host runs in-process;
// with "remote" every command goes to a running server. Logs go to stderr.
func Open(opts ...Option) (*Client, error) {
	app, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return nil, err
	}
	cfg, logger := app.config, app.logger

	c := &Client{Logger: logger, cfg: cfg, close: func() error { return nil }}

	switch cfg.Bridge.Mode {
	case BridgeModeRemote:
		c.Bridge = backend.NewRemote(cfg.Bridge.URL, cfg.Bridge.Token)
	default:
		h, err := openHost(cfg, logger, nil)
		if err != nil {
			return nil, err
		}
		c.Bridge = h.local
		c.close = h.Close
	}
	if s, ok := c.Bridge.(backend.Searcher); ok {
		c.Search = s
	}

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		_ = c.close()
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	prefsFS, err := storage.NewFS(cfg.Data.Dir, ".yaml")
	if err != nil {
		_ = c.close()
		return nil, fmt.Errorf("init prefs storage: %w", err)
	}
	c.Theme = theme.New(prefs.Open(prefsFS, cfg.UI.PrefsFile), theme.TerminalApply, logger)
	c.Theme.Reapply()

	c.Notes = notestore.New(c.Bridge,
		notestore.WithLogger(logger),
		notestore.WithNotifier(app.notifier),
	)
	return c, nil
}

// Dictation starts an audio controller whose transcripts land in session.
func (c *Client) Dictation(ctx context.Context, session *editor.Session, opts ...audioflow.Option) *audioflow.Controller {
	base := []audioflow.Option{
		audioflow.WithLogger(c.Logger),
		audioflow.WithTickInterval(c.cfg.Speech.TickInterval),
		audioflow.WithTranscriptHandler(session.ApplyTranscript),
	}
	return audioflow.New(ctx, c.Bridge, append(base, opts...)...)
}

// Close tears down the note store and the in-process host, if any.
func (c *Client) Close() error {
	c.Notes.Close()
	return c.close()
}

// RunMCP serves the note tools over stdio until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	c, err := Open(opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Notes.GetNotes(ctx); err != nil && !errors.Is(err, context.Canceled) {
		c.Logger.Warn("initial note load failed", slog.String("error", err.Error()))
	}

	c.Logger.Info("MCP server starting on stdio")
	return mcpserver.New(c.Notes, c.Search).ServeStdio()
}
