// Package audioflow sequences dictation for one editing session: it waits for
// the speech model, then moves between idle, recording and processing while
// never letting two backend audio calls overlap.
package audioflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/backend"
)

// State is the controller's position in the recording workflow.
type State int

const (
	StatePreparing State = iota
	StateIdle
	StateRecording
	StateProcessing
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StatePreparing:
		return "preparing"
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	case StateUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithTickInterval sets how often the elapsed duration advances while recording.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.tick = d
		}
	}
}

// WithReporter receives every failure the controller absorbs.
func WithReporter(fn func(error)) Option {
	return func(c *Controller) { c.report = fn }
}

// WithTranscriptHandler receives each successful transcript.
func WithTranscriptHandler(fn func(string)) Option {
	return func(c *Controller) { c.onTranscript = fn }
}

// WithStateListener is called after every state change.
func WithStateListener(fn func(State)) Option {
	return func(c *Controller) { c.onState = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller is the per-session recording state machine.
type Controller struct {
	backend      backend.AudioBackend
	logger       *slog.Logger
	tick         time.Duration
	report       func(error)
	onTranscript func(string)
	onState      func(State)

	mu       sync.Mutex
	state    State
	starting bool
	elapsed  time.Duration
	stopTick chan struct{}
	closed   bool

	ready    chan struct{}
	readyErr error
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a controller and immediately starts preparing the model. The
// readiness check runs until it finishes, ctx is cancelled, or Close is called.
func New(ctx context.Context, b backend.AudioBackend, opts ...Option) *Controller {
	c := &Controller{
		backend: b,
		tick:    time.Second,
		state:   StatePreparing,
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	prepCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.prepare(prepCtx)
	return c
}

func (c *Controller) prepare(ctx context.Context) {
	defer c.wg.Done()
	defer close(c.ready)

	err := c.backend.EnsureModelReady(ctx)

	c.mu.Lock()
	if err != nil {
		c.readyErr = fmt.Errorf("%w: %w", apperr.ErrModelPreparation, err)
		c.state = StateUnavailable
	} else {
		c.state = StateIdle
	}
	readyErr := c.readyErr
	abandoned := c.closed || errors.Is(err, context.Canceled)
	c.mu.Unlock()

	if readyErr != nil {
		if abandoned {
			c.logger.Debug("speech model check abandoned")
		} else {
			c.fail(readyErr)
		}
		c.changed(StateUnavailable)
		return
	}
	c.logger.Info("speech model ready")
	c.changed(StateIdle)
}

// Ready is closed once the readiness check has finished either way.
func (c *Controller) Ready() <-chan struct{} { return c.ready }

// PrepareErr returns the readiness failure, if any.
func (c *Controller) PrepareErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readyErr
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Elapsed returns how long the current recording has been running.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Start begins a recording. It is only valid while idle with no other start
// in flight; an unavailable model always fails with apperr.ErrModelUnavailable
// without contacting the backend.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkStartLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.starting = true
	c.mu.Unlock()

	err := c.backend.StartAudioRecording(ctx)

	c.mu.Lock()
	c.starting = false
	if err != nil || c.closed {
		c.mu.Unlock()
		if err == nil {
			return apperr.ErrClosed
		}
		wrapped := fmt.Errorf("%w: %w", apperr.ErrRecordingStart, err)
		c.fail(wrapped)
		return wrapped
	}
	c.state = StateRecording
	c.elapsed = 0
	c.stopTick = make(chan struct{})
	c.wg.Add(1)
	go c.runTicker(c.stopTick)
	c.mu.Unlock()

	c.changed(StateRecording)
	return nil
}

func (c *Controller) checkStartLocked() error {
	if c.closed {
		return apperr.ErrClosed
	}
	switch c.state {
	case StateUnavailable:
		return apperr.ErrModelUnavailable
	case StatePreparing:
		return apperr.ErrNotReady
	case StateIdle:
		if c.starting {
			return fmt.Errorf("%w: start already in progress", apperr.ErrInvalidState)
		}
		return nil
	default:
		return fmt.Errorf("%w: cannot start while %s", apperr.ErrInvalidState, c.state)
	}
}

// Stop ends the recording and returns its transcript. The controller moves
// to processing before the backend is called, so a second Stop is rejected
// without a backend call. Success or failure, it ends up idle.
func (c *Controller) Stop(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", apperr.ErrClosed
	}
	if c.state != StateRecording {
		state := c.state
		c.mu.Unlock()
		return "", fmt.Errorf("%w: cannot stop while %s", apperr.ErrInvalidState, state)
	}
	c.state = StateProcessing
	c.haltTickerLocked()
	c.mu.Unlock()
	c.changed(StateProcessing)

	text, err := c.backend.StopAudioRecording(ctx)

	c.mu.Lock()
	c.state = StateIdle
	c.elapsed = 0
	c.mu.Unlock()
	c.changed(StateIdle)

	if err != nil {
		wrapped := fmt.Errorf("%w: %w", apperr.ErrRecordingStop, err)
		c.fail(wrapped)
		return "", wrapped
	}
	if c.onTranscript != nil {
		c.onTranscript(text)
	}
	return text, nil
}

// Close abandons a pending readiness check and stops the duration ticker. It
// does not stop a recording already running on the host.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.haltTickerLocked()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Controller) runTicker(stop <-chan struct{}) {
	defer c.wg.Done()
	t := time.NewTicker(c.tick)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			c.mu.Lock()
			if c.state == StateRecording {
				c.elapsed += c.tick
			}
			c.mu.Unlock()
		}
	}
}

func (c *Controller) haltTickerLocked() {
	if c.stopTick != nil {
		close(c.stopTick)
		c.stopTick = nil
	}
}

func (c *Controller) fail(err error) {
	c.logger.Error("audio workflow failed", slog.String("error", err.Error()))
	if c.report != nil {
		c.report(err)
	}
}

func (c *Controller) changed(s State) {
	if c.onState != nil {
		c.onState(s)
	}
}
