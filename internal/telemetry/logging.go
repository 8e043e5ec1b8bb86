package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethan/exm"
)

// Logger provides logging hooks around Dispatch. The core exm package has no
// logging of its own — it is a pure function of its inputs — so these hooks
// live here and wrap calls to it.
type Logger interface {
	MacrostepStarted(ctx context.Context, event exm.Event)
	MacrostepFinished(ctx context.Context, event exm.Event, duration time.Duration, err error)
	TransitionTaken(ctx context.Context, t exm.CompiledTransition)
	EventUnhandled(ctx context.Context, event exm.Event)
}

// SlogLogger implements Logger on top of log/slog.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger, or slog.Default() if logger is nil.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) MacrostepStarted(ctx context.Context, event exm.Event) {
	l.logger.InfoContext(ctx, "macrostep started", "event", event.Name)
}

func (l *SlogLogger) MacrostepFinished(ctx context.Context, event exm.Event, duration time.Duration, err error) {
	if err != nil {
		l.logger.ErrorContext(ctx, "macrostep failed",
			"event", event.Name, "duration_ms", duration.Milliseconds(), "error", err)
		return
	}
	l.logger.InfoContext(ctx, "macrostep finished",
		"event", event.Name, "duration_ms", duration.Milliseconds())
}

func (l *SlogLogger) TransitionTaken(ctx context.Context, t exm.CompiledTransition) {
	l.logger.InfoContext(ctx, "transition taken", "event", t.Name, "target", t.Target)
}

func (l *SlogLogger) EventUnhandled(ctx context.Context, event exm.Event) {
	l.logger.WarnContext(ctx, "event unhandled", "event", event.Name)
}

// DispatchWithLogging runs ObservedDispatch and reports through logger.
func DispatchWithLogging(ctx context.Context, logger Logger, m *exm.Machine, event exm.Event) (*exm.Machine, error) {
	logger.MacrostepStarted(ctx, event)
	start := time.Now()
	next, err := ObservedDispatch(m, event)
	logger.MacrostepFinished(ctx, event, time.Since(start), err)
	if err != nil {
		return next, err
	}

	transitions := next.LastTransitions()
	if len(transitions) == 0 {
		logger.EventUnhandled(ctx, event)
		return next, nil
	}
	for _, t := range transitions {
		logger.TransitionTaken(ctx, t)
	}
	return next, nil
}
