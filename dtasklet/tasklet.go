package dtasklet

import (
	"context"
	"errors"
	"log/slog"

	"github.com/uklotzde/discro"
	"github.com/uklotzde/discro/internal/dtrace"
)

// Config is the configuration shared by all tasklets.
type Config struct {
	// Name identifies the tasklet in log messages and span names.
	Name string

	// Optional tracer provider.
	// Every delivered value is recorded as an event on a single span
	// that covers the lifetime of the tasklet.
	// If nil, tracing is disabled.
	TracerProvider dtrace.TracerProvider
}

func (c Config) start(ctx context.Context, op string) (context.Context, dtrace.Span) {
	name := c.Name
	if name == "" {
		name = "tasklet"
	}

	return dtrace.TracerOrNop(c.TracerProvider, "github.com/uklotzde/discro/dtasklet").
		Start(ctx, op, dtrace.WithAttributes(dtrace.LazyValueAttr("tasklet", name)))
}

// ObserveChanges calls onChanged with the current value of sub,
// and then with every changed value, until onChanged returns false.
//
// ObserveChanges takes ownership of sub and closes it before returning.
// It returns nil if onChanged stopped the loop or the publisher was closed,
// or the context error if ctx was canceled.
func ObserveChanges[T any](
	ctx context.Context,
	log *slog.Logger,
	cfg Config,
	sub *discro.Subscriber[T],
	onChanged func(T) bool,
) error {
	defer sub.Close()

	ctx, span := cfg.start(ctx, "observe changes")
	defer span.End()

	v := sub.ReadAck()
	for {
		span.AddEvent("changed", dtrace.WithAttributes(dtrace.RevisionAttr(sub.Cursor())))
		if !onChanged(v) {
			log.Debug("Tasklet stopped by callback", "tasklet", cfg.Name)
			return nil
		}

		var err error
		v, err = sub.WaitForChange(ctx)
		if err != nil {
			return stopped(log, cfg, span, err)
		}
	}
}

// CaptureChanges is like [ObserveChanges],
// but each observed value is first turned into an owned snapshot by capture,
// and onChanged is only called when hasChanged reports
// that a newly observed value differs from the last captured snapshot.
//
// Neither onChanged nor hasChanged is called while holding any lock.
func CaptureChanges[S, T any](
	ctx context.Context,
	log *slog.Logger,
	cfg Config,
	sub *discro.Subscriber[S],
	capture func(S) T,
	hasChanged func(T, S) bool,
	onChanged func(T) bool,
) error {
	defer sub.Close()

	ctx, span := cfg.start(ctx, "capture changes")
	defer span.End()

	captured := capture(sub.ReadAck())
	for {
		span.AddEvent("captured", dtrace.WithAttributes(dtrace.RevisionAttr(sub.Cursor())))
		if !onChanged(captured) {
			log.Debug("Tasklet stopped by callback", "tasklet", cfg.Name)
			return nil
		}

		for {
			s, err := sub.WaitForChange(ctx)
			if err != nil {
				return stopped(log, cfg, span, err)
			}

			if hasChanged(captured, s) {
				captured = capture(s)
				break
			}
		}
	}
}

func stopped(log *slog.Logger, cfg Config, span dtrace.Span, err error) error {
	if errors.Is(err, discro.ErrClosed) {
		log.Debug("Tasklet stopped after publisher closed", "tasklet", cfg.Name)
		return nil
	}

	log.Info("Tasklet interrupted", "tasklet", cfg.Name, "err", err)
	span.AddEvent("interrupted", dtrace.WithAttributes(dtrace.ErrorAttr(err)))
	dtrace.SpanError(span, err)
	return err
}
