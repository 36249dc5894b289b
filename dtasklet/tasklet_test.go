package dtasklet_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uklotzde/discro"
	"github.com/uklotzde/discro/dtasklet"
	"github.com/uklotzde/discro/internal/dtest"
	"github.com/uklotzde/discro/internal/dtrace"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObserveChanges_stopsOnCallback(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pub, sub := discro.NewObservable(0)
	defer pub.Close()

	seen := make(chan int, 8)
	errCh := make(chan error, 1)
	go func() {
		errCh <- dtasklet.ObserveChanges(ctx, dtest.NewLogger(t), dtasklet.Config{
			Name:           "stop-on-3",
			TracerProvider: dtrace.NopTracerProvider(),
		}, sub, func(v int) bool {
			seen <- v
			return v < 3
		})
	}()

	// Invoked once at start with the current value.
	require.Equal(t, 0, dtest.ReceiveSoon(t, seen))

	for i := 1; i <= 3; i++ {
		pub.Set(i)
		require.Equal(t, i, dtest.ReceiveSoon(t, seen))
	}

	require.NoError(t, dtest.ReceiveSoon(t, errCh))

	// The tasklet closed its subscriber.
	require.False(t, pub.HasSubscribers())
}

func TestObserveChanges_stopsOnPublisherClosed(t *testing.T) {
	t.Parallel()

	pub, sub := discro.NewObservable("x")

	errCh := make(chan error, 1)
	go func() {
		errCh <- dtasklet.ObserveChanges(context.Background(), dtest.NewLogger(t), dtasklet.Config{}, sub, func(string) bool {
			return true
		})
	}()

	dtest.NotSending(t, errCh)
	pub.Close()
	require.NoError(t, dtest.ReceiveSoon(t, errCh))
}

func TestObserveChanges_contextCanceled(t *testing.T) {
	t.Parallel()

	pub, sub := discro.NewObservable(0)
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- dtasklet.ObserveChanges(ctx, dtest.NewLogger(t), dtasklet.Config{}, sub, func(int) bool {
			return true
		})
	}()

	dtest.NotSending(t, errCh)
	cancel()
	require.ErrorIs(t, dtest.ReceiveSoon(t, errCh), context.Canceled)
}

func TestCaptureChanges(t *testing.T) {
	t.Parallel()

	type config struct {
		Host string
		Port int
		Hits int
	}

	type endpoint struct {
		Host string
		Port int
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pub, sub := discro.NewObservable(config{Host: "a", Port: 1})

	seen := make(chan endpoint, 8)
	errCh := make(chan error, 1)
	go func() {
		errCh <- dtasklet.CaptureChanges(
			ctx, dtest.NewLogger(t), dtasklet.Config{Name: "endpoint"}, sub,
			func(c config) endpoint { return endpoint{Host: c.Host, Port: c.Port} },
			func(e endpoint, c config) bool { return e.Host != c.Host || e.Port != c.Port },
			func(e endpoint) bool {
				seen <- e
				return true
			},
		)
	}()

	require.Equal(t, endpoint{Host: "a", Port: 1}, dtest.ReceiveSoon(t, seen))

	// Changes to fields outside the snapshot are not reported.
	pub.Modify(func(c config) config {
		c.Hits++
		return c
	})
	dtest.NotSending(t, seen)

	pub.Modify(func(c config) config {
		c.Port = 2
		return c
	})
	require.Equal(t, endpoint{Host: "a", Port: 2}, dtest.ReceiveSoon(t, seen))

	pub.Close()
	require.NoError(t, dtest.ReceiveSoon(t, errCh))
}

func TestObserveChanges_tracesInterruption(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	pub, sub := discro.NewObservable(0)
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())

	seen := make(chan int, 8)
	errCh := make(chan error, 1)
	go func() {
		errCh <- dtasklet.ObserveChanges(ctx, dtest.NewLogger(t), dtasklet.Config{
			Name:           "traced",
			TracerProvider: tp,
		}, sub, func(v int) bool {
			seen <- v
			return true
		})
	}()

	require.Equal(t, 0, dtest.ReceiveSoon(t, seen))
	pub.Set(1)
	require.Equal(t, 1, dtest.ReceiveSoon(t, seen))

	cancel()
	require.ErrorIs(t, dtest.ReceiveSoon(t, errCh), context.Canceled)

	spans := sr.Ended()
	require.Len(t, spans, 1)

	span := spans[0]
	require.Equal(t, "observe changes", span.Name())
	require.Equal(t, codes.Error, span.Status().Code)

	var names []string
	var interruptedErr string
	for _, ev := range span.Events() {
		names = append(names, ev.Name)
		if ev.Name != "interrupted" {
			continue
		}
		for _, attr := range ev.Attributes {
			if attr.Key == "err" {
				interruptedErr = attr.Value.Emit()
			}
		}
	}
	require.Equal(t, []string{"changed", "changed", "interrupted"}, names)
	require.Equal(t, context.Canceled.Error(), interruptedErr)
}
