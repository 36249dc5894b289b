package discro

import (
	"log/slog"

	"github.com/uklotzde/discro/dwake"
)

// Option configures a new observable.
type Option func(*options)

type options struct {
	wake dwake.WakeSet
	log  *slog.Logger
}

// WithWakeSet sets the wake signal used to release waiting subscribers.
// The wake set must not be shared with any other observable.
//
// By default a [dwake.Chan] is used.
func WithWakeSet(ws dwake.WakeSet) Option {
	return func(o *options) {
		o.wake = ws
	}
}

// WithLogger sets the logger for lifecycle events
// such as subscribing and closing.
// Nothing is logged on the read or write paths.
//
// By default, log output is discarded.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.wake == nil {
		o.wake = dwake.NewChan()
	}
	if o.log == nil {
		o.log = slog.New(slog.DiscardHandler)
	}

	return o
}
