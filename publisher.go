package discro

import (
	"errors"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/uklotzde/discro/internal/dcell"
)

// Publisher is the single write handle of an observable value.
//
// There is no way to clone a Publisher;
// the writer created by [NewObservable] or [NewPublisher] is the only one.
// All write methods are synchronous and never wait for subscribers.
//
// Publisher methods may be called from multiple goroutines,
// but writes are serialized and are expected to come from a single owner.
type Publisher[T any] struct {
	log *slog.Logger

	c *dcell.Cell[T]

	closed atomic.Bool

	// Closes the cell if the Publisher becomes unreachable without Close.
	cleanup runtime.Cleanup
}

// NewObservable returns a new publisher holding initial,
// along with a first subscriber for which initial is already seen.
func NewObservable[T any](initial T, opts ...Option) (*Publisher[T], *Subscriber[T]) {
	p := NewPublisher(initial, opts...)
	return p, p.Subscribe()
}

// NewPublisher returns a new publisher holding initial, without subscribers.
func NewPublisher[T any](initial T, opts ...Option) *Publisher[T] {
	o := applyOptions(opts)

	p := &Publisher[T]{
		log: o.log,
		c:   dcell.New(initial, o.wake),
	}

	// The cell, not the Publisher, is the cleanup argument,
	// so the cleanup does not keep p reachable.
	p.cleanup = runtime.AddCleanup(p, closeAbandoned[T], p.c)

	return p
}

func closeAbandoned[T any](c *dcell.Cell[T]) {
	c.Close()
}

// Set replaces the current value and notifies subscribers.
// The notification is unconditional,
// even if v equals the current value.
func (p *Publisher[T]) Set(v T) {
	p.mustBeOpen()
	p.c.Write(v)
}

// Replace is like [*Publisher.Set] but returns the previous value.
func (p *Publisher[T]) Replace(v T) T {
	p.mustBeOpen()
	return p.c.Replace(v)
}

// Modify replaces the current value with the result of fn
// and notifies subscribers.
//
// fn is called while holding the write lock,
// so it must be fast and must not call back into the observable.
func (p *Publisher[T]) Modify(fn func(T) T) {
	p.mustBeOpen()
	if fn == nil {
		panic(errors.New("BUG: Modify called with nil function"))
	}
	p.c.Modify(fn)
}

// ModifyIf lets fn mutate the current value in place.
// Subscribers are only notified if fn returns true,
// which should mean that it made a change observable to subscribers.
// The result of fn is returned.
//
// fn is called while holding the write lock,
// so it must be fast and must not call back into the observable.
func (p *Publisher[T]) ModifyIf(fn func(*T) bool) bool {
	p.mustBeOpen()
	if fn == nil {
		panic(errors.New("BUG: ModifyIf called with nil function"))
	}
	return p.c.ModifyIf(fn)
}

// MarkModified notifies subscribers without changing the value.
// This is useful after mutating data reachable through the value,
// such as the contents of a map or a pointer target.
func (p *Publisher[T]) MarkModified() {
	p.mustBeOpen()
	p.c.Touch()
}

// Read returns the current value.
func (p *Publisher[T]) Read() T {
	return p.c.Read()
}

// Revision returns the current revision.
// The first value has revision 1,
// and every write increments it by one.
func (p *Publisher[T]) Revision() uint64 {
	return p.c.Revision()
}

// Subscribe returns a new subscriber.
// The current value counts as already seen by the new subscriber,
// so it is only notified about later writes.
func (p *Publisher[T]) Subscribe() *Subscriber[T] {
	return subscribe(p.log, p.c, false)
}

// SubscribeChanged returns a new subscriber
// for which the current value is still pending,
// so its first wait returns immediately.
func (p *Publisher[T]) SubscribeChanged() *Subscriber[T] {
	return subscribe(p.log, p.c, true)
}

// Observe returns a read-only handle to the same value.
func (p *Publisher[T]) Observe() *Observer[T] {
	return &Observer[T]{log: p.log, c: p.c}
}

// HasSubscribers reports whether at least one subscriber is open.
func (p *Publisher[T]) HasSubscribers() bool {
	return p.c.SubscriberCount() > 0
}

// SubscriberCount returns the number of open subscribers.
func (p *Publisher[T]) SubscriberCount() int {
	return p.c.SubscriberCount()
}

// Close gives up the write capability.
// Subscribers can still read the last value,
// and any value they have not yet observed is still delivered;
// after that, their waits return [ErrClosed].
//
// Close is idempotent.
// Calling any write method after Close panics.
//
// A Publisher that becomes unreachable without being closed
// is closed by the garbage collector eventually,
// but subscribers may wait arbitrarily long for that to happen.
func (p *Publisher[T]) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}

	p.cleanup.Stop()
	p.c.Close()

	p.log.Debug(
		"Publisher closed",
		"revision", p.c.Revision(),
		"subscribers", p.c.SubscriberCount(),
	)
}

func (p *Publisher[T]) mustBeOpen() {
	if p.closed.Load() {
		panic(errors.New("BUG: write to closed Publisher"))
	}
}
