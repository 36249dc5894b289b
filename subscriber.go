package discro

import (
	"context"
	"errors"
	"log/slog"

	"github.com/uklotzde/discro/internal/dcell"
)

// Subscriber observes changes to an observable value.
//
// Each subscriber has a private cursor: the revision it last acknowledged.
// The subscriber has a pending change whenever the cursor
// is behind the current revision.
//
// A Subscriber is not safe for concurrent use.
// Use [*Subscriber.Clone] to hand an independent subscriber
// to another goroutine.
// Call [*Subscriber.Close] when done with it.
type Subscriber[T any] struct {
	log *slog.Logger

	c *dcell.Cell[T]

	slot   uint
	cursor uint64
	closed bool
}

func subscribe[T any](log *slog.Logger, c *dcell.Cell[T], pending bool) *Subscriber[T] {
	var cursor uint64
	if !pending {
		cursor = c.Revision()
	}

	return newSubscriber(log, c, cursor)
}

func newSubscriber[T any](log *slog.Logger, c *dcell.Cell[T], cursor uint64) *Subscriber[T] {
	slot := c.AddSubscriber()
	log.Debug("Subscribed", "slot", slot, "cursor", cursor)

	return &Subscriber[T]{
		log:    log,
		c:      c,
		slot:   slot,
		cursor: cursor,
	}
}

// Peek returns the current value without acknowledging it.
func (s *Subscriber[T]) Peek() T {
	return s.c.Read()
}

// HasChanged reports whether there is a value
// that this subscriber has not yet acknowledged.
func (s *Subscriber[T]) HasChanged() bool {
	return s.cursor < s.c.Revision()
}

// Acknowledge marks the current value as seen
// without returning it.
func (s *Subscriber[T]) Acknowledge() {
	s.cursor = s.c.Revision()
}

// ReadAck returns the current value and marks it as seen.
func (s *Subscriber[T]) ReadAck() T {
	v, rev, _ := s.c.Load()
	s.cursor = rev
	return v
}

// MarkChanged marks the current value as not yet seen,
// so that the next wait returns immediately.
func (s *Subscriber[T]) MarkChanged() {
	s.cursor = 0
}

// Cursor returns the last revision this subscriber acknowledged.
// Zero means the subscriber has never observed a value.
func (s *Subscriber[T]) Cursor() uint64 {
	return s.cursor
}

// WaitForChange blocks until there is a value newer than the cursor,
// then returns it and advances the cursor to its revision.
//
// If several writes happened since the last acknowledgment,
// only the latest value is returned.
//
// If the publisher is closed and nothing is pending,
// WaitForChange returns [ErrClosed].
// If ctx is canceled first, ctx.Err() is returned.
func (s *Subscriber[T]) WaitForChange(ctx context.Context) (T, error) {
	s.mustBeOpen()

	ws := s.c.Wake()
	for {
		// Arm before loading, so a write landing between
		// the load and the wait still releases us.
		tok := ws.Arm()

		v, rev, closed := s.c.Load()
		if rev > s.cursor {
			s.cursor = rev
			return v, nil
		}
		if closed {
			var zero T
			return zero, ErrClosed
		}

		if err := ws.Wait(ctx, tok); err != nil {
			var zero T
			return zero, err
		}
	}
}

// Clone returns a new subscriber with the same cursor.
// The two subscribers acknowledge changes independently afterwards.
func (s *Subscriber[T]) Clone() *Subscriber[T] {
	s.mustBeOpen()
	return newSubscriber(s.log, s.c, s.cursor)
}

// Close releases the subscriber.
// It has no effect on the publisher or on other subscribers.
// Close is idempotent.
func (s *Subscriber[T]) Close() {
	if s.closed {
		return
	}
	s.closed = true

	s.c.RemoveSubscriber(s.slot)
	s.log.Debug("Unsubscribed", "slot", s.slot, "cursor", s.cursor)
}

func (s *Subscriber[T]) mustBeOpen() {
	if s.closed {
		panic(errors.New("BUG: use of closed Subscriber"))
	}
}

// MapChanged waits for the next change on s
// and returns the result of fn applied to the new value.
func MapChanged[T, U any](ctx context.Context, s *Subscriber[T], fn func(T) U) (U, error) {
	v, err := s.WaitForChange(ctx)
	if err != nil {
		var zero U
		return zero, err
	}
	return fn(v), nil
}

// FilterMapChanged waits for changes on s
// until fn accepts one of the new values,
// and returns fn's result for it.
// Values rejected by fn are acknowledged and skipped.
func FilterMapChanged[T, U any](ctx context.Context, s *Subscriber[T], fn func(T) (U, bool)) (U, error) {
	for {
		v, err := s.WaitForChange(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		if u, ok := fn(v); ok {
			return u, nil
		}
	}
}
