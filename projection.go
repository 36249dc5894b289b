package discro

import (
	"context"
	"errors"
)

// Projection is a view of a [Subscriber] through a pure function.
// It only reports a change when the projected value differs
// from the last one it delivered,
// even if the underlying value changed several times in between.
//
// The projection function is called outside of any lock,
// but it must still be pure and non-blocking:
// it may be called more than once per underlying change.
//
// Like a Subscriber, a Projection is not safe for concurrent use.
type Projection[T, U any] struct {
	sub   *Subscriber[T]
	fn    func(T) U
	equal func(U, U) bool

	last    U
	hasLast bool
}

// Project returns a projection of sub through fn,
// using == to detect changes in the projected value.
//
// The projection takes ownership of sub;
// closing the projection closes sub.
func Project[T any, U comparable](sub *Subscriber[T], fn func(T) U) *Projection[T, U] {
	return ProjectFunc(sub, fn, func(a, b U) bool { return a == b })
}

// ProjectFunc is like [Project] but with a custom equality function,
// for projected types that are not comparable.
func ProjectFunc[T, U any](sub *Subscriber[T], fn func(T) U, equal func(U, U) bool) *Projection[T, U] {
	if fn == nil {
		panic(errors.New("BUG: projection function must not be nil"))
	}
	if equal == nil {
		panic(errors.New("BUG: projection equality function must not be nil"))
	}

	p := &Projection[T, U]{
		sub:   sub,
		fn:    fn,
		equal: equal,
	}

	// If the subscriber is caught up, its current value counts as delivered.
	// Otherwise the pending value is delivered unconditionally.
	v, rev, _ := sub.c.Load()
	if rev <= sub.cursor {
		p.last = fn(v)
		p.hasLast = true
	}

	return p
}

// Subscriber returns the wrapped subscriber.
func (p *Projection[T, U]) Subscriber() *Subscriber[T] {
	return p.sub
}

// Peek returns the projection of the current value,
// without acknowledging anything.
func (p *Projection[T, U]) Peek() U {
	return p.fn(p.sub.Peek())
}

// HasChanged reports whether the underlying subscriber has a pending value
// whose projection differs from the last delivered one.
func (p *Projection[T, U]) HasChanged() bool {
	v, rev, _ := p.sub.c.Load()
	if rev <= p.sub.cursor {
		return false
	}
	return !p.hasLast || !p.equal(p.last, p.fn(v))
}

// Acknowledge marks the current value as seen
// and records its projection as delivered.
func (p *Projection[T, U]) Acknowledge() {
	p.last = p.fn(p.sub.ReadAck())
	p.hasLast = true
}

// WaitForChange blocks until the projection of the underlying value
// differs from the last delivered projection, and returns it.
//
// Underlying changes that project to an equal value are acknowledged
// and skipped.
// Errors are the same as for [*Subscriber.WaitForChange].
func (p *Projection[T, U]) WaitForChange(ctx context.Context) (U, error) {
	for {
		v, err := p.sub.WaitForChange(ctx)
		if err != nil {
			var zero U
			return zero, err
		}

		u := p.fn(v)
		if p.hasLast && p.equal(p.last, u) {
			continue
		}

		p.last = u
		p.hasLast = true
		return u, nil
	}
}

// Clone returns an independent projection
// with a cloned subscriber and the same delivered value.
func (p *Projection[T, U]) Clone() *Projection[T, U] {
	return &Projection[T, U]{
		sub:     p.sub.Clone(),
		fn:      p.fn,
		equal:   p.equal,
		last:    p.last,
		hasLast: p.hasLast,
	}
}

// Close closes the wrapped subscriber.
func (p *Projection[T, U]) Close() {
	p.sub.Close()
}
