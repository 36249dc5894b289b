package dpubsub

import (
	"context"
	"errors"
	"iter"

	"github.com/uklotzde/discro"
)

// waiter is satisfied by [*discro.Subscriber] and [*discro.Projection].
type waiter[T any] interface {
	WaitForChange(context.Context) (T, error)
}

// Changes returns a sequence of changed values observed through sub.
// Each step of the sequence is one call to sub.WaitForChange.
//
// The sequence ends when the publisher is closed,
// when ctx is canceled, or when the consumer stops iterating.
// Callers who need to distinguish those cases
// should check ctx.Err() after the loop.
//
// Iterating the sequence advances sub's cursor.
// The sequence may be iterated more than once;
// each iteration continues from wherever the cursor is.
func Changes[T any](ctx context.Context, sub *discro.Subscriber[T]) iter.Seq[T] {
	return changes[T](ctx, sub)
}

// ProjectedChanges is like [Changes] for a projection,
// so only changes of the projected value are yielded.
func ProjectedChanges[T, U any](ctx context.Context, p *discro.Projection[T, U]) iter.Seq[U] {
	return changes[U](ctx, p)
}

func changes[T any](ctx context.Context, w waiter[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, err := w.WaitForChange(ctx)
			if err != nil {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}

// ChangedStream returns a sequence of fn applied to each changed value.
func ChangedStream[T, U any](
	ctx context.Context, sub *discro.Subscriber[T], fn func(T) U,
) iter.Seq[U] {
	return func(yield func(U) bool) {
		for {
			u, err := discro.MapChanged(ctx, sub, fn)
			if err != nil {
				return
			}
			if !yield(u) {
				return
			}
		}
	}
}

// ChangedStreamFiltered is like [ChangedStream],
// but changed values for which fn returns false are skipped.
func ChangedStreamFiltered[T, U any](
	ctx context.Context, sub *discro.Subscriber[T], fn func(T) (U, bool),
) iter.Seq[U] {
	return func(yield func(U) bool) {
		for {
			u, err := discro.FilterMapChanged(ctx, sub, fn)
			if err != nil {
				return
			}
			if !yield(u) {
				return
			}
		}
	}
}

// StreamOrDefer returns a sequence that starts with the current value of sub
// and continues with changed values, where fn decides for each value
// whether to yield it now or to defer.
//
// If fn returns ok, u is yielded and the sequence waits for the next change.
// Otherwise nothing is yielded, and the sequence waits until
// either retry is closed or the value changes,
// and then calls fn again with the latest value.
// A nil retry channel defers until the next change.
//
// The sequence ends when the publisher is closed,
// when ctx is canceled, or when the consumer stops iterating.
func StreamOrDefer[T, U any](
	ctx context.Context,
	sub *discro.Subscriber[T],
	fn func(T) (u U, retry <-chan struct{}, ok bool),
) iter.Seq[U] {
	return func(yield func(U) bool) {
		v := sub.ReadAck()
		for {
			u, retry, ok := fn(v)
			if ok {
				if !yield(u) {
					return
				}
				retry = nil
			}

			next, err := waitOrRetry(ctx, sub, retry)
			if err != nil {
				return
			}
			v = next
		}
	}
}

// waitOrRetry waits for a change on sub, or for retry to be closed,
// in which case the current value is acknowledged and returned.
func waitOrRetry[T any](
	ctx context.Context, sub *discro.Subscriber[T], retry <-chan struct{},
) (T, error) {
	if retry == nil {
		return sub.WaitForChange(ctx)
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-retry:
			cancel()
		case <-waitCtx.Done():
		}
	}()

	v, err := sub.WaitForChange(waitCtx)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, discro.ErrClosed) || ctx.Err() != nil {
		return v, err
	}

	// Only the retry channel canceled waitCtx.
	return sub.ReadAck(), nil
}
