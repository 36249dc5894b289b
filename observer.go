package discro

import (
	"log/slog"

	"github.com/uklotzde/discro/internal/dcell"
)

// Observer is a read-only handle to an observable value.
// It can read the value and create subscribers, but never write.
//
// Observers are safe for concurrent use and may be freely shared.
// Holding an Observer does not keep the publisher open.
type Observer[T any] struct {
	log *slog.Logger

	c *dcell.Cell[T]
}

// Read returns the current value.
func (o *Observer[T]) Read() T {
	return o.c.Read()
}

// Revision returns the current revision.
func (o *Observer[T]) Revision() uint64 {
	return o.c.Revision()
}

// Closed reports whether the publisher has been closed.
func (o *Observer[T]) Closed() bool {
	return o.c.Closed()
}

// Subscribe is like [*Publisher.Subscribe].
func (o *Observer[T]) Subscribe() *Subscriber[T] {
	return subscribe(o.log, o.c, false)
}

// SubscribeChanged is like [*Publisher.SubscribeChanged].
func (o *Observer[T]) SubscribeChanged() *Subscriber[T] {
	return subscribe(o.log, o.c, true)
}

// HasSubscribers reports whether at least one subscriber is open.
func (o *Observer[T]) HasSubscribers() bool {
	return o.c.SubscriberCount() > 0
}

// SubscriberCount returns the number of open subscribers.
func (o *Observer[T]) SubscriberCount() int {
	return o.c.SubscriberCount()
}
