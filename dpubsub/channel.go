package dpubsub

import (
	"context"

	"github.com/uklotzde/discro"
)

// RunChannelToPublisher starts a background goroutine
// that reads values from ch and sets them on pub.
//
// Since the publisher never blocks,
// ch is drained as fast as the sender fills it,
// and subscribers only observe the latest value.
//
// The returned done channel is closed when the goroutine stops,
// which will happen on context cancellation or
// if the given channel is closed.
// The goroutine does not close pub.
func RunChannelToPublisher[T any](
	ctx context.Context, ch <-chan T, pub *discro.Publisher[T],
) (done <-chan struct{}) {
	doneCh := make(chan struct{})

	go runChannelToPublisher(ctx, ch, pub, doneCh)

	return doneCh
}

func runChannelToPublisher[T any](
	ctx context.Context,
	ch <-chan T,
	pub *discro.Publisher[T],
	done chan<- struct{},
) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return

		case v, ok := <-ch:
			if !ok {
				return
			}
			pub.Set(v)
		}
	}
}

// RunSubscriberToChannel starts a background goroutine
// that waits for changes on sub and sends each changed value
// on the returned unbuffered channel.
//
// While the goroutine is blocked sending a value,
// further writes coalesce as usual;
// the next value sent is the latest one.
//
// The goroutine takes ownership of sub and closes it when it stops,
// which will happen on context cancellation or
// when the publisher is closed.
// The values channel is closed before done.
func RunSubscriberToChannel[T any](
	ctx context.Context, sub *discro.Subscriber[T],
) (values <-chan T, done <-chan struct{}) {
	valCh := make(chan T)
	doneCh := make(chan struct{})

	go runSubscriberToChannel(ctx, sub, valCh, doneCh)

	return valCh, doneCh
}

func runSubscriberToChannel[T any](
	ctx context.Context,
	sub *discro.Subscriber[T],
	values chan<- T,
	done chan<- struct{},
) {
	defer close(done)
	defer close(values)
	defer sub.Close()

	for {
		v, err := sub.WaitForChange(ctx)
		if err != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case values <- v:
		}
	}
}
