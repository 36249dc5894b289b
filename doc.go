// Package discro contains discrete observables:
// a shared, versioned value with a single writer and many readers.
//
// A [Publisher] owns the only write capability.
// Every [Subscriber] tracks its own cursor, the last revision it acknowledged,
// and can wait until the shared value moves past that cursor.
// Subscribers only ever observe the latest value.
// If several writes happen while a subscriber is not looking,
// its next wait returns only the final value;
// intermediate values are never queued or replayed.
//
// The publisher never blocks on slow subscribers.
// Writes take a lock for the duration of the swap and revision bump,
// and then fire a [dwake.WakeSet] to release any waiters.
// Waiters always recheck the revision after waking,
// so a wake is only a hint and the revision is the ground truth.
//
// A [Projection] wraps a subscriber with a pure function
// and suppresses deliveries whose projected value did not change.
//
// Typical use:
//
//	pub, sub := discro.NewObservable(0)
//	defer pub.Close()
//
//	go func() {
//		defer sub.Close()
//		for {
//			v, err := sub.WaitForChange(ctx)
//			if err != nil {
//				// discro.ErrClosed once pub is closed,
//				// or the context error.
//				return
//			}
//			handle(v)
//		}
//	}()
//
//	pub.Set(1)
//
// The suspension model is pluggable through [WithWakeSet].
// The default, [dwake.NewChan], parks waiters on a channel receive;
// [dwake.NewCond] parks them on a condition variable.
package discro
