package dpubsub_test

import (
	"context"
	"iter"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uklotzde/discro"
	"github.com/uklotzde/discro/dpubsub"
	"github.com/uklotzde/discro/internal/dtest"
)

func TestChanges_endsOnPublisherClosed(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pub, sub := discro.NewObservable(0)
	defer sub.Close()

	pub.Set(1)
	pub.Set(2)
	pub.Close()

	var got []int
	for v := range dpubsub.Changes(ctx, sub) {
		got = append(got, v)
	}

	// Coalesced into the latest value, then the sequence ended.
	require.Equal(t, []int{2}, got)
	require.NoError(t, ctx.Err())
}

func TestChanges_consumerStopsEarly(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pub, sub := discro.NewObservable(0)
	defer pub.Close()
	defer sub.Close()

	pub.Set(1)
	for v := range dpubsub.Changes(ctx, sub) {
		require.Equal(t, 1, v)
		break
	}

	// Restarting the sequence continues from the cursor.
	pub.Set(2)
	for v := range dpubsub.Changes(ctx, sub) {
		require.Equal(t, 2, v)
		break
	}
}

func TestChanges_endsOnContextCanceled(t *testing.T) {
	t.Parallel()

	pub, sub := discro.NewObservable(0)
	defer pub.Close()
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range dpubsub.Changes(ctx, sub) {
		}
	}()

	dtest.NotSending(t, done)
	cancel()
	dtest.ReceiveSoon(t, done)
}

func TestProjectedChanges(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pub, sub := discro.NewObservable(0)
	p := discro.Project(sub, func(v int) bool { return v >= 10 })
	defer p.Close()

	go func() {
		for i := 1; i <= 12; i++ {
			pub.Set(i)
			time.Sleep(time.Millisecond)
		}
		pub.Close()
	}()

	var got []bool
	for v := range dpubsub.ProjectedChanges(ctx, p) {
		got = append(got, v)
	}

	require.Equal(t, []bool{true}, got)
}

func TestChangedStream(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pub, sub := discro.NewObservable(0)
	defer sub.Close()

	pub.Set(7)
	pub.Close()

	var got []string
	for s := range dpubsub.ChangedStream(ctx, sub, strconv.Itoa) {
		got = append(got, s)
	}
	require.Equal(t, []string{"7"}, got)
}

func TestChangedStreamFiltered(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pub, sub := discro.NewObservable("")
	defer pub.Close()
	defer sub.Close()

	nonEmpty := func(s string) (int, bool) {
		return len(s), s != ""
	}

	pub.Set("")
	next, stop := iter.Pull(dpubsub.ChangedStreamFiltered(ctx, sub, nonEmpty))
	defer stop()

	go func() {
		time.Sleep(5 * time.Millisecond)
		pub.Set("abc")
	}()

	n, ok := next()
	require.True(t, ok)
	require.Equal(t, 3, n)
}

func TestStreamOrDefer(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pub, sub := discro.NewObservable("warming")
	defer pub.Close()
	defer sub.Close()

	// Values are deferred until ready is closed,
	// and yielded unconditionally afterwards.
	ready := make(chan struct{})
	var calls atomic.Int32
	fn := func(s string) (string, <-chan struct{}, bool) {
		calls.Add(1)
		select {
		case <-ready:
			return s, nil, true
		default:
			return "", ready, false
		}
	}

	next, stop := iter.Pull(dpubsub.StreamOrDefer(ctx, sub, fn))
	defer stop()

	got := make(chan string, 1)
	go func() {
		v, ok := next()
		if !ok {
			close(got)
			return
		}
		got <- v
	}()

	dtest.NotSending(t, got)
	require.Eventually(t, func() bool {
		return calls.Load() == 1
	}, time.Second, time.Millisecond)

	// Closing ready re-evaluates the current value without any write.
	close(ready)
	v, ok := dtest.ReceiveOrEOFSoon(t, got)
	require.True(t, ok)
	require.Equal(t, "warming", v)
	require.Equal(t, int32(2), calls.Load())

	// After yielding, the sequence waits for a change rather than the retry channel.
	pub.Set("hot")
	v, ok = next()
	require.True(t, ok)
	require.Equal(t, "hot", v)
}

func TestStreamOrDefer_changeWhileDeferred(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pub, sub := discro.NewObservable(0)
	defer sub.Close()

	positive := func(v int) (int, <-chan struct{}, bool) {
		return v, nil, v > 0
	}

	go func() {
		time.Sleep(5 * time.Millisecond)
		pub.Set(-1)
		time.Sleep(5 * time.Millisecond)
		pub.Set(2)
		time.Sleep(5 * time.Millisecond)
		pub.Close()
	}()

	var got []int
	for v := range dpubsub.StreamOrDefer(ctx, sub, positive) {
		got = append(got, v)
	}
	require.Equal(t, []int{2}, got)
	require.NoError(t, ctx.Err())
}
