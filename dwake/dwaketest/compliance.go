// Package dwaketest contains a compliance suite for [dwake.WakeSet] implementations.
package dwaketest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uklotzde/discro/dwake"
)

type WakeSetFactory func() dwake.WakeSet

// TestWakeSetCompliance runs the behaviors that every WakeSet must satisfy.
func TestWakeSetCompliance(t *testing.T, f WakeSetFactory) {
	t.Run("fire before wait is not lost", func(t *testing.T) {
		t.Parallel()

		ws := f()
		tok := ws.Arm()
		ws.Fire()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		require.NoError(t, ws.Wait(ctx, tok))
	})

	t.Run("fire with no waiters is harmless", func(t *testing.T) {
		t.Parallel()

		ws := f()
		for range 10 {
			ws.Fire()
		}

		tok := ws.Arm()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		// Fires before Arm must not satisfy a later wait.
		require.ErrorIs(t, ws.Wait(ctx, tok), context.DeadlineExceeded)
	})

	t.Run("wait respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ws := f()
		tok := ws.Arm()

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			errCh <- ws.Wait(ctx, tok)
		}()

		select {
		case err := <-errCh:
			t.Fatalf("wait returned before cancellation: %v", err)
		case <-time.After(20 * time.Millisecond):
		}

		cancel()

		select {
		case err := <-errCh:
			require.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Fatal("wait did not return after cancellation")
		}
	})

	t.Run("already canceled context with pending fire returns nil", func(t *testing.T) {
		t.Parallel()

		ws := f()
		tok := ws.Arm()
		ws.Fire()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.NoError(t, ws.Wait(ctx, tok))
	})

	t.Run("fire releases all waiters", func(t *testing.T) {
		t.Parallel()

		ws := f()

		const nWaiters = 16

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		var armed, done sync.WaitGroup
		armed.Add(nWaiters)
		done.Add(nWaiters)
		errs := make([]error, nWaiters)
		for i := range nWaiters {
			go func() {
				defer done.Done()
				tok := ws.Arm()
				armed.Done()
				errs[i] = ws.Wait(ctx, tok)
			}()
		}

		armed.Wait()
		ws.Fire()
		done.Wait()

		for i, err := range errs {
			require.NoErrorf(t, err, "waiter %d", i)
		}
	})

	t.Run("canceling one waiter does not release others", func(t *testing.T) {
		t.Parallel()

		ws := f()
		tok := ws.Arm()

		ctx1, cancel1 := context.WithCancel(context.Background())
		ctx2, cancel2 := context.WithCancel(context.Background())
		defer cancel2()

		err1 := make(chan error, 1)
		err2 := make(chan error, 1)
		go func() { err1 <- ws.Wait(ctx1, tok) }()
		go func() { err2 <- ws.Wait(ctx2, tok) }()

		cancel1()
		select {
		case err := <-err1:
			require.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Fatal("canceled waiter did not return")
		}

		select {
		case err := <-err2:
			t.Fatalf("uncanceled waiter returned early: %v", err)
		case <-time.After(20 * time.Millisecond):
		}

		ws.Fire()
		select {
		case err := <-err2:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("waiter was not released by fire")
		}
	})

	t.Run("each generation needs its own fire", func(t *testing.T) {
		t.Parallel()

		ws := f()

		tok1 := ws.Arm()
		ws.Fire()
		tok2 := ws.Arm()
		require.NotEqual(t, tok1, tok2)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, ws.Wait(ctx, tok1))

		shortCtx, shortCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer shortCancel()
		require.ErrorIs(t, ws.Wait(shortCtx, tok2), context.DeadlineExceeded)
	})
}
