// Package dtest contains test helpers shared across the discro packages.
package dtest

import (
	"log/slog"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
)

// NewLogger returns a logger that writes through t.Log,
// so output is only shown for failing or verbose tests.
func NewLogger(t *testing.T) *slog.Logger {
	return slogt.New(t)
}

// Timeouts used by the channel helpers.
// "Soon" is generous so that loaded CI machines do not flake;
// "not sending" is short since it adds latency to every passing test.
const (
	soonTimeout       = 2 * time.Second
	notSendingTimeout = 20 * time.Millisecond
)

// ReceiveSoon fails the test if a value is not received on ch
// within a reasonable amount of time.
func ReceiveSoon[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(soonTimeout):
		t.Fatalf("did not receive value within %s", soonTimeout)
	}

	panic("unreachable")
}

// ReceiveOrEOFSoon is like [ReceiveSoon] but also reports whether ch was closed.
func ReceiveOrEOFSoon[T any](t *testing.T, ch <-chan T) (T, bool) {
	t.Helper()

	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(soonTimeout):
		t.Fatalf("did not receive value within %s", soonTimeout)
	}

	panic("unreachable")
}

// SendSoon fails the test if v cannot be sent on ch
// within a reasonable amount of time.
func SendSoon[T any](t *testing.T, ch chan<- T, v T) {
	t.Helper()

	select {
	case ch <- v:
		return
	case <-time.After(soonTimeout):
		t.Fatalf("could not send value within %s", soonTimeout)
	}
}

// IsSending fails the test if ch is not immediately readable.
// It is intended for channels that are closed to signal readiness,
// so reading from them does not consume anything.
func IsSending[T any](t *testing.T, ch <-chan T) {
	t.Helper()

	select {
	case <-ch:
		return
	default:
		t.Fatalf("channel was not ready to receive")
	}
}

// NotSending fails the test if a value is received on ch
// within a short interval.
func NotSending[T any](t *testing.T, ch <-chan T) {
	t.Helper()

	select {
	case <-ch:
		t.Fatalf("received value when none was expected")
	case <-time.After(notSendingTimeout):
		return
	}
}
