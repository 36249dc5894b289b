// Package dtasklet contains long-running loops
// that process the values of a discrete observable.
//
// A tasklet invokes a callback once at start with the current value,
// and again after each change, until the callback asks to stop,
// the publisher is closed, or the context is canceled.
// Tasklets are blocking; run them in their own goroutine.
package dtasklet
