// Package dcell contains the shared, versioned value
// underlying a publisher and its subscribers.
package dcell

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/uklotzde/discro/dwake"
)

// InitialRevision is the revision of a freshly created Cell.
// Revision zero is reserved to mean "never observed".
const InitialRevision uint64 = 1

// Cell holds a value and a revision that is bumped on every replacement.
//
// Many readers may load the value concurrently;
// writers take the lock exclusively for the swap and the increment only.
// The wake set is fired after the lock is released.
type Cell[T any] struct {
	wake dwake.WakeSet

	mu     sync.RWMutex
	val    T
	rev    uint64
	closed bool

	// Live subscriber slots.
	// Guarded separately so that registry churn
	// never contends with readers of the value.
	subMu sync.Mutex
	subs  bitset.BitSet
}

// New returns a Cell holding initial at [InitialRevision].
func New[T any](initial T, wake dwake.WakeSet) *Cell[T] {
	return &Cell[T]{
		wake: wake,
		val:  initial,
		rev:  InitialRevision,
	}
}

// Wake returns the wake set that is fired on every revision bump and on Close.
func (c *Cell[T]) Wake() dwake.WakeSet {
	return c.wake
}

// Load returns the current value, its revision,
// and whether the writer has closed the cell.
func (c *Cell[T]) Load() (val T, rev uint64, closed bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val, c.rev, c.closed
}

// Read returns the current value.
func (c *Cell[T]) Read() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

// Revision returns the current revision.
func (c *Cell[T]) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rev
}

// Closed reports whether Close has been called.
func (c *Cell[T]) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Write replaces the value and bumps the revision.
func (c *Cell[T]) Write(v T) {
	c.Replace(v)
}

// Replace replaces the value, bumps the revision,
// and returns the previous value.
func (c *Cell[T]) Replace(v T) T {
	c.mu.Lock()
	old := c.val
	c.val = v
	c.rev++
	c.mu.Unlock()

	c.wake.Fire()
	return old
}

// Modify replaces the value with the result of fn applied to it.
// fn runs under the write lock and must not block.
// If fn panics, the lock is released and the value and revision are unchanged.
func (c *Cell[T]) Modify(fn func(T) T) {
	c.modifyLocked(fn)
	c.wake.Fire()
}

func (c *Cell[T]) modifyLocked(fn func(T) T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.val = fn(c.val)
	c.rev++
}

// ModifyIf lets fn mutate the value in place.
// The revision is only bumped, and waiters only woken,
// if fn reports that it made an observable change.
// fn runs under the write lock and must not block.
// If fn panics, the lock is released and the revision is unchanged,
// but any partial mutation fn made to the value is kept.
func (c *Cell[T]) ModifyIf(fn func(*T) bool) bool {
	modified := c.modifyIfLocked(fn)
	if modified {
		c.wake.Fire()
	}
	return modified
}

func (c *Cell[T]) modifyIfLocked(fn func(*T) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !fn(&c.val) {
		return false
	}
	c.rev++
	return true
}

// Touch bumps the revision without replacing the value.
func (c *Cell[T]) Touch() {
	c.mu.Lock()
	c.rev++
	c.mu.Unlock()

	c.wake.Fire()
}

// Close marks the cell as closed, meaning no further writes will happen,
// and wakes every waiter so they can observe the closure.
// Close reports whether this call was the one that closed the cell.
func (c *Cell[T]) Close() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.closed = true
	c.mu.Unlock()

	c.wake.Fire()
	return true
}

// AddSubscriber claims the lowest free subscriber slot and returns it.
func (c *Cell[T]) AddSubscriber() uint {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	slot, ok := c.subs.NextClear(0)
	if !ok {
		// Every bit up to the current length is set;
		// the next slot is just past the end.
		slot = c.subs.Len()
	}
	c.subs.Set(slot)
	return slot
}

// RemoveSubscriber releases a slot previously returned by AddSubscriber.
func (c *Cell[T]) RemoveSubscriber(slot uint) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if !c.subs.Test(slot) {
		panic(fmt.Errorf("BUG: removing subscriber slot %d that is not registered", slot))
	}
	c.subs.Clear(slot)
}

// SubscriberCount returns the number of live subscribers.
func (c *Cell[T]) SubscriberCount() int {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return int(c.subs.Count())
}
