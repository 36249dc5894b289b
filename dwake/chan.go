package dwake

import (
	"context"
	"sync"
)

// Chan is a [WakeSet] backed by a channel that is closed on every Fire
// and lazily replaced the next time someone waits.
//
// The zero value is not usable; call [NewChan].
type Chan struct {
	mu sync.Mutex

	gen Token

	// Nil until a waiter needs it for the current generation.
	ready chan struct{}
}

// NewChan returns a new channel-based WakeSet.
func NewChan() *Chan {
	return new(Chan)
}

func (c *Chan) Arm() Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *Chan) Wait(ctx context.Context, tok Token) error {
	ready, fired := c.readyFor(tok)
	if fired {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ready:
		return nil
	}
}

// Ready returns a channel that is closed once Fire is called
// after the Arm that produced tok.
// It is useful for callers who need to select on several events.
func (c *Chan) Ready(tok Token) <-chan struct{} {
	ready, fired := c.readyFor(tok)
	if fired {
		return closedCh
	}
	return ready
}

func (c *Chan) readyFor(tok Token) (ready chan struct{}, fired bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != tok {
		return nil, true
	}

	if c.ready == nil {
		c.ready = make(chan struct{})
	}
	return c.ready, false
}

func (c *Chan) Fire() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if c.ready != nil {
		close(c.ready)
		c.ready = nil
	}
}

var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()
