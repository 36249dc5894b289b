package dwake

import (
	"context"
	"sync"
)

// Cond is a [WakeSet] backed by a [sync.Cond].
// Waiters block their goroutine on the condition variable;
// context cancellation is delivered through [context.AfterFunc].
//
// The zero value is not usable; call [NewCond].
type Cond struct {
	mu   sync.Mutex
	cond *sync.Cond

	gen Token
}

// NewCond returns a new condition-variable-based WakeSet.
func NewCond() *Cond {
	c := new(Cond)
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *Cond) Arm() Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *Cond) Wait(ctx context.Context, tok Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != tok {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Wake everyone on cancellation;
	// waiters whose context is still live go back to sleep.
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.cond.Broadcast()
	})
	defer stop()

	for c.gen == tok {
		c.cond.Wait()
		if c.gen != tok {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cond) Fire() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.cond.Broadcast()
}
