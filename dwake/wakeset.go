package dwake

import "context"

// Token identifies the generation of a [WakeSet] at the time of [WakeSet.Arm].
// Its value has no meaning outside the WakeSet that produced it.
type Token uint64

// WakeSet is a broadcastable "something changed" signal.
type WakeSet interface {
	// Arm registers interest in the next Fire
	// and returns a token for the current generation.
	Arm() Token

	// Wait blocks until Fire has been called at least once
	// since the Arm call that produced tok,
	// or until ctx is done, in which case ctx.Err() is returned.
	//
	// If Fire was already called since Arm, Wait returns nil immediately.
	Wait(ctx context.Context, tok Token) error

	// Fire releases every current waiter.
	// Firing with no waiters only advances the generation.
	Fire()
}
