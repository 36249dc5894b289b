// Package dwake contains the broadcast wake signal
// used to release goroutines waiting for a new revision.
//
// A [WakeSet] is only a hint that something changed.
// Callers always recheck their ground truth (a revision counter)
// after waking, so spurious or coalesced wakeups are harmless.
//
// The correct usage pattern is:
//
//	for {
//		tok := ws.Arm()
//		if conditionHolds() {
//			return
//		}
//		if err := ws.Wait(ctx, tok); err != nil {
//			return err
//		}
//	}
//
// Arming before checking the condition closes the window
// where a Fire could happen between the check and the wait.
//
// Two implementations are provided.
// [NewChan] suspends on a channel receive,
// which composes with select statements and context cancellation.
// [NewCond] blocks on a [sync.Cond],
// for callers who prefer a classic condition variable.
package dwake
