// Package cancel provides a cancellation/completion token for propagating
// "stop work" notifications to in-flight operations without polling.
//
// A Token moves exactly once from Pending to one of two terminal outcomes:
//   - Canceled: every callback registered so far is invoked, in registration
//     order, on the goroutine that called Cancel()
//   - Completed: pending callbacks are dropped without being invoked
//
// Callbacks registered after the transition are invoked immediately on the
// registering goroutine if the token was canceled, and dropped if it was
// completed.
//
// Callbacks always run outside the token's lock, so a callback may call back
// into the same token (OnCancel, RemoveCallback, Cancel) without deadlocking.
package cancel

// Canceler provides cancellation signaling to workers.
//
// Implementations must be safe for concurrent use:
//   - Multiple goroutines may call Done() concurrently
//   - Cancel() may be called concurrently with Done()
type Canceler interface {
	// Done returns true if cancellation has been triggered.
	Done() bool

	// Cancel triggers cancellation. Safe to call multiple times.
	Cancel()
}

var _ Canceler = (*Token)(nil)
