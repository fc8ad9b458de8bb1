package cancel

import "sync/atomic"

// Status is the lifecycle state of a Token.
type Status int32

const (
	// Pending is the initial state. Callbacks accumulate in the registry.
	Pending Status = iota
	// Canceled is terminal. Registered callbacks have been (or are being) fired.
	Canceled
	// Completed is terminal. Registered callbacks were dropped.
	Completed
)

// String returns the lower-case name of the status.
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Canceled:
		return "canceled"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is Canceled or Completed.
func (s Status) Terminal() bool {
	return s == Canceled || s == Completed
}

// atomicStatus holds a Status that moves forward exactly once.
//
// Loads are lock-free. A stale load can only report Pending for a token that
// has already gone terminal, never the reverse, so readers that need a final
// answer re-check under Token.mu.
type atomicStatus struct {
	v atomic.Int32
}

func (a *atomicStatus) load() Status {
	return Status(a.v.Load())
}

// settle moves Pending to the terminal status to. Only called with Token.mu
// held; returns false if the status was already terminal.
func (a *atomicStatus) settle(to Status) bool {
	return a.v.CompareAndSwap(int32(Pending), int32(to))
}
