package cancel

import "context"

// FromContext creates a token that is canceled when ctx is done.
//
// The context watcher is detached once the token goes terminal, so completing
// the token releases it. If ctx is already done the token is canceled before
// FromContext returns.
func FromContext(ctx context.Context, opts ...Option) *Token {
	t := New(opts...)
	if ctx.Err() != nil {
		t.Cancel()
		return t
	}

	stop := context.AfterFunc(ctx, t.Cancel)

	t.mu.Lock()
	if t.status.load() == Pending {
		t.detach = stop
		t.mu.Unlock()
		return t
	}
	t.mu.Unlock()
	stop()
	return t
}

// Context returns a child of parent that is canceled when the token is
// canceled. Completing the token leaves the context alone.
//
// The returned CancelFunc cancels the child and removes its registration from
// the token; call it once the context is no longer needed.
func (t *Token) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	r := t.OnCancel(cancel)
	return ctx, func() {
		r.Remove()
		cancel()
	}
}
