package cancel

import (
	"fmt"
	"slices"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Token is a shared cancellation/completion handle.
//
// The zero value is not usable; create tokens with New or FromContext and
// share them by pointer.
type Token struct {
	status atomicStatus

	// mu guards status transitions and all mutations of callbacks and detach.
	mu        sync.Mutex
	callbacks []*Registration
	detach    func() bool

	id   uuid.UUID
	name string
	log  logr.Logger
}

// Registration is the handle for one OnCancel call.
//
// Each OnCancel call yields a distinct handle, even when the same func is
// registered repeatedly, so removing one handle leaves the other
// registrations of that func in place.
type Registration struct {
	fn    func()
	token *Token
}

// New creates a Pending token with an empty registry.
func New(opts ...Option) *Token {
	t := &Token{
		id:  uuid.New(),
		log: logr.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.log = t.log.WithValues("token", t.id)
	if t.name != "" {
		t.log = t.log.WithValues("name", t.name)
	}
	return t
}

// OnCancel registers cb to run when the token is canceled.
//
// If the token is still Pending, cb is queued and runs on the goroutine that
// calls Cancel. If the token is already Canceled, cb runs synchronously
// before OnCancel returns. If the token is Completed, cb is dropped.
//
// The returned handle can be passed to RemoveCallback. A nil cb is ignored.
func (t *Token) OnCancel(cb func()) *Registration {
	r := &Registration{fn: cb, token: t}
	if cb == nil {
		return r
	}

	if t.status.load() == Pending {
		t.mu.Lock()
		if t.status.load() == Pending {
			t.callbacks = append(t.callbacks, r)
			t.mu.Unlock()
			return r
		}
		t.mu.Unlock()
	}

	// Terminal from here on; status can no longer change.
	if t.status.load() == Canceled {
		cb()
	}
	return r
}

// RemoveCallback unregisters r. It is a no-op if r was never queued on this
// token, was already removed, or the token has already gone terminal.
func (t *Token) RemoveCallback(r *Registration) {
	if r == nil || r.token != t {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if i := slices.Index(t.callbacks, r); i >= 0 {
		t.callbacks = slices.Delete(t.callbacks, i, i+1)
	}
}

// Cancel moves the token to Canceled and runs every registered callback, in
// registration order, on the calling goroutine.
//
// Only the first Cancel or Complete call has any effect. A panicking callback
// propagates to the caller and the callbacks after it in the batch do not run;
// the token stays Canceled with an empty registry.
func (t *Token) Cancel() {
	fire, ok := t.settle(Canceled)
	if !ok {
		return
	}
	t.log.V(1).Info("token canceled", "callbacks", len(fire))

	ran := 0
	defer func() {
		if ran < len(fire) {
			t.log.Error(nil, "cancel callback did not return, skipping the rest",
				"index", ran, "skipped", len(fire)-ran-1)
		}
	}()
	for _, r := range fire {
		r.fn()
		ran++
	}
}

// Complete moves the token to Completed and drops every registered callback
// without running it. Only the first Cancel or Complete call has any effect.
func (t *Token) Complete() {
	dropped, ok := t.settle(Completed)
	if !ok {
		return
	}
	t.log.V(1).Info("token completed", "dropped", len(dropped))
}

// settle performs the single terminal transition. On success it returns the
// registry as it stood at the transition and leaves the registry empty.
func (t *Token) settle(to Status) ([]*Registration, bool) {
	if t.status.load().Terminal() {
		return nil, false
	}

	t.mu.Lock()
	if !t.status.settle(to) {
		t.mu.Unlock()
		return nil, false
	}
	pending := t.callbacks
	t.callbacks = nil
	detach := t.detach
	t.detach = nil
	t.mu.Unlock()

	if detach != nil {
		detach()
	}
	return pending, true
}

// Cancelled reports whether the token has been canceled.
//
// This is a lock-free read; it may briefly lag a concurrent Cancel.
func (t *Token) Cancelled() bool {
	return t.status.load() == Canceled
}

// Completed reports whether the token has been completed.
func (t *Token) Completed() bool {
	return t.status.load() == Completed
}

// Done reports whether the token has been canceled. It makes *Token a Canceler.
func (t *Token) Done() bool {
	return t.Cancelled()
}

// Status returns the current lifecycle state.
func (t *Token) Status() Status {
	return t.status.load()
}

// Pending returns the number of callbacks waiting in the registry.
func (t *Token) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.callbacks)
}

// ID returns the token's unique identifier.
func (t *Token) ID() uuid.UUID {
	return t.id
}

// Name returns the name given with WithName, or "".
func (t *Token) Name() string {
	return t.name
}

// String returns "Token(name/id, status)", omitting the name when unset.
func (t *Token) String() string {
	if t.name == "" {
		return fmt.Sprintf("Token(%v, %v)", t.id, t.Status())
	}
	return fmt.Sprintf("Token(%v/%v, %v)", t.name, t.id, t.Status())
}

// Remove unregisters the callback from the token that issued r.
func (r *Registration) Remove() {
	if r == nil || r.token == nil {
		return
	}
	r.token.RemoveCallback(r)
}
