package cancel_test

import (
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomizedcoder/canceltoken/internal/cancel"
)

// recorder collects callback invocations in order.
type recorder struct {
	calls []string
}

func (r *recorder) cb(name string) func() {
	return func() { r.calls = append(r.calls, name) }
}

func TestToken_InitialState(t *testing.T) {
	tok := cancel.New()

	assert.Equal(t, cancel.Pending, tok.Status())
	assert.False(t, tok.Cancelled())
	assert.False(t, tok.Completed())
	assert.False(t, tok.Done())
	assert.Zero(t, tok.Pending())
	assert.NotEqual(t, uuid.Nil, tok.ID())
}

func TestToken_CompleteDropsCallbacks(t *testing.T) {
	tok := cancel.New()
	rec := &recorder{}

	tok.OnCancel(rec.cb("A"))
	tok.Complete()

	assert.Empty(t, rec.calls)
	assert.True(t, tok.Completed())
	assert.False(t, tok.Cancelled())
	assert.Zero(t, tok.Pending())
}

func TestToken_CancelFiresInOrderOnce(t *testing.T) {
	tok := cancel.New()
	rec := &recorder{}

	tok.OnCancel(rec.cb("A"))
	tok.OnCancel(rec.cb("B"))
	tok.OnCancel(rec.cb("C"))
	require.Equal(t, 3, tok.Pending())

	tok.Cancel()
	assert.Equal(t, []string{"A", "B", "C"}, rec.calls)
	assert.Zero(t, tok.Pending())

	// Verify idempotent
	tok.Cancel()
	tok.Cancel()
	assert.Equal(t, []string{"A", "B", "C"}, rec.calls)
}

func TestToken_LateRegistrationAfterCancel(t *testing.T) {
	tok := cancel.New()
	tok.Cancel()

	calls := 0
	tok.OnCancel(func() { calls++ })

	assert.Equal(t, 1, calls, "expected callback to run before OnCancel returned")
	assert.Zero(t, tok.Pending())

	tok.Cancel()
	assert.Equal(t, 1, calls)
}

func TestToken_LateRegistrationAfterComplete(t *testing.T) {
	tok := cancel.New()
	tok.Complete()

	calls := 0
	r := tok.OnCancel(func() { calls++ })
	r.Remove()
	tok.Cancel()

	assert.Zero(t, calls)
	assert.Zero(t, tok.Pending())
}

func TestToken_CompleteIdempotent(t *testing.T) {
	tok := cancel.New()
	calls := 0
	tok.OnCancel(func() { calls++ })

	for i := 0; i < 5; i++ {
		tok.Complete()
		assert.False(t, tok.Cancelled())
		assert.True(t, tok.Completed())
	}
	assert.Zero(t, calls)
}

func TestToken_TerminalOutcomeIsExclusive(t *testing.T) {
	testCases := []struct {
		name  string
		steps func(*cancel.Token)
		want  cancel.Status
	}{
		{"CancelThenComplete", func(tok *cancel.Token) { tok.Cancel(); tok.Complete() }, cancel.Canceled},
		{"CompleteThenCancel", func(tok *cancel.Token) { tok.Complete(); tok.Cancel() }, cancel.Completed},
		{"CancelTwice", func(tok *cancel.Token) { tok.Cancel(); tok.Cancel() }, cancel.Canceled},
		{"CompleteTwice", func(tok *cancel.Token) { tok.Complete(); tok.Complete() }, cancel.Completed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tok := cancel.New()
			tc.steps(tok)

			assert.Equal(t, tc.want, tok.Status())
			assert.NotEqual(t, tok.Cancelled(), tok.Completed(), "exactly one outcome must hold")
		})
	}
}

func TestToken_RemoveCallback(t *testing.T) {
	tok := cancel.New()
	rec := &recorder{}

	tok.OnCancel(rec.cb("A"))
	r := tok.OnCancel(rec.cb("B"))
	tok.OnCancel(rec.cb("C"))

	tok.RemoveCallback(r)
	assert.Equal(t, 2, tok.Pending())

	tok.Cancel()
	assert.Equal(t, []string{"A", "C"}, rec.calls)
}

func TestToken_SameFuncRegisteredTwice(t *testing.T) {
	tok := cancel.New()
	calls := 0
	cb := func() { calls++ }

	first := tok.OnCancel(cb)
	tok.OnCancel(cb)
	tok.OnCancel(cb)

	first.Remove()
	tok.Cancel()

	assert.Equal(t, 2, calls)
}

func TestToken_RemoveNoop(t *testing.T) {
	tok := cancel.New()
	other := cancel.New()
	calls := 0

	r := tok.OnCancel(func() { calls++ })

	tok.RemoveCallback(nil)
	tok.RemoveCallback(other.OnCancel(func() {}))
	other.RemoveCallback(r)
	var nilReg *cancel.Registration
	nilReg.Remove()

	require.Equal(t, 1, tok.Pending())

	r.Remove()
	r.Remove()
	assert.Zero(t, tok.Pending())

	tok.Cancel()
	r.Remove()
	assert.Zero(t, calls)
}

func TestToken_NilCallback(t *testing.T) {
	tok := cancel.New()

	r := tok.OnCancel(nil)
	assert.Zero(t, tok.Pending())

	assert.NotPanics(t, func() {
		tok.Cancel()
		tok.OnCancel(nil)
		r.Remove()
	})
}

func TestToken_ReentrantCallback(t *testing.T) {
	tok := cancel.New()
	rec := &recorder{}

	var later *cancel.Registration
	tok.OnCancel(func() {
		rec.calls = append(rec.calls, "outer")
		tok.Cancel()
		tok.Complete()
		tok.OnCancel(rec.cb("nested"))
		tok.RemoveCallback(later)
	})
	later = tok.OnCancel(rec.cb("later"))

	tok.Cancel()

	// later was already captured by the fan-out when outer removed it.
	assert.Equal(t, []string{"outer", "nested", "later"}, rec.calls)
	assert.True(t, tok.Cancelled())
	assert.Zero(t, tok.Pending())
}

func TestToken_PanicAbortsBatch(t *testing.T) {
	tok := cancel.New(cancel.WithLogger(testr.New(t)))
	rec := &recorder{}

	tok.OnCancel(rec.cb("A"))
	tok.OnCancel(func() { panic("boom") })
	tok.OnCancel(rec.cb("C"))

	assert.PanicsWithValue(t, "boom", tok.Cancel)
	assert.Equal(t, []string{"A"}, rec.calls)

	assert.True(t, tok.Cancelled())
	assert.Zero(t, tok.Pending())

	tok.Cancel()
	assert.Equal(t, []string{"A"}, rec.calls)
}

func TestToken_Logging(t *testing.T) {
	log := testr.NewWithOptions(t, testr.Options{Verbosity: 1})

	canceled := cancel.New(cancel.WithLogger(log), cancel.WithName("job"))
	canceled.OnCancel(func() {})
	canceled.Cancel()

	completed := cancel.New(cancel.WithLogger(log))
	completed.OnCancel(func() {})
	completed.Complete()

	assert.Equal(t, "job", canceled.Name())
}

func TestToken_String(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tok := cancel.New(cancel.WithID(id))
	assert.Equal(t, "Token(6ba7b810-9dad-11d1-80b4-00c04fd430c8, pending)", tok.String())

	named := cancel.New(cancel.WithID(id), cancel.WithName("fetch"))
	named.Cancel()
	assert.Equal(t, "Token(fetch/6ba7b810-9dad-11d1-80b4-00c04fd430c8, canceled)", named.String())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "pending", cancel.Pending.String())
	assert.Equal(t, "canceled", cancel.Canceled.String())
	assert.Equal(t, "completed", cancel.Completed.String())
	assert.Equal(t, "unknown", cancel.Status(42).String())

	assert.False(t, cancel.Pending.Terminal())
	assert.True(t, cancel.Canceled.Terminal())
	assert.True(t, cancel.Completed.Terminal())
}

// Test that Token satisfies the Canceler interface
func TestCancelerInterface(t *testing.T) {
	var c cancel.Canceler = cancel.New()

	if c.Done() {
		t.Error("expected Done() = false initially")
	}

	c.Cancel()

	if !c.Done() {
		t.Error("expected Done() = true after Cancel()")
	}
}
