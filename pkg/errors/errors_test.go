package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codeTestNotFound = MustNewCode("errtest.not_found")

func TestError_MessageAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := New(codeTestNotFound, "failed to write", cause)
	assert.Equal(t, "failed to write: disk full", err.Error())
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_Context(t *testing.T) {
	err := New(codeTestNotFound, "table missing", nil).
		AddContext("table", "orders").
		AddContext("database", "main")

	assert.Equal(t, "orders", err.GetContext("table"))
	assert.Equal(t, "main", err.GetContext("database"))
	assert.Nil(t, err.GetContext("missing_key"))
}

func TestError_Is(t *testing.T) {
	a := New(codeTestNotFound, "a", nil)
	b := New(codeTestNotFound, "b", nil)
	other := New(CommonInternal, "c", nil)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, other))
}

func TestCodeOf_UnwrapsChain(t *testing.T) {
	inner := New(codeTestNotFound, "inner", nil)
	wrapped := fmtWrap(inner)

	code, ok := CodeOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, codeTestNotFound, code)
}

type wrapErr struct{ err error }

func (w *wrapErr) Error() string { return w.err.Error() }
func (w *wrapErr) Unwrap() error { return w.err }

func fmtWrap(err error) error { return &wrapErr{err: err} }
