package errors_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/AltairaLabs/codestream/pkg/errors"
)

func TestNew(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := pkgerrors.New("streaming", "Open", cause)

	assert.Equal(t, "streaming", err.Component)
	assert.Equal(t, "Open", err.Operation)
	assert.Equal(t, 0, err.Code)
	assert.Nil(t, err.Details)
	assert.Equal(t, cause, err.Cause)
}

func TestError_BasicMessage(t *testing.T) {
	err := pkgerrors.New("config", "Load", fmt.Errorf("file not found"))

	assert.Equal(t, "[config] Load: file not found", err.Error())
}

func TestError_NoCause(t *testing.T) {
	err := pkgerrors.New("codegen", "Start", nil)

	assert.Equal(t, "[codegen] Start", err.Error())
}

func TestError_WithCode(t *testing.T) {
	err := pkgerrors.New("codegen", "Close", fmt.Errorf("server error")).WithCode(4332)

	assert.Equal(t, "[codegen] Close (code 4332): server error", err.Error())
}

func TestWithCode_ReturnsSamePointer(t *testing.T) {
	err := pkgerrors.New("codegen", "Close", nil)
	result := err.WithCode(1006)

	assert.Same(t, err, result)
	assert.Equal(t, 1006, err.Code)
}

func TestChainedBuilders(t *testing.T) {
	err := pkgerrors.New("codegen", "Dispatch", fmt.Errorf("bad frame")).
		WithCode(4332).
		WithDetails(map[string]any{"variant": 1})

	assert.Equal(t, 4332, err.Code)
	assert.Equal(t, map[string]any{"variant": 1}, err.Details)
	assert.Equal(t, "[codegen] Dispatch (code 4332): bad frame", err.Error())
}

func TestErrorsIs(t *testing.T) {
	sentinel := fmt.Errorf("sentinel error")
	wrapped := fmt.Errorf("mid-layer: %w", sentinel)
	err := pkgerrors.New("codegen", "Dispatch", wrapped)

	assert.True(t, errors.Is(err, sentinel))
	assert.True(t, errors.Is(err, wrapped))
}

func TestErrorsAs(t *testing.T) {
	err := pkgerrors.New("streaming", "Send", fmt.Errorf("broken pipe"))
	outer := fmt.Errorf("outer: %w", err)

	var ctxErr *pkgerrors.ContextualError
	require.True(t, errors.As(outer, &ctxErr))
	assert.Equal(t, "streaming", ctxErr.Component)
	assert.Equal(t, "Send", ctxErr.Operation)
}

func TestNestedContextualErrors(t *testing.T) {
	inner := pkgerrors.New("streaming", "Read", io.ErrUnexpectedEOF).WithCode(1006)
	outer := pkgerrors.New("codegen", "Close", inner)

	assert.Equal(t, "[codegen] Close: [streaming] Read (code 1006): unexpected EOF", outer.Error())
	assert.True(t, errors.Is(outer, io.ErrUnexpectedEOF))
}

func TestDetailsDoNotAffectErrorString(t *testing.T) {
	err := pkgerrors.New("codegen", "Start", nil).
		WithDetails(map[string]any{"key": "value"})

	assert.Equal(t, "[codegen] Start", err.Error())
}
