package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		code int
		want Outcome
	}{
		{UserCloseCode, OutcomeCancelled},
		{AppErrorCode, OutcomeAppError},
		{1000, OutcomeCompleted},
		{1001, OutcomeAbnormal},
		{1005, OutcomeAbnormal},
		{1006, OutcomeAbnormal},
		{1011, OutcomeAbnormal},
		{4000, OutcomeAbnormal},
		{0, OutcomeAbnormal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.code), "code %d", tt.code)
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "unset", OutcomeUnset.String())
	assert.Equal(t, "cancelled", OutcomeCancelled.String())
	assert.Equal(t, "app_error", OutcomeAppError.String())
	assert.Equal(t, "completed", OutcomeCompleted.String())
	assert.Equal(t, "abnormal", OutcomeAbnormal.String())
}
