package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClassString(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(99).String())
}

func TestWrapFormatsContext(t *testing.T) {
	base := stderrors.New("boom")
	err := Wrap(base, "StreamingEngine", "Process", "risk scoring")

	require.Error(t, err)
	assert.Equal(t, "StreamingEngine.Process: risk scoring failed: boom", err.Error())
	assert.ErrorIs(t, err, base)

	assert.NoError(t, Wrap(nil, "a", "b", "c"))
}

func TestClassifiedWrappersPreserveClass(t *testing.T) {
	base := stderrors.New("boom")

	tests := []struct {
		name string
		wrap func(error, string, string, string) error
		want ErrorClass
	}{
		{"transient", WrapTransient, ErrorTransient},
		{"invalid", WrapInvalid, ErrorInvalid},
		{"fatal", WrapFatal, ErrorFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.wrap(base, "comp", "method", "action")
			require.Error(t, err)

			var ce *ClassifiedError
			require.True(t, stderrors.As(err, &ce))
			assert.Equal(t, tt.want, ce.Class)
			assert.Equal(t, tt.want, Classify(err))
			assert.ErrorIs(t, err, base)

			assert.NoError(t, tt.wrap(nil, "comp", "method", "action"))
		})
	}
}

func TestClassificationOfStandardErrors(t *testing.T) {
	assert.True(t, IsInvalid(ErrMalformedUpdate))
	assert.True(t, IsInvalid(fmt.Errorf("line 7: %w", ErrMissingPatient)))
	assert.True(t, IsFatal(ErrInvalidConfig))
	assert.True(t, IsTransient(ErrQueueFull))
	assert.True(t, IsTransient(context.Canceled))

	assert.False(t, IsTransient(nil))
	assert.False(t, IsFatal(nil))
	assert.False(t, IsInvalid(nil))
}
