package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_PreservesCodeAndMeta(t *testing.T) {
	base := dnderr.StateViolationf("unit %s not allowed", "RANDOM_EVENT").
		WithMeta("state", "IN_DIALOGUE")

	wrapped := dnderr.Wrap(base, "emit failed").WithMeta("session_id", "s1")

	assert.Equal(t, dnderr.CodeStateViolation, wrapped.Code)
	assert.True(t, dnderr.IsStateViolation(wrapped))
	assert.Equal(t, "IN_DIALOGUE", dnderr.GetMeta(wrapped)["state"])
	assert.Equal(t, "s1", dnderr.GetMeta(wrapped)["session_id"])
	// the cause metadata is copied, not shared
	assert.NotContains(t, base.Meta, "session_id")
	assert.Equal(t, "emit failed: unit RANDOM_EVENT not allowed", wrapped.Error())
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, dnderr.Wrap(nil, "nothing"))
	assert.Nil(t, dnderr.WrapOracle(nil, "nothing"))
}

func TestWrapOracle(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want dnderr.Code
	}{
		{
			name: "deadline becomes timeout",
			err:  fmt.Errorf("post: %w", context.DeadlineExceeded),
			want: dnderr.CodeOracleTimeout,
		},
		{
			name: "transport failure becomes unavailable",
			err:  errors.New("connection refused"),
			want: dnderr.CodeOracleUnavailable,
		},
		{
			name: "classified error keeps its code",
			err:  dnderr.MalformedJudgment("empty completion"),
			want: dnderr.CodeMalformedJudgment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dnderr.WrapOracle(tt.err, "generate")
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Code)
			assert.True(t, dnderr.IsOracleError(got))
		})
	}
}

func TestIsOracleError_OtherCodes(t *testing.T) {
	assert.False(t, dnderr.IsOracleError(dnderr.InvalidArgument("bad")))
	assert.False(t, dnderr.IsOracleError(errors.New("plain")))
	assert.True(t, dnderr.IsOracleError(dnderr.InterpreterRejected("no")))
}

func TestGetCode_PlainError(t *testing.T) {
	assert.Equal(t, dnderr.CodeUnknown, dnderr.GetCode(errors.New("plain")))
	assert.Nil(t, dnderr.GetMeta(errors.New("plain")))
}
