package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		context  string
		cause    error
		expected string
	}{
		{
			name:     "leaf error",
			kind:     InvalidMagic,
			context:  "header",
			expected: "invalid_magic: header",
		},
		{
			name:     "wrapped error",
			kind:     UnexpectedEOF,
			context:  "reading token at 184",
			cause:    errors.New("short buffer"),
			expected: "unexpected_eof: reading token at 184: short buffer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &Error{Kind: tt.kind, Context: tt.context, Cause: tt.cause}
			require.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestWrap(t *testing.T) {
	err := Wrap(InvalidToken, "structure block", nil)
	require.Error(t, err)

	var fdtErr *Error
	require.True(t, errors.As(err, &fdtErr))
	require.Equal(t, InvalidToken, fdtErr.Kind)
	require.Equal(t, "structure block", fdtErr.Context)
}

func TestError_KindMatchesBareKind(t *testing.T) {
	err := Wrap(AddressOverflow, "translate", nil)
	require.True(t, errors.Is(err, AddressOverflow))
	require.False(t, errors.Is(err, TranslationCycle))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := Wrap(TruncatedToken, "prop payload", cause)
	require.Equal(t, cause, errors.Unwrap(err))
	require.True(t, errors.Is(err, cause))
}

func TestKind_IsError(t *testing.T) {
	var err error = InvalidHeader
	require.EqualError(t, err, "invalid_header")
}

func TestError_ChainedWrapping(t *testing.T) {
	base := errors.New("base")
	mid := Wrap(InvalidRegFormat, "reg on node uart@10000000", base)
	outer := Wrap(TypeMismatch, "reg_addresses", mid)

	require.True(t, errors.Is(outer, base))
	require.Contains(t, outer.Error(), "type_mismatch")
	require.Contains(t, outer.Error(), "invalid_reg_format")
}
