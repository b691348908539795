package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOKIsNotAnError(t *testing.T) {
	s := OK()
	require.True(t, s.IsOK())
	require.Nil(t, s.AsError())
	require.Equal(t, "", s.Error())
}

func TestCodesRoundTrip(t *testing.T) {
	cases := []struct {
		s    Status
		code Code
	}{
		{NewNotFound("missing key"), NotFound},
		{NewCorruption("bad crc"), Corruption},
		{NewNotSupported("nope"), NotSupported},
		{NewInvalidArgument("bad arg"), InvalidArgument},
		{NewIOError("disk gone"), IOError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.code, tc.s.Code())
		require.False(t, tc.s.IsOK())
		require.Error(t, tc.s.AsError())
	}
}

func TestSecondaryMessageIsIncluded(t *testing.T) {
	s := NewIOError("write failed", "disk full")
	require.Contains(t, s.Error(), "write failed")
	require.Contains(t, s.Error(), "disk full")
}

func TestErrorsIsWorksThroughWrapping(t *testing.T) {
	base := NewCorruption("checksum mismatch")
	wrapped := fmt.Errorf("wal: %w", base)
	require.True(t, errors.Is(wrapped, base))
	require.Contains(t, wrapped.Error(), "checksum mismatch")
}
