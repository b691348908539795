package bloom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDoorkeeperFirstSeenReturnsFalse(t *testing.T) {
	d := NewDoorkeeper(100)
	require.False(t, d.Seen([]byte("alpha")))
}

func TestDoorkeeperSecondSeenReturnsTrue(t *testing.T) {
	d := NewDoorkeeper(100)
	d.Seen([]byte("alpha"))
	require.True(t, d.Seen([]byte("alpha")))
}

func TestDoorkeeperDistinctKeysTrackedIndependently(t *testing.T) {
	d := NewDoorkeeper(100)
	require.False(t, d.Seen([]byte("alpha")))
	require.False(t, d.Seen([]byte("beta")))
	require.True(t, d.Seen([]byte("alpha")))
}

func TestDoorkeeperResetForgetsEverything(t *testing.T) {
	d := NewDoorkeeper(100)
	d.Seen([]byte("alpha"))
	require.True(t, d.Seen([]byte("alpha")))

	d.Reset()
	require.False(t, d.Seen([]byte("alpha")))
}
