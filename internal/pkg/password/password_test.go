package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashCompare(t *testing.T) {
	hash, err := Hash("hunter2")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2", hash)
	require.NoError(t, Compare(hash, "hunter2"))
	require.ErrorIs(t, Compare(hash, "hunter3"), ErrMismatch)
	require.Error(t, Compare("not-a-hash", "hunter2"))
}

func TestHashRejectsLongInput(t *testing.T) {
	_, err := Hash(strings.Repeat("x", 73))
	require.ErrorIs(t, err, ErrTooLong)
}
