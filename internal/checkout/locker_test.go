package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerSingleFlight(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()

	acquired, err := locker.Acquire(ctx, "session-a")
	require.NoError(t, err)
	assert.True(t, acquired)

	again, err := locker.Acquire(ctx, "session-a")
	require.NoError(t, err)
	assert.False(t, again)

	// A different session is independent.
	other, err := locker.Acquire(ctx, "session-b")
	require.NoError(t, err)
	assert.True(t, other)

	require.NoError(t, locker.Release(ctx, "session-a"))

	reacquired, err := locker.Acquire(ctx, "session-a")
	require.NoError(t, err)
	assert.True(t, reacquired)
}
