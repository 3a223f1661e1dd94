package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*SaleLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSaleLocker(client, time.Minute), mr
}

func TestSaleLockerSerializesHolders(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	release, err := locker.AcquireSaleLock(ctx, 42)
	require.NoError(t, err)

	_, err = locker.AcquireSaleLock(ctx, 42)
	require.ErrorIs(t, err, ErrLockHeld)

	// A different sale is an independent lock.
	otherRelease, err := locker.AcquireSaleLock(ctx, 43)
	require.NoError(t, err)
	otherRelease()

	release()
	release2, err := locker.AcquireSaleLock(ctx, 42)
	require.NoError(t, err)
	release2()
}

func TestSaleLockerReleaseIgnoresStolenLock(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	release, err := locker.AcquireSaleLock(ctx, 7)
	require.NoError(t, err)

	// Lease expires and another holder takes over.
	mr.FastForward(2 * time.Minute)
	newRelease, err := locker.AcquireSaleLock(ctx, 7)
	require.NoError(t, err)

	// The stale release must not drop the new holder's lock.
	release()
	require.True(t, mr.Exists(saleLockKey(7)))

	newRelease()
	require.False(t, mr.Exists(saleLockKey(7)))
}
