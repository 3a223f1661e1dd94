package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if the caller still owns it, so an
// expired-and-reacquired lock is never released by the previous holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// SaleLocker serializes payment recording per sale with a redis lease.
type SaleLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSaleLocker constructs the locker. ttl bounds how long a crashed holder
// can block the sale.
func NewSaleLocker(client *redis.Client, ttl time.Duration) *SaleLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &SaleLocker{client: client, ttl: ttl}
}

func saleLockKey(saleID int64) string {
	return fmt.Sprintf("sales:%d:lock", saleID)
}

// AcquireSaleLock takes the per-sale lock or fails fast with ErrLockHeld.
// The returned release is safe to call after the lease expired.
func (l *SaleLocker) AcquireSaleLock(ctx context.Context, saleID int64) (func(), error) {
	key := saleLockKey(saleID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire sale lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: sale %d", ErrLockHeld, saleID)
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}
	return release, nil
}
