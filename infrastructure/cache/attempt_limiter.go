package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursemint/domain/repository"

	"github.com/redis/go-redis/v9"
)

const attemptKeyPrefix = "access:fail:"

// AttemptLimiter counts failed code validations in fixed windows. The window
// starts at the first failure and is not extended by later ones.
type AttemptLimiter struct {
	client redis.Cmdable
	max    int64
	window time.Duration
}

var _ repository.IAttemptLimiter = (*AttemptLimiter)(nil)

func NewAttemptLimiter(client redis.Cmdable, max int64, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{client: client, max: max, window: window}
}

func (l *AttemptLimiter) Blocked(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Get(ctx, attemptKeyPrefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read attempt counter: %w", err)
	}
	return n >= l.max, nil
}

func (l *AttemptLimiter) RecordFailure(ctx context.Context, key string) (int64, error) {
	k := attemptKeyPrefix + key
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("increment attempt counter: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return n, fmt.Errorf("expire attempt counter: %w", err)
		}
	}
	return n, nil
}
