package cache

import (
	"context"
	"time"

	"coursemint/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

// NewCache returns a redis client. A failed ping is logged and returned, the
// client is still usable once the server comes up.
func NewCache(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.GetLogger().WithField("error", err).WithField("addr", addr).Warn("Redis ping failed")
		return client, err
	}
	return client, nil
}
