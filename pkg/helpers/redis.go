package helpers

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a client with short dial and IO timeouts so a slow
// Redis surfaces as an error on the request instead of a hang.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// PingRedis checks connectivity within timeout.
func PingRedis(ctx context.Context, rdb *redis.Client, timeout time.Duration) error {
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return rdb.Ping(c).Err()
}

// KeySession is the Redis key holding the live session for an account.
func KeySession(accountID string) string {
	return "user:session:" + accountID
}
