package health

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisChecker pings a *redis.Client.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker wraps client as a Checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Type() CheckType {
	return CheckTypeRedis
}

func (c *RedisChecker) Check(ctx context.Context) Result {
	start := time.Now()
	err := c.client.Ping(ctx).Err()
	result := Result{CheckedAt: start, Duration: time.Since(start)}
	if err != nil {
		result.Healthy = false
		result.Message = err.Error()
		return result
	}
	result.Healthy = true
	result.Message = "ok"
	return result
}
