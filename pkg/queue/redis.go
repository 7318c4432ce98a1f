package queue

import (
	"context"
	"fmt"

	"github.com/hyperctl/hypervisor/pkg/scheduler"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces every ordered set this package writes so a shared
// Redis instance can be reused for other purposes.
const keyPrefix = "hypervisor"

// RedisQueue implements scheduler.Queue on top of a Redis sorted set per
// (cluster, set) pair. Member scores are the deployment's priority, so
// ZPOPMAX/ZPOPMIN map directly onto "highest priority"/"lowest priority".
type RedisQueue struct {
	client *redis.Client
}

// New wraps an existing Redis client as a scheduler.Queue.
func New(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func setKey(clusterID string, set scheduler.SetName) string {
	return fmt.Sprintf("%s:{%s}:%s", keyPrefix, clusterID, set)
}

func (q *RedisQueue) Size(ctx context.Context, clusterID string, set scheduler.SetName) (int64, error) {
	n, err := q.client.ZCard(ctx, setKey(clusterID, set)).Result()
	if err != nil {
		return 0, fmt.Errorf("queue: ZCARD %s: %w", setKey(clusterID, set), err)
	}
	return n, nil
}

func (q *RedisQueue) Add(ctx context.Context, clusterID string, set scheduler.SetName, key string, score int64) error {
	err := q.client.ZAdd(ctx, setKey(clusterID, set), redis.Z{
		Score:  float64(score),
		Member: key,
	}).Err()
	if err != nil {
		return fmt.Errorf("queue: ZADD %s: %w", setKey(clusterID, set), err)
	}
	return nil
}

func (q *RedisQueue) Remove(ctx context.Context, clusterID string, set scheduler.SetName, key string) error {
	err := q.client.ZRem(ctx, setKey(clusterID, set), key).Err()
	if err != nil {
		return fmt.Errorf("queue: ZREM %s: %w", setKey(clusterID, set), err)
	}
	return nil
}

func (q *RedisQueue) PopMax(ctx context.Context, clusterID string, set scheduler.SetName) (scheduler.Entry, bool, error) {
	return q.pop(ctx, clusterID, set, true)
}

func (q *RedisQueue) PopMin(ctx context.Context, clusterID string, set scheduler.SetName) (scheduler.Entry, bool, error) {
	return q.pop(ctx, clusterID, set, false)
}

func (q *RedisQueue) pop(ctx context.Context, clusterID string, set scheduler.SetName, max bool) (scheduler.Entry, bool, error) {
	key := setKey(clusterID, set)

	var (
		zs  []redis.Z
		err error
	)
	if max {
		zs, err = q.client.ZPopMax(ctx, key, 1).Result()
	} else {
		zs, err = q.client.ZPopMin(ctx, key, 1).Result()
	}
	if err != nil {
		return scheduler.Entry{}, false, fmt.Errorf("queue: ZPOP %s: %w", key, err)
	}
	if len(zs) == 0 {
		return scheduler.Entry{}, false, nil
	}

	member, ok := zs[0].Member.(string)
	if !ok {
		return scheduler.Entry{}, false, fmt.Errorf("queue: non-string member in %s", key)
	}

	return scheduler.Entry{Key: member, Priority: int64(zs[0].Score)}, true, nil
}
