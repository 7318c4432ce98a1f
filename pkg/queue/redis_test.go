package queue

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hyperctl/hypervisor/pkg/scheduler"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) *RedisQueue {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client)
}

func TestRedisQueue_AddSizeRemove(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	size, err := q.Size(ctx, "c1", scheduler.Running)
	require.NoError(t, err)
	require.Equal(t, int64(0), size)

	require.NoError(t, q.Add(ctx, "c1", scheduler.Running, "d1-key", 5))
	size, err = q.Size(ctx, "c1", scheduler.Running)
	require.NoError(t, err)
	require.Equal(t, int64(1), size)

	require.NoError(t, q.Remove(ctx, "c1", scheduler.Running, "d1-key"))
	size, err = q.Size(ctx, "c1", scheduler.Running)
	require.NoError(t, err)
	require.Equal(t, int64(0), size)
}

func TestRedisQueue_PopMaxMin(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	require.NoError(t, q.Add(ctx, "c1", scheduler.PendingA, "low", 1))
	require.NoError(t, q.Add(ctx, "c1", scheduler.PendingA, "high", 10))

	entry, ok, err := q.PopMax(ctx, "c1", scheduler.PendingA)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "high", entry.Key)
	require.Equal(t, int64(10), entry.Priority)

	entry, ok, err = q.PopMin(ctx, "c1", scheduler.PendingA)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "low", entry.Key)
	require.Equal(t, int64(1), entry.Priority)

	_, ok, err = q.PopMax(ctx, "c1", scheduler.PendingA)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisQueue_NamespacedPerCluster(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	require.NoError(t, q.Add(ctx, "c1", scheduler.Running, "k", 1))
	size, err := q.Size(ctx, "c2", scheduler.Running)
	require.NoError(t, err)
	require.Equal(t, int64(0), size)
}
