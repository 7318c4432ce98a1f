package health

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	checkType CheckType
	result    Result
}

func (f fakeChecker) Type() CheckType           { return f.checkType }
func (f fakeChecker) Check(context.Context) Result { return f.result }

func TestAggregate_AllHealthy(t *testing.T) {
	err := Aggregate(context.Background(),
		fakeChecker{checkType: CheckTypePostgres, result: Result{Healthy: true}},
		fakeChecker{checkType: CheckTypeRedis, result: Result{Healthy: true}},
	)
	require.NoError(t, err)
}

func TestAggregate_ReportsFirstUnhealthy(t *testing.T) {
	err := Aggregate(context.Background(),
		fakeChecker{checkType: CheckTypePostgres, result: Result{Healthy: true}},
		fakeChecker{checkType: CheckTypeRedis, result: Result{Healthy: false, Message: "connection refused"}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRedisChecker(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	checker := NewRedisChecker(client)
	result := checker.Check(context.Background())
	assert.True(t, result.Healthy)

	mr.Close()
	result = checker.Check(context.Background())
	assert.False(t, result.Healthy)
}

func TestStatus_MarksUnhealthyAfterRetries(t *testing.T) {
	cfg := Config{Retries: 2}
	status := NewStatus()

	status.Update(Result{Healthy: false}, cfg)
	assert.True(t, status.Healthy)

	status.Update(Result{Healthy: false}, cfg)
	assert.False(t, status.Healthy)

	status.Update(Result{Healthy: true}, cfg)
	assert.True(t, status.Healthy)
}

type flakyChecker struct {
	checkType CheckType
	results   []Result
	calls     int
}

func (f *flakyChecker) Type() CheckType { return f.checkType }

func (f *flakyChecker) Check(context.Context) Result {
	r := f.results[f.calls]
	if f.calls < len(f.results)-1 {
		f.calls++
	}
	return r
}

func TestAggregator_ToleratesASingleTransientFailure(t *testing.T) {
	redisCheck := &flakyChecker{
		checkType: CheckTypeRedis,
		results: []Result{
			{Healthy: false, Message: "timeout"},
			{Healthy: true, Message: "ok"},
		},
	}
	agg := NewAggregator(Config{Retries: 2}, redisCheck)

	require.NoError(t, agg.Check(context.Background()))
}

func TestAggregator_ReportsUnhealthyAfterRetriesExhausted(t *testing.T) {
	redisCheck := &flakyChecker{
		checkType: CheckTypeRedis,
		results:   []Result{{Healthy: false, Message: "connection refused"}},
	}
	agg := NewAggregator(Config{Retries: 2}, redisCheck)

	require.NoError(t, agg.Check(context.Background()))
	err := agg.Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAggregator_IgnoresFailuresDuringStartPeriod(t *testing.T) {
	postgres := &flakyChecker{
		checkType: CheckTypePostgres,
		results:   []Result{{Healthy: false, Message: "not ready yet"}},
	}
	agg := NewAggregator(Config{Retries: 1, StartPeriod: time.Hour}, postgres)

	require.NoError(t, agg.Check(context.Background()))
}
