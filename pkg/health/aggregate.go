package health

import (
	"context"
	"fmt"
	"sync"
)

// Aggregate runs every checker once and returns an error naming the first
// unhealthy one, or nil if all are healthy. Useful for a one-shot probe
// (startup smoke test, CLI diagnostic) that doesn't need debouncing.
func Aggregate(ctx context.Context, checkers ...Checker) error {
	for _, c := range checkers {
		result := c.Check(ctx)
		if !result.Healthy {
			return fmt.Errorf("%s: %s", c.Type(), result.Message)
		}
	}
	return nil
}

// Aggregator runs a fixed set of Checkers on every call and applies config's
// Retries/StartPeriod policy per checker, so /healthz doesn't flap on a
// single slow ping -- a dependency has to fail config.Retries times in a
// row, after the start grace period, before it counts against readiness.
type Aggregator struct {
	checkers []Checker
	config   Config

	mu       sync.Mutex
	statuses map[CheckType]*Status
}

// NewAggregator builds an Aggregator with its own Status per checker,
// tracked across calls to Check.
func NewAggregator(config Config, checkers ...Checker) *Aggregator {
	statuses := make(map[CheckType]*Status, len(checkers))
	for _, c := range checkers {
		statuses[c.Type()] = NewStatus()
	}
	return &Aggregator{checkers: checkers, config: config, statuses: statuses}
}

// Check runs every checker, updates its debounced Status, and returns an
// error naming the first checker that's unhealthy after StartPeriod and
// Retries are applied.
func (a *Aggregator) Check(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, c := range a.checkers {
		result := c.Check(ctx)
		status := a.statuses[c.Type()]
		status.Update(result, a.config)

		if status.InStartPeriod(a.config) {
			continue
		}
		if !status.Healthy {
			return fmt.Errorf("%s: %s", c.Type(), result.Message)
		}
	}
	return nil
}
