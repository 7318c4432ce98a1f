package scheduler

import (
	"context"
	"errors"
)

// ErrQueueStoreUnavailable means a Queue Store call failed. The scheduling
// pass aborts immediately; no Ledger is flushed and no partial state is
// committed to the Store.
var ErrQueueStoreUnavailable = errors.New("scheduler: queue store unavailable")

// ErrInvariantViolation means a queue key failed to parse or an Accountant
// precondition was violated. This is a programmer/data bug, not a runtime
// condition callers can recover from; the pass aborts.
var ErrInvariantViolation = errors.New("scheduler: invariant violation")

// SetName identifies one of the three ordered sets the scheduler maintains
// per cluster.
type SetName string

const (
	// Running holds deployments currently holding resources.
	Running SetName = "RUNNING"
	// PendingA and PendingB are the two Pending sets used in the
	// double-buffered drain: a pass always reads one and writes the
	// other, so it never mutates a set while iterating it. At most one
	// is non-empty at any quiescent moment.
	PendingA SetName = "PENDING_A"
	PendingB SetName = "PENDING_B"
)

// Entry is one (key, priority) member of an ordered set.
type Entry struct {
	Key      string
	Priority int64
}

// Queue is the ordered-set facade the scheduler drives. It is satisfied by
// pkg/queue's Redis-backed adapter and, in tests, by an in-memory fake --
// the preemption/backfill algorithm in scheduler.go depends only on this
// interface.
type Queue interface {
	// Size returns the number of entries in set for the given cluster.
	Size(ctx context.Context, clusterID string, set SetName) (int64, error)
	// Add inserts or updates key in set with the given score (priority).
	Add(ctx context.Context, clusterID string, set SetName, key string, score int64) error
	// Remove deletes key from set. Removing an absent key is a no-op.
	Remove(ctx context.Context, clusterID string, set SetName, key string) error
	// PopMax removes and returns the highest-score entry in set. ok is
	// false if set was empty.
	PopMax(ctx context.Context, clusterID string, set SetName) (entry Entry, ok bool, err error)
	// PopMin removes and returns the lowest-score entry in set. ok is
	// false if set was empty.
	PopMin(ctx context.Context, clusterID string, set SetName) (entry Entry, ok bool, err error)
}
