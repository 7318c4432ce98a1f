// Package queue implements the Queue Store adapter: a Redis-backed ordered
// set per cluster per scheduling set (RUNNING, PENDING_A, PENDING_B),
// satisfying the scheduler.Queue interface that pkg/scheduler depends on.
package queue
