package scheduler

import (
	"context"
	"fmt"

	"github.com/hyperctl/hypervisor/pkg/log"
	"github.com/hyperctl/hypervisor/pkg/metrics"
	"github.com/hyperctl/hypervisor/pkg/types"
	"github.com/rs/zerolog"
)

// Scheduler drives admission and completion for one controller process. It
// holds no cluster state of its own -- callers pass the *types.Cluster and
// *types.Deployment aggregates in and out; Scheduler only mutates them and
// the Queue Store.
//
// Scheduler is safe to share across goroutines, but a single scheduling
// pass for a given cluster must not run concurrently with another pass for
// the same cluster -- that serialization is the caller's responsibility
// (pkg/api takes a per-cluster lock before invoking these methods).
type Scheduler struct {
	queue  Queue
	logger zerolog.Logger
}

// New creates a Scheduler backed by the given Queue Store adapter.
func New(q Queue) *Scheduler {
	return &Scheduler{
		queue:  q,
		logger: log.WithComponent("scheduler"),
	}
}

func wrapQueueErr(err error) error {
	metrics.QueueStoreErrorsTotal.Inc()
	return fmt.Errorf("%w: %v", ErrQueueStoreUnavailable, err)
}

// activeSets returns the currently-active Pending set (whichever of
// PendingA/PendingB is non-empty) and the other one as the drain target.
// If both are empty, PendingA is active by convention.
func (s *Scheduler) activeSets(ctx context.Context, clusterID string) (active, temp SetName, err error) {
	sizeA, err := s.queue.Size(ctx, clusterID, PendingA)
	if err != nil {
		return "", "", wrapQueueErr(err)
	}
	if sizeA > 0 {
		return PendingA, PendingB, nil
	}

	sizeB, err := s.queue.Size(ctx, clusterID, PendingB)
	if err != nil {
		return "", "", wrapQueueErr(err)
	}
	if sizeB > 0 {
		return PendingB, PendingA, nil
	}

	return PendingA, PendingB, nil
}

// NewDeploy admits a newly persisted, Pending deployment n onto cluster c,
// preempting lower-priority Running deployments if necessary, and returns
// the Ledger of effective status changes made to deployments other than n
// itself (the caller already holds n and persists its resultant status
// directly).
func (s *Scheduler) NewDeploy(ctx context.Context, n *types.Deployment, c *types.Cluster) (*Ledger, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SchedulingLatency)

	ledger := NewLedger()

	// Step A: fast path.
	if Fits(c, n) {
		Reserve(c, n)
		if err := s.queue.Add(ctx, c.ID, Running, Key(n), n.Priority); err != nil {
			return nil, wrapQueueErr(err)
		}
		return ledger, nil
	}

	active, _, err := s.activeSets(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	admitted := false
	enqueued := false

	// Step B: preemption loop.
	for {
		size, err := s.queue.Size(ctx, c.ID, Running)
		if err != nil {
			return nil, wrapQueueErr(err)
		}
		if size == 0 {
			break
		}

		victim, ok, err := s.queue.PopMin(ctx, c.ID, Running)
		if err != nil {
			return nil, wrapQueueErr(err)
		}
		if !ok {
			break
		}

		if victim.Priority > n.Priority {
			// The lowest running priority already outranks n: put it
			// back, enqueue n, and stop preempting.
			if err := s.queue.Add(ctx, c.ID, Running, victim.Key, victim.Priority); err != nil {
				return nil, wrapQueueErr(err)
			}
			if err := s.queue.Add(ctx, c.ID, active, Key(n), n.Priority); err != nil {
				return nil, wrapQueueErr(err)
			}
			enqueued = true
			break
		}

		r, err := ParseKey(victim.Key)
		if err != nil {
			return nil, err
		}

		Release(c, r)
		ledger.Record(r.ID, r.Status, types.DeploymentPending)
		r.Status = types.DeploymentPending
		if err := s.queue.Add(ctx, c.ID, active, Key(r), r.Priority); err != nil {
			return nil, wrapQueueErr(err)
		}
		metrics.PreemptionsTotal.Inc()
		s.logger.Info().
			Str("cluster_id", c.ID).
			Str("deployment_id", r.ID).
			Int64("priority", r.Priority).
			Msg("preempted deployment")

		if Fits(c, n) {
			Reserve(c, n)
			if err := s.queue.Add(ctx, c.ID, Running, Key(n), n.Priority); err != nil {
				return nil, wrapQueueErr(err)
			}
			admitted = true
			break
		}
	}

	// If preemption drained RUNNING entirely without n ever fitting or
	// ever being explicitly enqueued, it must still be enqueued before
	// Backfill runs -- otherwise a fully-drained cluster would silently
	// drop the admission request instead of leaving n Pending.
	if !admitted && !enqueued {
		if err := s.queue.Add(ctx, c.ID, active, Key(n), n.Priority); err != nil {
			return nil, wrapQueueErr(err)
		}
	}

	if err := s.backfill(ctx, c, ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

// CompleteDeploy marks Running deployment d Completed on cluster c, frees
// its resources, and runs Backfill. Calling it again on an already
// Completed d is a no-op: Transport should reject completing a non-Running
// deployment, but Scheduler guards against double-release regardless.
func (s *Scheduler) CompleteDeploy(ctx context.Context, d *types.Deployment, c *types.Cluster) (*Ledger, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SchedulingLatency)

	ledger := NewLedger()

	if d.Status != types.DeploymentRunning {
		return ledger, nil
	}

	if err := s.queue.Remove(ctx, c.ID, Running, Key(d)); err != nil {
		return nil, wrapQueueErr(err)
	}
	d.Status = types.DeploymentCompleted
	Release(c, d)

	s.logger.Info().
		Str("cluster_id", c.ID).
		Str("deployment_id", d.ID).
		Msg("completed deployment")

	if err := s.backfill(ctx, c, ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

// backfill drains the active Pending set in descending priority order,
// promoting whatever now fits and re-queuing the rest into the other
// Pending set.
func (s *Scheduler) backfill(ctx context.Context, c *types.Cluster, ledger *Ledger) error {
	active, temp, err := s.activeSets(ctx, c.ID)
	if err != nil {
		return err
	}

	for {
		size, err := s.queue.Size(ctx, c.ID, active)
		if err != nil {
			return wrapQueueErr(err)
		}
		if size == 0 {
			break
		}

		entry, ok, err := s.queue.PopMax(ctx, c.ID, active)
		if err != nil {
			return wrapQueueErr(err)
		}
		if !ok {
			break
		}

		p, err := ParseKey(entry.Key)
		if err != nil {
			return err
		}

		if Fits(c, p) {
			ledger.Record(p.ID, p.Status, types.DeploymentRunning)
			Reserve(c, p)
			if err := s.queue.Add(ctx, c.ID, Running, Key(p), p.Priority); err != nil {
				return wrapQueueErr(err)
			}
			metrics.BackfillPromotionsTotal.Inc()
			s.logger.Info().
				Str("cluster_id", c.ID).
				Str("deployment_id", p.ID).
				Int64("priority", p.Priority).
				Msg("backfilled deployment")
		} else {
			if err := s.queue.Add(ctx, c.ID, temp, Key(p), p.Priority); err != nil {
				return wrapQueueErr(err)
			}
		}
	}

	return nil
}
