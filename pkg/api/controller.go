package api

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hyperctl/hypervisor/pkg/events"
	"github.com/hyperctl/hypervisor/pkg/scheduler"
	"github.com/hyperctl/hypervisor/pkg/storage"
	"github.com/hyperctl/hypervisor/pkg/types"
)

// ErrExceedsCapacity means a deployment's resource demand is larger than
// the cluster's total capacity in at least one dimension, so it could
// never run regardless of what else is preempted.
var ErrExceedsCapacity = fmt.Errorf("api: deployment exceeds cluster capacity")

// ErrNotRunning means a completion request targeted a deployment that
// isn't currently Running.
var ErrNotRunning = fmt.Errorf("api: deployment is not running")

// Admit persists a new Pending deployment, runs the scheduling pass for
// its cluster under that cluster's lock, and commits the resulting
// cluster-availability and status changes in one transaction.
func (c *Controller) Admit(ctx context.Context, d *types.Deployment) error {
	lock := c.lockCluster(d.ClusterID)
	lock.Lock()
	defer lock.Unlock()

	cluster, err := c.store.GetCluster(ctx, d.ClusterID)
	if err != nil {
		return err
	}
	if d.ExceedsCapacity(cluster) {
		return ErrExceedsCapacity
	}

	if err := c.store.CreateDeployment(ctx, d); err != nil {
		return err
	}

	ledger, err := c.scheduler.NewDeploy(ctx, d, cluster)
	if err != nil {
		return err
	}

	flushed, err := c.commit(ctx, cluster, d, ledger)
	if err != nil {
		return err
	}
	c.publish(cluster.ID, events.EventDeploymentAdmitted, d.ID, d.Status)
	c.publishFlushed(cluster.ID, flushed)
	return nil
}

// Complete marks a Running deployment Completed, runs Backfill for its
// cluster, and commits the result.
func (c *Controller) Complete(ctx context.Context, d *types.Deployment) error {
	if d.Status != types.DeploymentRunning {
		return ErrNotRunning
	}

	lock := c.lockCluster(d.ClusterID)
	lock.Lock()
	defer lock.Unlock()

	cluster, err := c.store.GetCluster(ctx, d.ClusterID)
	if err != nil {
		return err
	}

	ledger, err := c.scheduler.CompleteDeploy(ctx, d, cluster)
	if err != nil {
		return err
	}

	flushed, err := c.commit(ctx, cluster, d, ledger)
	if err != nil {
		return err
	}
	c.publish(cluster.ID, events.EventDeploymentCompleted, d.ID, d.Status)
	c.publishFlushed(cluster.ID, flushed)
	return nil
}

// commit writes the post-pass cluster availability, d's own resultant
// status (which the scheduler already mutated in place), and the Ledger's
// flushed updates for every other affected deployment -- all in a single
// Store transaction. It returns the Ledger's flushed updates so the caller
// can publish them as events after the transaction succeeds.
func (c *Controller) commit(ctx context.Context, cluster *types.Cluster, d *types.Deployment, ledger *scheduler.Ledger) ([]scheduler.StatusUpdate, error) {
	flushed := ledger.Flush()
	updates := make([]storage.DeploymentStatusUpdate, 0, len(flushed)+1)
	updates = append(updates, storage.DeploymentStatusUpdate{DeploymentID: d.ID, Status: d.Status})
	for _, u := range flushed {
		updates = append(updates, storage.DeploymentStatusUpdate{DeploymentID: u.DeploymentID, Status: u.Status})
	}
	if err := c.store.UpdateClusterAvailability(ctx, cluster, updates); err != nil {
		return nil, err
	}
	return flushed, nil
}

// publish sends a single deployment event to the broker, if one is wired.
func (c *Controller) publish(clusterID string, eventType events.EventType, deploymentID string, status types.DeploymentStatus) {
	if c.broker == nil {
		return
	}
	c.broker.Publish(&events.Event{
		ID:           uuid.New().String(),
		Type:         eventType,
		ClusterID:    clusterID,
		DeploymentID: deploymentID,
		Status:       string(status),
	})
}

// publishFlushed publishes one event per Ledger entry: a transition landing
// on Pending is a preemption, one landing on Running is a backfill
// promotion.
func (c *Controller) publishFlushed(clusterID string, updates []scheduler.StatusUpdate) {
	if c.broker == nil {
		return
	}
	for _, u := range updates {
		eventType := events.EventDeploymentBackfill
		if u.Status == types.DeploymentPending {
			eventType = events.EventDeploymentPreempted
		}
		c.publish(clusterID, eventType, u.DeploymentID, u.Status)
	}
}
