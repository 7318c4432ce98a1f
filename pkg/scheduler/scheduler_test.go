package scheduler

import (
	"context"
	"testing"

	"github.com/hyperctl/hypervisor/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCluster(id string, ram, cpu, gpu int) *types.Cluster {
	return &types.Cluster{
		ID: id, Name: id,
		TotalRAM: ram, TotalCPU: cpu, TotalGPU: gpu,
		AvailRAM: ram, AvailCPU: cpu, AvailGPU: gpu,
	}
}

func newDeployment(id string, ram, cpu, gpu int, priority int64) *types.Deployment {
	return &types.Deployment{
		ID: id, Name: id, ClusterID: "c1", ImagePath: "img:" + id,
		RAMRequired: ram, CPURequired: cpu, GPURequired: gpu,
		Priority: priority, Status: types.DeploymentPending,
	}
}

// queuedStatus returns the status of deployment id as the scheduler holds it
// in cluster c1's queue sets. Deployments the scheduler preempts or promotes
// are parsed from their queue keys, so the caller's own pointer is not
// updated; the queued copy (and the Ledger) carry the new status.
func queuedStatus(t *testing.T, s *Scheduler, id string) types.DeploymentStatus {
	t.Helper()
	_, d := s.queue.(*fakeQueue).find("c1", id)
	require.NotNil(t, d, "deployment %s is in no queue set", id)
	return d.Status
}

// Scenario 1: fast path -- plenty of capacity, no preemption, empty ledger.
func TestNewDeploy_FastPath(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeQueue())
	c := newCluster("c1", 100, 100, 100)
	d := newDeployment("d1", 10, 10, 10, 5)

	ledger, err := s.NewDeploy(ctx, d, c)
	require.NoError(t, err)
	assert.True(t, ledger.Empty())
	assert.Equal(t, types.DeploymentRunning, d.Status)
	assert.Equal(t, 90, c.AvailRAM)
	assert.Equal(t, 90, c.AvailCPU)
	assert.Equal(t, 90, c.AvailGPU)

	size, err := s.queue.Size(ctx, "c1", Running)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}

// Scenario 2: a higher-priority deployment preempts a single lower-priority
// Running deployment that frees exactly enough capacity.
func TestNewDeploy_Preemption(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeQueue())
	c := newCluster("c1", 20, 20, 20)

	d1 := newDeployment("d1", 20, 20, 20, 1)
	ledger, err := s.NewDeploy(ctx, d1, c)
	require.NoError(t, err)
	assert.True(t, ledger.Empty())
	assert.Equal(t, types.DeploymentRunning, d1.Status)

	d2 := newDeployment("d2", 20, 20, 20, 10)
	ledger, err = s.NewDeploy(ctx, d2, c)
	require.NoError(t, err)

	assert.Equal(t, types.DeploymentPending, queuedStatus(t, s, "d1"))
	assert.Equal(t, types.DeploymentRunning, d2.Status)
	assert.Equal(t, 0, c.AvailRAM)
	assert.Equal(t, 0, c.AvailCPU)
	assert.Equal(t, 0, c.AvailGPU)

	require.Equal(t, 1, ledger.Len())
	updates := ledger.Flush()
	require.Len(t, updates, 1)
	assert.Equal(t, "d1", updates[0].DeploymentID)
	assert.Equal(t, types.DeploymentPending, updates[0].Status)
}

// Scenario 3: completing a Running deployment frees resources that
// Backfill immediately uses to promote a waiting Pending deployment.
func TestCompleteDeploy_BackfillsWaitingDeployment(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeQueue())
	c := newCluster("c1", 20, 20, 20)

	d1 := newDeployment("d1", 20, 20, 20, 10)
	_, err := s.NewDeploy(ctx, d1, c)
	require.NoError(t, err)

	d2 := newDeployment("d2", 20, 20, 20, 1)
	ledger, err := s.NewDeploy(ctx, d2, c)
	require.NoError(t, err)
	assert.True(t, ledger.Empty())
	assert.Equal(t, types.DeploymentPending, d2.Status)

	ledger, err = s.CompleteDeploy(ctx, d1, c)
	require.NoError(t, err)
	assert.Equal(t, types.DeploymentCompleted, d1.Status)
	assert.Equal(t, types.DeploymentRunning, queuedStatus(t, s, "d2"))
	assert.Equal(t, 0, c.AvailRAM)

	require.Equal(t, 1, ledger.Len())
	updates := ledger.Flush()
	assert.Equal(t, "d2", updates[0].DeploymentID)
	assert.Equal(t, types.DeploymentRunning, updates[0].Status)
}

// Scenario 4: a new deployment with lower priority than everything Running
// cannot preempt anything; it stays Pending and the ledger is empty.
func TestNewDeploy_LowerPriorityStaysPending(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeQueue())
	c := newCluster("c1", 20, 20, 20)

	d1 := newDeployment("d1", 20, 20, 20, 10)
	_, err := s.NewDeploy(ctx, d1, c)
	require.NoError(t, err)

	d2 := newDeployment("d2", 20, 20, 20, 1)
	ledger, err := s.NewDeploy(ctx, d2, c)
	require.NoError(t, err)

	assert.True(t, ledger.Empty())
	assert.Equal(t, types.DeploymentPending, d2.Status)
	assert.Equal(t, types.DeploymentRunning, d1.Status)
	assert.Equal(t, 0, c.AvailRAM)

	// d2 is enqueued into PendingA, then Backfill's drain retains it in the
	// other Pending set.
	size, err := s.queue.Size(ctx, "c1", PendingB)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}

// Scenario 5: admitting one large, high-priority deployment chain-preempts
// two lower-priority Running deployments.
func TestNewDeploy_ChainedPreemption(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeQueue())
	c := newCluster("c1", 30, 30, 30)

	d1 := newDeployment("d1", 10, 10, 10, 1)
	d2 := newDeployment("d2", 10, 10, 10, 2)
	_, err := s.NewDeploy(ctx, d1, c)
	require.NoError(t, err)
	_, err = s.NewDeploy(ctx, d2, c)
	require.NoError(t, err)

	d3 := newDeployment("d3", 15, 15, 15, 3)
	_, err = s.NewDeploy(ctx, d3, c)
	require.NoError(t, err)

	d4 := newDeployment("d4", 30, 30, 30, 100)
	ledger, err := s.NewDeploy(ctx, d4, c)
	require.NoError(t, err)

	assert.Equal(t, types.DeploymentPending, queuedStatus(t, s, "d1"))
	assert.Equal(t, types.DeploymentPending, queuedStatus(t, s, "d2"))
	assert.Equal(t, types.DeploymentPending, queuedStatus(t, s, "d3"))
	assert.Equal(t, types.DeploymentRunning, d4.Status)
	assert.Equal(t, 0, c.AvailRAM)

	// d1 was already Pending from the d3 admission pass, so this pass's
	// ledger only carries the deployments whose status changed here.
	updates := ledger.Flush()
	assert.Len(t, updates, 2)
}

// Scenario 6: Backfill never promotes a Pending deployment that can never
// fit even on a fully drained cluster -- it stays Pending while the
// deployment it preempted is promoted back.
func TestBackfill_RefusesOversizedPending(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeQueue())
	c := newCluster("c1", 10, 10, 10)

	small := newDeployment("small", 5, 5, 5, 5)
	_, err := s.NewDeploy(ctx, small, c)
	require.NoError(t, err)

	// impossible demands more than the cluster's total capacity, so it
	// can never fit regardless of what else is preempted. Admitting it
	// preempts small to make room, finds it still doesn't fit, then
	// Backfill re-promotes small (a self-cancelling round trip) while
	// impossible is left behind in the other Pending set.
	impossible := newDeployment("impossible", 20, 20, 20, 100)
	ledger, err := s.NewDeploy(ctx, impossible, c)
	require.NoError(t, err)
	assert.True(t, ledger.Empty())
	assert.Equal(t, types.DeploymentPending, impossible.Status)
	assert.Equal(t, types.DeploymentRunning, small.Status)

	sizeA, err := s.queue.Size(ctx, "c1", PendingA)
	require.NoError(t, err)
	sizeB, err := s.queue.Size(ctx, "c1", PendingB)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sizeA+sizeB)
}

// Completing the same deployment twice must not double-release capacity.
func TestCompleteDeploy_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeQueue())
	c := newCluster("c1", 20, 20, 20)
	d := newDeployment("d1", 10, 10, 10, 1)

	_, err := s.NewDeploy(ctx, d, c)
	require.NoError(t, err)

	_, err = s.CompleteDeploy(ctx, d, c)
	require.NoError(t, err)
	assert.Equal(t, 20, c.AvailRAM)

	ledger, err := s.CompleteDeploy(ctx, d, c)
	require.NoError(t, err)
	assert.True(t, ledger.Empty())
	assert.Equal(t, 20, c.AvailRAM)
}

// Key/ParseKey form a round trip.
func TestKey_RoundTrip(t *testing.T) {
	d := newDeployment("d1", 10, 20, 30, 42)
	d.Status = types.DeploymentRunning
	d.ClusterID = "cluster-9"

	parsed, err := ParseKey(Key(d))
	require.NoError(t, err)
	assert.Equal(t, d.ID, parsed.ID)
	assert.Equal(t, d.Name, parsed.Name)
	assert.Equal(t, d.ClusterID, parsed.ClusterID)
	assert.Equal(t, d.ImagePath, parsed.ImagePath)
	assert.Equal(t, d.RAMRequired, parsed.RAMRequired)
	assert.Equal(t, d.CPURequired, parsed.CPURequired)
	assert.Equal(t, d.GPURequired, parsed.GPURequired)
	assert.Equal(t, d.Priority, parsed.Priority)
	assert.Equal(t, d.Status, parsed.Status)
}

func TestParseKey_RejectsMalformedKey(t *testing.T) {
	_, err := ParseKey("too|few|fields")
	require.ErrorIs(t, err, ErrInvariantViolation)
}

// A status round trip within one pass is self-cancelling.
func TestLedger_SelfCancels(t *testing.T) {
	l := NewLedger()
	l.Record("d1", types.DeploymentRunning, types.DeploymentPending)
	assert.Equal(t, 1, l.Len())

	l.Record("d1", types.DeploymentPending, types.DeploymentRunning)
	assert.True(t, l.Empty())
	assert.Empty(t, l.Flush())
}

func TestLedger_NetTransitionSurvives(t *testing.T) {
	l := NewLedger()
	l.Record("d1", types.DeploymentRunning, types.DeploymentPending)
	updates := l.Flush()
	require.Len(t, updates, 1)
	assert.Equal(t, types.DeploymentPending, updates[0].Status)
	assert.True(t, l.Empty())
}
