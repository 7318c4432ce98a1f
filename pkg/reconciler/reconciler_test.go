package reconciler

import (
	"context"
	"testing"

	"github.com/hyperctl/hypervisor/pkg/storage"
	"github.com/hyperctl/hypervisor/pkg/types"
	"github.com/stretchr/testify/require"
)

func newCluster(t *testing.T, store storage.Store, ram, cpu, gpu int) *types.Cluster {
	t.Helper()
	c := &types.Cluster{
		ID: "cl-" + t.Name(), Name: t.Name(),
		TotalRAM: ram, TotalCPU: cpu, TotalGPU: gpu,
		AvailRAM: ram, AvailCPU: cpu, AvailGPU: gpu,
	}
	require.NoError(t, store.CreateCluster(context.Background(), c))
	return c
}

func newRunningDeployment(t *testing.T, store storage.Store, c *types.Cluster, name string, priority int64, ram, cpu, gpu int) *types.Deployment {
	t.Helper()
	d := &types.Deployment{
		ID: "d-" + name, Name: name, ClusterID: c.ID,
		ImagePath: "img", RAMRequired: ram, CPURequired: cpu, GPURequired: gpu,
		Priority: priority, Status: types.DeploymentRunning,
	}
	require.NoError(t, store.CreateDeployment(context.Background(), d))
	return d
}

func TestRunOnce_NoDriftLeavesClusterUntouched(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := newCluster(t, store, 10, 10, 10)
	newRunningDeployment(t, store, c, "a", 1, 4, 4, 0)
	c.AvailRAM, c.AvailCPU, c.AvailGPU = 6, 6, 10
	require.NoError(t, store.UpdateClusterAvailability(ctx, c, nil))

	r := New(store, 0)
	require.NoError(t, r.RunOnce(ctx))

	got, err := store.GetCluster(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 6, got.AvailRAM)
	require.Equal(t, 6, got.AvailCPU)
	require.Equal(t, 10, got.AvailGPU)
}

func TestRunOnce_RepairsDriftedAvailability(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := newCluster(t, store, 10, 10, 10)
	newRunningDeployment(t, store, c, "a", 1, 4, 4, 0)

	// Simulate drift: AvailRAM/CPU never got debited for the running
	// deployment above, as if a crash happened between the two writes.
	c.AvailRAM, c.AvailCPU, c.AvailGPU = 10, 10, 10
	require.NoError(t, store.UpdateClusterAvailability(ctx, c, nil))

	r := New(store, 0)
	require.NoError(t, r.RunOnce(ctx))

	got, err := store.GetCluster(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 6, got.AvailRAM)
	require.Equal(t, 6, got.AvailCPU)
	require.Equal(t, 10, got.AvailGPU)
}

func TestRunOnce_IgnoresPendingAndCompletedDeployments(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := newCluster(t, store, 10, 10, 10)

	pending := &types.Deployment{
		ID: "d-pending", Name: "pending", ClusterID: c.ID,
		ImagePath: "img", RAMRequired: 3, CPURequired: 3, GPURequired: 0,
		Priority: 1, Status: types.DeploymentPending,
	}
	require.NoError(t, store.CreateDeployment(ctx, pending))

	completed := &types.Deployment{
		ID: "d-completed", Name: "completed", ClusterID: c.ID,
		ImagePath: "img", RAMRequired: 3, CPURequired: 3, GPURequired: 0,
		Priority: 2, Status: types.DeploymentCompleted,
	}
	require.NoError(t, store.CreateDeployment(ctx, completed))

	r := New(store, 0)
	require.NoError(t, r.RunOnce(ctx))

	got, err := store.GetCluster(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 10, got.AvailRAM)
	require.Equal(t, 10, got.AvailCPU)
	require.Equal(t, 10, got.AvailGPU)
}

func TestStartStop_RunsAndStopsCleanly(t *testing.T) {
	store := storage.NewMemoryStore()
	r := New(store, 0)
	r.Start()
	r.Stop()
}
