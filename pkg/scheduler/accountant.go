package scheduler

import "github.com/hyperctl/hypervisor/pkg/types"

// Fits reports whether cluster c currently has enough available capacity to
// run deployment d. It performs no mutation.
func Fits(c *types.Cluster, d *types.Deployment) bool {
	return d.Fits(c)
}

// Reserve decrements c's available capacity by d's demand and marks d
// Running. Callers must have already verified Fits(c, d); Reserve does not
// check it and trusts its caller.
func Reserve(c *types.Cluster, d *types.Deployment) {
	c.AvailRAM -= d.RAMRequired
	c.AvailCPU -= d.CPURequired
	c.AvailGPU -= d.GPURequired
	d.Status = types.DeploymentRunning
}

// Release credits c's available capacity with d's demand. It does not
// change d.Status; callers decide the resulting status (Pending or
// Completed).
func Release(c *types.Cluster, d *types.Deployment) {
	c.AvailRAM += d.RAMRequired
	c.AvailCPU += d.CPURequired
	c.AvailGPU += d.GPURequired
}
