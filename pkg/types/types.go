package types

import "time"

// DeploymentStatus is the lifecycle state of a Deployment.
type DeploymentStatus string

const (
	DeploymentPending   DeploymentStatus = "Pending"
	DeploymentRunning   DeploymentStatus = "Running"
	DeploymentCompleted DeploymentStatus = "Completed"
)

// User is a registered operator account.
type User struct {
	ID             string
	Username       string
	HashedPassword string
	OrganizationID string // empty when not a member of any organization
	CreatedAt      time.Time
}

// Organization groups users behind an invite code.
type Organization struct {
	ID         string
	Name       string
	InviteCode string
	CreatedAt  time.Time
}

// Cluster is a capacity envelope in three fungible resource dimensions.
//
// Invariant: for each dimension x, 0 <= AvailableX <= TotalX. TotalX is
// immutable once the cluster is created; AvailableX is mutated only by the
// scheduler's Resource Accountant.
type Cluster struct {
	ID        string
	Name      string
	TotalRAM  int
	TotalCPU  int
	TotalGPU  int
	AvailRAM  int
	AvailCPU  int
	AvailGPU  int
	CreatedAt time.Time
}

// Fits reports whether the cluster currently has enough available capacity
// for the given demand, without mutating anything.
func (c *Cluster) Fits(ramReq, cpuReq, gpuReq int) bool {
	return c.AvailRAM >= ramReq && c.AvailCPU >= cpuReq && c.AvailGPU >= gpuReq
}

// Deployment is a named workload descriptor with a strictly unique priority.
type Deployment struct {
	ID          string
	Name        string
	ClusterID   string
	ImagePath   string
	RAMRequired int
	CPURequired int
	GPURequired int
	Priority    int64
	Status      DeploymentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Fits reports whether the given cluster has capacity for this deployment.
func (d *Deployment) Fits(c *Cluster) bool {
	return c.Fits(d.RAMRequired, d.CPURequired, d.GPURequired)
}

// ExceedsCapacity reports whether the deployment can never run on the
// cluster regardless of what else is preempted (demand exceeds totals).
func (d *Deployment) ExceedsCapacity(c *Cluster) bool {
	return d.RAMRequired > c.TotalRAM || d.CPURequired > c.TotalCPU || d.GPURequired > c.TotalGPU
}
