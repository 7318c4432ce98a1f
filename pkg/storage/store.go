package storage

import (
	"context"
	"errors"

	"github.com/hyperctl/hypervisor/pkg/types"
)

// ErrNotFound is returned by any lookup that finds no matching row.
var ErrNotFound = errors.New("storage: not found")

// ErrConflict is returned when a unique constraint (username, org name,
// invite code, cluster name, deployment name, deployment priority) would be
// violated.
var ErrConflict = errors.New("storage: conflict")

// Store is the relational persistence boundary for everything that isn't
// queue state: users, organizations, clusters, and deployments. It is
// implemented by pkg/storage's Postgres adapter and, in tests, by an
// in-memory fake.
type Store interface {
	CreateUser(ctx context.Context, u *types.User) error
	GetUser(ctx context.Context, id string) (*types.User, error)
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)
	UpdateUser(ctx context.Context, u *types.User) error

	CreateOrganization(ctx context.Context, o *types.Organization) error
	GetOrganization(ctx context.Context, id string) (*types.Organization, error)
	GetOrganizationByInviteCode(ctx context.Context, code string) (*types.Organization, error)

	CreateCluster(ctx context.Context, c *types.Cluster) error
	GetCluster(ctx context.Context, id string) (*types.Cluster, error)
	ListClusters(ctx context.Context) ([]*types.Cluster, error)
	// UpdateClusterAvailability persists only the three available-capacity
	// fields of c, in the same transaction as the status updates passed in
	// updates -- the atomic commit the scheduling pass requires.
	UpdateClusterAvailability(ctx context.Context, c *types.Cluster, updates []DeploymentStatusUpdate) error

	CreateDeployment(ctx context.Context, d *types.Deployment) error
	GetDeployment(ctx context.Context, id string) (*types.Deployment, error)
	ListDeploymentsByCluster(ctx context.Context, clusterID string) ([]*types.Deployment, error)
	UpdateDeploymentStatus(ctx context.Context, id string, status types.DeploymentStatus) error
}

// DeploymentStatusUpdate is one row of the Ledger's flushed output, passed
// through to Store so the cluster-availability write and every affected
// deployment's status land in a single transaction.
type DeploymentStatusUpdate struct {
	DeploymentID string
	Status       types.DeploymentStatus
}
