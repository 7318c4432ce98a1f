package storage

import (
	"context"
	"sync"

	"github.com/hyperctl/hypervisor/pkg/types"
)

// MemoryStore is an in-memory Store used by tests that exercise pkg/api
// without a live Postgres instance.
type MemoryStore struct {
	mu sync.Mutex

	users         map[string]*types.User
	usersByName   map[string]string
	orgs          map[string]*types.Organization
	orgsByInvite  map[string]string
	clusters      map[string]*types.Cluster
	deployments   map[string]*types.Deployment
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]*types.User),
		usersByName:  make(map[string]string),
		orgs:         make(map[string]*types.Organization),
		orgsByInvite: make(map[string]string),
		clusters:     make(map[string]*types.Cluster),
		deployments:  make(map[string]*types.Deployment),
	}
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *types.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.usersByName[u.Username]; ok {
		return ErrConflict
	}
	cp := *u
	m.users[u.ID] = &cp
	m.usersByName[u.Username] = u.ID
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (*types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	m.mu.Lock()
	id, ok := m.usersByName[username]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.GetUser(ctx, id)
}

func (m *MemoryStore) UpdateUser(ctx context.Context, u *types.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemoryStore) CreateOrganization(ctx context.Context, o *types.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orgs {
		if existing.Name == o.Name {
			return ErrConflict
		}
	}
	if _, ok := m.orgsByInvite[o.InviteCode]; ok {
		return ErrConflict
	}
	cp := *o
	m.orgs[o.ID] = &cp
	m.orgsByInvite[o.InviteCode] = o.ID
	return nil
}

func (m *MemoryStore) GetOrganization(ctx context.Context, id string) (*types.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MemoryStore) GetOrganizationByInviteCode(ctx context.Context, code string) (*types.Organization, error) {
	m.mu.Lock()
	id, ok := m.orgsByInvite[code]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.GetOrganization(ctx, id)
}

func (m *MemoryStore) CreateCluster(ctx context.Context, c *types.Cluster) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.clusters {
		if existing.Name == c.Name {
			return ErrConflict
		}
	}
	cp := *c
	m.clusters[c.ID] = &cp
	return nil
}

func (m *MemoryStore) GetCluster(ctx context.Context, id string) (*types.Cluster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clusters[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) ListClusters(ctx context.Context) ([]*types.Cluster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*types.Cluster, 0, len(m.clusters))
	for _, c := range m.clusters {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) UpdateClusterAvailability(ctx context.Context, c *types.Cluster, updates []DeploymentStatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clusters[c.ID]; !ok {
		return ErrNotFound
	}
	cp := *c
	m.clusters[c.ID] = &cp

	for _, u := range updates {
		d, ok := m.deployments[u.DeploymentID]
		if !ok {
			continue
		}
		dcp := *d
		dcp.Status = u.Status
		m.deployments[u.DeploymentID] = &dcp
	}
	return nil
}

func (m *MemoryStore) CreateDeployment(ctx context.Context, d *types.Deployment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.deployments {
		if existing.Name == d.Name {
			return ErrConflict
		}
		if existing.Priority == d.Priority {
			return ErrConflict
		}
	}
	cp := *d
	m.deployments[d.ID] = &cp
	return nil
}

func (m *MemoryStore) GetDeployment(ctx context.Context, id string) (*types.Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deployments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MemoryStore) ListDeploymentsByCluster(ctx context.Context, clusterID string) ([]*types.Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Deployment
	for _, d := range m.deployments {
		if d.ClusterID == clusterID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateDeploymentStatus(ctx context.Context, id string, status types.DeploymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deployments[id]
	if !ok {
		return ErrNotFound
	}
	cp := *d
	cp.Status = status
	m.deployments[id] = &cp
	return nil
}
