package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hyperctl/hypervisor/pkg/types"
	"github.com/lib/pq"
)

// PostgresStore implements Store on top of database/sql with lib/pq as the
// driver. All statements use $N placeholders, as lib/pq requires.
type PostgresStore struct {
	db *sql.DB
}

// Open connects to Postgres at dsn and verifies the connection.
func Open(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for health checks and migrations.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// unique_violation; see https://www.postgresql.org/docs/current/errcodes-appendix.html
const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *types.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, hashed_password, organization_id, created_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5)`,
		u.ID, u.Username, u.HashedPassword, u.OrganizationID, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %q: %w", u.Username, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("storage: create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*types.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, hashed_password, COALESCE(organization_id, ''), created_at
		 FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, hashed_password, COALESCE(organization_id, ''), created_at
		 FROM users WHERE username = $1`, username))
}

func (s *PostgresStore) scanUser(row *sql.Row) (*types.User, error) {
	var u types.User
	err := row.Scan(&u.ID, &u.Username, &u.HashedPassword, &u.OrganizationID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: scan user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, u *types.User) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET organization_id = NULLIF($2, '') WHERE id = $1`,
		u.ID, u.OrganizationID,
	)
	if err != nil {
		return fmt.Errorf("storage: update user: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateOrganization(ctx context.Context, o *types.Organization) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, invite_code, created_at) VALUES ($1, $2, $3, $4)`,
		o.ID, o.Name, o.InviteCode, o.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("organization %q: %w", o.Name, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("storage: create organization: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetOrganization(ctx context.Context, id string) (*types.Organization, error) {
	return s.scanOrganization(s.db.QueryRowContext(ctx,
		`SELECT id, name, invite_code, created_at FROM organizations WHERE id = $1`, id))
}

func (s *PostgresStore) GetOrganizationByInviteCode(ctx context.Context, code string) (*types.Organization, error) {
	return s.scanOrganization(s.db.QueryRowContext(ctx,
		`SELECT id, name, invite_code, created_at FROM organizations WHERE invite_code = $1`, code))
}

func (s *PostgresStore) scanOrganization(row *sql.Row) (*types.Organization, error) {
	var o types.Organization
	err := row.Scan(&o.ID, &o.Name, &o.InviteCode, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: scan organization: %w", err)
	}
	return &o, nil
}

func (s *PostgresStore) CreateCluster(ctx context.Context, c *types.Cluster) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clusters (id, name, total_ram, total_cpu, total_gpu, available_ram, available_cpu, available_gpu, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Name, c.TotalRAM, c.TotalCPU, c.TotalGPU, c.AvailRAM, c.AvailCPU, c.AvailGPU, c.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("cluster %q: %w", c.Name, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("storage: create cluster: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCluster(ctx context.Context, id string) (*types.Cluster, error) {
	return s.scanCluster(s.db.QueryRowContext(ctx,
		`SELECT id, name, total_ram, total_cpu, total_gpu, available_ram, available_cpu, available_gpu, created_at
		 FROM clusters WHERE id = $1`, id))
}

func (s *PostgresStore) scanCluster(row *sql.Row) (*types.Cluster, error) {
	var c types.Cluster
	err := row.Scan(&c.ID, &c.Name, &c.TotalRAM, &c.TotalCPU, &c.TotalGPU, &c.AvailRAM, &c.AvailCPU, &c.AvailGPU, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: scan cluster: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) ListClusters(ctx context.Context) ([]*types.Cluster, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, total_ram, total_cpu, total_gpu, available_ram, available_cpu, available_gpu, created_at
		 FROM clusters ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("storage: list clusters: %w", err)
	}
	defer rows.Close()

	var out []*types.Cluster
	for rows.Next() {
		var c types.Cluster
		if err := rows.Scan(&c.ID, &c.Name, &c.TotalRAM, &c.TotalCPU, &c.TotalGPU, &c.AvailRAM, &c.AvailCPU, &c.AvailGPU, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan cluster row: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// UpdateClusterAvailability writes c's available-capacity fields and every
// deployment status update in one transaction, so a crash between the two
// never leaves the Store out of sync with what the scheduling pass decided.
func (s *PostgresStore) UpdateClusterAvailability(ctx context.Context, c *types.Cluster, updates []DeploymentStatusUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE clusters SET available_ram = $2, available_cpu = $3, available_gpu = $4 WHERE id = $1`,
		c.ID, c.AvailRAM, c.AvailCPU, c.AvailGPU,
	); err != nil {
		return fmt.Errorf("storage: update cluster availability: %w", err)
	}

	for _, u := range updates {
		if _, err := tx.ExecContext(ctx,
			`UPDATE deployments SET status = $2 WHERE id = $1`,
			u.DeploymentID, string(u.Status),
		); err != nil {
			return fmt.Errorf("storage: update deployment status %q: %w", u.DeploymentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateDeployment(ctx context.Context, d *types.Deployment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deployments
		   (id, name, cluster_id, image_path, ram_required, cpu_required, gpu_required, priority, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, d.Name, d.ClusterID, d.ImagePath, d.RAMRequired, d.CPURequired, d.GPURequired,
		d.Priority, string(d.Status), d.CreatedAt, d.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("deployment %q: %w", d.Name, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("storage: create deployment: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDeployment(ctx context.Context, id string) (*types.Deployment, error) {
	return s.scanDeployment(s.db.QueryRowContext(ctx,
		`SELECT id, name, cluster_id, image_path, ram_required, cpu_required, gpu_required, priority, status, created_at, updated_at
		 FROM deployments WHERE id = $1`, id))
}

func (s *PostgresStore) scanDeployment(row *sql.Row) (*types.Deployment, error) {
	var d types.Deployment
	var status string
	err := row.Scan(&d.ID, &d.Name, &d.ClusterID, &d.ImagePath, &d.RAMRequired, &d.CPURequired, &d.GPURequired,
		&d.Priority, &status, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: scan deployment: %w", err)
	}
	d.Status = types.DeploymentStatus(status)
	return &d, nil
}

func (s *PostgresStore) ListDeploymentsByCluster(ctx context.Context, clusterID string) ([]*types.Deployment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, cluster_id, image_path, ram_required, cpu_required, gpu_required, priority, status, created_at, updated_at
		 FROM deployments WHERE cluster_id = $1 ORDER BY priority DESC`, clusterID)
	if err != nil {
		return nil, fmt.Errorf("storage: list deployments: %w", err)
	}
	defer rows.Close()

	var out []*types.Deployment
	for rows.Next() {
		var d types.Deployment
		var status string
		if err := rows.Scan(&d.ID, &d.Name, &d.ClusterID, &d.ImagePath, &d.RAMRequired, &d.CPURequired, &d.GPURequired,
			&d.Priority, &status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan deployment row: %w", err)
		}
		d.Status = types.DeploymentStatus(status)
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateDeploymentStatus(ctx context.Context, id string, status types.DeploymentStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE deployments SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("storage: update deployment status: %w", err)
	}
	return nil
}
