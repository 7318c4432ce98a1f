package health

import (
	"context"
	"database/sql"
	"time"
)

// PostgresChecker pings a *sql.DB.
type PostgresChecker struct {
	db *sql.DB
}

// NewPostgresChecker wraps db as a Checker.
func NewPostgresChecker(db *sql.DB) *PostgresChecker {
	return &PostgresChecker{db: db}
}

func (c *PostgresChecker) Type() CheckType {
	return CheckTypePostgres
}

func (c *PostgresChecker) Check(ctx context.Context) Result {
	start := time.Now()
	err := c.db.PingContext(ctx)
	result := Result{CheckedAt: start, Duration: time.Since(start)}
	if err != nil {
		result.Healthy = false
		result.Message = err.Error()
		return result
	}
	result.Healthy = true
	result.Message = "ok"
	return result
}
