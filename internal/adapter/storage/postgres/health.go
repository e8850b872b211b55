package postgres

import (
	"context"
	"fmt"
	"strings"
)

// dashboardTables are the tables the dashboard reads or updates.
var dashboardTables = []string{"balances", "payouts", "merchants", "webhook_delivery_logs", "audit_logs"}

// HealthCheck reports whether PostgreSQL answers and holds the dashboard's
// tables.
type HealthCheck struct {
	pool   Pool
	tables []string
}

// NewHealthCheck creates a PostgreSQL health checker.
func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool, tables: dashboardTables}
}

// Ping fails when the database is unreachable or a table is missing.
func (h *HealthCheck) Ping(ctx context.Context) error {
	var missing []string
	err := h.pool.QueryRow(ctx,
		`SELECT COALESCE(array_agg(t), '{}') FROM unnest($1::text[]) AS t WHERE to_regclass(t) IS NULL`,
		h.tables,
	).Scan(&missing)
	if err != nil {
		return fmt.Errorf("checking tables: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (h *HealthCheck) Name() string {
	return "postgresql"
}
