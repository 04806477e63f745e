package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/sales-kpi-api/internal/domain/entity"
	"github.com/jhoicas/sales-kpi-api/internal/domain/repository"
)

var _ repository.RefreshRunRepository = (*RefreshRunRepo)(nil)

// RefreshRunRepo bitácora kpi_refresh_runs.
type RefreshRunRepo struct {
	pool *pgxpool.Pool
}

// NewRefreshRunRepository construye el adaptador.
func NewRefreshRunRepository(pool *pgxpool.Pool) *RefreshRunRepo {
	return &RefreshRunRepo{pool: pool}
}

// Start registra un pase en estado running.
func (r *RefreshRunRepo) Start(ctx context.Context, run entity.RefreshRun) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO kpi_refresh_runs (id, scope, employee_id, status, started_at)
		VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Scope, run.EmployeeID, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert kpi_refresh_run: %w", err)
	}
	return nil
}

// Finish cierra el pase. Si Start no llegó a registrarlo, lo inserta completo.
func (r *RefreshRunRepo) Finish(ctx context.Context, run entity.RefreshRun) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO kpi_refresh_runs (id, scope, employee_id, status, error, sales_count, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			sales_count = EXCLUDED.sales_count,
			finished_at = EXCLUDED.finished_at`,
		run.ID, run.Scope, run.EmployeeID, run.Status, run.Error, run.SalesCount, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("finish kpi_refresh_run: %w", err)
	}
	return nil
}

// ListRecent últimos pases, más reciente primero.
func (r *RefreshRunRepo) ListRecent(ctx context.Context, limit int) ([]entity.RefreshRun, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, scope, employee_id, status, error, sales_count, started_at, finished_at
		FROM kpi_refresh_runs
		ORDER BY started_at DESC
		LIMIT $1`, limitArg(limit))
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list kpi_refresh_runs: %w", err)
	}
	defer rows.Close()

	var out []entity.RefreshRun
	for rows.Next() {
		var run entity.RefreshRun
		if err := rows.Scan(&run.ID, &run.Scope, &run.EmployeeID, &run.Status, &run.Error,
			&run.SalesCount, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan kpi_refresh_run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
