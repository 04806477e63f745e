package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/sales-kpi-api/internal/domain"
	"github.com/jhoicas/sales-kpi-api/internal/domain/entity"
	"github.com/jhoicas/sales-kpi-api/internal/domain/repository"
)

var _ repository.SourceRepository = (*SourceRepo)(nil)

// SourceRepo lector de clientes y empleados (Source Reader).
type SourceRepo struct {
	pool *pgxpool.Pool
}

// NewSourceRepository construye el lector.
func NewSourceRepository(pool *pgxpool.Pool) *SourceRepo {
	return &SourceRepo{pool: pool}
}

// LoadSourceSet lee las tres consultas del pase dentro de una transacción
// REPEATABLE READ de solo lectura, para que todas vean el mismo estado de la base.
func (r *SourceRepo) LoadSourceSet(ctx context.Context) (*entity.SourceSet, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", domain.ErrDataUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	set := &entity.SourceSet{DisusedByManager: map[string]int{}}

	if set.Companies, err = loadActiveCompanies(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: companies: %w", domain.ErrDataUnavailable, err)
	}
	if err := loadDisusedCounts(ctx, tx, set); err != nil {
		return nil, fmt.Errorf("%w: companies 불용: %w", domain.ErrDataUnavailable, err)
	}
	if set.Representatives, err = loadRepresentatives(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: employees: %w", domain.ErrDataUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: commit: %w", domain.ErrDataUnavailable, err)
	}
	return set, nil
}

func loadActiveCompanies(ctx context.Context, tx pgx.Tx) ([]entity.Company, error) {
	rows, err := tx.Query(ctx, `
		SELECT key_value, COALESCE(final_company_name, ''), COALESCE(business_status, ''),
		       COALESCE(internal_manager, ''), COALESCE(sales_product, ''),
		       COALESCE(accumulated_sales, 0), COALESCE(accumulated_collection, 0),
		       COALESCE(accounts_receivable, 0)
		FROM companies
		WHERE business_status IS DISTINCT FROM $1`, entity.BusinessStatusDisused)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Company
	for rows.Next() {
		var c entity.Company
		if err := rows.Scan(&c.KeyValue, &c.Name, &c.BusinessStatus, &c.InternalManager, &c.SalesProduct,
			&c.AccumulatedSales, &c.AccumulatedCollection, &c.AccountsReceivable); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func loadDisusedCounts(ctx context.Context, tx pgx.Tx, set *entity.SourceSet) error {
	rows, err := tx.Query(ctx, `
		SELECT COALESCE(internal_manager, ''), COUNT(*)
		FROM companies
		WHERE business_status = $1
		GROUP BY internal_manager`, entity.BusinessStatusDisused)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var manager string
		var n int
		if err := rows.Scan(&manager, &n); err != nil {
			return err
		}
		set.DisusedByManager[manager] += n
		set.DisusedTotal += n
	}
	return rows.Err()
}

func loadRepresentatives(ctx context.Context, tx pgx.Tx) ([]entity.Employee, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, name, COALESCE(role1, ''), COALESCE(role2, ''), status, hire_date
		FROM employees
		WHERE status = $1 AND (role1 LIKE $2 OR role2 LIKE $2)
		ORDER BY name, id`, entity.EmployeeStatusActive, "%"+entity.SalesRoleKeyword+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Employee
	for rows.Next() {
		var e entity.Employee
		var hire *time.Time
		if err := rows.Scan(&e.ID, &e.Name, &e.Role1, &e.Role2, &e.Status, &hire); err != nil {
			return nil, err
		}
		e.HireDate = hire
		out = append(out, e)
	}
	return out, rows.Err()
}
