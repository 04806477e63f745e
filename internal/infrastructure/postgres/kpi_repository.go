package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/sales-kpi-api/internal/domain"
	"github.com/jhoicas/sales-kpi-api/internal/domain/entity"
	"github.com/jhoicas/sales-kpi-api/internal/domain/repository"
)

var _ repository.KPIRepository = (*KPIRepo)(nil)

// salesColumns orden de columnas de kpi_sales, compartido por COPY, upsert y SELECT.
var salesColumns = []string{
	"employee_id", "employee_name",
	"assigned_companies", "active_companies", "disused_companies", "activation_rate", "main_product_companies",
	"company_target_achievement_rate", "major_customer_target_rate",
	"accumulated_sales", "main_product_sales", "sales_concentration", "monthly_sales_per_company",
	"accumulated_collection", "accounts_receivable", "main_product_sales_ratio",
	"total_sales_contribution", "main_product_contribution",
	"total_sales_contribution_rank", "main_product_contribution_rank",
	"cumulative_total_sales_contribution", "cumulative_main_product_contribution",
	"monthly_total_sales_contribution", "monthly_main_product_contribution",
	"contribution_anomaly", "current_months", "refresh_run_id", "last_updated",
}

var detailColumns = []string{"employee_id", "company_key", "company_name", "accumulated_sales", "sales_share"}

const selectSales = `
	SELECT employee_id, employee_name,
	       assigned_companies, active_companies, disused_companies, activation_rate, main_product_companies,
	       company_target_achievement_rate, major_customer_target_rate,
	       accumulated_sales, main_product_sales, sales_concentration, monthly_sales_per_company,
	       accumulated_collection, accounts_receivable, main_product_sales_ratio,
	       total_sales_contribution, main_product_contribution,
	       total_sales_contribution_rank, main_product_contribution_rank,
	       cumulative_total_sales_contribution, cumulative_main_product_contribution,
	       monthly_total_sales_contribution, monthly_main_product_contribution,
	       contribution_anomaly, current_months, refresh_run_id, last_updated
	FROM kpi_sales`

// KPIRepo caché de KPI en PostgreSQL (Cache Writer + lecturas de la Query Surface).
type KPIRepo struct {
	pool *pgxpool.Pool
}

// NewKPIRepository construye el adaptador.
func NewKPIRepository(pool *pgxpool.Pool) *KPIRepo {
	return &KPIRepo{pool: pool}
}

// ReplaceAll reemplaza la caché completa en una transacción: los lectores ven el snapshot
// anterior hasta el Commit, y si algo falla el Rollback lo deja intacto.
func (r *KPIRepo) ReplaceAll(ctx context.Context, snap *entity.KPISnapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", domain.ErrWriteFailure, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM kpi_sales_concentration`); err != nil {
		return fmt.Errorf("%w: delete kpi_sales_concentration: %w", domain.ErrWriteFailure, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM kpi_sales`); err != nil {
		return fmt.Errorf("%w: delete kpi_sales: %w", domain.ErrWriteFailure, err)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"kpi_sales"}, salesColumns, pgx.CopyFromRows(salesRows(snap.Sales))); err != nil {
		return fmt.Errorf("%w: copy kpi_sales: %w", domain.ErrWriteFailure, err)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"kpi_sales_concentration"}, detailColumns, pgx.CopyFromRows(detailRows(snap.Details))); err != nil {
		return fmt.Errorf("%w: copy kpi_sales_concentration: %w", domain.ErrWriteFailure, err)
	}
	if err := upsertAdmin(ctx, tx, snap.Admin); err != nil {
		return fmt.Errorf("%w: upsert kpi_admin: %w", domain.ErrWriteFailure, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", domain.ErrWriteFailure, err)
	}
	return nil
}

// UpsertSales reescribe un representante. Los ranks y acumulados son del último pase completo
// y no se tocan; una fila nueva queda sin rank.
func (r *KPIRepo) UpsertSales(ctx context.Context, row entity.SalesKPI, details []entity.ConcentrationDetail) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", domain.ErrWriteFailure, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO kpi_sales (
			employee_id, employee_name,
			assigned_companies, active_companies, disused_companies, activation_rate, main_product_companies,
			company_target_achievement_rate, major_customer_target_rate,
			accumulated_sales, main_product_sales, sales_concentration, monthly_sales_per_company,
			accumulated_collection, accounts_receivable, main_product_sales_ratio,
			total_sales_contribution, main_product_contribution,
			monthly_total_sales_contribution, monthly_main_product_contribution,
			contribution_anomaly, current_months, refresh_run_id, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (employee_id) DO UPDATE SET
			employee_name = EXCLUDED.employee_name,
			assigned_companies = EXCLUDED.assigned_companies,
			active_companies = EXCLUDED.active_companies,
			disused_companies = EXCLUDED.disused_companies,
			activation_rate = EXCLUDED.activation_rate,
			main_product_companies = EXCLUDED.main_product_companies,
			company_target_achievement_rate = EXCLUDED.company_target_achievement_rate,
			major_customer_target_rate = EXCLUDED.major_customer_target_rate,
			accumulated_sales = EXCLUDED.accumulated_sales,
			main_product_sales = EXCLUDED.main_product_sales,
			sales_concentration = EXCLUDED.sales_concentration,
			monthly_sales_per_company = EXCLUDED.monthly_sales_per_company,
			accumulated_collection = EXCLUDED.accumulated_collection,
			accounts_receivable = EXCLUDED.accounts_receivable,
			main_product_sales_ratio = EXCLUDED.main_product_sales_ratio,
			total_sales_contribution = EXCLUDED.total_sales_contribution,
			main_product_contribution = EXCLUDED.main_product_contribution,
			monthly_total_sales_contribution = EXCLUDED.monthly_total_sales_contribution,
			monthly_main_product_contribution = EXCLUDED.monthly_main_product_contribution,
			contribution_anomaly = EXCLUDED.contribution_anomaly,
			current_months = EXCLUDED.current_months,
			refresh_run_id = EXCLUDED.refresh_run_id,
			last_updated = EXCLUDED.last_updated`,
		row.EmployeeID, row.EmployeeName,
		row.AssignedCompanies, row.ActiveCompanies, row.DisusedCompanies, row.ActivationRate, row.MainProductCompanies,
		row.CompanyTargetAchievementRate, row.MajorCustomerTargetRate,
		row.AccumulatedSales, row.MainProductSales, row.SalesConcentration, row.MonthlySalesPerCompany,
		row.AccumulatedCollection, row.AccountsReceivable, row.MainProductSalesRatio,
		row.TotalSalesContribution, row.MainProductContribution,
		row.MonthlyTotalSalesContribution, row.MonthlyMainProductContribution,
		row.ContributionAnomaly, row.CurrentMonths, row.RefreshRunID, row.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert kpi_sales: %w", domain.ErrWriteFailure, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM kpi_sales_concentration WHERE employee_id = $1`, row.EmployeeID); err != nil {
		return fmt.Errorf("%w: delete kpi_sales_concentration: %w", domain.ErrWriteFailure, err)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"kpi_sales_concentration"}, detailColumns, pgx.CopyFromRows(detailRows(details))); err != nil {
		return fmt.Errorf("%w: copy kpi_sales_concentration: %w", domain.ErrWriteFailure, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", domain.ErrWriteFailure, err)
	}
	return nil
}

func upsertAdmin(ctx context.Context, tx pgx.Tx, a entity.AdminKPI) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO kpi_admin (
			id, total_companies, active_companies, disused_companies, activation_rate, main_product_companies,
			company_target_achievement_rate, major_customer_target_rate,
			accumulated_sales, accumulated_collection, accounts_receivable, main_product_sales,
			sales_concentration, monthly_sales_per_company, main_product_sales_ratio,
			sales_rep_count, current_months, refresh_run_id, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			total_companies = EXCLUDED.total_companies,
			active_companies = EXCLUDED.active_companies,
			disused_companies = EXCLUDED.disused_companies,
			activation_rate = EXCLUDED.activation_rate,
			main_product_companies = EXCLUDED.main_product_companies,
			company_target_achievement_rate = EXCLUDED.company_target_achievement_rate,
			major_customer_target_rate = EXCLUDED.major_customer_target_rate,
			accumulated_sales = EXCLUDED.accumulated_sales,
			accumulated_collection = EXCLUDED.accumulated_collection,
			accounts_receivable = EXCLUDED.accounts_receivable,
			main_product_sales = EXCLUDED.main_product_sales,
			sales_concentration = EXCLUDED.sales_concentration,
			monthly_sales_per_company = EXCLUDED.monthly_sales_per_company,
			main_product_sales_ratio = EXCLUDED.main_product_sales_ratio,
			sales_rep_count = EXCLUDED.sales_rep_count,
			current_months = EXCLUDED.current_months,
			refresh_run_id = EXCLUDED.refresh_run_id,
			last_updated = EXCLUDED.last_updated`,
		entity.AdminKPIID, a.TotalCompanies, a.ActiveCompanies, a.DisusedCompanies, a.ActivationRate, a.MainProductCompanies,
		a.CompanyTargetAchievementRate, a.MajorCustomerTargetRate,
		a.AccumulatedSales, a.AccumulatedCollection, a.AccountsReceivable, a.MainProductSales,
		a.SalesConcentration, a.MonthlySalesPerCompany, a.MainProductSalesRatio,
		a.SalesRepCount, a.CurrentMonths, a.RefreshRunID, a.LastUpdated,
	)
	return err
}

// GetSales busca primero por employee_id y, si no hay coincidencia, por employee_name.
func (r *KPIRepo) GetSales(ctx context.Context, idOrName string) (*entity.SalesKPI, error) {
	row := r.pool.QueryRow(ctx, selectSales+`
		WHERE employee_id = $1 OR employee_name = $1
		ORDER BY (employee_id = $1) DESC
		LIMIT 1`, idOrName)
	s, err := scanSales(row)
	if err != nil {
		if isNoRows(err) || isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get kpi_sales: %w", err)
	}
	return s, nil
}

// GetAdmin devuelve la fila única de kpi_admin, o nil si todavía no hubo un pase completo.
func (r *KPIRepo) GetAdmin(ctx context.Context) (*entity.AdminKPI, error) {
	var a entity.AdminKPI
	err := r.pool.QueryRow(ctx, `
		SELECT total_companies, active_companies, disused_companies, activation_rate, main_product_companies,
		       company_target_achievement_rate, major_customer_target_rate,
		       accumulated_sales, accumulated_collection, accounts_receivable, main_product_sales,
		       sales_concentration, monthly_sales_per_company, main_product_sales_ratio,
		       sales_rep_count, current_months, refresh_run_id, last_updated
		FROM kpi_admin WHERE id = $1`, entity.AdminKPIID).Scan(
		&a.TotalCompanies, &a.ActiveCompanies, &a.DisusedCompanies, &a.ActivationRate, &a.MainProductCompanies,
		&a.CompanyTargetAchievementRate, &a.MajorCustomerTargetRate,
		&a.AccumulatedSales, &a.AccumulatedCollection, &a.AccountsReceivable, &a.MainProductSales,
		&a.SalesConcentration, &a.MonthlySalesPerCompany, &a.MainProductSalesRatio,
		&a.SalesRepCount, &a.CurrentMonths, &a.RefreshRunID, &a.LastUpdated,
	)
	if err != nil {
		if isNoRows(err) || isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get kpi_admin: %w", err)
	}
	return &a, nil
}

// ListRanking filas con rank del tipo indicado, por rank ascendente.
func (r *KPIRepo) ListRanking(ctx context.Context, t entity.RankingType, limit int) ([]entity.SalesKPI, error) {
	var query string
	switch t {
	case entity.RankingTotal:
		query = selectSales + `
		WHERE total_sales_contribution_rank IS NOT NULL
		ORDER BY total_sales_contribution_rank, employee_name, employee_id
		LIMIT $1`
	case entity.RankingMain:
		query = selectSales + `
		WHERE main_product_contribution_rank IS NOT NULL
		ORDER BY main_product_contribution_rank, employee_name, employee_id
		LIMIT $1`
	default:
		return nil, fmt.Errorf("tipo de ranking %q: %w", t, domain.ErrInvalidInput)
	}
	return r.listSales(ctx, query, limitArg(limit))
}

// ListByConcentration representantes por índice de concentración descendente.
func (r *KPIRepo) ListByConcentration(ctx context.Context, limit int) ([]entity.SalesKPI, error) {
	return r.listSales(ctx, selectSales+`
		ORDER BY sales_concentration DESC, employee_name, employee_id
		LIMIT $1`, limitArg(limit))
}

// ListConcentrationDetails desglose por cliente; employeeID vacío = todos.
func (r *KPIRepo) ListConcentrationDetails(ctx context.Context, employeeID string) ([]entity.ConcentrationDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT employee_id, company_key, company_name, accumulated_sales, sales_share
		FROM kpi_sales_concentration
		WHERE $1 = '' OR employee_id = $1
		ORDER BY employee_id, sales_share DESC, company_key`, employeeID)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list kpi_sales_concentration: %w", err)
	}
	defer rows.Close()

	var out []entity.ConcentrationDetail
	for rows.Next() {
		var d entity.ConcentrationDetail
		if err := rows.Scan(&d.EmployeeID, &d.CompanyKey, &d.CompanyName, &d.AccumulatedSales, &d.SalesShare); err != nil {
			return nil, fmt.Errorf("scan kpi_sales_concentration: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *KPIRepo) listSales(ctx context.Context, query string, args ...any) ([]entity.SalesKPI, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list kpi_sales: %w", err)
	}
	defer rows.Close()

	var out []entity.SalesKPI
	for rows.Next() {
		s, err := scanSales(rows)
		if err != nil {
			return nil, fmt.Errorf("scan kpi_sales: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func scanSales(row pgx.Row) (*entity.SalesKPI, error) {
	var s entity.SalesKPI
	err := row.Scan(
		&s.EmployeeID, &s.EmployeeName,
		&s.AssignedCompanies, &s.ActiveCompanies, &s.DisusedCompanies, &s.ActivationRate, &s.MainProductCompanies,
		&s.CompanyTargetAchievementRate, &s.MajorCustomerTargetRate,
		&s.AccumulatedSales, &s.MainProductSales, &s.SalesConcentration, &s.MonthlySalesPerCompany,
		&s.AccumulatedCollection, &s.AccountsReceivable, &s.MainProductSalesRatio,
		&s.TotalSalesContribution, &s.MainProductContribution,
		&s.TotalSalesContributionRank, &s.MainProductContributionRank,
		&s.CumulativeTotalSalesContribution, &s.CumulativeMainProductContribution,
		&s.MonthlyTotalSalesContribution, &s.MonthlyMainProductContribution,
		&s.ContributionAnomaly, &s.CurrentMonths, &s.RefreshRunID, &s.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// salesRows filas para COPY en el orden de salesColumns.
func salesRows(sales []entity.SalesKPI) [][]any {
	out := make([][]any, len(sales))
	for i, s := range sales {
		out[i] = []any{
			s.EmployeeID, s.EmployeeName,
			s.AssignedCompanies, s.ActiveCompanies, s.DisusedCompanies, s.ActivationRate, s.MainProductCompanies,
			s.CompanyTargetAchievementRate, s.MajorCustomerTargetRate,
			s.AccumulatedSales, s.MainProductSales, s.SalesConcentration, s.MonthlySalesPerCompany,
			s.AccumulatedCollection, s.AccountsReceivable, s.MainProductSalesRatio,
			s.TotalSalesContribution, s.MainProductContribution,
			s.TotalSalesContributionRank, s.MainProductContributionRank,
			s.CumulativeTotalSalesContribution, s.CumulativeMainProductContribution,
			s.MonthlyTotalSalesContribution, s.MonthlyMainProductContribution,
			s.ContributionAnomaly, s.CurrentMonths, s.RefreshRunID, s.LastUpdated,
		}
	}
	return out
}

func detailRows(details []entity.ConcentrationDetail) [][]any {
	out := make([][]any, len(details))
	for i, d := range details {
		out[i] = []any{d.EmployeeID, d.CompanyKey, d.CompanyName, d.AccumulatedSales, d.SalesShare}
	}
	return out
}
