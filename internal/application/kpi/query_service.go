package kpi

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/sales-kpi-api/internal/application/dto"
	"github.com/jhoicas/sales-kpi-api/internal/domain"
	"github.com/jhoicas/sales-kpi-api/internal/domain/entity"
	domkpi "github.com/jhoicas/sales-kpi-api/internal/domain/kpi"
	"github.com/jhoicas/sales-kpi-api/internal/domain/repository"
)

const (
	defaultRecentRuns = 10
	maxListLimit      = 500
	displayPlaces     = 2
)

// QueryService superficie de consulta: solo lee la caché, nunca recalcula.
type QueryService struct {
	cache repository.KPIRepository
	runs  repository.RefreshRunRepository
}

// NewQueryService construye el servicio. runs puede ser nil.
func NewQueryService(cache repository.KPIRepository, runs repository.RefreshRunRepository) *QueryService {
	return &QueryService{cache: cache, runs: runs}
}

// GetSales devuelve el snapshot de un representante por id o nombre.
func (s *QueryService) GetSales(ctx context.Context, idOrName string) (*dto.SalesKPIResponse, error) {
	if idOrName == "" {
		return nil, fmt.Errorf("employeeId: %w", domain.ErrInvalidInput)
	}
	row, err := s.cache.GetSales(ctx, idOrName)
	if err != nil {
		return nil, fmt.Errorf("kpi sales: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("kpi de %q: %w", idOrName, domain.ErrNotFound)
	}
	out := toSalesResponse(*row)
	return &out, nil
}

// GetAdmin devuelve el snapshot de toda la empresa.
func (s *QueryService) GetAdmin(ctx context.Context) (*dto.AdminKPIResponse, error) {
	a, err := s.cache.GetAdmin(ctx)
	if err != nil {
		return nil, fmt.Errorf("kpi admin: %w", err)
	}
	if a == nil {
		return nil, fmt.Errorf("kpi admin: %w", domain.ErrNotFound)
	}
	out := toAdminResponse(*a)
	return &out, nil
}

// GetRanking devuelve el ranking de contribución del tipo indicado (total | main).
func (s *QueryService) GetRanking(ctx context.Context, t entity.RankingType, limit int) (*dto.RankingResponse, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("tipo de ranking %q: %w", t, domain.ErrInvalidInput)
	}
	rows, err := s.cache.ListRanking(ctx, t, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("kpi ranking: %w", err)
	}
	out := &dto.RankingResponse{Type: string(t), Items: make([]dto.RankingEntry, 0, len(rows))}
	for _, r := range rows {
		e := dto.RankingEntry{
			EmployeeID:   r.EmployeeID,
			EmployeeName: r.EmployeeName,
			Anomaly:      r.ContributionAnomaly,
		}
		if t == entity.RankingTotal {
			e.Rank = derefRank(r.TotalSalesContributionRank)
			e.Contribution = round(r.TotalSalesContribution)
			e.Cumulative = round(r.CumulativeTotalSalesContribution)
			e.Monthly = round(r.MonthlyTotalSalesContribution)
			e.Sales = round(r.AccumulatedSales)
		} else {
			e.Rank = derefRank(r.MainProductContributionRank)
			e.Contribution = round(r.MainProductContribution)
			e.Cumulative = round(r.CumulativeMainProductContribution)
			e.Monthly = round(r.MonthlyMainProductContribution)
			e.Sales = round(r.MainProductSales)
		}
		out.Items = append(out.Items, e)
		if out.LastUpdated == nil || r.LastUpdated.After(*out.LastUpdated) {
			lu := r.LastUpdated
			out.LastUpdated = &lu
		}
	}
	return out, nil
}

// GetConcentrationDetail devuelve los representantes ordenados por índice de concentración
// con el desglose por cliente. employeeID vacío = todos los representantes.
func (s *QueryService) GetConcentrationDetail(ctx context.Context, employeeID string, limit int) (*dto.ConcentrationResponse, error) {
	var rows []entity.SalesKPI
	if employeeID != "" {
		row, err := s.cache.GetSales(ctx, employeeID)
		if err != nil {
			return nil, fmt.Errorf("kpi concentración: %w", err)
		}
		if row == nil {
			return nil, fmt.Errorf("kpi de %q: %w", employeeID, domain.ErrNotFound)
		}
		rows = []entity.SalesKPI{*row}
		employeeID = row.EmployeeID
	} else {
		var err error
		rows, err = s.cache.ListByConcentration(ctx, clampLimit(limit))
		if err != nil {
			return nil, fmt.Errorf("kpi concentración: %w", err)
		}
	}

	details, err := s.cache.ListConcentrationDetails(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("kpi concentración detalle: %w", err)
	}
	byEmployee := make(map[string][]dto.ConcentrationCompany, len(rows))
	for _, d := range details {
		byEmployee[d.EmployeeID] = append(byEmployee[d.EmployeeID], dto.ConcentrationCompany{
			CompanyKey:       d.CompanyKey,
			CompanyName:      d.CompanyName,
			AccumulatedSales: round(d.AccumulatedSales),
			SalesShare:       round(d.SalesShare),
		})
	}

	inputs := make([]domkpi.RankInput, len(rows))
	index := make(map[string]entity.SalesKPI, len(rows))
	for i, r := range rows {
		inputs[i] = domkpi.RankInput{EmployeeID: r.EmployeeID, EmployeeName: r.EmployeeName, Value: r.SalesConcentration}
		index[r.EmployeeID] = r
	}
	out := &dto.ConcentrationResponse{Items: make([]dto.ConcentrationEntry, 0, len(rows))}
	for _, res := range domkpi.RankCompetition(inputs) {
		r := index[res.EmployeeID]
		companies := byEmployee[r.EmployeeID]
		sort.SliceStable(companies, func(i, j int) bool {
			return companies[i].SalesShare.GreaterThan(companies[j].SalesShare)
		})
		if companies == nil {
			companies = []dto.ConcentrationCompany{}
		}
		out.Items = append(out.Items, dto.ConcentrationEntry{
			Rank:                   res.Rank,
			EmployeeID:             r.EmployeeID,
			EmployeeName:           r.EmployeeName,
			SalesConcentration:     round(r.SalesConcentration),
			MonthlySalesPerCompany: round(r.MonthlySalesPerCompany),
			AccumulatedSales:       round(r.AccumulatedSales),
			ActiveCompanies:        r.ActiveCompanies,
			Companies:              companies,
		})
	}
	return out, nil
}

// RecentRuns devuelve las últimas ejecuciones registradas (más reciente primero).
func (s *QueryService) RecentRuns(ctx context.Context, limit int) ([]dto.RefreshRunResponse, error) {
	if s.runs == nil {
		return []dto.RefreshRunResponse{}, nil
	}
	if limit <= 0 {
		limit = defaultRecentRuns
	}
	runs, err := s.runs.ListRecent(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("kpi refresh runs: %w", err)
	}
	out := make([]dto.RefreshRunResponse, len(runs))
	for i, r := range runs {
		out[i] = dto.RefreshRunResponse{
			ID:         r.ID,
			Scope:      r.Scope,
			EmployeeID: r.EmployeeID,
			Status:     r.Status,
			Error:      r.Error,
			SalesCount: r.SalesCount,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		}
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit < 0 {
		return 0
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func derefRank(r *int) int {
	if r == nil {
		return 0
	}
	return *r
}

func round(v decimal.Decimal) decimal.Decimal { return v.Round(displayPlaces) }

func toSalesResponse(r entity.SalesKPI) dto.SalesKPIResponse {
	return dto.SalesKPIResponse{
		EmployeeID:                        r.EmployeeID,
		EmployeeName:                      r.EmployeeName,
		AssignedCompanies:                 r.AssignedCompanies,
		ActiveCompanies:                   r.ActiveCompanies,
		DisusedCompanies:                  r.DisusedCompanies,
		ActivationRate:                    round(r.ActivationRate),
		MainProductCompanies:              r.MainProductCompanies,
		CompanyTargetAchievementRate:      round(r.CompanyTargetAchievementRate),
		MajorCustomerTargetRate:           round(r.MajorCustomerTargetRate),
		AccumulatedSales:                  round(r.AccumulatedSales),
		MainProductSales:                  round(r.MainProductSales),
		SalesConcentration:                round(r.SalesConcentration),
		MonthlySalesPerCompany:            round(r.MonthlySalesPerCompany),
		AccumulatedCollection:             round(r.AccumulatedCollection),
		AccountsReceivable:                round(r.AccountsReceivable),
		MainProductSalesRatio:             round(r.MainProductSalesRatio),
		TotalSalesContribution:            round(r.TotalSalesContribution),
		MainProductContribution:           round(r.MainProductContribution),
		TotalSalesContributionRank:        r.TotalSalesContributionRank,
		MainProductContributionRank:       r.MainProductContributionRank,
		CumulativeTotalSalesContribution:  round(r.CumulativeTotalSalesContribution),
		CumulativeMainProductContribution: round(r.CumulativeMainProductContribution),
		MonthlyTotalSalesContribution:     round(r.MonthlyTotalSalesContribution),
		MonthlyMainProductContribution:    round(r.MonthlyMainProductContribution),
		ContributionAnomaly:               r.ContributionAnomaly,
		CurrentMonths:                     r.CurrentMonths,
		RefreshRunID:                      r.RefreshRunID,
		LastUpdated:                       r.LastUpdated,
	}
}

func toAdminResponse(a entity.AdminKPI) dto.AdminKPIResponse {
	return dto.AdminKPIResponse{
		TotalCompanies:               a.TotalCompanies,
		ActiveCompanies:              a.ActiveCompanies,
		DisusedCompanies:             a.DisusedCompanies,
		ActivationRate:               round(a.ActivationRate),
		MainProductCompanies:         a.MainProductCompanies,
		CompanyTargetAchievementRate: round(a.CompanyTargetAchievementRate),
		MajorCustomerTargetRate:      round(a.MajorCustomerTargetRate),
		AccumulatedSales:             round(a.AccumulatedSales),
		AccumulatedCollection:        round(a.AccumulatedCollection),
		AccountsReceivable:           round(a.AccountsReceivable),
		MainProductSales:             round(a.MainProductSales),
		SalesConcentration:           round(a.SalesConcentration),
		MonthlySalesPerCompany:       round(a.MonthlySalesPerCompany),
		MainProductSalesRatio:        round(a.MainProductSalesRatio),
		SalesRepCount:                a.SalesRepCount,
		CurrentMonths:                a.CurrentMonths,
		RefreshRunID:                 a.RefreshRunID,
		LastUpdated:                  a.LastUpdated,
	}
}
