// Package kpi contiene los casos de uso del motor de KPI de ventas:
// agregación de un pase, orquestación de la actualización (single-flight) y consultas sobre la caché.
package kpi

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/sales-kpi-api/internal/domain"
	"github.com/jhoicas/sales-kpi-api/internal/domain/entity"
	domkpi "github.com/jhoicas/sales-kpi-api/internal/domain/kpi"
)

var hundred = decimal.NewFromInt(100)

// Settings parámetros de negocio del cálculo (vienen de configuración, no del motor).
type Settings struct {
	CompanyQuota       decimal.Decimal // clientes asignados esperados por representante
	MajorCustomerQuota decimal.Decimal // clientes de producto principal esperados por representante
	MainProducts       []string
	Location           *time.Location // zona horaria de evaluación (Asia/Seoul)
}

// Aggregator convierte un SourceSet en un KPISnapshot completo.
// Es puro salvo por el reloj inyectado.
type Aggregator struct {
	settings Settings
	matcher  *domkpi.MainProductMatcher
	now      func() time.Time
}

// NewAggregator construye el agregador. now nil = time.Now.
func NewAggregator(settings Settings, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if len(settings.MainProducts) == 0 {
		settings.MainProducts = domkpi.DefaultMainProducts
	}
	return &Aggregator{
		settings: settings,
		matcher:  domkpi.NewMainProductMatcher(settings.MainProducts),
		now:      now,
	}
}

// companyTotals totales de toda la empresa usados como denominador de contribución.
type companyTotals struct {
	sales            decimal.Decimal
	mainProductSales decimal.Decimal
}

// Build calcula el snapshot de un pase completo:
//  1. KPI por representante (con los totales de empresa del mismo SourceSet).
//  2. Ranking de contribución total y de producto principal + acumulado Pareto.
//  3. Snapshot de empresa.
//  4. Validación de invariantes; cualquier violación aborta el pase con domain.ErrComputation.
func (a *Aggregator) Build(set *entity.SourceSet, runID string) (*entity.KPISnapshot, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: conjunto de origen vacío", domain.ErrDataUnavailable)
	}
	set = withoutDisused(set)
	reps := eligible(set.Representatives)
	if err := checkRepresentatives(reps); err != nil {
		return nil, err
	}

	eval := a.now().In(a.settings.Location)
	totals := a.totals(set.Companies)
	byManager := set.CompaniesByManager()

	snap := &entity.KPISnapshot{
		RunID: runID,
		Sales: make([]entity.SalesKPI, 0, len(reps)),
	}
	for _, rep := range reps {
		row, details := a.computeSales(rep, byManager[rep.Name], set.DisusedByManager[rep.Name], totals, eval)
		row.RefreshRunID = runID
		snap.Sales = append(snap.Sales, row)
		snap.Details = append(snap.Details, details...)
	}

	applyRanks(snap.Sales)

	snap.Admin = a.computeAdmin(set, len(reps), totals, eval)
	snap.Admin.RefreshRunID = runID

	if err := validateSnapshot(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// BuildOne recalcula un solo representante (por id o nombre) contra los totales del SourceSet.
// Los campos de rank y acumulado quedan vacíos: el repositorio conserva los del último pase completo.
func (a *Aggregator) BuildOne(set *entity.SourceSet, idOrName, runID string) (entity.SalesKPI, []entity.ConcentrationDetail, error) {
	if set == nil {
		return entity.SalesKPI{}, nil, fmt.Errorf("%w: conjunto de origen vacío", domain.ErrDataUnavailable)
	}
	set = withoutDisused(set)
	rep, ok := set.FindRepresentative(idOrName)
	if !ok || !rep.IsSalesRep() {
		return entity.SalesKPI{}, nil, fmt.Errorf("representante %q: %w", idOrName, domain.ErrNotFound)
	}

	eval := a.now().In(a.settings.Location)
	var own []entity.Company
	for _, c := range set.Companies {
		if c.InternalManager == rep.Name {
			own = append(own, c)
		}
	}
	row, details := a.computeSales(rep, own, set.DisusedByManager[rep.Name], a.totals(set.Companies), eval)
	row.RefreshRunID = runID
	if err := validateRates(row.EmployeeID, row.ActivationRate); err != nil {
		return entity.SalesKPI{}, nil, err
	}
	return row, details, nil
}

func (a *Aggregator) totals(companies []entity.Company) companyTotals {
	var t companyTotals
	for _, c := range companies {
		t.sales = t.sales.Add(c.AccumulatedSales)
		if a.matcher.Matches(c.SalesProduct) {
			t.mainProductSales = t.mainProductSales.Add(c.AccumulatedSales)
		}
	}
	return t
}

// computeSales KPI de un representante. companies son sus clientes no "불용".
func (a *Aggregator) computeSales(
	rep entity.Employee,
	companies []entity.Company,
	disused int,
	totals companyTotals,
	eval time.Time,
) (entity.SalesKPI, []entity.ConcentrationDetail) {
	row := entity.SalesKPI{
		EmployeeID:        rep.ID,
		EmployeeName:      rep.Name,
		ActiveCompanies:   len(companies),
		DisusedCompanies:  disused,
		AssignedCompanies: len(companies) + disused,
		CurrentMonths:     domkpi.CurrentMonths(rep.HireDate, eval),
		LastUpdated:       eval,
	}
	row.ActivationRate = domkpi.ActivationRate(row.AssignedCompanies, row.ActiveCompanies)

	sales := make([]decimal.Decimal, len(companies))
	for i, c := range companies {
		sales[i] = c.AccumulatedSales
		row.AccumulatedSales = row.AccumulatedSales.Add(c.AccumulatedSales)
		row.AccumulatedCollection = row.AccumulatedCollection.Add(c.AccumulatedCollection)
		row.AccountsReceivable = row.AccountsReceivable.Add(c.AccountsReceivable)
		if a.matcher.Matches(c.SalesProduct) {
			row.MainProductCompanies++
			row.MainProductSales = row.MainProductSales.Add(c.AccumulatedSales)
		}
	}

	row.CompanyTargetAchievementRate = domkpi.TargetAchievementRate(row.AssignedCompanies, a.settings.CompanyQuota)
	row.MajorCustomerTargetRate = domkpi.TargetAchievementRate(row.MainProductCompanies, a.settings.MajorCustomerQuota)
	row.MainProductSalesRatio = domkpi.Percent(row.MainProductSales, row.AccumulatedSales)
	row.MonthlySalesPerCompany = domkpi.MonthlySalesPerCompany(row.AccumulatedSales, row.ActiveCompanies, row.CurrentMonths)

	index, shares := domkpi.Concentration(sales)
	row.SalesConcentration = index
	details := make([]entity.ConcentrationDetail, len(companies))
	for i, c := range companies {
		details[i] = entity.ConcentrationDetail{
			EmployeeID:       rep.ID,
			CompanyKey:       c.KeyValue,
			CompanyName:      c.Name,
			AccumulatedSales: c.AccumulatedSales,
			SalesShare:       shares[i],
		}
	}

	row.TotalSalesContribution = domkpi.Contribution(row.AccumulatedSales, totals.sales)
	row.MainProductContribution = domkpi.Contribution(row.MainProductSales, totals.mainProductSales)
	row.MonthlyTotalSalesContribution = domkpi.PerMonth(row.TotalSalesContribution, row.CurrentMonths)
	row.MonthlyMainProductContribution = domkpi.PerMonth(row.MainProductContribution, row.CurrentMonths)
	// Ventas netas negativas (devoluciones) pueden sacar la razón de producto principal de [0,100]:
	// se marca igual que una contribución anómala, sin recortar.
	row.ContributionAnomaly = domkpi.ContributionAnomaly(row.TotalSalesContribution, row.MainProductContribution) ||
		outOfPercentRange(row.MainProductSalesRatio)

	return row, details
}

func (a *Aggregator) computeAdmin(set *entity.SourceSet, reps int, totals companyTotals, eval time.Time) entity.AdminKPI {
	admin := entity.AdminKPI{
		ActiveCompanies:  len(set.Companies),
		DisusedCompanies: set.DisusedTotal,
		TotalCompanies:   len(set.Companies) + set.DisusedTotal,
		AccumulatedSales: totals.sales,
		MainProductSales: totals.mainProductSales,
		SalesRepCount:    reps,
		CurrentMonths:    domkpi.CompanyCurrentMonths(eval),
		LastUpdated:      eval,
	}
	admin.ActivationRate = domkpi.ActivationRate(admin.TotalCompanies, admin.ActiveCompanies)

	sales := make([]decimal.Decimal, len(set.Companies))
	for i, c := range set.Companies {
		sales[i] = c.AccumulatedSales
		admin.AccumulatedCollection = admin.AccumulatedCollection.Add(c.AccumulatedCollection)
		admin.AccountsReceivable = admin.AccountsReceivable.Add(c.AccountsReceivable)
		if a.matcher.Matches(c.SalesProduct) {
			admin.MainProductCompanies++
		}
	}
	admin.SalesConcentration, _ = domkpi.Concentration(sales)
	admin.MonthlySalesPerCompany = domkpi.MonthlySalesPerCompany(admin.AccumulatedSales, admin.ActiveCompanies, admin.CurrentMonths)
	admin.MainProductSalesRatio = domkpi.Percent(admin.MainProductSales, admin.AccumulatedSales)

	repCount := decimal.NewFromInt(int64(reps))
	admin.CompanyTargetAchievementRate = domkpi.TargetAchievementRate(admin.TotalCompanies, a.settings.CompanyQuota.Mul(repCount))
	admin.MajorCustomerTargetRate = domkpi.TargetAchievementRate(admin.MainProductCompanies, a.settings.MajorCustomerQuota.Mul(repCount))
	return admin
}

// applyRanks asigna ranks y acumulados de ambas métricas sobre todas las filas del pase.
// Todas las filas corresponden a representantes elegibles, así que todas reciben rank.
func applyRanks(rows []entity.SalesKPI) {
	index := make(map[string]int, len(rows))
	total := make([]domkpi.RankInput, len(rows))
	mainProduct := make([]domkpi.RankInput, len(rows))
	for i, r := range rows {
		index[r.EmployeeID] = i
		total[i] = domkpi.RankInput{EmployeeID: r.EmployeeID, EmployeeName: r.EmployeeName, Value: r.TotalSalesContribution}
		mainProduct[i] = domkpi.RankInput{EmployeeID: r.EmployeeID, EmployeeName: r.EmployeeName, Value: r.MainProductContribution}
	}
	for _, res := range domkpi.RankCompetition(total) {
		rank := res.Rank
		row := &rows[index[res.EmployeeID]]
		row.TotalSalesContributionRank = &rank
		row.CumulativeTotalSalesContribution = res.Cumulative
	}
	for _, res := range domkpi.RankCompetition(mainProduct) {
		rank := res.Rank
		row := &rows[index[res.EmployeeID]]
		row.MainProductContributionRank = &rank
		row.CumulativeMainProductContribution = res.Cumulative
	}
}

// withoutDisused devuelve una copia del conjunto sin clientes "불용" en Companies.
// El lector ya los excluye; los que lleguen igual no cuentan como activos.
func withoutDisused(set *entity.SourceSet) *entity.SourceSet {
	out := *set
	out.Companies = make([]entity.Company, 0, len(set.Companies))
	for _, c := range set.Companies {
		if !c.IsDisused() {
			out.Companies = append(out.Companies, c)
		}
	}
	return &out
}

// eligible filtra los empleados que no son representantes de ventas activos.
func eligible(emps []entity.Employee) []entity.Employee {
	out := make([]entity.Employee, 0, len(emps))
	for _, e := range emps {
		if e.IsSalesRep() {
			out = append(out, e)
		}
	}
	return out
}

func checkRepresentatives(reps []entity.Employee) error {
	ids := make(map[string]struct{}, len(reps))
	names := make(map[string]struct{}, len(reps))
	for _, r := range reps {
		if r.ID == "" {
			return fmt.Errorf("%w: representante %q sin id", domain.ErrComputation, r.Name)
		}
		if _, dup := ids[r.ID]; dup {
			return fmt.Errorf("%w: id de representante duplicado %q", domain.ErrComputation, r.ID)
		}
		if _, dup := names[r.Name]; dup {
			return fmt.Errorf("%w: nombre de representante duplicado %q", domain.ErrComputation, r.Name)
		}
		ids[r.ID] = struct{}{}
		names[r.Name] = struct{}{}
	}
	return nil
}

func outOfPercentRange(v decimal.Decimal) bool {
	return v.IsNegative() || v.GreaterThan(hundred)
}

func validateRates(employeeID string, rates ...decimal.Decimal) error {
	for _, r := range rates {
		if outOfPercentRange(r) {
			return fmt.Errorf("%w: tasa fuera de [0,100] para %q: %s", domain.ErrComputation, employeeID, r.String())
		}
	}
	return nil
}

// validateSnapshot verifica los invariantes del pase antes de escribir.
func validateSnapshot(snap *entity.KPISnapshot) error {
	totalRanks := make([]int, 0, len(snap.Sales))
	mainRanks := make([]int, 0, len(snap.Sales))
	for _, r := range snap.Sales {
		if err := validateRates(r.EmployeeID, r.ActivationRate); err != nil {
			return err
		}
		if r.TotalSalesContributionRank == nil || r.MainProductContributionRank == nil {
			return fmt.Errorf("%w: representante %q sin rank", domain.ErrComputation, r.EmployeeID)
		}
		totalRanks = append(totalRanks, *r.TotalSalesContributionRank)
		mainRanks = append(mainRanks, *r.MainProductContributionRank)
	}
	if !contiguous(totalRanks) || !contiguous(mainRanks) {
		return fmt.Errorf("%w: secuencia de ranks inválida", domain.ErrComputation)
	}
	return validateRates(entity.AdminKPIID, snap.Admin.ActivationRate)
}

// contiguous verifica que los ranks, ordenados, formen la secuencia de competencia 1..N.
func contiguous(ranks []int) bool {
	sorted := make([]int, len(ranks))
	copy(sorted, ranks)
	sort.Ints(sorted)
	return domkpi.ValidCompetitionRanks(sorted)
}
