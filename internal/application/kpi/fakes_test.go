package kpi_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/sales-kpi-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria de los puertos de repositorio
// ──────────────────────────────────────────────────────────────────────────────

var seoul = time.FixedZone("KST", 9*60*60)

// evalNow fecha de evaluación fija de los tests: 16 de octubre de 2026, Seúl.
func evalNow() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, seoul) }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func company(key, manager, product, sales string) entity.Company {
	return entity.Company{
		KeyValue:              key,
		Name:                  "거래처 " + key,
		BusinessStatus:        entity.BusinessStatusActive,
		InternalManager:       manager,
		SalesProduct:          product,
		AccumulatedSales:      d(sales),
		AccumulatedCollection: d(sales).Div(decimal.NewFromInt(2)),
		AccountsReceivable:    d(sales).Div(decimal.NewFromInt(2)),
	}
}

func rep(id, name string) entity.Employee {
	hire := time.Date(2019, 3, 2, 0, 0, 0, 0, seoul)
	return entity.Employee{ID: id, Name: name, Role1: "영업", Status: entity.EmployeeStatusActive, HireDate: &hire}
}

// scenarioSet dos representantes:
//   - e1 "김영업": 7 clientes activos de 100 (2 de implantes) + 3 "불용" → activación 70%.
//   - e2 "이영업": 3 clientes activos de 100 (1 abutment) + 1 "불용".
//
// Totales de empresa: ventas 1000, producto principal 300.
func scenarioSet() *entity.SourceSet {
	set := &entity.SourceSet{
		DisusedByManager: map[string]int{"김영업": 3, "이영업": 1},
		DisusedTotal:     4,
		Representatives:  []entity.Employee{rep("e1", "김영업"), rep("e2", "이영업")},
	}
	for i := 0; i < 7; i++ {
		product := "소모품"
		if i < 2 {
			product = "임플란트, 소모품"
		}
		set.Companies = append(set.Companies, company("c1"+string(rune('a'+i)), "김영업", product, "100"))
	}
	set.Companies = append(set.Companies,
		company("c2a", "이영업", "abutment kit", "100"),
		company("c2b", "이영업", "", "100"),
		company("c2c", "이영업", "장비", "100"),
	)
	return set
}

type fakeSource struct {
	mu    sync.Mutex
	set   *entity.SourceSet
	err   error
	calls int
	// block, si no es nil, detiene LoadSourceSet hasta que se cierre.
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeSource) LoadSourceSet(ctx context.Context) (*entity.SourceSet, error) {
	f.mu.Lock()
	f.calls++
	block, entered := f.block, f.entered
	f.mu.Unlock()
	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if block != nil {
		<-block
	}
	return f.set, f.err
}

type fakeCache struct {
	mu         sync.Mutex
	sales      map[string]entity.SalesKPI
	details    []entity.ConcentrationDetail
	admin      *entity.AdminKPI
	replaceErr error
	replaced   int
	upserted   int
}

func newFakeCache() *fakeCache { return &fakeCache{sales: map[string]entity.SalesKPI{}} }

func (f *fakeCache) ReplaceAll(ctx context.Context, snap *entity.KPISnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced++
	f.sales = map[string]entity.SalesKPI{}
	for _, s := range snap.Sales {
		f.sales[s.EmployeeID] = s
	}
	f.details = append([]entity.ConcentrationDetail(nil), snap.Details...)
	a := snap.Admin
	f.admin = &a
	return nil
}

func (f *fakeCache) UpsertSales(ctx context.Context, row entity.SalesKPI, details []entity.ConcentrationDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted++
	if prev, ok := f.sales[row.EmployeeID]; ok {
		row.TotalSalesContributionRank = prev.TotalSalesContributionRank
		row.MainProductContributionRank = prev.MainProductContributionRank
		row.CumulativeTotalSalesContribution = prev.CumulativeTotalSalesContribution
		row.CumulativeMainProductContribution = prev.CumulativeMainProductContribution
	}
	f.sales[row.EmployeeID] = row
	kept := f.details[:0]
	for _, dt := range f.details {
		if dt.EmployeeID != row.EmployeeID {
			kept = append(kept, dt)
		}
	}
	f.details = append(kept, details...)
	return nil
}

func (f *fakeCache) GetSales(ctx context.Context, idOrName string) (*entity.SalesKPI, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sales[idOrName]; ok {
		return &s, nil
	}
	for _, s := range f.sales {
		if s.EmployeeName == idOrName {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeCache) GetAdmin(ctx context.Context) (*entity.AdminKPI, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.admin == nil {
		return nil, nil
	}
	a := *f.admin
	return &a, nil
}

func (f *fakeCache) ListRanking(ctx context.Context, t entity.RankingType, limit int) ([]entity.SalesKPI, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rankOf := func(s entity.SalesKPI) *int {
		if t == entity.RankingMain {
			return s.MainProductContributionRank
		}
		return s.TotalSalesContributionRank
	}
	var out []entity.SalesKPI
	for _, s := range f.sales {
		if rankOf(s) != nil {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := *rankOf(out[i]), *rankOf(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i].EmployeeName < out[j].EmployeeName
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCache) ListByConcentration(ctx context.Context, limit int) ([]entity.SalesKPI, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.SalesKPI, 0, len(f.sales))
	for _, s := range f.sales {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SalesConcentration.GreaterThan(out[j].SalesConcentration)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCache) ListConcentrationDetails(ctx context.Context, employeeID string) ([]entity.ConcentrationDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.ConcentrationDetail
	for _, dt := range f.details {
		if employeeID == "" || dt.EmployeeID == employeeID {
			out = append(out, dt)
		}
	}
	return out, nil
}

func (f *fakeCache) replaceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replaced
}

type fakeRuns struct {
	mu   sync.Mutex
	runs map[string]entity.RefreshRun
	ids  []string
}

func newFakeRuns() *fakeRuns { return &fakeRuns{runs: map[string]entity.RefreshRun{}} }

func (f *fakeRuns) Start(ctx context.Context, run entity.RefreshRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[run.ID] = run
	f.ids = append(f.ids, run.ID)
	return nil
}

func (f *fakeRuns) Finish(ctx context.Context, run entity.RefreshRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[run.ID] = run
	return nil
}

func (f *fakeRuns) ListRecent(ctx context.Context, limit int) ([]entity.RefreshRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.RefreshRun
	for i := len(f.ids) - 1; i >= 0; i-- {
		out = append(out, f.runs[f.ids[i]])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRuns) get(id string) entity.RefreshRun {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs[id]
}

// manualScheduler guarda las tareas programadas para dispararlas a mano.
type manualScheduler struct {
	specs []string
	tasks []func()
}

func (m *manualScheduler) Schedule(spec string, task func()) error {
	m.specs = append(m.specs, spec)
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *manualScheduler) fire() {
	for _, t := range m.tasks {
		t()
	}
}
