package kpi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/sales-kpi-api/internal/domain"
	"github.com/jhoicas/sales-kpi-api/internal/domain/entity"
	"github.com/jhoicas/sales-kpi-api/internal/domain/repository"
)

const (
	defaultRefreshTimeout = 5 * time.Minute
	runLogTimeout         = 5 * time.Second
)

// State estado del orquestador: Idle → Running → Idle, o Idle → Running → Failed → Idle.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// RefreshResult resultado estructurado de un pase. Err es nil si el pase terminó bien.
type RefreshResult struct {
	RunID      string
	Scope      string
	EmployeeID string
	SalesCount int
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

// Success informa si el pase se completó y la caché quedó actualizada.
func (r RefreshResult) Success() bool { return r.Err == nil }

// Duration tiempo total del pase.
func (r RefreshResult) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Status vista del estado actual para el endpoint de diagnóstico.
type Status struct {
	State         State
	LastResult    *RefreshResult
	LastSuccessAt *time.Time
}

// OrchestratorConfig parámetros del orquestador.
type OrchestratorConfig struct {
	Timeout time.Duration // watchdog de un pase; 0 = 5 minutos
}

// Orchestrator coordinador single-flight de la actualización de la caché de KPI.
//
// Flujo de un pase completo: SourceRepository → Aggregator (cálculo + ranking) → KPIRepository.ReplaceAll.
// Un pase que falla en cualquier paso deja la caché en el último snapshot válido.
// El temporizador diario y las llamadas HTTP comparten el mismo Guard.
type Orchestrator struct {
	source     repository.SourceRepository
	cache      repository.KPIRepository
	runs       repository.RefreshRunRepository
	aggregator *Aggregator
	guard      *Guard
	timeout    time.Duration
	log        zerolog.Logger
	now        func() time.Time

	mu          sync.RWMutex
	state       State
	last        *RefreshResult
	lastSuccess *time.Time
	observers   []func(RefreshResult)
}

// NewOrchestrator construye el orquestador. runs puede ser nil (sin bitácora persistida).
func NewOrchestrator(
	source repository.SourceRepository,
	cache repository.KPIRepository,
	runs repository.RefreshRunRepository,
	aggregator *Aggregator,
	cfg OrchestratorConfig,
	log zerolog.Logger,
) *Orchestrator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	return &Orchestrator{
		source:     source,
		cache:      cache,
		runs:       runs,
		aggregator: aggregator,
		guard:      &Guard{},
		timeout:    timeout,
		log:        log.With().Str("component", "kpi_refresh").Logger(),
		now:        time.Now,
	}
}

// OnComplete registra un observador que recibe el resultado de cada pase (éxito o fallo).
// Se invoca fuera de los locks internos, en la goroutine que ejecutó el pase.
func (o *Orchestrator) OnComplete(fn func(RefreshResult)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, fn)
}

// Status devuelve el estado actual y el último resultado.
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	st := Status{State: o.state}
	if o.last != nil {
		last := *o.last
		st.LastResult = &last
	}
	if o.lastSuccess != nil {
		t := *o.lastSuccess
		st.LastSuccessAt = &t
	}
	return st
}

// RefreshAll ejecuta un pase completo de forma síncrona.
// Si ya hay un pase en curso devuelve domain.ErrRefreshInProgress de inmediato, sin encolar.
func (o *Orchestrator) RefreshAll(ctx context.Context) (RefreshResult, error) {
	return o.runExclusive(ctx, entity.RefreshScopeAll, "", o.refreshAllPass)
}

// RefreshOne recalcula un solo representante sin tocar kpi_admin ni los ranks de los demás.
// Sus propios ranks quedan como en el último pase completo hasta el siguiente RefreshAll.
func (o *Orchestrator) RefreshOne(ctx context.Context, employeeID string) (RefreshResult, error) {
	if employeeID == "" {
		return RefreshResult{Scope: entity.RefreshScopeOne}, fmt.Errorf("employeeId: %w", domain.ErrInvalidInput)
	}
	return o.runExclusive(ctx, entity.RefreshScopeOne, employeeID, func(ctx context.Context, runID string) (int, error) {
		return o.refreshOnePass(ctx, runID, employeeID)
	})
}

// ScheduleDaily registra RefreshAll en el scheduler con la expresión cron indicada.
func (o *Orchestrator) ScheduleDaily(s Scheduler, spec string) error {
	return s.Schedule(spec, func() {
		res, err := o.RefreshAll(context.Background())
		if errors.Is(err, domain.ErrRefreshInProgress) {
			o.log.Info().Msg("actualización programada omitida: ya hay un pase en curso")
			return
		}
		if err != nil {
			o.log.Error().Err(err).Str("run_id", res.RunID).Msg("actualización programada fallida")
			return
		}
		o.log.Info().Str("run_id", res.RunID).Int("sales_count", res.SalesCount).Msg("actualización programada completada")
	})
}

type passFunc func(ctx context.Context, runID string) (int, error)

func (o *Orchestrator) runExclusive(ctx context.Context, scope, employeeID string, pass passFunc) (RefreshResult, error) {
	if !o.guard.TryAcquire() {
		o.log.Info().Str("scope", scope).Msg("actualización rechazada: pase en curso")
		return RefreshResult{Scope: scope, EmployeeID: employeeID, Err: domain.ErrRefreshInProgress}, domain.ErrRefreshInProgress
	}
	defer o.guard.Release()

	o.setState(StateRunning)
	res := o.execute(ctx, scope, employeeID, pass)
	o.finish(res)
	return res, res.Err
}

// execute corre el pase bajo un watchdog. El pase no depende de la vida del request que lo disparó,
// solo del timeout; si lo excede se abandona y el Guard se libera igual.
func (o *Orchestrator) execute(parent context.Context, scope, employeeID string, pass passFunc) RefreshResult {
	res := RefreshResult{
		RunID:      uuid.NewString(),
		Scope:      scope,
		EmployeeID: employeeID,
		StartedAt:  o.now(),
	}
	log := o.log.With().Str("run_id", res.RunID).Str("scope", scope).Str("employee_id", employeeID).Logger()
	log.Info().Msg("inicio de actualización de KPI")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), o.timeout)
	defer cancel()

	o.recordStart(res)

	type outcome struct {
		count int
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: panic: %v", domain.ErrComputation, r)}
			}
		}()
		n, err := pass(ctx, res.RunID)
		done <- outcome{count: n, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out = outcome{err: fmt.Errorf("%w (%s)", domain.ErrRefreshTimeout, o.timeout)}
	}

	res.SalesCount = out.count
	res.Err = out.err
	res.FinishedAt = o.now()

	o.recordFinish(res)

	ev := log.Info()
	if res.Err != nil {
		ev = log.Error().Err(res.Err)
	}
	ev.Int("sales_count", res.SalesCount).
		Int64("duration_ms", res.Duration().Milliseconds()).
		Bool("success", res.Success()).
		Msg("fin de actualización de KPI")
	return res
}

func (o *Orchestrator) refreshAllPass(ctx context.Context, runID string) (int, error) {
	set, err := o.source.LoadSourceSet(ctx)
	if err != nil {
		return 0, classify(err, domain.ErrDataUnavailable)
	}
	snap, err := o.aggregator.Build(set, runID)
	if err != nil {
		return 0, classify(err, domain.ErrComputation)
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrRefreshTimeout, err)
	}
	if err := o.cache.ReplaceAll(ctx, snap); err != nil {
		return 0, classify(err, domain.ErrWriteFailure)
	}
	return len(snap.Sales), nil
}

func (o *Orchestrator) refreshOnePass(ctx context.Context, runID, employeeID string) (int, error) {
	set, err := o.source.LoadSourceSet(ctx)
	if err != nil {
		return 0, classify(err, domain.ErrDataUnavailable)
	}
	row, details, err := o.aggregator.BuildOne(set, employeeID, runID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, err
		}
		return 0, classify(err, domain.ErrComputation)
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrRefreshTimeout, err)
	}
	if err := o.cache.UpsertSales(ctx, row, details); err != nil {
		return 0, classify(err, domain.ErrWriteFailure)
	}
	return 1, nil
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// finish aplica la transición final y notifica a los observadores.
// Un fallo pasa por Failed y vuelve a Idle: el siguiente pedido puede reintentar.
func (o *Orchestrator) finish(res RefreshResult) {
	o.mu.Lock()
	last := res
	o.last = &last
	if res.Success() {
		t := res.FinishedAt
		o.lastSuccess = &t
		o.state = StateIdle
	} else {
		o.state = StateFailed
	}
	observers := make([]func(RefreshResult), len(o.observers))
	copy(observers, o.observers)
	o.mu.Unlock()

	for _, fn := range observers {
		fn(res)
	}

	if !res.Success() {
		o.setState(StateIdle)
	}
}

func (o *Orchestrator) recordStart(res RefreshResult) {
	if o.runs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), runLogTimeout)
	defer cancel()
	err := o.runs.Start(ctx, entity.RefreshRun{
		ID:         res.RunID,
		Scope:      res.Scope,
		EmployeeID: res.EmployeeID,
		Status:     entity.RefreshRunRunning,
		StartedAt:  res.StartedAt,
	})
	if err != nil {
		o.log.Warn().Err(err).Str("run_id", res.RunID).Msg("no se pudo registrar el inicio del pase")
	}
}

func (o *Orchestrator) recordFinish(res RefreshResult) {
	if o.runs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), runLogTimeout)
	defer cancel()
	finished := res.FinishedAt
	run := entity.RefreshRun{
		ID:         res.RunID,
		Scope:      res.Scope,
		EmployeeID: res.EmployeeID,
		Status:     entity.RefreshRunSucceeded,
		SalesCount: res.SalesCount,
		StartedAt:  res.StartedAt,
		FinishedAt: &finished,
	}
	if res.Err != nil {
		run.Status = entity.RefreshRunFailed
		run.Error = res.Err.Error()
	}
	if err := o.runs.Finish(ctx, run); err != nil {
		o.log.Warn().Err(err).Str("run_id", res.RunID).Msg("no se pudo registrar el fin del pase")
	}
}

// classify garantiza que err lleve el error de la taxonomía indicado.
func classify(err, kind error) error {
	if errors.Is(err, domain.ErrDataUnavailable) ||
		errors.Is(err, domain.ErrComputation) ||
		errors.Is(err, domain.ErrWriteFailure) ||
		errors.Is(err, domain.ErrRefreshTimeout) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
