package entity

import "time"

// Alcance y estado de una ejecución de actualización (tabla kpi_refresh_runs).
const (
	RefreshScopeAll = "all"
	RefreshScopeOne = "one"

	RefreshRunRunning   = "running"
	RefreshRunSucceeded = "succeeded"
	RefreshRunFailed    = "failed"
)

// RefreshRun bitácora persistida de un pase. Una fila que queda en failed,
// o en running tras una caída, marca explícitamente que la escritura no se completó.
type RefreshRun struct {
	ID         string
	Scope      string
	EmployeeID string
	Status     string
	Error      string
	SalesCount int
	StartedAt  time.Time
	FinishedAt *time.Time
}
