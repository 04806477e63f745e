package repository

import (
	"context"

	"github.com/jhoicas/sales-kpi-api/internal/domain/entity"
)

// KPIRepository puerto de la caché de KPI: escritura (Cache Writer) y lectura (Query Surface).
// Solo el orquestador de actualización llama a los métodos de escritura.
type KPIRepository interface {
	// ReplaceAll reemplaza kpi_sales, kpi_sales_concentration y kpi_admin en una sola transacción.
	// Las filas de representantes que ya no son elegibles desaparecen.
	ReplaceAll(ctx context.Context, snap *entity.KPISnapshot) error

	// UpsertSales reescribe la fila de un representante y su detalle de concentración
	// sin tocar kpi_admin ni los ranks/acumulados existentes.
	UpsertSales(ctx context.Context, row entity.SalesKPI, details []entity.ConcentrationDetail) error

	// ── Lectura ──────────────────────────────────────────────────────────────

	// GetSales busca por employeeId o, si no hay coincidencia, por employeeName.
	// Devuelve (nil, nil) si no existe snapshot.
	GetSales(ctx context.Context, idOrName string) (*entity.SalesKPI, error)
	GetAdmin(ctx context.Context) (*entity.AdminKPI, error)
	// ListRanking devuelve filas con rank no nulo ordenadas por rank ascendente; limit <= 0 = todas.
	ListRanking(ctx context.Context, t entity.RankingType, limit int) ([]entity.SalesKPI, error)
	// ListByConcentration devuelve los representantes ordenados por SalesConcentration descendente.
	ListByConcentration(ctx context.Context, limit int) ([]entity.SalesKPI, error)
	// ListConcentrationDetails devuelve el desglose por cliente; employeeID vacío = todos.
	ListConcentrationDetails(ctx context.Context, employeeID string) ([]entity.ConcentrationDetail, error)
}

// RefreshRunRepository bitácora de ejecuciones de actualización.
type RefreshRunRepository interface {
	Start(ctx context.Context, run entity.RefreshRun) error
	Finish(ctx context.Context, run entity.RefreshRun) error
	ListRecent(ctx context.Context, limit int) ([]entity.RefreshRun, error)
}
