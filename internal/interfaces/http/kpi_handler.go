package http

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/sales-kpi-api/internal/application/dto"
	appkpi "github.com/jhoicas/sales-kpi-api/internal/application/kpi"
	"github.com/jhoicas/sales-kpi-api/internal/domain"
	"github.com/jhoicas/sales-kpi-api/internal/domain/entity"
)

const recentRunsInStatus = 10

// KPIRefresher lado de escritura: lo implementa *kpi.Orchestrator.
type KPIRefresher interface {
	RefreshAll(ctx context.Context) (appkpi.RefreshResult, error)
	RefreshOne(ctx context.Context, employeeID string) (appkpi.RefreshResult, error)
	Status() appkpi.Status
}

// KPIQuerier lado de lectura: lo implementa *kpi.QueryService.
type KPIQuerier interface {
	GetSales(ctx context.Context, idOrName string) (*dto.SalesKPIResponse, error)
	GetAdmin(ctx context.Context) (*dto.AdminKPIResponse, error)
	GetRanking(ctx context.Context, t entity.RankingType, limit int) (*dto.RankingResponse, error)
	GetConcentrationDetail(ctx context.Context, employeeID string, limit int) (*dto.ConcentrationResponse, error)
	RecentRuns(ctx context.Context, limit int) ([]dto.RefreshRunResponse, error)
}

// KPIHandler endpoints de KPI de ventas.
type KPIHandler struct {
	refresher KPIRefresher
	query     KPIQuerier
	validate  *validator.Validate
}

// NewKPIHandler construye el handler.
func NewKPIHandler(refresher KPIRefresher, query KPIQuerier) *KPIHandler {
	return &KPIHandler{refresher: refresher, query: query, validate: validator.New()}
}

// RefreshAll godoc
// @Summary      Recalcula todos los KPI
// @Description  Ejecuta un pase completo de forma síncrona. Si ya hay uno en curso responde 409 sin esperar.
// @Tags         kpi
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RefreshResponse
// @Failure      409  {object}  dto.RefreshResponse
// @Failure      500  {object}  dto.RefreshResponse
// @Router       /api/kpi/refresh-all [post]
func (h *KPIHandler) RefreshAll(c *fiber.Ctx) error {
	res, err := h.refresher.RefreshAll(c.Context())
	return h.refreshResponse(c, res, err, "KPI actualizados")
}

// RefreshOne godoc
// @Summary      Recalcula los KPI de un representante
// @Description  Recalcula solo al representante indicado (id o nombre). Los ranks se conservan hasta el próximo pase completo.
// @Tags         kpi
// @Security     Bearer
// @Produce      json
// @Param        employeeId  path  string  true  "ID o nombre del representante"
// @Success      200  {object}  dto.RefreshResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.RefreshResponse
// @Failure      500  {object}  dto.RefreshResponse
// @Router       /api/kpi/sales/{employeeId}/refresh [post]
func (h *KPIHandler) RefreshOne(c *fiber.Ctx) error {
	res, err := h.refresher.RefreshOne(c.Context(), c.Params("employeeId"))
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
		return writeError(c, err)
	}
	return h.refreshResponse(c, res, err, "KPI del representante actualizados")
}

func (h *KPIHandler) refreshResponse(c *fiber.Ctx, res appkpi.RefreshResult, err error, okMsg string) error {
	out := dto.RefreshResponse{
		Success:    err == nil,
		RunID:      res.RunID,
		SalesCount: res.SalesCount,
	}
	if !res.StartedAt.IsZero() {
		out.DurationMs = res.Duration().Milliseconds()
	}
	switch {
	case err == nil:
		out.Message = okMsg
		return c.JSON(out)
	case errors.Is(err, domain.ErrRefreshInProgress):
		out.Busy = true
		out.Message = "ya hay una actualización de KPI en curso"
		return c.Status(fiber.StatusConflict).JSON(out)
	case errors.Is(err, domain.ErrRefreshTimeout):
		out.Message = err.Error()
		return c.Status(fiber.StatusGatewayTimeout).JSON(out)
	default:
		out.Message = err.Error()
		return c.Status(fiber.StatusInternalServerError).JSON(out)
	}
}

// GetSales godoc
// @Summary      KPI de un representante
// @Description  Lee el snapshot cacheado por id o nombre. Nunca recalcula.
// @Tags         kpi
// @Security     Bearer
// @Produce      json
// @Param        employeeId  path  string  true  "ID o nombre del representante"
// @Success      200  {object}  dto.SalesKPIResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/kpi/sales/{employeeId} [get]
func (h *KPIHandler) GetSales(c *fiber.Ctx) error {
	out, err := h.query.GetSales(c.Context(), c.Params("employeeId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetAdmin godoc
// @Summary      KPI de toda la empresa
// @Tags         kpi
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.AdminKPIResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/kpi/admin [get]
func (h *KPIHandler) GetAdmin(c *fiber.Ctx) error {
	out, err := h.query.GetAdmin(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetRanking godoc
// @Summary      Ranking de contribución
// @Description  type = total (ventas totales) o main (producto principal). Incluye la contribución acumulada.
// @Tags         kpi
// @Security     Bearer
// @Produce      json
// @Param        type   path   string  true   "total | main"
// @Param        limit  query  int     false  "Máximo de filas (0 = todas, máx. 500)"
// @Success      200  {object}  dto.RankingResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/kpi/admin/ranking/{type} [get]
func (h *KPIHandler) GetRanking(c *fiber.Ctx) error {
	var req dto.RankingRequest
	if err := c.ParamsParser(&req); err != nil {
		return badRequest(c, "parámetros de ruta inválidos")
	}
	if err := c.QueryParser(&req); err != nil {
		return badRequest(c, "parámetros de consulta inválidos")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "type debe ser total o main; limit entre 0 y 500")
	}
	out, err := h.query.GetRanking(c.Context(), entity.RankingType(req.Type), req.Limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetConcentrationDetail godoc
// @Summary      Detalle de concentración de ventas
// @Description  Representantes ordenados por índice de concentración, con la participación de cada cliente.
// @Tags         kpi
// @Security     Bearer
// @Produce      json
// @Param        employeeId  query  string  false  "Filtrar por representante (id o nombre)"
// @Param        limit       query  int     false  "Máximo de representantes (0 = todos)"
// @Success      200  {object}  dto.ConcentrationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/kpi/admin/sales-concentration/detail [get]
func (h *KPIHandler) GetConcentrationDetail(c *fiber.Ctx) error {
	var req dto.ConcentrationRequest
	if err := c.QueryParser(&req); err != nil {
		return badRequest(c, "parámetros de consulta inválidos")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "limit entre 0 y 500")
	}
	out, err := h.query.GetConcentrationDetail(c.Context(), req.EmployeeID, req.Limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RefreshStatus godoc
// @Summary      Estado de la actualización de KPI
// @Tags         kpi
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RefreshStatusResponse
// @Router       /api/kpi/refresh-status [get]
func (h *KPIHandler) RefreshStatus(c *fiber.Ctx) error {
	st := h.refresher.Status()
	runs, err := h.query.RecentRuns(c.Context(), recentRunsInStatus)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.RefreshStatusResponse{
		State:         st.State.String(),
		Busy:          st.State == appkpi.StateRunning,
		LastSuccessAt: st.LastSuccessAt,
		RecentRuns:    runs,
	}
	if st.LastResult != nil && st.LastResult.Err != nil {
		out.LastError = st.LastResult.Err.Error()
	}
	return c.JSON(out)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PARAMS", Message: msg})
}

// writeError traduce errores de dominio a HTTP.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PARAMS", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}
