package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/sales-kpi-api/internal/application/dto"
	appkpi "github.com/jhoicas/sales-kpi-api/internal/application/kpi"
	"github.com/jhoicas/sales-kpi-api/internal/domain"
	"github.com/jhoicas/sales-kpi-api/internal/domain/entity"
	apphttp "github.com/jhoicas/sales-kpi-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeRefresher struct {
	res     appkpi.RefreshResult
	err     error
	status  appkpi.Status
	calls   int
	lastOne string
}

func (f *fakeRefresher) RefreshAll(ctx context.Context) (appkpi.RefreshResult, error) {
	f.calls++
	return f.res, f.err
}

func (f *fakeRefresher) RefreshOne(ctx context.Context, employeeID string) (appkpi.RefreshResult, error) {
	f.calls++
	f.lastOne = employeeID
	return f.res, f.err
}

func (f *fakeRefresher) Status() appkpi.Status { return f.status }

type fakeQuerier struct {
	sales       map[string]*dto.SalesKPIResponse
	admin       *dto.AdminKPIResponse
	rankingType entity.RankingType
	rankLimit   int
	concEmp     string
	runs        []dto.RefreshRunResponse
}

func (f *fakeQuerier) GetSales(ctx context.Context, idOrName string) (*dto.SalesKPIResponse, error) {
	if s, ok := f.sales[idOrName]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("kpi de %q: %w", idOrName, domain.ErrNotFound)
}

func (f *fakeQuerier) GetAdmin(ctx context.Context) (*dto.AdminKPIResponse, error) {
	if f.admin == nil {
		return nil, domain.ErrNotFound
	}
	return f.admin, nil
}

func (f *fakeQuerier) GetRanking(ctx context.Context, t entity.RankingType, limit int) (*dto.RankingResponse, error) {
	f.rankingType, f.rankLimit = t, limit
	return &dto.RankingResponse{Type: string(t), Items: []dto.RankingEntry{{Rank: 1, EmployeeID: "e1"}}}, nil
}

func (f *fakeQuerier) GetConcentrationDetail(ctx context.Context, employeeID string, limit int) (*dto.ConcentrationResponse, error) {
	f.concEmp = employeeID
	return &dto.ConcentrationResponse{Items: []dto.ConcentrationEntry{}}, nil
}

func (f *fakeQuerier) RecentRuns(ctx context.Context, limit int) ([]dto.RefreshRunResponse, error) {
	return f.runs, nil
}

type kpiEnv struct {
	app       *fiber.App
	refresher *fakeRefresher
	query     *fakeQuerier
}

func newKPIEnv() *kpiEnv {
	env := &kpiEnv{
		refresher: &fakeRefresher{},
		query: &fakeQuerier{sales: map[string]*dto.SalesKPIResponse{
			"e1": {EmployeeID: "e1", EmployeeName: "김영업", ActivationRate: decimal.NewFromInt(70)},
		}},
	}
	env.app = fiber.New(fiber.Config{UnescapePath: true})
	apphttp.Router(env.app, apphttp.RouterDeps{
		Refresher: env.refresher,
		Query:     env.query,
		JWTSecret: testJWTSecret,
		JWTIssuer: testIssuer,
	})
	return env
}

func (e *kpiEnv) do(t *testing.T, method, path, auth string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", auth)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func adminToken(t *testing.T) string { return tokenFor(t, "a1", "관리", "admin") }

// ──────────────────────────────────────────────────────────────────────────────
// Refresh
// ──────────────────────────────────────────────────────────────────────────────

func TestRefreshAll_Exito(t *testing.T) {
	env := newKPIEnv()
	start := time.Now()
	env.refresher.res = appkpi.RefreshResult{RunID: "run-1", SalesCount: 12, StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)}

	resp, body := env.do(t, http.MethodPost, "/api/kpi/refresh-all", adminToken(t))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["busy"])
	assert.Equal(t, "run-1", body["runId"])
	assert.EqualValues(t, 12, body["salesCount"])
	assert.EqualValues(t, 1500, body["durationMs"])
}

func TestRefreshAll_EnCursoResponde409(t *testing.T) {
	env := newKPIEnv()
	env.refresher.err = domain.ErrRefreshInProgress

	resp, body := env.do(t, http.MethodPost, "/api/kpi/refresh-all", adminToken(t))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, true, body["busy"])
}

func TestRefreshAll_FalloResponde500(t *testing.T) {
	env := newKPIEnv()
	env.refresher.err = fmt.Errorf("%w: connection refused", domain.ErrDataUnavailable)

	resp, body := env.do(t, http.MethodPost, "/api/kpi/refresh-all", adminToken(t))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "datos de origen no disponibles")
}

func TestRefreshAll_TimeoutResponde504(t *testing.T) {
	env := newKPIEnv()
	env.refresher.err = domain.ErrRefreshTimeout

	resp, _ := env.do(t, http.MethodPost, "/api/kpi/refresh-all", adminToken(t))
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

func TestAdminRefresh_AliasDeRefreshAll(t *testing.T) {
	env := newKPIEnv()
	resp, _ := env.do(t, http.MethodPost, "/api/kpi/admin/refresh", adminToken(t))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, env.refresher.calls)
}

func TestRefreshAll_VentasNoPuede(t *testing.T) {
	env := newKPIEnv()
	resp, _ := env.do(t, http.MethodPost, "/api/kpi/refresh-all", tokenFor(t, "e1", "김영업", "sales"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, env.refresher.calls)
}

func TestRefreshOne_PropioRepresentante(t *testing.T) {
	env := newKPIEnv()
	resp, body := env.do(t, http.MethodPost, "/api/kpi/sales/e1/refresh", tokenFor(t, "e1", "김영업", "sales"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "e1", env.refresher.lastOne)
}

func TestRefreshOne_NoEncontrado404(t *testing.T) {
	env := newKPIEnv()
	env.refresher.err = fmt.Errorf("representante %q: %w", "nadie", domain.ErrNotFound)
	resp, body := env.do(t, http.MethodPost, "/api/kpi/sales/nadie/refresh", adminToken(t))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestGetSales_LeeCacheSinRecalcular(t *testing.T) {
	env := newKPIEnv()
	resp, body := env.do(t, http.MethodGet, "/api/kpi/sales/e1", tokenFor(t, "e1", "김영업", "sales"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "e1", body["employeeId"])
	assert.Equal(t, "70", body["activationRate"])
	assert.Equal(t, 0, env.refresher.calls, "GET nunca dispara un pase")
}

func TestGetSales_SinSnapshot404(t *testing.T) {
	env := newKPIEnv()
	resp, body := env.do(t, http.MethodGet, "/api/kpi/sales/e9", adminToken(t))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestGetAdmin(t *testing.T) {
	env := newKPIEnv()
	resp, _ := env.do(t, http.MethodGet, "/api/kpi/admin", adminToken(t))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	env.query.admin = &dto.AdminKPIResponse{TotalCompanies: 14, SalesRepCount: 2}
	resp, body := env.do(t, http.MethodGet, "/api/kpi/admin", adminToken(t))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 14, body["totalCompanies"])
}

func TestGetRanking_TipoValido(t *testing.T) {
	env := newKPIEnv()
	resp, body := env.do(t, http.MethodGet, "/api/kpi/admin/ranking/main?limit=5", adminToken(t))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "main", body["type"])
	assert.Equal(t, entity.RankingMain, env.query.rankingType)
	assert.Equal(t, 5, env.query.rankLimit)
}

func TestGetRanking_TipoInvalido400(t *testing.T) {
	env := newKPIEnv()
	resp, body := env.do(t, http.MethodGet, "/api/kpi/admin/ranking/revenue", adminToken(t))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_PARAMS", body["code"])
}

func TestGetRanking_LimiteFueraDeRango400(t *testing.T) {
	env := newKPIEnv()
	resp, _ := env.do(t, http.MethodGet, "/api/kpi/admin/ranking/total?limit=9999", adminToken(t))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetConcentrationDetail_FiltroPorRepresentante(t *testing.T) {
	env := newKPIEnv()
	resp, _ := env.do(t, http.MethodGet, "/api/kpi/admin/sales-concentration/detail?employeeId=e1&limit=10", adminToken(t))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "e1", env.query.concEmp)
}

func TestRefreshStatus(t *testing.T) {
	env := newKPIEnv()
	now := time.Now()
	env.refresher.status = appkpi.Status{
		State:         appkpi.StateIdle,
		LastSuccessAt: &now,
		LastResult:    &appkpi.RefreshResult{Err: errors.New("boom")},
	}
	env.query.runs = []dto.RefreshRunResponse{{ID: "run-1", Status: entity.RefreshRunFailed}}

	resp, body := env.do(t, http.MethodGet, "/api/kpi/refresh-status", adminToken(t))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "idle", body["state"])
	assert.Equal(t, false, body["busy"])
	assert.Equal(t, "boom", body["lastError"])
	require.Len(t, body["recentRuns"], 1)
}
