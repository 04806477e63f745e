package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Las tasas y montos se redondean a 2 decimales al construir estas respuestas;
// la caché guarda los valores sin redondear.

// SalesKPIResponse snapshot de un representante (GET /api/kpi/sales/:employeeId).
type SalesKPIResponse struct {
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName"`

	AssignedCompanies    int             `json:"assignedCompanies"`
	ActiveCompanies      int             `json:"activeCompanies"`
	DisusedCompanies     int             `json:"disusedCompanies"`
	ActivationRate       decimal.Decimal `json:"activationRate"`
	MainProductCompanies int             `json:"mainProductCompanies"`

	CompanyTargetAchievementRate decimal.Decimal `json:"companyTargetAchievementRate"`
	MajorCustomerTargetRate      decimal.Decimal `json:"majorCustomerTargetRate"`

	AccumulatedSales       decimal.Decimal `json:"accumulatedSales"`
	MainProductSales       decimal.Decimal `json:"mainProductSales"`
	SalesConcentration     decimal.Decimal `json:"salesConcentration"`
	MonthlySalesPerCompany decimal.Decimal `json:"monthlySalesPerCompany"`
	AccumulatedCollection  decimal.Decimal `json:"accumulatedCollection"`
	AccountsReceivable     decimal.Decimal `json:"accountsReceivable"`
	MainProductSalesRatio  decimal.Decimal `json:"mainProductSalesRatio"`

	TotalSalesContribution            decimal.Decimal `json:"totalSalesContribution"`
	MainProductContribution           decimal.Decimal `json:"mainProductContribution"`
	TotalSalesContributionRank        *int            `json:"totalSalesContributionRank"`
	MainProductContributionRank       *int            `json:"mainProductContributionRank"`
	CumulativeTotalSalesContribution  decimal.Decimal `json:"cumulativeTotalSalesContribution"`
	CumulativeMainProductContribution decimal.Decimal `json:"cumulativeMainProductContribution"`
	MonthlyTotalSalesContribution     decimal.Decimal `json:"monthlyTotalSalesContribution"`
	MonthlyMainProductContribution    decimal.Decimal `json:"monthlyMainProductContribution"`
	ContributionAnomaly               bool            `json:"contributionAnomaly"`

	CurrentMonths int       `json:"currentMonths"`
	RefreshRunID  string    `json:"refreshRunId"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// AdminKPIResponse snapshot de toda la empresa (GET /api/kpi/admin).
type AdminKPIResponse struct {
	TotalCompanies       int             `json:"totalCompanies"`
	ActiveCompanies      int             `json:"activeCompanies"`
	DisusedCompanies     int             `json:"disusedCompanies"`
	ActivationRate       decimal.Decimal `json:"activationRate"`
	MainProductCompanies int             `json:"mainProductCompanies"`

	CompanyTargetAchievementRate decimal.Decimal `json:"companyTargetAchievementRate"`
	MajorCustomerTargetRate      decimal.Decimal `json:"majorCustomerTargetRate"`

	AccumulatedSales       decimal.Decimal `json:"accumulatedSales"`
	AccumulatedCollection  decimal.Decimal `json:"accumulatedCollection"`
	AccountsReceivable     decimal.Decimal `json:"accountsReceivable"`
	MainProductSales       decimal.Decimal `json:"mainProductSales"`
	SalesConcentration     decimal.Decimal `json:"salesConcentration"`
	MonthlySalesPerCompany decimal.Decimal `json:"monthlySalesPerCompany"`
	MainProductSalesRatio  decimal.Decimal `json:"mainProductSalesRatio"`

	SalesRepCount int       `json:"salesRepCount"`
	CurrentMonths int       `json:"currentMonths"`
	RefreshRunID  string    `json:"refreshRunId"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// RankingEntry una fila del ranking de contribución.
type RankingEntry struct {
	Rank         int             `json:"rank"`
	EmployeeID   string          `json:"employeeId"`
	EmployeeName string          `json:"employeeName"`
	Contribution decimal.Decimal `json:"contribution"`
	Cumulative   decimal.Decimal `json:"cumulativeContribution"`
	Monthly      decimal.Decimal `json:"monthlyContribution"`
	Sales        decimal.Decimal `json:"sales"`
	Anomaly      bool            `json:"contributionAnomaly"`
}

// RankingResponse ranking completo de un tipo (total | main).
type RankingResponse struct {
	Type        string         `json:"type"`
	Items       []RankingEntry `json:"items"`
	LastUpdated *time.Time     `json:"lastUpdated,omitempty"`
}

// RankingRequest parámetros de GET /api/kpi/admin/ranking/:type.
type RankingRequest struct {
	Type  string `params:"type" validate:"required,oneof=total main"`
	Limit int    `query:"limit" validate:"min=0,max=500"`
}

// ConcentrationCompany participación de un cliente en las ventas del representante.
type ConcentrationCompany struct {
	CompanyKey       string          `json:"companyKey"`
	CompanyName      string          `json:"companyName"`
	AccumulatedSales decimal.Decimal `json:"accumulatedSales"`
	SalesShare       decimal.Decimal `json:"salesShare"`
}

// ConcentrationEntry representante con su índice de concentración y el desglose por cliente.
type ConcentrationEntry struct {
	Rank                   int                    `json:"rank"`
	EmployeeID             string                 `json:"employeeId"`
	EmployeeName           string                 `json:"employeeName"`
	SalesConcentration     decimal.Decimal        `json:"salesConcentration"`
	MonthlySalesPerCompany decimal.Decimal        `json:"monthlySalesPerCompany"`
	AccumulatedSales       decimal.Decimal        `json:"accumulatedSales"`
	ActiveCompanies        int                    `json:"activeCompanies"`
	Companies              []ConcentrationCompany `json:"companies"`
}

// ConcentrationResponse detalle de concentración de ventas.
type ConcentrationResponse struct {
	Items []ConcentrationEntry `json:"items"`
}

// ConcentrationRequest parámetros de GET /api/kpi/admin/sales-concentration/detail.
type ConcentrationRequest struct {
	EmployeeID string `query:"employeeId" validate:"omitempty,max=100"`
	Limit      int    `query:"limit" validate:"min=0,max=500"`
}

// RefreshResponse resultado de un pedido de actualización (refresh-all, refresh-one).
type RefreshResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Busy       bool   `json:"busy"`
	RunID      string `json:"runId,omitempty"`
	SalesCount int    `json:"salesCount"`
	DurationMs int64  `json:"durationMs"`
}

// RefreshRunResponse una ejecución registrada en kpi_refresh_runs.
type RefreshRunResponse struct {
	ID         string     `json:"id"`
	Scope      string     `json:"scope"`
	EmployeeID string     `json:"employeeId,omitempty"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	SalesCount int        `json:"salesCount"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// RefreshStatusResponse estado del orquestador y ejecuciones recientes.
type RefreshStatusResponse struct {
	State         string               `json:"state"`
	Busy          bool                 `json:"busy"`
	LastSuccessAt *time.Time           `json:"lastSuccessAt,omitempty"`
	LastError     string               `json:"lastError,omitempty"`
	RecentRuns    []RefreshRunResponse `json:"recentRuns"`
}
