package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdminKPIID id fijo de la fila única de kpi_admin.
const AdminKPIID = "admin-kpi-singleton"

// SalesKPI snapshot materializado de un representante (tabla kpi_sales).
// Los porcentajes se guardan sin redondear; el redondeo ocurre en los DTO.
type SalesKPI struct {
	EmployeeID   string
	EmployeeName string

	AssignedCompanies    int
	ActiveCompanies      int
	DisusedCompanies     int
	ActivationRate       decimal.Decimal
	MainProductCompanies int

	CompanyTargetAchievementRate decimal.Decimal
	MajorCustomerTargetRate      decimal.Decimal

	AccumulatedSales       decimal.Decimal
	MainProductSales       decimal.Decimal
	SalesConcentration     decimal.Decimal // índice Herfindahl 0–100
	MonthlySalesPerCompany decimal.Decimal
	AccumulatedCollection  decimal.Decimal
	AccountsReceivable     decimal.Decimal
	MainProductSalesRatio  decimal.Decimal

	TotalSalesContribution  decimal.Decimal
	MainProductContribution decimal.Decimal

	// nil = sin rank (representante aún no incluido en un pase completo).
	TotalSalesContributionRank  *int
	MainProductContributionRank *int

	CumulativeTotalSalesContribution  decimal.Decimal
	CumulativeMainProductContribution decimal.Decimal
	MonthlyTotalSalesContribution     decimal.Decimal
	MonthlyMainProductContribution    decimal.Decimal
	ContributionAnomaly               bool // alguna contribución supera 100

	CurrentMonths int
	RefreshRunID  string
	LastUpdated   time.Time
}

// AdminKPI snapshot único de toda la empresa (tabla kpi_admin).
type AdminKPI struct {
	TotalCompanies       int
	ActiveCompanies      int
	DisusedCompanies     int
	ActivationRate       decimal.Decimal
	MainProductCompanies int

	CompanyTargetAchievementRate decimal.Decimal
	MajorCustomerTargetRate      decimal.Decimal

	AccumulatedSales       decimal.Decimal
	AccumulatedCollection  decimal.Decimal
	AccountsReceivable     decimal.Decimal
	MainProductSales       decimal.Decimal
	SalesConcentration     decimal.Decimal
	MonthlySalesPerCompany decimal.Decimal
	MainProductSalesRatio  decimal.Decimal

	SalesRepCount int
	CurrentMonths int
	RefreshRunID  string
	LastUpdated   time.Time
}

// ConcentrationDetail participación de un cliente en las ventas de su representante.
// Son las filas que respaldan SalesConcentration.
type ConcentrationDetail struct {
	EmployeeID       string
	CompanyKey       string
	CompanyName      string
	AccumulatedSales decimal.Decimal
	SalesShare       decimal.Decimal // porcentaje 0–100
}

// KPISnapshot resultado completo de un pase: lo que el Cache Writer reemplaza de una sola vez.
type KPISnapshot struct {
	RunID   string
	Sales   []SalesKPI
	Admin   AdminKPI
	Details []ConcentrationDetail
}

// RankingType métrica de contribución a ordenar.
type RankingType string

const (
	RankingTotal RankingType = "total"
	RankingMain  RankingType = "main"
)

// Valid informa si el tipo es uno de los soportados.
func (t RankingType) Valid() bool {
	return t == RankingTotal || t == RankingMain
}
