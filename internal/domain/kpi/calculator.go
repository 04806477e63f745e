// Package kpi contiene los cálculos puros del motor de KPI de ventas:
// tasas, participación, concentración y ranking. No hace I/O.
package kpi

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Percent devuelve part/total*100; cero si total no es positivo.
func Percent(part, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred)
}

// ActivationRate = active/assigned*100; 0 si no hay clientes asignados.
func ActivationRate(assigned, active int) decimal.Decimal {
	if assigned <= 0 {
		return decimal.Zero
	}
	return Percent(decimal.NewFromInt(int64(active)), decimal.NewFromInt(int64(assigned)))
}

// Contribution participación del representante en el total de la empresa (mismo pase).
// Puede superar 100 solo ante datos anómalos; no se recorta, ver ContributionAnomaly.
func Contribution(repValue, totalValue decimal.Decimal) decimal.Decimal {
	return Percent(repValue, totalValue)
}

// ContributionAnomaly informa si alguna contribución excede 100%.
func ContributionAnomaly(contributions ...decimal.Decimal) bool {
	for _, c := range contributions {
		if c.GreaterThan(hundred) {
			return true
		}
	}
	return false
}

// TargetAchievementRate = achieved/target*100. El objetivo viene de configuración.
func TargetAchievementRate(achieved int, target decimal.Decimal) decimal.Decimal {
	return Percent(decimal.NewFromInt(int64(achieved)), target)
}

// PerMonth normaliza un valor por los meses transcurridos (mínimo 1).
func PerMonth(value decimal.Decimal, months int) decimal.Decimal {
	if months < 1 {
		months = 1
	}
	return value.Div(decimal.NewFromInt(int64(months)))
}

// MonthlySalesPerCompany venta mensual promedio por cliente asignado:
// sales / companies / months. Es el indicador histórico de "매출집중도".
func MonthlySalesPerCompany(sales decimal.Decimal, companies, months int) decimal.Decimal {
	if companies <= 0 || months <= 0 {
		return decimal.Zero
	}
	return sales.Div(decimal.NewFromInt(int64(companies))).Div(decimal.NewFromInt(int64(months)))
}

// SumSales suma una lista de montos.
func SumSales(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Concentration índice Herfindahl-Hirschman de las ventas, escalado a 0–100.
//
//	HHI = Σ (venta_i / Σ venta)² × 100
//
// Solo cuentan las ventas positivas (las devoluciones netas no reparten participación).
// 100 = todas las ventas en un único cliente; 100/n = reparto uniforme entre n clientes;
// 0 = sin ventas. Devuelve además la participación (0–100) de cada entrada, en el mismo orden.
func Concentration(sales []decimal.Decimal) (index decimal.Decimal, shares []decimal.Decimal) {
	shares = make([]decimal.Decimal, len(sales))
	total := decimal.Zero
	for _, s := range sales {
		if s.IsPositive() {
			total = total.Add(s)
		}
	}
	if !total.IsPositive() {
		for i := range shares {
			shares[i] = decimal.Zero
		}
		return decimal.Zero, shares
	}

	sumSquares := decimal.Zero
	for i, s := range sales {
		if !s.IsPositive() {
			shares[i] = decimal.Zero
			continue
		}
		share := s.Div(total)
		sumSquares = sumSquares.Add(share.Mul(share))
		shares[i] = share.Mul(hundred)
	}
	return sumSquares.Mul(hundred), shares
}
