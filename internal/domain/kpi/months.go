package kpi

import "time"

// WholeMonthsBetween meses calendario completos entre from y to (0 si to es anterior).
func WholeMonthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// CurrentMonths meses del período de evaluación de un representante (mínimo 1).
//   - Antigüedad de un año o más: desde el 1 de enero del año evaluado.
//   - Menos de un año: desde la fecha de ingreso.
//   - Sin fecha de ingreso: 1.
func CurrentMonths(hireDate *time.Time, eval time.Time) int {
	if hireDate == nil {
		return 1
	}
	hire := hireDate.In(eval.Location())
	start := time.Date(eval.Year(), time.January, 1, 0, 0, 0, 0, eval.Location())
	if eval.Before(hire.AddDate(1, 0, 0)) {
		start = hire
	}
	months := WholeMonthsBetween(start, eval)
	if months < 1 {
		return 1
	}
	return months
}

// CompanyCurrentMonths meses transcurridos del año para el snapshot de empresa (1–12).
func CompanyCurrentMonths(eval time.Time) int {
	return int(eval.Month())
}
