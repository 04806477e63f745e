package entity

import (
	"strings"
	"time"
)

// Estados y roles de empleados (valores tal como están en la tabla employees).
const (
	EmployeeStatusActive     = "재직"
	EmployeeStatusLeave      = "휴직"
	EmployeeStatusTerminated = "퇴사"

	SalesRoleKeyword = "영업"
)

// Employee empleado leído de la tabla employees (solo lectura).
type Employee struct {
	ID       string
	Name     string
	Role1    string
	Role2    string
	Status   string
	HireDate *time.Time // nil si no hay fecha registrada
}

// IsSalesRep informa si el empleado está activo y alguno de sus dos roles es de ventas.
// Solo estos empleados tienen fila en kpi_sales y participan del ranking.
func (e Employee) IsSalesRep() bool {
	if e.Status != EmployeeStatusActive {
		return false
	}
	return strings.Contains(e.Role1, SalesRoleKeyword) || strings.Contains(e.Role2, SalesRoleKeyword)
}
