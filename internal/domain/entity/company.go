package entity

import "github.com/shopspring/decimal"

// Estados de negocio relevantes para el motor de KPI.
const (
	BusinessStatusActive  = "활성"
	BusinessStatusDisused = "불용" // excluido de todos los agregados
)

// Company representa un cliente (거래처) tal como lo lee el motor de KPI.
// Solo lectura: el CRUD de clientes vive fuera de este servicio.
type Company struct {
	KeyValue              string
	Name                  string          // finalCompanyName
	BusinessStatus        string
	InternalManager       string          // nombre del representante dueño del cliente
	SalesProduct          string          // texto libre con los productos vendidos
	AccumulatedSales      decimal.Decimal
	AccumulatedCollection decimal.Decimal
	AccountsReceivable    decimal.Decimal
}

// IsDisused informa si el cliente está en estado "불용".
func (c Company) IsDisused() bool {
	return c.BusinessStatus == BusinessStatusDisused
}
