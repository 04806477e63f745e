package repository

import (
	"context"

	"github.com/jhoicas/sales-kpi-api/internal/domain/entity"
)

// SourceRepository puerto de lectura de clientes y empleados (Source Reader).
// Las implementaciones son read-only; un fallo de lectura se reporta envuelto en domain.ErrDataUnavailable.
type SourceRepository interface {
	// LoadSourceSet devuelve los clientes no "불용", el conteo de "불용" por representante
	// y los representantes de ventas activos, leídos de forma consistente.
	LoadSourceSet(ctx context.Context) (*entity.SourceSet, error)
}
