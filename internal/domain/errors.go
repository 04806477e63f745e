package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrForbidden    = errors.New("acceso denegado")

	// Taxonomía del motor de KPI. Ninguno de estos errores llega a la superficie de consulta:
	// el orquestador los convierte en un RefreshResult fallido y la caché conserva el último snapshot válido.
	ErrDataUnavailable   = errors.New("datos de origen no disponibles")
	ErrComputation       = errors.New("error de cálculo de KPI")
	ErrWriteFailure      = errors.New("fallo al escribir la caché de KPI")
	ErrRefreshInProgress = errors.New("ya hay una actualización de KPI en curso")
	ErrRefreshTimeout    = errors.New("la actualización de KPI excedió el tiempo máximo")
)
