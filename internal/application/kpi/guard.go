package kpi

import "sync/atomic"

// Guard candado single-flight del motor: como máximo un pase de escritura a la vez.
// TryAcquire nunca bloquea; quien no lo obtiene recibe "en curso" de inmediato.
type Guard struct {
	held atomic.Bool
}

// TryAcquire toma el candado si está libre.
func (g *Guard) TryAcquire() bool {
	return g.held.CompareAndSwap(false, true)
}

// Release libera el candado.
func (g *Guard) Release() {
	g.held.Store(false)
}

// Held informa si hay un pase en curso.
func (g *Guard) Held() bool {
	return g.held.Load()
}
