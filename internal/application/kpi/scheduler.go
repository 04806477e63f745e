package kpi

// Scheduler programa tareas periódicas con una expresión cron.
// La implementación de producción vive en infrastructure/scheduler; los tests invocan la tarea directamente.
type Scheduler interface {
	Schedule(spec string, task func()) error
}
