// Package scheduler adaptador de tareas periódicas sobre robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Cron programa tareas con expresiones de 5 campos (minuto hora día mes día-semana)
// en una zona horaria fija.
type Cron struct {
	c   *cron.Cron
	loc *time.Location
	log zerolog.Logger
}

// New crea el scheduler en la zona indicada (nil = time.Local).
// Una ejecución que todavía no terminó hace que la siguiente se omita.
func New(loc *time.Location, log zerolog.Logger) *Cron {
	if loc == nil {
		loc = time.Local
	}
	l := cronLogger{log: log.With().Str("component", "scheduler").Logger()}
	return &Cron{
		c: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		loc: loc,
		log: l.log,
	}
}

// Schedule registra task con la expresión spec.
func (s *Cron) Schedule(spec string, task func()) error {
	id, err := s.c.AddFunc(spec, task)
	if err != nil {
		return fmt.Errorf("expresión cron %q: %w", spec, err)
	}
	next := s.c.Entry(id).Schedule.Next(time.Now().In(s.loc))
	s.log.Info().Str("spec", spec).Time("next", next).Msg("tarea programada")
	return nil
}

// Start arranca el scheduler en segundo plano.
func (s *Cron) Start() { s.c.Start() }

// Stop detiene el scheduler y espera a que terminen las tareas en curso o a que ctx expire.
func (s *Cron) Stop(ctx context.Context) error {
	done := s.c.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next próxima ejecución entre todas las tareas registradas (cero si no hay).
func (s *Cron) Next() time.Time {
	now := time.Now().In(s.loc)
	var next time.Time
	for _, e := range s.c.Entries() {
		t := e.Schedule.Next(now)
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}
	return next
}

// cronLogger adapta zerolog a la interfaz cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
