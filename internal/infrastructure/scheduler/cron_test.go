package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/sales-kpi-api/internal/infrastructure/scheduler"
)

func TestSchedule_ExpresionInvalida(t *testing.T) {
	s := scheduler.New(time.UTC, zerolog.Nop())
	err := s.Schedule("todos los días", func() {})
	assert.Error(t, err)
}

func TestSchedule_MedianocheEnSeul(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Skip("zoneinfo no disponible")
	}
	s := scheduler.New(seoul, zerolog.Nop())
	require.NoError(t, s.Schedule("0 0 * * *", func() {}))

	next := s.Next().In(seoul)
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))
}

func TestStartStop(t *testing.T) {
	s := scheduler.New(time.UTC, zerolog.Nop())
	require.NoError(t, s.Schedule("@every 1h", func() {}))
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
