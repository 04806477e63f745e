package logger_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/sales-kpi-api/pkg/logger"
)

func TestNewWithWriter_JSONConCampos(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter(logger.Config{Env: "production", Level: "info"}, &buf)

	l.Info().Str("run_id", "r1").Int("sales_count", 3).Msg("fin de actualización de KPI")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.EqualValues(t, 3, entry["sales_count"])
}

func TestNewWithWriter_FiltraPorNivel(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter(logger.Config{Level: "WARN"}, &buf)

	l.Info().Msg("no debe salir")
	assert.Zero(t, buf.Len())

	l.Warn().Msg("sí")
	assert.NotZero(t, buf.Len())
}

func TestNewWithWriter_ArchivoRotado(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kpi.log")
	var buf bytes.Buffer
	l := logger.NewWithWriter(logger.Config{Level: "info", File: path}, &buf)

	l.Error().Str("scope", "all").Msg("actualización fallida")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "actualización fallida")
	assert.Contains(t, buf.String(), "actualización fallida")
}
