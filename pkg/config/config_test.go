package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/sales-kpi-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0 0 * * *", cfg.KPI.Schedule)
	assert.Equal(t, "Asia/Seoul", cfg.KPI.Timezone)
	assert.Equal(t, 5*time.Minute, cfg.KPI.RefreshTimeout)
	assert.True(t, cfg.KPI.SchedulerEnabled)
	assert.Equal(t, "80", cfg.KPI.CompanyQuota.String())
	assert.Equal(t, "40", cfg.KPI.MajorCustomerQuota.String())
	assert.Equal(t, []string{"임플란트", "지르코니아", "ABUTMENT", "KIS", "TL"}, cfg.KPI.MainProducts)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("KPI_SCHEDULE", "30 2 * * *")
	t.Setenv("KPI_REFRESH_TIMEOUT", "90s")
	t.Setenv("KPI_SCHEDULER_ENABLED", "false")
	t.Setenv("KPI_COMPANY_QUOTA", "60")
	t.Setenv("KPI_MAIN_PRODUCTS", " 임플란트 , ,KIS")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_FILE", "/tmp/kpi.log")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "30 2 * * *", cfg.KPI.Schedule)
	assert.Equal(t, 90*time.Second, cfg.KPI.RefreshTimeout)
	assert.False(t, cfg.KPI.SchedulerEnabled)
	assert.Equal(t, "60", cfg.KPI.CompanyQuota.String())
	assert.Equal(t, []string{"임플란트", "KIS"}, cfg.KPI.MainProducts)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "/tmp/kpi.log", cfg.Log.File)
}

func TestLoad_TimeoutInvalido(t *testing.T) {
	t.Setenv("KPI_REFRESH_TIMEOUT", "cinco minutos")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_CuotaNoPositiva(t *testing.T) {
	t.Setenv("KPI_MAJOR_CUSTOMER_QUOTA", "0")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	db := config.DBConfig{Host: "db", Port: 5432, User: "kpi", Password: "p@ss:word", DBName: "sales", SSLMode: "disable"}
	assert.Equal(t, "postgres://kpi:p%40ss%3Aword@db:5432/sales?sslmode=disable", db.ConnectionString())

	db.DatabaseURL = "postgres://other"
	assert.Equal(t, "postgres://other", db.ConnectionString())
}

func TestKPIConfig_Location(t *testing.T) {
	_, err := config.KPIConfig{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}
