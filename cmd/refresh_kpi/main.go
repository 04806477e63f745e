// refresh_kpi ejecuta un pase completo de actualización de KPI y termina.
// Pensado para cron externo u operaciones manuales cuando el scheduler del API está desactivado.
//
// Uso: go run ./cmd/refresh_kpi [-schema] [-timeout 5m]
//
//	-schema   crea las tablas de la caché antes del pase
//
// Sale con código 1 si el pase falla y con 2 si ya había otro en curso en este proceso.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	appkpi "github.com/jhoicas/sales-kpi-api/internal/application/kpi"
	"github.com/jhoicas/sales-kpi-api/internal/domain"
	"github.com/jhoicas/sales-kpi-api/internal/infrastructure/postgres"
	"github.com/jhoicas/sales-kpi-api/pkg/config"
	"github.com/jhoicas/sales-kpi-api/pkg/logger"
)

func main() {
	applySchema := flag.Bool("schema", false, "crear las tablas de la caché de KPI antes del pase")
	timeout := flag.Duration("timeout", 0, "tiempo máximo del pase (default KPI_REFRESH_TIMEOUT)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	if *timeout > 0 {
		cfg.KPI.RefreshTimeout = *timeout
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, File: cfg.Log.File})
	defer log.Close()

	loc, err := cfg.KPI.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("zona horaria de KPI")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.KPI.RefreshTimeout+30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if *applySchema {
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("schema de la caché de KPI")
		}
		log.Info().Msg("schema de la caché aplicado")
	}

	kpiRepo := postgres.NewKPIRepository(pool)
	orchestrator := appkpi.NewOrchestrator(
		postgres.NewSourceRepository(pool),
		kpiRepo,
		postgres.NewRefreshRunRepository(pool),
		appkpi.NewAggregator(appkpi.Settings{
			CompanyQuota:       cfg.KPI.CompanyQuota,
			MajorCustomerQuota: cfg.KPI.MajorCustomerQuota,
			MainProducts:       cfg.KPI.MainProducts,
			Location:           loc,
		}, nil),
		appkpi.OrchestratorConfig{Timeout: cfg.KPI.RefreshTimeout},
		log.Zerolog(),
	)

	res, err := orchestrator.RefreshAll(ctx)
	switch {
	case errors.Is(err, domain.ErrRefreshInProgress):
		os.Exit(2)
	case err != nil:
		log.Error().Err(err).Str("run_id", res.RunID).Msg("actualización de KPI fallida")
		os.Exit(1)
	}
	fmt.Printf("run %s: %d representantes en %s\n", res.RunID, res.SalesCount, res.Duration().Round(time.Millisecond))
}
