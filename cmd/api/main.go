package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appkpi "github.com/jhoicas/sales-kpi-api/internal/application/kpi"
	"github.com/jhoicas/sales-kpi-api/internal/infrastructure/postgres"
	"github.com/jhoicas/sales-kpi-api/internal/infrastructure/scheduler"
	httpRouter "github.com/jhoicas/sales-kpi-api/internal/interfaces/http"
	"github.com/jhoicas/sales-kpi-api/pkg/config"
	"github.com/jhoicas/sales-kpi-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
	})
	defer log.Close()
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	loc, err := cfg.KPI.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("zona horaria de KPI")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("schema de la caché de KPI")
	}

	sourceRepo := postgres.NewSourceRepository(pool)
	kpiRepo := postgres.NewKPIRepository(pool)
	runRepo := postgres.NewRefreshRunRepository(pool)

	aggregator := appkpi.NewAggregator(appkpi.Settings{
		CompanyQuota:       cfg.KPI.CompanyQuota,
		MajorCustomerQuota: cfg.KPI.MajorCustomerQuota,
		MainProducts:       cfg.KPI.MainProducts,
		Location:           loc,
	}, nil)
	orchestrator := appkpi.NewOrchestrator(sourceRepo, kpiRepo, runRepo, aggregator,
		appkpi.OrchestratorConfig{Timeout: cfg.KPI.RefreshTimeout}, log.Zerolog())
	queryService := appkpi.NewQueryService(kpiRepo, runRepo)

	var cron *scheduler.Cron
	if cfg.KPI.SchedulerEnabled {
		cron = scheduler.New(loc, log.Zerolog())
		if err := orchestrator.ScheduleDaily(cron, cfg.KPI.Schedule); err != nil {
			log.Fatal().Err(err).Msg("programar actualización diaria de KPI")
		}
		cron.Start()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.KPI.RefreshTimeout + 10*time.Second, // refresh-all responde al terminar el pase
		IdleTimeout:  time.Second * 60,
		UnescapePath: true, // nombres de representante en coreano en la ruta
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Zerolog()))

	// Swagger UI: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Sales KPI API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		pingCtx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "kpi_state": orchestrator.Status().State.String()})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Refresher: orchestrator,
		Query:     queryService,
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cron != nil {
		if err := cron.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("detener scheduler: una actualización seguía en curso")
		}
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
