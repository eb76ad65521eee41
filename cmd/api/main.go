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

	"github.com/jhoicas/distribucion-api/docs"
	"github.com/jhoicas/distribucion-api/internal/application/allocation"
	"github.com/jhoicas/distribucion-api/internal/application/reporting"
	"github.com/jhoicas/distribucion-api/internal/domain/repository"
	"github.com/jhoicas/distribucion-api/internal/infrastructure/cache"
	"github.com/jhoicas/distribucion-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/distribucion-api/internal/infrastructure/pdf"
	"github.com/jhoicas/distribucion-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/distribucion-api/internal/interfaces/http"
	"github.com/jhoicas/distribucion-api/pkg/config"
	"github.com/jhoicas/distribucion-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.Engine.StoreDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		tx         allocation.TxRunner
		repos      allocation.Repos
		reportRepo repository.ReportingRepository
	)
	switch cfg.Engine.StoreDriver {
	case "memory":
		log.Warn().Msg("STORE_DRIVER=memory: estado de un solo proceso, se pierde al reiniciar")
		store := memory.NewStore()
		tx, repos, reportRepo = store, store.Repos(), store.Reporting()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.Migrate {
			version, err := postgres.Migrate(pool)
			if err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
			log.Info().Uint("schema_version", version).Msg("migraciones aplicadas")
		}
		tx, repos, reportRepo = postgres.NewTxRunner(pool), postgres.NewRepos(pool), postgres.NewReportingRepository(pool)
	}

	engineCfg := allocation.Config{StorageTimeout: cfg.Engine.StorageTimeout}
	engine := allocation.NewAllocationEngine(tx, repos, engineCfg, log)
	lifecycle := allocation.NewUnitLifecycle(tx, repos, engineCfg, log)

	// Caché de reportes: opcional, sin Redis los tableros leen siempre del almacenamiento.
	var reportCache reporting.Cache
	if cfg.Redis.Enabled() {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		client, err := cache.NewRedisClient(pingCtx, cfg.Redis)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, reportes sin caché")
		} else {
			defer client.Close()
			reportCache = cache.NewRedisCache(client, cfg.App.Name)
		}
	}
	reportingUC := reporting.NewReportingUseCase(reportRepo, reportCache, cfg.Redis.TTL, cfg.Engine.StorageTimeout, log)

	// PDF: acta de asignación y remisión de entrega
	pdfGenerator := infrapdf.NewMarotoPDFGenerator(cfg.App.Name)
	documentsUC := reporting.NewDocumentsUseCase(engine, engine, lifecycle, pdfGenerator)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Get("/swagger/doc.json", func(c *fiber.Ctx) error {
		c.Type("json")
		return c.SendString(docs.SwaggerInfo.ReadDoc())
	})
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Distribución API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Engine.StoreDriver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Engine:    engine,
		Lifecycle: lifecycle,
		Reporting: reportingUC,
		Documents: documentsUC,
		JWTSecret: cfg.JWT.Secret,
		Logger:    log,
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

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
