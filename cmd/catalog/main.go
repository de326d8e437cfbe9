package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	catalogdomain "github.com/skolahq/skola/internal/catalog/domain"
	cataloghandler "github.com/skolahq/skola/internal/catalog/handler"
	catalogrepo "github.com/skolahq/skola/internal/catalog/repository"
	catalogservice "github.com/skolahq/skola/internal/catalog/service"
	enrolldomain "github.com/skolahq/skola/internal/enrollment/domain"
	enrollhandler "github.com/skolahq/skola/internal/enrollment/handler"
	enrollrepo "github.com/skolahq/skola/internal/enrollment/repository"
	enrollservice "github.com/skolahq/skola/internal/enrollment/service"
	"github.com/skolahq/skola/internal/infrastructure/events/nats"
	"github.com/skolahq/skola/internal/infrastructure/storage"
	"github.com/skolahq/skola/pkg/auth"
	"github.com/skolahq/skola/pkg/config"
	"github.com/skolahq/skola/pkg/database"
	"github.com/skolahq/skola/pkg/events"
	"github.com/skolahq/skola/pkg/interfaces"
	"github.com/skolahq/skola/pkg/logger"
	"github.com/skolahq/skola/pkg/middleware"
	"github.com/skolahq/skola/pkg/pagination"
	"github.com/skolahq/skola/pkg/utils"
)

func main() {
	cfg := config.MustLoadServiceConfig("catalog", config.GetDefaultCatalogConfig())

	log := logger.New()

	log.Info("Catalog service starting",
		interfaces.String("version", config.GetServiceVersion(&cfg.Service)),
		interfaces.String("environment", cfg.Service.Environment))

	log.Info("Connecting to database...")
	db, err := database.NewGormDB(cfg.Database.ToDatabaseConfig())
	if err != nil {
		log.Fatal("Failed to connect to database", interfaces.Error(err))
	}

	log.Info("Running database migrations...")
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations", interfaces.Error(err))
	}

	courseRepo := catalogrepo.NewGormCourseRepository(db, log)
	enrollmentRepo := enrollrepo.NewGormEnrollmentRepository(db, log)

	cache := utils.NewInMemoryCache()
	eventBus := events.NewInMemoryEventBus(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", interfaces.Error(err))
	}

	// Integration events leave the process only when a broker is configured;
	// local development runs fine on the in-memory bus alone.
	var natsCleanup func()
	if cfg.NATS.Enabled {
		client, cleanup, err := nats.NewClient(cfg.NATS, log)
		if err != nil {
			log.Fatal("Failed to connect to NATS", interfaces.Error(err))
		}
		natsCleanup = cleanup

		publisher := nats.NewPublisher(client, log)
		err = nats.AttachRelays(eventBus, publisher, log,
			catalogdomain.EventCourseCreated,
			catalogdomain.EventCourseSubmitted,
			catalogdomain.EventCourseApproved,
			catalogdomain.EventCourseRejected,
			catalogdomain.EventCoursePublished,
			enrolldomain.EventEnrollmentCreated,
			enrolldomain.EventEnrollmentDropped,
			enrolldomain.EventEnrollmentCompleted,
		)
		if err != nil {
			log.Fatal("Failed to attach event relays", interfaces.Error(err))
		}
	}

	media, err := storage.NewS3MediaStore(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize media storage", interfaces.Error(err))
	}

	encoder, err := pagination.NewCursorEncoder(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatal("Failed to create pagination encoder", interfaces.Error(err))
	}

	courseService := catalogservice.NewCourseService(
		courseRepo, cache, eventBus, media, encoder, log, cfg)
	enrollmentService := enrollservice.NewEnrollmentService(
		enrollmentRepo, courseRepo, cache, eventBus, encoder, log, &cfg.BaseConfig)

	app := echo.New()
	app.HideBanner = true
	app.HTTPErrorHandler = middleware.HTTPErrorHandler(log)
	app.Pre(echomw.RemoveTrailingSlash())
	app.Use(echomw.Recover())

	app.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "healthy"})
	})
	app.GET("/ready", func(c echo.Context) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	verifier := auth.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	authMW := middleware.RequireAuth(verifier)

	v1 := app.Group("/v1")
	cataloghandler.RegisterCourseAPI(v1, authMW, courseService)
	enrollhandler.RegisterEnrollmentAPI(v1, authMW, enrollmentService)

	go func() {
		addr := config.GetListenAddress(&cfg.Service)
		log.Info("HTTP server starting", interfaces.String("address", addr))
		if err := app.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", interfaces.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", interfaces.Error(err))
	}

	eventBus.Stop()

	if natsCleanup != nil {
		natsCleanup()
	}

	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}

	log.Info("Catalog service stopped")
}
