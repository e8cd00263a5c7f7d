package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"
)

const (
	tokenTTL      = 24 * time.Hour
	eventQueue    = "catalog_events"
	eventsBinding = "#"
)

// NewApp wires repositories, services and handlers over db into a Fiber app.
// events may be nil, in which case no catalog events are published.
func NewApp(cfg *config.Config, db *gorm.DB, events services.EventPublisher, log hclog.Logger) *fiber.App {
	productRepo := repositories.NewGORMProductRepository(db)
	attributeRepo := repositories.NewGORMAttributeRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	transactor := repositories.NewGORMTransactor(db)

	productService := services.NewProductService(productRepo, attributeRepo, categoryRepo, transactor, events, log)
	catalogService := services.NewCatalogService(categoryRepo, attributeRepo, log)
	tokenService := services.NewTokenService(cfg.JWTSecret, tokenTTL)

	productHandler := handlers.NewProductHandler(productService, log)
	catalogHandler := handlers.NewCatalogHandler(catalogService, log)
	auth := middleware.AuthRequired(tokenService, log.Named("auth"))

	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.ImportMaxBytes,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1")
	productHandler.RegisterRoutes(apiV1, auth)
	catalogHandler.RegisterRoutes(apiV1, auth)

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"events": events != nil,
		}
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			status["status"] = "unhealthy"
			status["error"] = err.Error()
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
		return c.JSON(status)
	})

	return app
}

func main() {
	log := hclog.New(&hclog.LoggerOptions{
		Name:  "catalog",
		Level: hclog.LevelFromString("info"),
	})

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log.SetLevel(hclog.LevelFromString(cfg.LogLevel))

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Error("failed to open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}

	// Events are optional: the catalog keeps serving without a broker.
	var events services.EventPublisher
	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange}, log)
	if err != nil {
		log.Warn("catalog events disabled", "error", err)
	} else {
		defer mqClient.Close()
		events = mqClient
		if err := mqClient.ConsumeEvents(eventQueue, eventsBinding, rabbitmq.LogEvents(log.Named("events"))); err != nil {
			log.Warn("failed to start event consumer", "error", err)
		}
	}

	app := NewApp(cfg, db, events, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("starting server", "addr", cfg.AppPort)
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Error("server failed to start", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("server gracefully stopped")
}
