package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/bonesy512/landhub/app/controllers"
	"github.com/bonesy512/landhub/internal/pkg/billing"
	"github.com/bonesy512/landhub/internal/pkg/cache"
	"github.com/bonesy512/landhub/internal/pkg/config"
	"github.com/bonesy512/landhub/internal/pkg/database"
	"github.com/bonesy512/landhub/internal/pkg/env"
	"github.com/bonesy512/landhub/internal/pkg/geo"
	"github.com/bonesy512/landhub/internal/pkg/router"
)

func main() {
	app, cfg := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, *config.Config) {
	env.SetupEnvFile()
	cfg := config.Load()
	if cfg.IsLive() {
		log.Println("billing: live mode keys loaded")
	}
	database.SetupDatabase(cfg)
	cache.SetupCache(cfg)

	provider, err := billing.NewStripeProvider(cfg)
	if err != nil {
		log.Fatalf("billing provider setup failed: %v", err)
	}

	store := billing.NewStore(database.GetDB())
	catalog := billing.NewCatalog(cfg.Mode)
	payments := controllers.NewPaymentController(cfg, store, provider, catalog)

	geoService := geo.NewService(geo.NewClient(cfg), geo.NewAuditor(database.GetDB()))
	distance := controllers.NewDistanceController(geoService)

	app := fiber.New(fiber.Config{
		AppName: "landhub-api",
	})

	app.Use(recover.New(), logger.New())

	router.InstallRouter(app, router.NewApiRouter(payments, distance))

	return app, cfg
}
