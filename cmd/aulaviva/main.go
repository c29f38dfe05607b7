package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/andresvl/aulaviva/app/models"
	"github.com/andresvl/aulaviva/app/repository"
	"github.com/andresvl/aulaviva/internal/pkg/billing"
	"github.com/andresvl/aulaviva/internal/pkg/cache"
	"github.com/andresvl/aulaviva/internal/pkg/database"
	"github.com/andresvl/aulaviva/internal/pkg/env"
	"github.com/andresvl/aulaviva/internal/pkg/payu"
	"github.com/andresvl/aulaviva/internal/pkg/router"
	"github.com/andresvl/aulaviva/internal/pkg/worker"
)

func main() {
	app, sweeper := NewApplication()
	sweeper.Start()

	// graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		sweeper.Stop()
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	if err != nil {
		log.Fatal(err)
	}
}

func NewApplication() (*fiber.App, *worker.Manager) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()

	// Plans are provisioned once at startup; the request path only reads them.
	if err := database.SeedPlans(db); err != nil {
		log.Fatalf("seeding plans failed: %v", err)
	}
	if err := models.LoadSettings(db); err != nil {
		log.Fatalf("loading settings failed: %v", err)
	}

	repository.InitializeFactory(db)

	app := fiber.New(fiber.Config{
		AppName:   "aulaviva",
		BodyLimit: 10 * 1024 * 1024, // receipts top out well below 10 MiB
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	sweeper := worker.GetManager(billing.NewServiceFromDB(db, payu.NewClientFromEnv()))

	return app, sweeper
}
