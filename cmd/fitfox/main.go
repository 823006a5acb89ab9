package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"

	"github.com/fitfox/FitFox/app/controllers"
	"github.com/fitfox/FitFox/app/repository"
	"github.com/fitfox/FitFox/internal/pkg/billing"
	"github.com/fitfox/FitFox/internal/pkg/cache"
	"github.com/fitfox/FitFox/internal/pkg/database"
	"github.com/fitfox/FitFox/internal/pkg/env"
	"github.com/fitfox/FitFox/internal/pkg/jobqueue"
	"github.com/fitfox/FitFox/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/fitfox to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	// Repositories and billing service
	repository.InitializeFactory(database.GetDB())

	queue := jobqueue.GetManager().GetQueue()
	billingService := billing.NewService(
		billing.NewRepository(database.GetDB()),
		billing.NewStripeGatewayFromEnv(),
		jobqueue.NewQueueAnalyticsSink(queue),
		jobqueue.NewQueueNotificationSink(queue),
	)
	controllers.SetBillingService(billingService)
	jobqueue.SetSubscriptionExpirer(billingService)

	// Background workers + periodic expiration sweep
	jobqueue.GetManager().Start()

	// init fiber app
	app := fiber.New(fiber.Config{
		Views: html.New(basePath+"views", ".html"),
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// static files
	app.Static("/", basePath+"public/assets", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// ROUTER
	router.InstallRouter(app)

	return app
}
