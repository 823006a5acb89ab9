package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fitfox/FitFox/app/controllers"
	"github.com/fitfox/FitFox/internal/pkg/middleware"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	admin := app.Group("/admin", middleware.RequireAdmin)

	admin.Get("/subscriptions", controllers.HandleAdminSubscriptions)
	admin.Post("/subscriptions/sweep", controllers.HandleAdminSubscriptionSweep)
	admin.Get("/queue", controllers.HandleAdminQueueStats)
}
