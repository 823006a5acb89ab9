package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fitfox/FitFox/app/controllers"
	"github.com/fitfox/FitFox/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)
}
