package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/fitfox/FitFox/app/controllers"
	"github.com/fitfox/FitFox/internal/pkg/constants"
	"github.com/fitfox/FitFox/internal/pkg/env"
	"github.com/fitfox/FitFox/internal/pkg/middleware"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get(constants.PublicRoute, loggedInMiddleware, controllers.HandleHome)
	group.Get(constants.PricingRoute, loggedInMiddleware, controllers.HandlePricing)

	// Auth
	group.Get(constants.LoginRoute, loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post(constants.LoginRoute, loggedInMiddleware, controllers.HandleAuthLogin)
	group.Get(constants.RegisterRoute, loggedInMiddleware, controllers.HandleAuthRegister)
	group.Post(constants.RegisterRoute, loggedInMiddleware, controllers.HandleAuthRegister)

	// Membership
	group.Get(constants.SubscriptionRoute, middleware.RequireAuth, controllers.HandleSubscriptionShow)
	group.Post(constants.SubscriptionRoute, middleware.RequireAuth, controllers.HandleSubscribe)
	group.Post(constants.SubscriptionRoute+"/plan", middleware.RequireAuth, controllers.HandleChangePlan)
	group.Post(constants.SubscriptionRoute+"/card", middleware.RequireAuth, controllers.HandleUpdateCard)
	group.Post(constants.SubscriptionRoute+"/cancel", middleware.RequireAuth, controllers.HandleCancel)

	// Coaching
	group.Get(constants.ClientsRoute, middleware.RequireTrainer, controllers.HandleClients)
	group.Post(constants.ClientsRoute, middleware.RequireTrainer, controllers.HandleAddClient)
	group.Post(constants.ClientsRoute+"/remove/:id", middleware.RequireTrainer, controllers.HandleRemoveClient)

	// Profile
	group.Get(constants.ProfileRoute, middleware.RequireAuth, controllers.HandleUserProfile)
	group.Post(constants.ProfileRoute, middleware.RequireAuth, controllers.HandleUserProfileEdit)
	group.Post(constants.ProfileRoute+"/password", middleware.RequireAuth, controllers.HandleUserPasswordChange)
}
