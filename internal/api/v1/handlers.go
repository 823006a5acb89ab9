package apiv1

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/fitfox/FitFox/app/repository"
	"github.com/fitfox/FitFox/internal/pkg/entitlements"
	"github.com/fitfox/FitFox/internal/pkg/middleware"
	"github.com/fitfox/FitFox/internal/pkg/usercontext"
)

// APIServer implements the v1 JSON API
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// RegisterHandlers attaches the v1 routes to the given router group
func RegisterHandlers(r fiber.Router, s *APIServer) {
	r.Get("/ping", s.GetPing)
	r.Get("/plans", s.GetPlans)
	r.Get("/subscription", middleware.RequireAPISessionAuth, s.GetSubscription)
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ping": "pong",
	})
}

// GetPlans returns the active plan catalog
func (s *APIServer) GetPlans(c *fiber.Ctx) error {
	plans, err := repository.GetGlobalRepositories().Plan.GetActive()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "plans_unavailable",
		})
	}

	out := make([]fiber.Map, 0, len(plans))
	for _, p := range plans {
		out = append(out, fiber.Map{
			"slug":         p.Slug,
			"name":         p.Name,
			"price":        p.Price(),
			"client_slots": p.ClientSlots,
		})
	}
	return c.JSON(fiber.Map{"plans": out})
}

// GetSubscription returns the session user's membership state
func (s *APIServer) GetSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	sub, err := repository.GetGlobalRepositories().Subscription.GetByUserID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"active": false})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "subscription_unavailable",
		})
	}

	resp := fiber.Map{
		"active":     sub.Active,
		"can_coach":  entitlements.CanCoach(sub),
		"card_last4": sub.CardLast4,
	}
	if sub.Plan != nil {
		resp["plan"] = sub.Plan.Slug
	}
	if sub.CurrentPeriodEnd != nil {
		resp["current_period_end"] = sub.CurrentPeriodEnd
	}
	return c.JSON(resp)
}
