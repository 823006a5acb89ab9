package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/fitfox/FitFox/internal/pkg/billing"
	"github.com/fitfox/FitFox/internal/pkg/usercontext"
)

const FROM_PROTECTED string = "from_protected"

// billingService is wired during startup; every subscription mutation in the
// controllers goes through it.
var billingService *billing.Service

// SetBillingService registers the billing service used by the controllers
func SetBillingService(svc *billing.Service) {
	billingService = svc
}

func getBillingService() *billing.Service {
	if billingService == nil {
		panic("Billing service not initialized. Call SetBillingService first.")
	}
	return billingService
}

func isLoggedIn(c *fiber.Ctx) bool {
	var fromProtected bool
	if protectedValue := c.Locals(FROM_PROTECTED); protectedValue != nil {
		fromProtected = protectedValue.(bool)
	}

	return fromProtected
}

// ExtractUsername gets the username from Locals (set by middleware)
func ExtractUsername(c *fiber.Ctx) string {
	if userNameValue := c.Locals(USER_NAME); userNameValue != nil {
		if userName, ok := userNameValue.(string); ok {
			return userName
		}
	}

	return ""
}

// viewBind merges the per-request context every template needs with
// page-specific values.
func viewBind(c *fiber.Ctx, page fiber.Map) fiber.Map {
	userCtx := usercontext.GetUserContext(c)
	bind := fiber.Map{
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Username":   userCtx.Username,
		"IsAdmin":    userCtx.IsAdmin,
		"IsTrainer":  userCtx.IsTrainer,
		"Plan":       userCtx.Plan,
		"Flash":      flash.Get(c),
	}
	bind["CSRFToken"] = ""
	if token, ok := c.Locals("csrf").(string); ok {
		bind["CSRFToken"] = token
	}
	for k, v := range page {
		bind[k] = v
	}
	return bind
}
