package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/fitfox/FitFox/app/models"
	"github.com/fitfox/FitFox/app/repository"
	"github.com/fitfox/FitFox/internal/pkg/billing"
	"github.com/fitfox/FitFox/internal/pkg/metrics/counter"
	"github.com/fitfox/FitFox/internal/pkg/usercontext"
)

// HandlePricing shows the plan catalog. Logged-in trainers see their current
// plan highlighted and how many client slots they are using.
func HandlePricing(c *fiber.Ctx) error {
	plans, err := repository.GetGlobalRepositories().Plan.GetActive()
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Plans are unavailable right now, please try again",
		}
		return flash.WithError(c, fm).Redirect("/")
	}

	// Impression counters are flushed to the plans table in batches
	for _, plan := range plans {
		_ = counter.AddPlanView(plan.ID)
	}

	bind := fiber.Map{
		"Title":           "Pricing",
		"Plans":           plans,
		"CurrentPlanSlug": "",
	}

	userCtx := usercontext.GetUserContext(c)
	if userCtx.IsLoggedIn {
		sub, err := getBillingService().Subscription(userCtx.UserID)
		if err == nil {
			bind["Subscription"] = sub
			if sub.Plan != nil {
				bind["CurrentPlanSlug"] = sub.Plan.Slug
			}
		} else if !errors.Is(err, billing.ErrSubscriptionNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "subscription lookup failed")
		}
	}

	return c.Render("pricing", viewBind(c, bind), "layouts/main")
}

// planBySlug resolves a posted plan slug against the active catalog
func planBySlug(slug string) (*models.Plan, error) {
	plan, err := repository.GetGlobalRepositories().Plan.GetBySlug(slug)
	if err != nil {
		return nil, billing.ErrPlanNotFound
	}
	if !plan.IsActive {
		return nil, billing.ErrPlanNotFound
	}
	return plan, nil
}
