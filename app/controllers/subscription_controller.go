package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/fitfox/FitFox/internal/pkg/billing"
	"github.com/fitfox/FitFox/internal/pkg/middleware"
	"github.com/fitfox/FitFox/internal/pkg/usercontext"
)

const billingRequestTimeout = 20 * time.Second

// HandleSubscriptionShow renders the membership page with the current plan,
// the card on file and the paid-until date.
func HandleSubscriptionShow(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	bind := fiber.Map{
		"Title": "Membership",
	}

	sub, err := getBillingService().Subscription(userCtx.UserID)
	if err == nil {
		bind["Subscription"] = sub
		bind["HasCard"] = sub.HasCardOnFile()
	} else if !errors.Is(err, billing.ErrSubscriptionNotFound) {
		fm := fiber.Map{
			"type":    "error",
			"message": "Your membership could not be loaded, please try again",
		}
		return flash.WithError(c, fm).Redirect("/")
	}

	return c.Render("subscription", viewBind(c, bind), "layouts/main")
}

// HandleSubscribe runs the first-time checkout: plan choice plus card token in
// one step. Existing subscribers are routed through the plan change path.
func HandleSubscribe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	svc := getBillingService()

	planSlug := strings.TrimSpace(c.FormValue("plan"))
	cardToken := strings.TrimSpace(c.FormValue("card_token"))

	plan, err := planBySlug(planSlug)
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "This plan does not exist"}
		return flash.WithError(c, fm).Redirect("/pricing")
	}

	ctx, cancel := context.WithTimeout(context.Background(), billingRequestTimeout)
	defer cancel()

	_, err = svc.Subscription(userCtx.UserID)
	switch {
	case errors.Is(err, billing.ErrSubscriptionNotFound):
		if cardToken == "" {
			fm := fiber.Map{"type": "error", "message": "Please enter your card details"}
			return flash.WithError(c, fm).Redirect("/pricing")
		}
		if _, err := svc.CreateSubscription(ctx, userCtx.UserID, cardToken); err != nil {
			return flash.WithError(c, billingErrorFlash(err)).Redirect("/pricing")
		}
	case err != nil:
		fm := fiber.Map{"type": "error", "message": "Your membership could not be loaded, please try again"}
		return flash.WithError(c, fm).Redirect("/pricing")
	default:
		// Already has a row; a new card is optional here
		if cardToken != "" {
			if _, err := svc.AttachPaymentMethod(ctx, userCtx.UserID, cardToken); err != nil {
				return flash.WithError(c, billingErrorFlash(err)).Redirect("/pricing")
			}
		}
	}

	if _, err := svc.ChangePlanTo(ctx, userCtx.UserID, plan.ID); err != nil {
		return flash.WithError(c, billingErrorFlash(err)).Redirect("/pricing")
	}

	middleware.RefreshPlanInSession(c, userCtx.UserID)

	fm := fiber.Map{
		"type":    "success",
		"message": "You are on the " + plan.Name + " plan. Time to train!",
	}
	return flash.WithSuccess(c, fm).Redirect("/clients")
}

// HandleChangePlan moves an existing subscriber to another plan
func HandleChangePlan(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	plan, err := planBySlug(strings.TrimSpace(c.FormValue("plan")))
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "This plan does not exist"}
		return flash.WithError(c, fm).Redirect("/pricing")
	}

	ctx, cancel := context.WithTimeout(context.Background(), billingRequestTimeout)
	defer cancel()

	if _, err := getBillingService().ChangePlanTo(ctx, userCtx.UserID, plan.ID); err != nil {
		return flash.WithError(c, billingErrorFlash(err)).Redirect("/pricing")
	}

	middleware.RefreshPlanInSession(c, userCtx.UserID)

	fm := fiber.Map{
		"type":    "success",
		"message": "Your plan is now " + plan.Name,
	}
	return flash.WithSuccess(c, fm).Redirect("/subscription")
}

// HandleUpdateCard swaps the card on file for a new tokenized one
func HandleUpdateCard(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	cardToken := strings.TrimSpace(c.FormValue("card_token"))
	if cardToken == "" {
		fm := fiber.Map{"type": "error", "message": "Please enter your card details"}
		return flash.WithError(c, fm).Redirect("/subscription")
	}

	ctx, cancel := context.WithTimeout(context.Background(), billingRequestTimeout)
	defer cancel()

	sub, err := getBillingService().AttachPaymentMethod(ctx, userCtx.UserID, cardToken)
	if err != nil {
		return flash.WithError(c, billingErrorFlash(err)).Redirect("/subscription")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Card ending in " + sub.CardLast4 + " saved",
	}
	return flash.WithSuccess(c, fm).Redirect("/subscription")
}

// HandleCancel ends the membership. The local cancellation always goes
// through; a provider outage only changes the message.
func HandleCancel(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	ctx, cancel := context.WithTimeout(context.Background(), billingRequestTimeout)
	defer cancel()

	_, err := getBillingService().Cancel(ctx, userCtx.UserID)
	if err != nil && !isGatewayFailure(err) {
		if errors.Is(err, billing.ErrSubscriptionNotFound) {
			fm := fiber.Map{"type": "error", "message": "You do not have a subscription to cancel"}
			return flash.WithError(c, fm).Redirect("/pricing")
		}
		return flash.WithError(c, billingErrorFlash(err)).Redirect("/subscription")
	}

	middleware.RefreshPlanInSession(c, userCtx.UserID)

	msg := "Your subscription is cancelled. Your clients will miss you!"
	if err != nil {
		// Remote cancel failed but the local row is authoritative
		msg = "Your subscription is cancelled. Billing is being finalized with the payment provider."
	}
	fm := fiber.Map{
		"type":    "success",
		"message": msg,
	}
	return flash.WithSuccess(c, fm).Redirect("/")
}

// billingErrorFlash turns a billing error into the flash message the user sees
func billingErrorFlash(err error) fiber.Map {
	fm := fiber.Map{"type": "error"}

	var capErr *billing.CapacityError
	switch {
	case errors.As(err, &capErr):
		fm["message"] = capErr.Error()
	case errors.Is(err, billing.ErrPaymentRejected):
		fm["message"] = "Your card was declined, please try another one"
	case errors.Is(err, billing.ErrGatewayRejected):
		fm["message"] = "The payment provider rejected the request, please check your details"
	case errors.Is(err, billing.ErrGatewayUnavailable):
		fm["message"] = "The payment provider is unavailable right now, please try again in a moment"
	case errors.Is(err, billing.ErrPlanNotFound):
		fm["message"] = "This plan does not exist"
	case errors.Is(err, billing.ErrSubscriptionExists):
		fm["message"] = "You already have a subscription"
	default:
		fm["message"] = "Something went wrong, please try again"
	}
	return fm
}

// isGatewayFailure reports whether the error comes from the payment provider
// rather than from our own storage.
func isGatewayFailure(err error) bool {
	return errors.Is(err, billing.ErrGatewayUnavailable) ||
		errors.Is(err, billing.ErrGatewayRejected) ||
		errors.Is(err, billing.ErrPaymentRejected)
}
