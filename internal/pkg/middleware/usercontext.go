package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fitfox/FitFox/app/models"
	"github.com/fitfox/FitFox/internal/pkg/database"
	"github.com/fitfox/FitFox/internal/pkg/session"
	"github.com/fitfox/FitFox/internal/pkg/usercontext"
)

// SessionKeyPlan caches the active plan slug per session so we do not hit
// the database on every request. Controllers that mutate the subscription
// must refresh it via RefreshPlanInSession.
const SessionKeyPlan = "user_plan"

// PlanNone marks a session whose user has no active subscription.
const PlanNone = "none"

// UserContextMiddleware sets up the complete user context for every request
// This centralizes user session handling and eliminates code duplication
func UserContextMiddleware(c *fiber.Ctx) error {
	// Get session with error handling
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		// On error: set as anonymous user
		c.Locals("USER_CONTEXT", usercontext.UserContext{
			IsLoggedIn: false,
			IsAdmin:    false,
		})
		c.Locals(usercontext.KeyFromProtected, false)
		c.Locals(usercontext.KeyIsAdmin, false)
		return c.Next()
	}

	// Get user ID from session
	userID := sess.Get(usercontext.KeyUserID)
	if userID == nil {
		// Anonymous user - no session data
		c.Locals("USER_CONTEXT", usercontext.UserContext{
			IsLoggedIn: false,
			IsAdmin:    false,
		})
		c.Locals(usercontext.KeyFromProtected, false)
		c.Locals(usercontext.KeyIsAdmin, false)
		return c.Next()
	}

	// User is logged in - get additional data
	username := session.GetSessionValue(c, usercontext.KeyUsername)
	isAdmin := sess.Get(usercontext.KeyIsAdmin)

	// Determine plan with session-first strategy
	plan := session.GetSessionValue(c, SessionKeyPlan)
	if plan == "" {
		plan = lookupPlanSlug(userID.(uint))
		// cache in session for subsequent requests
		_ = session.SetSessionValue(c, SessionKeyPlan, plan)
	}

	// Set complete user context
	userCtx := usercontext.UserContext{
		UserID:     userID.(uint),
		Username:   username,
		IsLoggedIn: true,
		IsAdmin:    isAdmin != nil && isAdmin.(bool),
		IsTrainer:  plan != PlanNone,
		Plan:       plan,
	}
	c.Locals("USER_CONTEXT", userCtx)

	// Legacy compatibility - keep existing Locals for backward compatibility
	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUsername, username)
	c.Locals(usercontext.KeyUserID, userID.(uint))
	c.Locals(usercontext.KeyIsAdmin, userCtx.IsAdmin)

	// Store username in user's individual session (multi-user safe)
	session.SetSessionValue(c, usercontext.KeyUsername, username)

	return c.Next()
}

// RefreshPlanInSession re-reads the subscription and updates the cached plan
// slug. Call after subscribe, plan change, cancel and expire.
func RefreshPlanInSession(c *fiber.Ctx, userID uint) {
	_ = session.SetSessionValue(c, SessionKeyPlan, lookupPlanSlug(userID))
}

func lookupPlanSlug(userID uint) string {
	db := database.GetDB()
	if db == nil {
		return PlanNone
	}
	var sub models.Subscription
	if err := db.Preload("Plan").Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return PlanNone
	}
	if !sub.Active || sub.Plan == nil {
		return PlanNone
	}
	return sub.Plan.Slug
}
