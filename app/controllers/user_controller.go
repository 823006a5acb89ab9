package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/fitfox/FitFox/app/models"
	"github.com/fitfox/FitFox/app/repository"
	"github.com/fitfox/FitFox/internal/pkg/billing"
	"github.com/fitfox/FitFox/internal/pkg/session"
	"github.com/fitfox/FitFox/internal/pkg/usercontext"
	"github.com/fitfox/FitFox/internal/pkg/utils"
)

// HandleUserProfile shows the profile page with account and membership info
func HandleUserProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	user, err := repository.GetGlobalRepositories().User.GetByID(userCtx.UserID)
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Your profile could not be loaded"}
		return flash.WithError(c, fm).Redirect("/")
	}

	avatarURL := user.AvatarURL
	if avatarURL == "" {
		avatarURL = utils.GetGravatarURL(user.Email, 200)
	}

	bind := fiber.Map{
		"Title":     "Profile",
		"User":      user,
		"AvatarURL": avatarURL,
	}

	sub, err := getBillingService().Subscription(userCtx.UserID)
	if err == nil {
		bind["Subscription"] = sub
	} else if !errors.Is(err, billing.ErrSubscriptionNotFound) {
		fm := fiber.Map{"type": "error", "message": "Your membership could not be loaded"}
		return flash.WithError(c, fm).Redirect("/")
	}

	return c.Render("profile", viewBind(c, bind), "layouts/main")
}

// HandleUserProfileEdit updates name, bio and time zone
func HandleUserProfileEdit(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Your profile could not be loaded"}
		return flash.WithError(c, fm).Redirect("/profile")
	}

	if name := strings.TrimSpace(c.FormValue("name")); name != "" {
		user.Name = name
	}
	user.Bio = strings.TrimSpace(c.FormValue("bio"))
	if tz := strings.TrimSpace(c.FormValue("time_zone")); tz != "" {
		user.TimeZone = tz
	}

	if err := user.Validate(); err != nil {
		fm := fiber.Map{"type": "error", "message": "Please check your input: " + err.Error()}
		return flash.WithError(c, fm).Redirect("/profile")
	}

	if err := repos.User.Update(user); err != nil {
		fm := fiber.Map{"type": "error", "message": "Your profile could not be saved"}
		return flash.WithError(c, fm).Redirect("/profile")
	}

	// Keep the cached display name in sync
	_ = session.SetSessionValue(c, USER_NAME, user.Name)

	fm := fiber.Map{"type": "success", "message": "Profile saved"}
	return flash.WithSuccess(c, fm).Redirect("/profile")
}

// HandleUserPasswordChange sets a new password after checking the current one.
// Invited clients logging in with their temporary password land here too.
func HandleUserPasswordChange(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Your profile could not be loaded"}
		return flash.WithError(c, fm).Redirect("/profile")
	}

	if !models.CheckPasswordHash(c.FormValue("current_password"), user.Password) {
		fm := fiber.Map{"type": "error", "message": "Your current password is not correct"}
		return flash.WithError(c, fm).Redirect("/profile")
	}

	newPassword := c.FormValue("new_password")
	if len(newPassword) < 6 {
		fm := fiber.Map{"type": "error", "message": "Your new password needs at least 6 characters"}
		return flash.WithError(c, fm).Redirect("/profile")
	}

	hash, err := models.HashPassword(newPassword)
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Your password could not be changed"}
		return flash.WithError(c, fm).Redirect("/profile")
	}

	user.Password = hash
	user.TemporaryPassword = ""
	if err := repos.User.Update(user); err != nil {
		fm := fiber.Map{"type": "error", "message": "Your password could not be changed"}
		return flash.WithError(c, fm).Redirect("/profile")
	}

	fm := fiber.Map{"type": "success", "message": "Password changed"}
	return flash.WithSuccess(c, fm).Redirect("/profile")
}
