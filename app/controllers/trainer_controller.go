package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/fitfox/FitFox/app/models"
	"github.com/fitfox/FitFox/app/repository"
	"github.com/fitfox/FitFox/internal/pkg/billing"
	"github.com/fitfox/FitFox/internal/pkg/entitlements"
	"github.com/fitfox/FitFox/internal/pkg/mail"
	"github.com/fitfox/FitFox/internal/pkg/usercontext"
	"github.com/fitfox/FitFox/internal/pkg/utils"
)

// clientView is what the clients template renders per row
type clientView struct {
	ID        uint
	Name      string
	Email     string
	AvatarURL string
	Invited   bool
}

// HandleClients lists the trainer's clients together with slot usage
func HandleClients(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	clients, err := repos.User.GetClients(userCtx.UserID)
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Your client list could not be loaded"}
		return flash.WithError(c, fm).Redirect("/")
	}

	views := make([]clientView, 0, len(clients))
	for _, client := range clients {
		avatarURL := client.AvatarURL
		if avatarURL == "" {
			avatarURL = utils.GetGravatarURL(client.Email, 80)
		}
		views = append(views, clientView{
			ID:        client.ID,
			Name:      client.Name,
			Email:     client.Email,
			AvatarURL: avatarURL,
			Invited:   client.TemporaryPassword != "",
		})
	}

	bind := fiber.Map{
		"Title":   "Clients",
		"Clients": views,
	}

	sub, err := getBillingService().Subscription(userCtx.UserID)
	if err == nil && sub.Plan != nil {
		bind["Plan"] = sub.Plan
		bind["SlotsLeft"] = entitlements.SlotsLeft(sub.Plan, len(clients))
		bind["SlotsUsedPercent"] = entitlements.SlotsConsumedPercent(sub.Plan, len(clients))
	}

	return c.Render("clients", viewBind(c, bind), "layouts/main")
}

// HandleAddClient adds a client by email. Unknown addresses get an invited
// account with a temporary password; the capacity gate runs first either way.
func HandleAddClient(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	if err := getBillingService().CanAddClient(userCtx.UserID); err != nil {
		var capErr *billing.CapacityError
		if errors.As(err, &capErr) {
			fm := fiber.Map{"type": "error", "message": capErr.Error()}
			return flash.WithError(c, fm).Redirect("/clients")
		}
		if errors.Is(err, billing.ErrSubscriptionNotFound) {
			fm := fiber.Map{"type": "error", "message": "You need an active plan to add clients"}
			return flash.WithError(c, fm).Redirect("/pricing")
		}
		fm := fiber.Map{"type": "error", "message": "Something went wrong, please try again"}
		return flash.WithError(c, fm).Redirect("/clients")
	}

	email := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	name := strings.TrimSpace(c.FormValue("name"))
	if email == "" {
		fm := fiber.Map{"type": "error", "message": "Please enter your client's email address"}
		return flash.WithError(c, fm).Redirect("/clients")
	}

	client, err := repos.User.GetByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		client, err = inviteClient(userCtx.UserID, name, email)
	}
	if err != nil {
		log.Errorf("[Trainer] adding client %s for trainer %d failed: %v", email, userCtx.UserID, err)
		fm := fiber.Map{"type": "error", "message": "This client could not be added"}
		return flash.WithError(c, fm).Redirect("/clients")
	}

	if client.ID == userCtx.UserID {
		fm := fiber.Map{"type": "error", "message": "You cannot add yourself as a client"}
		return flash.WithError(c, fm).Redirect("/clients")
	}

	if err := repos.User.AddClient(userCtx.UserID, client.ID); err != nil {
		log.Errorf("[Trainer] linking client %d to trainer %d failed: %v", client.ID, userCtx.UserID, err)
		fm := fiber.Map{"type": "error", "message": "This client could not be added"}
		return flash.WithError(c, fm).Redirect("/clients")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": client.Name + " is now in your client list",
	}
	return flash.WithSuccess(c, fm).Redirect("/clients")
}

// HandleRemoveClient removes a client from the trainer's list
func HandleRemoveClient(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	clientID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Unknown client"}
		return flash.WithError(c, fm).Redirect("/clients")
	}

	if err := repository.GetGlobalRepositories().User.RemoveClient(userCtx.UserID, uint(clientID)); err != nil {
		log.Errorf("[Trainer] removing client %d from trainer %d failed: %v", clientID, userCtx.UserID, err)
		fm := fiber.Map{"type": "error", "message": "This client could not be removed"}
		return flash.WithError(c, fm).Redirect("/clients")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Client removed",
	}
	return flash.WithSuccess(c, fm).Redirect("/clients")
}

// inviteClient creates an account for a client who is not on the platform yet
// and mails them their temporary password.
func inviteClient(trainerID uint, name, email string) (*models.User, error) {
	repos := repository.GetGlobalRepositories()

	tempPassword, err := models.GenerateTemporaryPassword()
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	client, err := models.CreateUser(name, email, tempPassword)
	if err != nil {
		return nil, err
	}
	client.InvitedByID = &trainerID
	client.TemporaryPassword = tempPassword

	if err := repos.User.Create(client); err != nil {
		return nil, err
	}

	trainer, err := repos.User.GetByID(trainerID)
	if err != nil {
		return nil, fmt.Errorf("load inviting trainer: %w", err)
	}

	if err := mail.SendClientInvite(client.Email, client.Name, trainer.Name, tempPassword); err != nil {
		// The account exists; the trainer can resend the invite manually
		log.Errorf("[Trainer] invite mail to %s failed: %v", client.Email, err)
	}

	return client, nil
}
