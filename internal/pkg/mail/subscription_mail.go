package mail

import (
	"fmt"

	"github.com/fitfox/FitFox/internal/pkg/env"
)

// SendSubscriptionExpired informs a trainer that their subscription ran out
// and coaching features are locked until they pick a new plan.
func SendSubscriptionExpired(to string, name string) error {
	appName := env.GetEnv("APP_NAME", "FitFox")
	domain := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:8080")

	subject := fmt.Sprintf("Your %s subscription has expired", appName)
	body := fmt.Sprintf(`
		<h2>Hi %s,</h2>
		<p>Your %s subscription has expired. Your account is still here, but coaching
		features are paused until you choose a plan again.</p>
		<p><a href="%s/pricing">Pick a plan</a> to keep training your clients.</p>
		<p>Your %s Team</p>
	`, name, appName, domain, appName)

	return SendMail(to, subject, body)
}

// SendClientInvite mails a freshly invited client their temporary password.
func SendClientInvite(to string, clientName string, trainerName string, tempPassword string) error {
	appName := env.GetEnv("APP_NAME", "FitFox")
	domain := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:8080")

	subject := fmt.Sprintf("%s invited you to %s", trainerName, appName)
	body := fmt.Sprintf(`
		<h2>Hi %s,</h2>
		<p>%s invited you to train together on %s.</p>
		<p>Log in with this email address and the temporary password below, then set
		your own password in your profile.</p>
		<p><strong>%s</strong></p>
		<p><a href="%s/login">Log in</a></p>
		<p>Your %s Team</p>
	`, clientName, trainerName, appName, tempPassword, domain, appName)

	return SendMail(to, subject, body)
}
