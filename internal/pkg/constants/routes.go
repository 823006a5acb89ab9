package constants

// Static route constants
const (
	PublicRoute       = "/"
	PricingRoute      = "/pricing"
	SubscriptionRoute = "/subscription"
	ClientsRoute      = "/clients"
	ProfileRoute      = "/profile"
	LoginRoute        = "/login"
	RegisterRoute     = "/register"
)
