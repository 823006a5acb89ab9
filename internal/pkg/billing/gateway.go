package billing

import "context"

// PaymentGateway is the abstract capability over the remote billing provider.
// The service never talks to the provider any other way, and never caches
// provider handles on entities; one gateway client is constructed by the
// process and passed in.
//
// All calls are blocking network operations bounded by the context deadline.
// Implementations return *GatewayError with the appropriate kind; a timeout is
// reported as ErrGatewayUnavailable.
type PaymentGateway interface {
	// CreateProfile creates the account's persistent record at the provider,
	// keyed by our account identity and email, and returns its opaque ID.
	CreateProfile(ctx context.Context, identity, email string) (string, error)

	// DeleteProfile removes a remote profile. Used only to roll back a
	// half-finished checkout so retries do not accumulate duplicate profiles.
	DeleteProfile(ctx context.Context, profileID string) error

	// AttachPaymentMethod sends a tokenized payment method to the profile and
	// returns the resulting default method's last four digits.
	AttachPaymentMethod(ctx context.Context, profileID, methodToken string) (last4 string, err error)

	// SetPlan points the remote subscription at the given plan slug. Used for
	// first-time subscribe, upgrades and downgrades alike.
	SetPlan(ctx context.Context, profileID, planSlug string) error

	// CancelSubscription cancels the remote subscription. The profile itself
	// is retained.
	CancelSubscription(ctx context.Context, profileID string) error

	// CardCount returns the number of payment methods on the profile.
	CardCount(ctx context.Context, profileID string) (int, error)
}
