package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fitfox/FitFox/app/models"
)

// Service owns the subscription lifecycle: creating a billing profile,
// attaching a payment method, changing plans under the capacity constraint,
// cancelling and expiring. It is the only component that talks to the payment
// gateway, and it keeps the local row consistent with the remote provider.
//
// Local-state rules:
//   - ChangePlanTo never mutates the row before the gateway confirmed the new
//     plan (validate, then commit).
//   - Cancel and Expire always commit locally, even when the gateway call
//     fails: the local row decides trainer access, the remote side is
//     reconciled out-of-band.
//
// Mutations on the same account are serialized through a per-row lock; sink
// dispatch happens after the lock is released.
type Service struct {
	repo      Repository
	gateway   PaymentGateway
	analytics AnalyticsSink
	notifier  NotificationSink
	locks     *rowLocks
	now       func() time.Time
}

// NewService wires the billing service. All dependencies are required.
func NewService(repo Repository, gateway PaymentGateway, analytics AnalyticsSink, notifier NotificationSink) *Service {
	if repo == nil || gateway == nil || analytics == nil || notifier == nil {
		panic("billing: all service dependencies are required")
	}
	return &Service{
		repo:      repo,
		gateway:   gateway,
		analytics: analytics,
		notifier:  notifier,
		locks:     newRowLocks(),
		now:       time.Now,
	}
}

// EnsureBillingProfile makes sure the account has a record at the gateway.
// Idempotent: if a profile ID is already stored, no remote call is made.
func (s *Service) EnsureBillingProfile(ctx context.Context, userID uint) (*models.Subscription, error) {
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	return s.ensureProfile(ctx, userID)
}

// ensureProfile is EnsureBillingProfile without the lock, for composition by
// the other operations which already hold it.
func (s *Service) ensureProfile(ctx context.Context, userID uint) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscriptionByUserID(userID)
	created := false
	if err == ErrSubscriptionNotFound {
		sub = &models.Subscription{UserID: userID}
		created = true
	} else if err != nil {
		return nil, err
	}

	if sub.HasBillingProfile() {
		return sub, nil
	}

	user, err := s.repo.GetUser(userID)
	if err != nil {
		return nil, err
	}

	profileID, err := s.gateway.CreateProfile(ctx, fmt.Sprint(user.ID), user.Email)
	if err != nil {
		return nil, err
	}
	sub.BillingProfileID = profileID

	if created {
		err = s.repo.CreateSubscription(sub)
	} else {
		err = s.repo.SaveSubscription(sub)
	}
	if err != nil {
		// The remote profile exists but the local row does not record it.
		// Delete the orphan so a retry does not accumulate duplicates.
		s.rollbackProfile(ctx, profileID)
		if err == ErrSubscriptionExists {
			return nil, err
		}
		return nil, &PersistenceError{Op: "ensure_billing_profile", Remote: true, Err: err}
	}

	return sub, nil
}

// AttachPaymentMethod sends a tokenized card to the account's billing profile,
// creating the profile first if needed, and stores the resulting default
// method's last four digits. Does not touch the plan attachment or active
// flag; on rejection the previously stored digits stay in place.
func (s *Service) AttachPaymentMethod(ctx context.Context, userID uint, methodToken string) (*models.Subscription, error) {
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	sub, err := s.ensureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	last4, err := s.gateway.AttachPaymentMethod(ctx, sub.BillingProfileID, methodToken)
	if err != nil {
		return nil, err
	}

	sub.CardLast4 = last4
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, &PersistenceError{Op: "attach_payment_method", Remote: true, Err: err}
	}
	return sub, nil
}

// CreateSubscription runs the first-time checkout: create the billing
// profile, attach the payment method, persist the row. The account must not
// have a subscription yet. If the remote profile was created but anything
// after that fails, the profile is deleted again so retries start clean.
func (s *Service) CreateSubscription(ctx context.Context, userID uint, methodToken string) (*models.Subscription, error) {
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	if _, err := s.repo.GetSubscriptionByUserID(userID); err == nil {
		return nil, ErrSubscriptionExists
	} else if err != ErrSubscriptionNotFound {
		return nil, err
	}

	user, err := s.repo.GetUser(userID)
	if err != nil {
		return nil, err
	}

	profileID, err := s.gateway.CreateProfile(ctx, fmt.Sprint(user.ID), user.Email)
	if err != nil {
		return nil, err
	}

	last4, err := s.gateway.AttachPaymentMethod(ctx, profileID, methodToken)
	if err != nil {
		s.rollbackProfile(ctx, profileID)
		return nil, err
	}

	sub := &models.Subscription{
		UserID:           userID,
		BillingProfileID: profileID,
		CardLast4:        last4,
	}
	if err := s.repo.CreateSubscription(sub); err != nil {
		s.rollbackProfile(ctx, profileID)
		if err == ErrSubscriptionExists {
			return nil, err
		}
		return nil, &PersistenceError{Op: "create_subscription", Remote: true, Err: err}
	}

	return sub, nil
}

// ChangePlanTo moves the account onto the given plan: first-time subscribe,
// upgrade and downgrade all go through here. The capacity gate runs before
// any remote call; the local row is only written after the gateway confirmed
// the new plan.
func (s *Service) ChangePlanTo(ctx context.Context, userID uint, planID uint) (*models.Subscription, error) {
	s.locks.Lock(userID)
	sub, plan, err := s.changePlanLocked(ctx, userID, planID)
	s.locks.Unlock(userID)
	if err != nil {
		return nil, err
	}

	s.record(userID, EventChangedPlan, map[string]any{
		"plan":    plan.Name,
		"revenue": plan.Price(),
	})
	return sub, nil
}

func (s *Service) changePlanLocked(ctx context.Context, userID uint, planID uint) (*models.Subscription, *models.Plan, error) {
	plan, err := s.repo.GetPlan(planID)
	if err != nil {
		return nil, nil, err
	}

	sub, err := s.ensureProfile(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	clients, err := s.repo.CountClients(userID)
	if err != nil {
		return nil, nil, err
	}
	if err := CheckCapacity(clients, plan); err != nil {
		return nil, nil, err
	}

	if err := s.gateway.SetPlan(ctx, sub.BillingProfileID, plan.Slug); err != nil {
		// No local mutation happened; the row is exactly as before.
		return nil, nil, err
	}

	periodEnd := s.now().AddDate(0, 1, 0)
	sub.Active = true
	sub.PlanID = &plan.ID
	sub.Plan = plan
	sub.CurrentPeriodEnd = &periodEnd
	if err := s.repo.SaveSubscription(sub); err != nil {
		// The gateway already bills the new plan while the local row does
		// not reflect it. This cannot be corrected here.
		log.Errorf("[Billing] INCONSISTENT STATE user=%d: gateway on plan %s but local save failed: %v", userID, plan.Slug, err)
		return nil, nil, &PersistenceError{Op: "change_plan", Remote: true, Err: err}
	}

	return sub, plan, nil
}

// Cancel ends the subscription. The local transition always commits: a remote
// outage must not keep a user billed as a trainer. A gateway failure is
// returned alongside the updated row so callers can mention it, and is left
// for out-of-band reconciliation.
func (s *Service) Cancel(ctx context.Context, userID uint) (*models.Subscription, error) {
	s.locks.Lock(userID)
	sub, planName, gwErr, err := s.cancelLocked(ctx, userID)
	s.locks.Unlock(userID)
	if err != nil {
		return nil, err
	}

	s.record(userID, EventCancelledSubscription, map[string]any{"plan": planName})
	return sub, gwErr
}

func (s *Service) cancelLocked(ctx context.Context, userID uint) (*models.Subscription, string, error, error) {
	sub, err := s.repo.GetSubscriptionByUserID(userID)
	if err != nil {
		return nil, "", nil, err
	}

	planName := ""
	if sub.Plan != nil {
		planName = sub.Plan.Name
	}

	var gwErr error
	if sub.HasBillingProfile() {
		if gwErr = s.gateway.CancelSubscription(ctx, sub.BillingProfileID); gwErr != nil {
			log.Errorf("[Billing] remote cancel failed for user=%d, committing local cancel anyway: %v", userID, gwErr)
		}
	}

	sub.Deactivate()
	if err := s.repo.SaveSubscription(sub); err != nil {
		log.Errorf("[Billing] INCONSISTENT STATE user=%d: cancel not persisted locally: %v", userID, err)
		return nil, "", nil, &PersistenceError{Op: "cancel", Remote: gwErr == nil, Err: err}
	}

	return sub, planName, gwErr, nil
}

// Expire reconciles a lapsed billing period: no gateway call (the provider
// already knows), just the local transition, an analytics event and an expiry
// notice. Calling it on an already-inactive subscription is a no-op, so a
// rerun of the sweep does not resend the notification.
func (s *Service) Expire(ctx context.Context, userID uint) (*models.Subscription, error) {
	s.locks.Lock(userID)
	sub, planName, expired, err := s.expireLocked(userID)
	s.locks.Unlock(userID)
	if err != nil {
		return nil, err
	}
	if !expired {
		return sub, nil
	}

	s.record(userID, EventExpiredSubscription, map[string]any{"plan": planName})
	if err := s.notifier.NotifyExpired(userID); err != nil {
		log.Errorf("[Billing] expiry notification for user=%d failed: %v", userID, err)
	}
	return sub, nil
}

func (s *Service) expireLocked(userID uint) (*models.Subscription, string, bool, error) {
	sub, err := s.repo.GetSubscriptionByUserID(userID)
	if err != nil {
		return nil, "", false, err
	}

	if !sub.Active {
		return sub, "", false, nil
	}

	planName := ""
	if sub.Plan != nil {
		planName = sub.Plan.Name
	}

	sub.Deactivate()
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, "", false, &PersistenceError{Op: "expire", Err: err}
	}

	return sub, planName, true, nil
}

// ExpireOverdue runs Expire for every active subscription whose billing
// period ended before now. Safe to rerun; returns how many were expired.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	subs, err := s.repo.ListExpirable(s.now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, sub := range subs {
		if _, err := s.Expire(ctx, sub.UserID); err != nil {
			log.Errorf("[Billing] sweep: expiring user=%d failed: %v", sub.UserID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

// CanAddClient checks the capacity rule for adding one more client to the
// trainer's current plan. Shared with the client-add flow so plan changes and
// client adds enforce the same invariant.
func (s *Service) CanAddClient(trainerID uint) error {
	sub, err := s.repo.GetSubscriptionByUserID(trainerID)
	if err != nil {
		return err
	}
	if !sub.Active || sub.PlanID == nil {
		return ErrSubscriptionNotFound
	}
	plan := sub.Plan
	if plan == nil {
		if plan, err = s.repo.GetPlan(*sub.PlanID); err != nil {
			return err
		}
	}
	clients, err := s.repo.CountClients(trainerID)
	if err != nil {
		return err
	}
	return CheckCapacity(clients+1, plan)
}

// Subscription returns the account's subscription row, if any.
func (s *Service) Subscription(userID uint) (*models.Subscription, error) {
	return s.repo.GetSubscriptionByUserID(userID)
}

// rollbackProfile deletes a remote profile created during an operation that
// could not complete. Failure here is logged only; the orphan is picked up by
// provider-side housekeeping.
func (s *Service) rollbackProfile(ctx context.Context, profileID string) {
	if err := s.gateway.DeleteProfile(ctx, profileID); err != nil {
		log.Errorf("[Billing] rollback of remote profile %s failed: %v", profileID, err)
	}
}

// record sends an analytics event and only ever logs a failure.
func (s *Service) record(userID uint, event string, properties map[string]any) {
	if err := s.analytics.Record(userID, event, properties); err != nil {
		log.Errorf("[Billing] analytics event %q for user=%d failed: %v", event, userID, err)
	}
}
