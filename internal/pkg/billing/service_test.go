package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitfox/FitFox/app/models"
)

// fakeGateway counts calls and fails on demand, standing in for the remote
// billing provider.
type fakeGateway struct {
	createCalls  int
	deleteCalls  int
	attachCalls  int
	setPlanCalls int
	cancelCalls  int

	failCreate  error
	failAttach  error
	failSetPlan error
	failCancel  error

	profiles map[string]bool
	lastPlan string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{profiles: make(map[string]bool)}
}

func (g *fakeGateway) CreateProfile(ctx context.Context, identity, email string) (string, error) {
	g.createCalls++
	if g.failCreate != nil {
		return "", g.failCreate
	}
	id := fmt.Sprintf("cus_%d", g.createCalls)
	g.profiles[id] = true
	return id, nil
}

func (g *fakeGateway) DeleteProfile(ctx context.Context, profileID string) error {
	g.deleteCalls++
	delete(g.profiles, profileID)
	return nil
}

func (g *fakeGateway) AttachPaymentMethod(ctx context.Context, profileID, methodToken string) (string, error) {
	g.attachCalls++
	if g.failAttach != nil {
		return "", g.failAttach
	}
	return "4242", nil
}

func (g *fakeGateway) SetPlan(ctx context.Context, profileID, planSlug string) error {
	g.setPlanCalls++
	if g.failSetPlan != nil {
		return g.failSetPlan
	}
	g.lastPlan = planSlug
	return nil
}

func (g *fakeGateway) CancelSubscription(ctx context.Context, profileID string) error {
	g.cancelCalls++
	return g.failCancel
}

func (g *fakeGateway) CardCount(ctx context.Context, profileID string) (int, error) {
	if g.profiles[profileID] {
		return 1, nil
	}
	return 0, nil
}

// fakeRepo is an in-memory Repository with switchable write failures.
type fakeRepo struct {
	users   map[uint]*models.User
	plans   map[uint]*models.Plan
	subs    map[uint]*models.Subscription // keyed by user ID
	clients map[uint]int

	failCreate error
	failSave   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:   make(map[uint]*models.User),
		plans:   make(map[uint]*models.Plan),
		subs:    make(map[uint]*models.Subscription),
		clients: make(map[uint]int),
	}
}

func (r *fakeRepo) GetUser(id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (r *fakeRepo) GetPlan(id uint) (*models.Plan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return p, nil
}

func (r *fakeRepo) GetSubscriptionByUserID(userID uint) (*models.Subscription, error) {
	s, ok := r.subs[userID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	cp := *s
	if cp.PlanID != nil {
		cp.Plan = r.plans[*cp.PlanID]
	}
	return &cp, nil
}

func (r *fakeRepo) CreateSubscription(sub *models.Subscription) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	if _, ok := r.subs[sub.UserID]; ok {
		return ErrSubscriptionExists
	}
	sub.ID = uint(len(r.subs) + 1)
	cp := *sub
	r.subs[sub.UserID] = &cp
	return nil
}

func (r *fakeRepo) SaveSubscription(sub *models.Subscription) error {
	if r.failSave != nil {
		return r.failSave
	}
	cp := *sub
	r.subs[sub.UserID] = &cp
	return nil
}

func (r *fakeRepo) CountClients(trainerID uint) (int, error) {
	return r.clients[trainerID], nil
}

func (r *fakeRepo) ListExpirable(cutoff time.Time) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range r.subs {
		if s.Active && s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.Before(cutoff) {
			out = append(out, *s)
		}
	}
	return out, nil
}

type recordedEvent struct {
	UserID uint
	Event  string
	Props  map[string]any
}

type recordingAnalytics struct {
	events []recordedEvent
}

func (a *recordingAnalytics) Record(userID uint, event string, properties map[string]any) error {
	a.events = append(a.events, recordedEvent{userID, event, properties})
	return nil
}

type recordingNotifier struct {
	notified []uint
}

func (n *recordingNotifier) NotifyExpired(userID uint) error {
	n.notified = append(n.notified, userID)
	return nil
}

type harness struct {
	svc       *Service
	repo      *fakeRepo
	gw        *fakeGateway
	analytics *recordingAnalytics
	notifier  *recordingNotifier
}

func newHarness() *harness {
	repo := newFakeRepo()
	gw := newFakeGateway()
	analytics := &recordingAnalytics{}
	notifier := &recordingNotifier{}
	return &harness{
		svc:       NewService(repo, gw, analytics, notifier),
		repo:      repo,
		gw:        gw,
		analytics: analytics,
		notifier:  notifier,
	}
}

func (h *harness) addUser(id uint) {
	h.repo.users[id] = &models.User{ID: id, Email: fmt.Sprintf("user%d@example.com", id)}
}

func (h *harness) addPlan(id uint, slug string, slots int, priceCents int) {
	h.repo.plans[id] = &models.Plan{ID: id, Slug: slug, Name: slug, PriceCents: priceCents, ClientSlots: slots, IsActive: true}
}

func TestEnsureBillingProfileIdempotent(t *testing.T) {
	h := newHarness()
	h.addUser(1)
	ctx := context.Background()

	first, err := h.svc.EnsureBillingProfile(ctx, 1)
	require.NoError(t, err)
	require.True(t, first.HasBillingProfile())

	second, err := h.svc.EnsureBillingProfile(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, h.gw.createCalls, "second call must not hit the gateway")
	assert.Equal(t, first.BillingProfileID, second.BillingProfileID)
}

func TestEnsureBillingProfileGatewayRejection(t *testing.T) {
	h := newHarness()
	h.addUser(1)
	h.gw.failCreate = &GatewayError{Kind: ErrGatewayRejected, Op: "create_profile", Message: "bad email"}

	_, err := h.svc.EnsureBillingProfile(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGatewayRejected)

	// nothing was persisted; the account stays uninitialized
	_, err = h.repo.GetSubscriptionByUserID(1)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestCreateSubscription(t *testing.T) {
	h := newHarness()
	h.addUser(1)

	sub, err := h.svc.CreateSubscription(context.Background(), 1, "tok_valid")
	require.NoError(t, err)

	assert.True(t, sub.HasBillingProfile())
	assert.Equal(t, "4242", sub.CardLast4)
	assert.False(t, sub.Active, "checkout alone does not attach a plan")
}

func TestCreateSubscriptionRejectsSecondSubscription(t *testing.T) {
	h := newHarness()
	h.addUser(1)
	ctx := context.Background()

	_, err := h.svc.CreateSubscription(ctx, 1, "tok_valid")
	require.NoError(t, err)

	_, err = h.svc.CreateSubscription(ctx, 1, "tok_valid")
	assert.ErrorIs(t, err, ErrSubscriptionExists)
	assert.Equal(t, 1, h.gw.createCalls)
}

func TestCreateSubscriptionRollsBackProfileOnPersistFailure(t *testing.T) {
	h := newHarness()
	h.addUser(1)
	h.repo.failCreate = errors.New("disk full")

	_, err := h.svc.CreateSubscription(context.Background(), 1, "tok_valid")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)

	assert.Equal(t, 1, h.gw.deleteCalls, "orphaned remote profile must be deleted")
	assert.Empty(t, h.gw.profiles, "no remote profile may survive the rollback")
	_, err = h.repo.GetSubscriptionByUserID(1)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound, "no half-initialized local row")
}

func TestCreateSubscriptionRollsBackProfileOnCardRejection(t *testing.T) {
	h := newHarness()
	h.addUser(1)
	h.gw.failAttach = &GatewayError{Kind: ErrPaymentRejected, Op: "attach_payment_method", Message: "card declined"}

	_, err := h.svc.CreateSubscription(context.Background(), 1, "tok_bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPaymentRejected)
	assert.Equal(t, 1, h.gw.deleteCalls)
}

func TestAttachPaymentMethodKeepsPreviousCardOnRejection(t *testing.T) {
	h := newHarness()
	h.addUser(1)
	ctx := context.Background()

	_, err := h.svc.CreateSubscription(ctx, 1, "tok_valid")
	require.NoError(t, err)

	h.gw.failAttach = &GatewayError{Kind: ErrPaymentRejected, Op: "attach_payment_method", Message: "expired card"}
	_, err = h.svc.AttachPaymentMethod(ctx, 1, "tok_expired")
	assert.ErrorIs(t, err, ErrPaymentRejected)

	sub, err := h.repo.GetSubscriptionByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, "4242", sub.CardLast4, "stored digits must be unchanged")
}

func TestChangePlanCapacityGateBlocksRemoteCall(t *testing.T) {
	h := newHarness()
	h.addUser(1)
	h.addPlan(10, "starter", 10, 1900)
	h.repo.clients[1] = 11

	_, err := h.svc.ChangePlanTo(context.Background(), 1, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 11, capErr.Clients)
	assert.Equal(t, 10, capErr.Slots)

	assert.Equal(t, 0, h.gw.setPlanCalls, "capacity violation must fail before any remote call")
}

func TestChangePlanNoLocalMutationOnGatewayRejection(t *testing.T) {
	h := newHarness()
	h.addUser(1)
	h.addPlan(10, "starter", 10, 1900)
	h.addPlan(20, "pro", 50, 4900)
	ctx := context.Background()

	_, err := h.svc.CreateSubscription(ctx, 1, "tok_valid")
	require.NoError(t, err)
	_, err = h.svc.ChangePlanTo(ctx, 1, 10)
	require.NoError(t, err)

	before, err := h.repo.GetSubscriptionByUserID(1)
	require.NoError(t, err)

	h.gw.failSetPlan = &GatewayError{Kind: ErrGatewayRejected, Op: "set_plan", Message: "no such plan"}
	_, err = h.svc.ChangePlanTo(ctx, 1, 20)
	assert.ErrorIs(t, err, ErrGatewayRejected)

	after, err := h.repo.GetSubscriptionByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, before.PlanID, after.PlanID)
	assert.Equal(t, before.Active, after.Active)
	assert.Equal(t, before.BillingProfileID, after.BillingProfileID)
	assert.Equal(t, before.CurrentPeriodEnd, after.CurrentPeriodEnd)
}

func TestChangePlanActivatesAndRecordsAnalytics(t *testing.T) {
	h := newHarness()
	h.addUser(1)
	h.addPlan(10, "starter", 10, 1900)
	ctx := context.Background()

	_, err := h.svc.CreateSubscription(ctx, 1, "tok_valid")
	require.NoError(t, err)

	sub, err := h.svc.ChangePlanTo(ctx, 1, 10)
	require.NoError(t, err)

	assert.True(t, sub.Active)
	require.NotNil(t, sub.PlanID)
	assert.Equal(t, uint(10), *sub.PlanID)
	assert.Equal(t, "starter", h.gw.lastPlan)
	require.NotNil(t, sub.CurrentPeriodEnd)

	require.Len(t, h.analytics.events, 1)
	ev := h.analytics.events[0]
	assert.Equal(t, EventChangedPlan, ev.Event)
	assert.Equal(t, "starter", ev.Props["plan"])
	assert.Equal(t, 19.0, ev.Props["revenue"])
}

func TestCancelCommitsLocallyOnGatewayError(t *testing.T) {
	h := newHarness()
	h.addUser(1)
	h.addPlan(10, "starter", 10, 1900)
	ctx := context.Background()

	_, err := h.svc.CreateSubscription(ctx, 1, "tok_valid")
	require.NoError(t, err)
	_, err = h.svc.ChangePlanTo(ctx, 1, 10)
	require.NoError(t, err)

	h.gw.failCancel = &GatewayError{Kind: ErrGatewayUnavailable, Op: "cancel_subscription", Err: errors.New("connection refused")}
	sub, err := h.svc.Cancel(ctx, 1)

	// the gateway failure is surfaced but the local transition committed
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	require.NotNil(t, sub)
	assert.False(t, sub.Active)
	assert.Nil(t, sub.PlanID)
	assert.True(t, sub.HasBillingProfile(), "profile is retained through cancellation")

	stored, err2 := h.repo.GetSubscriptionByUserID(1)
	require.NoError(t, err2)
	assert.False(t, stored.Active)
	assert.Nil(t, stored.PlanID)

	var sawCancel bool
	for _, ev := range h.analytics.events {
		if ev.Event == EventCancelledSubscription {
			sawCancel = true
		}
	}
	assert.True(t, sawCancel)
}

func TestExpireIdempotent(t *testing.T) {
	h := newHarness()
	h.addUser(1)
	h.addPlan(10, "starter", 10, 1900)
	ctx := context.Background()

	_, err := h.svc.CreateSubscription(ctx, 1, "tok_valid")
	require.NoError(t, err)
	_, err = h.svc.ChangePlanTo(ctx, 1, 10)
	require.NoError(t, err)

	first, err := h.svc.Expire(ctx, 1)
	require.NoError(t, err)
	second, err := h.svc.Expire(ctx, 1)
	require.NoError(t, err)

	assert.False(t, first.Active)
	assert.False(t, second.Active)
	assert.Nil(t, second.PlanID)
	assert.Len(t, h.notifier.notified, 1, "a rerun must not resend the notice")

	expiredEvents := 0
	for _, ev := range h.analytics.events {
		if ev.Event == EventExpiredSubscription {
			expiredEvents++
		}
	}
	assert.Equal(t, 1, expiredEvents)
}

func TestExpireOverdueSweep(t *testing.T) {
	h := newHarness()
	h.addPlan(10, "starter", 10, 1900)
	ctx := context.Background()

	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(48 * time.Hour)
	for id, end := range map[uint]time.Time{1: past, 2: past, 3: future} {
		h.addUser(id)
		planID := uint(10)
		e := end
		h.repo.subs[id] = &models.Subscription{
			ID: id, UserID: id, PlanID: &planID, Active: true,
			BillingProfileID: fmt.Sprintf("cus_seed_%d", id), CurrentPeriodEnd: &e,
		}
	}

	n, err := h.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, h.notifier.notified, 2)

	current, err := h.repo.GetSubscriptionByUserID(3)
	require.NoError(t, err)
	assert.True(t, current.Active, "a subscription inside its period stays active")
}

func TestCanAddClient(t *testing.T) {
	h := newHarness()
	h.addUser(1)
	h.addPlan(10, "solo", 1, 900)
	ctx := context.Background()

	_, err := h.svc.CreateSubscription(ctx, 1, "tok_valid")
	require.NoError(t, err)
	_, err = h.svc.ChangePlanTo(ctx, 1, 10)
	require.NoError(t, err)

	require.NoError(t, h.svc.CanAddClient(1))

	h.repo.clients[1] = 1
	err = h.svc.CanAddClient(1)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)
}

// Full lifecycle: subscribe, blocked downgrade, successful downgrade, cancel.
func TestSubscriptionLifecycle(t *testing.T) {
	h := newHarness()
	h.addUser(1)
	h.addPlan(1, "team", 5, 4900)
	h.addPlan(2, "solo", 1, 900)
	ctx := context.Background()

	_, err := h.svc.CreateSubscription(ctx, 1, "tok_valid")
	require.NoError(t, err)
	sub, err := h.svc.ChangePlanTo(ctx, 1, 1)
	require.NoError(t, err)
	require.True(t, sub.Active)
	require.Equal(t, uint(1), *sub.PlanID)

	// three clients acquired; downgrade to a 1-slot plan must be blocked
	h.repo.clients[1] = 3
	_, err = h.svc.ChangePlanTo(ctx, 1, 2)
	require.ErrorIs(t, err, ErrInsufficientCapacity)

	stored, err := h.repo.GetSubscriptionByUserID(1)
	require.NoError(t, err)
	assert.True(t, stored.Active)
	assert.Equal(t, uint(1), *stored.PlanID)

	// clients removed; downgrade goes through
	h.repo.clients[1] = 0
	sub, err = h.svc.ChangePlanTo(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, sub.Active)
	assert.Equal(t, uint(2), *sub.PlanID)

	profileID := sub.BillingProfileID
	sub, err = h.svc.Cancel(ctx, 1)
	require.NoError(t, err)
	assert.False(t, sub.Active)
	assert.Nil(t, sub.PlanID)
	assert.Equal(t, profileID, sub.BillingProfileID, "billing profile is never cleared")
}
