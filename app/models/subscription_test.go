package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionDeactivate(t *testing.T) {
	planID := uint(3)
	end := time.Now().Add(24 * time.Hour)
	sub := &Subscription{
		UserID:           1,
		PlanID:           &planID,
		Active:           true,
		BillingProfileID: "cus_123",
		CardLast4:        "4242",
		CurrentPeriodEnd: &end,
	}

	sub.Deactivate()

	assert.False(t, sub.Active)
	assert.Nil(t, sub.PlanID)
	assert.Nil(t, sub.CurrentPeriodEnd)
	// profile and card survive deactivation
	assert.Equal(t, "cus_123", sub.BillingProfileID)
	assert.Equal(t, "4242", sub.CardLast4)
}

func TestSubscriptionStateHelpers(t *testing.T) {
	sub := &Subscription{UserID: 1}
	assert.False(t, sub.HasBillingProfile())
	assert.False(t, sub.HasCardOnFile())

	sub.BillingProfileID = "cus_abc"
	sub.CardLast4 = "1881"
	assert.True(t, sub.HasBillingProfile())
	assert.True(t, sub.HasCardOnFile())
}

func TestUserIsTrainer(t *testing.T) {
	u := &User{ID: 7}
	assert.False(t, u.IsTrainer())

	u.Subscription = &Subscription{UserID: 7, Active: false}
	assert.False(t, u.IsTrainer())

	u.Subscription.Active = true
	assert.True(t, u.IsTrainer())
}

func TestCreateUserHashesPassword(t *testing.T) {
	u, err := CreateUser("marta", "marta@example.com", "s3cret-pw")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pw", u.Password)
	assert.True(t, CheckPasswordHash("s3cret-pw", u.Password))
	assert.False(t, CheckPasswordHash("wrong", u.Password))
}
