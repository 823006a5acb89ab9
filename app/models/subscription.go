package models

import "time"

// Subscription tracks one account's billing state against the payment gateway.
// There is at most one row per user; it is created the first time the account
// begins checkout and never deleted afterwards. Cancellation and expiration
// only drive it to an inactive state with no plan attached.
//
// BillingProfileID is the account's record at the gateway. Once set it is
// never cleared: the remote profile is reused across plan changes, only the
// remote plan attachment toggles.
type Subscription struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	PlanID           *uint      `gorm:"index" json:"plan_id,omitempty"`
	Plan             *Plan      `gorm:"foreignKey:PlanID" json:"-"`
	Active           bool       `gorm:"not null;default:false;index" json:"active"`
	BillingProfileID string     `gorm:"type:varchar(191);default:''" json:"-"`
	CardLast4        string     `gorm:"type:varchar(4);default:''" json:"card_last4"`
	CurrentPeriodEnd *time.Time `gorm:"type:timestamp;default:null;index" json:"current_period_end,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// HasBillingProfile reports whether a gateway profile was ever created.
func (s *Subscription) HasBillingProfile() bool {
	return s.BillingProfileID != ""
}

// HasCardOnFile reports whether a payment method is attached at the gateway.
func (s *Subscription) HasCardOnFile() bool {
	return s.CardLast4 != ""
}

// Deactivate clears the plan attachment locally. The billing profile is kept.
func (s *Subscription) Deactivate() {
	s.Active = false
	s.PlanID = nil
	s.Plan = nil
	s.CurrentPeriodEnd = nil
}
