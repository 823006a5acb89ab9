package entitlements

import "github.com/fitfox/FitFox/app/models"

// Helpers that translate a subscription/plan pair into what the UI may show
// and what the account may do. The capacity rule itself lives in the billing
// package; these are read-only conveniences on top of it.

// SlotsLeft returns how many more clients the trainer may take on.
func SlotsLeft(plan *models.Plan, clientCount int) int {
	if plan == nil {
		return 0
	}
	left := plan.ClientSlots - clientCount
	if left < 0 {
		return 0
	}
	return left
}

// SlotsConsumedPercent returns the share of client slots in use, 0-100.
func SlotsConsumedPercent(plan *models.Plan, clientCount int) int {
	if plan == nil || plan.ClientSlots == 0 {
		return 0
	}
	pct := clientCount * 100 / plan.ClientSlots
	if pct > 100 {
		return 100
	}
	return pct
}

// CanCoach reports whether the subscription currently entitles the account to
// manage clients at all.
func CanCoach(sub *models.Subscription) bool {
	return sub != nil && sub.Active && sub.PlanID != nil
}
