package entitlements

import (
	"testing"

	"github.com/fitfox/FitFox/app/models"
)

func TestSlotsLeft(t *testing.T) {
	plan := &models.Plan{ClientSlots: 5}

	tests := []struct {
		clients int
		want    int
	}{
		{clients: 0, want: 5},
		{clients: 3, want: 2},
		{clients: 5, want: 0},
		{clients: 7, want: 0},
	}

	for _, tt := range tests {
		if got := SlotsLeft(plan, tt.clients); got != tt.want {
			t.Fatalf("SlotsLeft(slots=5, %d) = %d, want %d", tt.clients, got, tt.want)
		}
	}

	if got := SlotsLeft(nil, 3); got != 0 {
		t.Fatalf("SlotsLeft(nil) = %d, want 0", got)
	}
}

func TestSlotsConsumedPercent(t *testing.T) {
	plan := &models.Plan{ClientSlots: 10}
	if got := SlotsConsumedPercent(plan, 3); got != 30 {
		t.Fatalf("expected 30, got %d", got)
	}
	if got := SlotsConsumedPercent(plan, 20); got != 100 {
		t.Fatalf("expected cap at 100, got %d", got)
	}
	if got := SlotsConsumedPercent(&models.Plan{}, 3); got != 0 {
		t.Fatalf("expected 0 for zero-slot plan, got %d", got)
	}
}

func TestCanCoach(t *testing.T) {
	if CanCoach(nil) {
		t.Fatal("nil subscription must not coach")
	}
	planID := uint(1)
	if CanCoach(&models.Subscription{Active: false, PlanID: &planID}) {
		t.Fatal("inactive subscription must not coach")
	}
	if !CanCoach(&models.Subscription{Active: true, PlanID: &planID}) {
		t.Fatal("active subscription with a plan must coach")
	}
}
