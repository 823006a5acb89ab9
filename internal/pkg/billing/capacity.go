package billing

import "github.com/fitfox/FitFox/app/models"

// HasCapacity reports whether a trainer with the given client count fits on
// the plan. This is the single capacity rule of the product: a trainer's
// client count must never exceed the active plan's client slots at the moment
// any mutation (plan change or client add) commits.
func HasCapacity(clientCount int, plan *models.Plan) bool {
	return clientCount <= plan.ClientSlots
}

// CheckCapacity returns a *CapacityError when the count exceeds the plan's
// slots. Callers adding a client pass the count the trainer would have after
// the add.
func CheckCapacity(clientCount int, plan *models.Plan) error {
	if HasCapacity(clientCount, plan) {
		return nil
	}
	return &CapacityError{Clients: clientCount, Slots: plan.ClientSlots}
}
