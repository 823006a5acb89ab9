package billing

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the billing service. Callers branch on these with
// errors.Is / errors.As, never on message text.
var (
	// ErrGatewayRejected: the provider declined the request as invalid
	// (unknown plan slug, malformed token). Not retried automatically.
	ErrGatewayRejected = errors.New("payment gateway rejected the request")

	// ErrPaymentRejected: the specific case of an invalid or declined payment
	// method. Surfaced with the provider's message.
	ErrPaymentRejected = errors.New("payment method was declined")

	// ErrGatewayUnavailable: transient network/unknown failure talking to the
	// provider. Cancel and Expire still commit locally on this.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrInsufficientCapacity: the trainer has more clients than the target
	// plan allows.
	ErrInsufficientCapacity = errors.New("not enough client slots")

	// ErrPersistence: a local durable write failed after the gateway already
	// confirmed a change. The two systems may diverge; needs reconciliation.
	ErrPersistence = errors.New("local persistence failed")

	ErrSubscriptionExists   = errors.New("subscription already exists for this account")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrPlanNotFound         = errors.New("plan not found")
)

// GatewayError carries the provider-side detail for a failed gateway call.
// Kind is one of ErrGatewayRejected, ErrPaymentRejected or
// ErrGatewayUnavailable so errors.Is works through it.
type GatewayError struct {
	Kind    error
	Op      string // gateway operation, e.g. "create_profile"
	Message string // provider message, safe to show to the user
	Err     error  // underlying transport error, if any
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway %s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Kind)
}

func (e *GatewayError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// CapacityError reports a capacity-gate rejection. The counts are part of the
// error so the UI can tell the user how many clients to remove.
type CapacityError struct {
	Clients int
	Slots   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("this plan has %d client slots and you have %d clients in your list; please remove %d clients first",
		e.Slots, e.Clients, e.Clients-e.Slots)
}

func (e *CapacityError) Unwrap() error { return ErrInsufficientCapacity }

// PersistenceError reports a failed local write. Remote reports whether the
// gateway had already confirmed the change when the write failed, which is the
// one genuinely fatal case.
type PersistenceError struct {
	Op     string
	Remote bool
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
