package billing

// AnalyticsSink records billing events. Calls are best-effort: the service
// logs failures and never lets them block or fail a state transition.
type AnalyticsSink interface {
	Record(userID uint, event string, properties map[string]any) error
}

// NotificationSink notifies a user about a terminal transition (expiration).
// Best-effort in the same way as AnalyticsSink.
type NotificationSink interface {
	NotifyExpired(userID uint) error
}

// Event names recorded through the analytics sink.
const (
	EventChangedPlan           = "Changed plan"
	EventCancelledSubscription = "Cancelled Subscription"
	EventExpiredSubscription   = "Expired Subscription"
)
