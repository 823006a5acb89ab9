package jobqueue

// QueueAnalyticsSink feeds billing analytics events into the job queue so
// delivery never blocks a subscription state change.
type QueueAnalyticsSink struct {
	queue *Queue
}

// NewQueueAnalyticsSink creates an analytics sink backed by the given queue
func NewQueueAnalyticsSink(q *Queue) *QueueAnalyticsSink {
	return &QueueAnalyticsSink{queue: q}
}

// Record enqueues one analytics event for asynchronous delivery
func (s *QueueAnalyticsSink) Record(userID uint, event string, properties map[string]any) error {
	payload := AnalyticsEventJobPayload{
		UserID:     userID,
		Event:      event,
		Properties: properties,
	}
	_, err := s.queue.EnqueueJob(JobTypeAnalyticsEvent, payload.ToMap())
	return err
}

// QueueNotificationSink feeds expiry notices into the job queue
type QueueNotificationSink struct {
	queue *Queue
}

// NewQueueNotificationSink creates a notification sink backed by the given queue
func NewQueueNotificationSink(q *Queue) *QueueNotificationSink {
	return &QueueNotificationSink{queue: q}
}

// NotifyExpired enqueues the expiry notice mail for asynchronous delivery
func (s *QueueNotificationSink) NotifyExpired(userID uint) error {
	payload := ExpiredNoticeJobPayload{UserID: userID}
	_, err := s.queue.EnqueueJob(JobTypeExpiredNotice, payload.ToMap())
	return err
}
