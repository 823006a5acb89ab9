package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
)

// processAnalyticsEventJob delivers one tracked event to the analytics backend
func (q *Queue) processAnalyticsEventJob(ctx context.Context, job *Job) error {
	payload, err := AnalyticsEventJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid analytics payload: %w", err)
	}

	if payload.UserID == 0 || payload.Event == "" {
		return fmt.Errorf("analytics payload missing user_id or event")
	}

	if q.analytics.WriteKey == "" {
		// Tracking is optional; without a write key the event is dropped
		log.Debugf("[JobQueue] Analytics disabled, dropping event %q for user %d", payload.Event, payload.UserID)
		return nil
	}

	if err := q.analytics.Track(ctx, payload.UserID, payload.Event, payload.Properties); err != nil {
		return fmt.Errorf("track %q for user %d: %w", payload.Event, payload.UserID, err)
	}

	log.Infof("[JobQueue] Tracked %q for user %d", payload.Event, payload.UserID)
	return nil
}
