package jobqueue

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2/log"
)

// SubscriptionExpirer expires all overdue subscriptions and reports how many
// it touched. Implemented by the billing service; registered at startup.
type SubscriptionExpirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

var (
	expirerMu sync.RWMutex
	expirer   SubscriptionExpirer
)

// SetSubscriptionExpirer registers the expirer used by sweep jobs
func SetSubscriptionExpirer(e SubscriptionExpirer) {
	expirerMu.Lock()
	defer expirerMu.Unlock()
	expirer = e
}

func getSubscriptionExpirer() SubscriptionExpirer {
	expirerMu.RLock()
	defer expirerMu.RUnlock()
	return expirer
}

// processSubscriptionSweepJob expires every subscription past its period end
func (q *Queue) processSubscriptionSweepJob(ctx context.Context, job *Job) error {
	e := getSubscriptionExpirer()
	if e == nil {
		return fmt.Errorf("no subscription expirer registered")
	}

	expired, err := e.ExpireOverdue(ctx)
	if err != nil {
		return fmt.Errorf("subscription sweep: %w", err)
	}

	if expired > 0 {
		log.Infof("[JobQueue] Subscription sweep expired %d subscriptions", expired)
	} else {
		log.Debug("[JobQueue] Subscription sweep found nothing to expire")
	}
	return nil
}
