package jobqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/fitfox/FitFox/app/models"
	"github.com/fitfox/FitFox/internal/pkg/database"
	"github.com/fitfox/FitFox/internal/pkg/mail"
)

// processExpiredNoticeJob mails the expiry notice to the affected user
func (q *Queue) processExpiredNoticeJob(ctx context.Context, job *Job) error {
	payload, err := ExpiredNoticeJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid expired notice payload: %w", err)
	}

	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database unavailable")
	}

	var user models.User
	if err := db.WithContext(ctx).First(&user, payload.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// User deleted since the job was enqueued; nothing to notify
			log.Warnf("[JobQueue] Expired notice for missing user %d, dropping", payload.UserID)
			return nil
		}
		return fmt.Errorf("load user %d: %w", payload.UserID, err)
	}

	if err := mail.SendSubscriptionExpired(user.Email, user.Name); err != nil {
		return fmt.Errorf("send expiry notice to user %d: %w", user.ID, err)
	}

	log.Infof("[JobQueue] Expiry notice sent to user %d", user.ID)
	return nil
}
