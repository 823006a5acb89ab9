package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/fitfox/FitFox/app/models"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create creates a new subscription row
func (r *subscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

// GetByUserID retrieves a user's subscription with its plan loaded
func (r *subscriptionRepository) GetByUserID(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Preload("Plan").Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Save persists all fields of an existing subscription
func (r *subscriptionRepository) Save(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

// CountActive returns the number of currently active subscriptions
func (r *subscriptionRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).Where("active = ?", true).Count(&count).Error
	return count, err
}

// ListExpirable returns active subscriptions whose paid period ended before cutoff
func (r *subscriptionRepository) ListExpirable(cutoff time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Preload("Plan").
		Where("active = ? AND current_period_end IS NOT NULL AND current_period_end < ?", true, cutoff).
		Find(&subs).Error
	return subs, err
}
