package billing

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fitfox/FitFox/app/models"
)

// Repository provides the DB operations used by the billing service.
type Repository interface {
	GetUser(id uint) (*models.User, error)
	GetPlan(id uint) (*models.Plan, error)
	GetSubscriptionByUserID(userID uint) (*models.Subscription, error)
	CreateSubscription(sub *models.Subscription) error
	SaveSubscription(sub *models.Subscription) error
	CountClients(trainerID uint) (int, error)
	// ListExpirable returns active subscriptions whose billing period lapsed
	// before the cutoff, for the expiration sweep.
	ListExpirable(cutoff time.Time) ([]models.Subscription, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) GetPlan(id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("is_active = ?", true).First(&plan, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormRepository) GetSubscriptionByUserID(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Preload("Plan").Where("user_id = ?", userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) CreateSubscription(sub *models.Subscription) error {
	err := r.db.Create(sub).Error
	// user_id carries a unique index; a duplicate create means a subscription
	// already exists for this account.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSubscriptionExists
	}
	return err
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) CountClients(trainerID uint) (int, error) {
	var count int64
	err := r.db.Table("trainers_clients").Where("trainer_id = ?", trainerID).Count(&count).Error
	return int(count), err
}

func (r *gormRepository) ListExpirable(cutoff time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.
		Where("active = ? AND current_period_end IS NOT NULL AND current_period_end < ?", true, cutoff).
		Find(&subs).Error
	return subs, err
}
