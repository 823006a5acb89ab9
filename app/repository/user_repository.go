package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/fitfox/FitFox/app/models"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user with their subscription and plan loaded
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.Preload("Subscription.Plan").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete soft deletes a user by their ID
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// List retrieves a paginated list of users
func (r *userRepository) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

// Count returns the total number of users
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// Search searches for users by name or email
func (r *userRepository) Search(query string) ([]models.User, error) {
	var users []models.User
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("name LIKE ? OR email LIKE ?", searchPattern, searchPattern).Find(&users).Error
	return users, err
}

// GetClients returns the client list of a trainer, newest first
func (r *userRepository) GetClients(trainerID uint) ([]models.User, error) {
	var clients []models.User
	err := r.db.
		Joins("JOIN trainers_clients tc ON tc.client_id = users.id").
		Where("tc.trainer_id = ?", trainerID).
		Order("users.created_at DESC").
		Find(&clients).Error
	return clients, err
}

// CountClients returns how many clients a trainer currently coaches
func (r *userRepository) CountClients(trainerID uint) (int64, error) {
	var count int64
	err := r.db.Table("trainers_clients").Where("trainer_id = ?", trainerID).Count(&count).Error
	return count, err
}

// AddClient links a client to a trainer
func (r *userRepository) AddClient(trainerID, clientID uint) error {
	var trainer models.User
	trainer.ID = trainerID
	return r.db.Model(&trainer).Association("Clients").Append(&models.User{ID: clientID})
}

// RemoveClient unlinks a client from a trainer
func (r *userRepository) RemoveClient(trainerID, clientID uint) error {
	var trainer models.User
	trainer.ID = trainerID
	return r.db.Model(&trainer).Association("Clients").Delete(&models.User{ID: clientID})
}
