package repository

import (
	"errors"

	"leave-balance-bot/internal/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *models.User) error
	Update(user *models.User) error
	GetByChatID(chatID int64) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	GetAll() ([]*models.User, error)
	UpdateRole(chatID int64, role models.Role) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) (*GormUserRepository, error) {
	// Автомиграция - создает таблицы если их нет
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return nil, err
	}

	return &GormUserRepository{db: db}, nil
}

func (r *GormUserRepository) Create(user *models.User) error {
	// Проверяем, существует ли уже пользователь
	var existingUser models.User
	result := r.db.Where("chat_id = ?", user.ChatID).First(&existingUser)
	if result.Error == nil {
		return &models.ConflictError{Message: "пользователь уже существует"}
	}

	if err := r.db.Create(user).Error; err != nil {
		return &models.StoreError{Op: "users.create", Err: err}
	}

	return nil
}

func (r *GormUserRepository) Update(user *models.User) error {
	// Проверяем существование пользователя
	var existingUser models.User
	result := r.db.Where("chat_id = ?", user.ChatID).First(&existingUser)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return &models.NotFoundError{Message: "пользователь не найден"}
	}

	if err := r.db.Save(user).Error; err != nil {
		return &models.StoreError{Op: "users.update", Err: err}
	}

	return nil
}

func (r *GormUserRepository) GetByChatID(chatID int64) (*models.User, error) {
	var user models.User
	result := r.db.Where("chat_id = ?", chatID).First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, &models.StoreError{Op: "users.get_by_chat_id", Err: result.Error}
	}

	return &user, nil
}

func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	result := r.db.First(&user, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, &models.StoreError{Op: "users.get_by_id", Err: result.Error}
	}

	return &user, nil
}

func (r *GormUserRepository) GetAll() ([]*models.User, error) {
	var users []*models.User
	if err := r.db.Find(&users).Error; err != nil {
		return nil, &models.StoreError{Op: "users.get_all", Err: err}
	}

	return users, nil
}

func (r *GormUserRepository) UpdateRole(chatID int64, role models.Role) error {
	result := r.db.Model(&models.User{}).
		Where("chat_id = ?", chatID).
		Update("role", role)

	if result.Error != nil {
		return &models.StoreError{Op: "users.update_role", Err: result.Error}
	}

	if result.RowsAffected == 0 {
		return &models.NotFoundError{Message: "пользователь не найден"}
	}

	return nil
}
