package repository

import (
	"errors"
	"time"

	"leave-balance-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type LeaveRequestRepository interface {
	Create(request *models.LeaveRequest) error
	GetByID(id uint) (*models.LeaveRequest, error)
	GetPending() ([]*models.LeaveRequest, error)
	GetPendingByUserID(userID uint) ([]*models.LeaveRequest, error)
	Decide(id uint, status string, approverID int64, decidedAt time.Time) (*models.LeaveRequest, error)
}

type GormLeaveRequestRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormLeaveRequestRepository(db *gorm.DB) (*GormLeaveRequestRepository, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	// Автомиграция
	if err := db.AutoMigrate(&models.LeaveRequest{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate leave_requests table")
		return nil, err
	}

	logger.Info("Leave request repository initialized")

	return &GormLeaveRequestRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormLeaveRequestRepository) Create(request *models.LeaveRequest) error {
	r.logger.WithFields(logrus.Fields{
		"user_id": request.UserID,
		"type":    request.Type,
	}).Info("Creating leave request")

	if !request.IsValid() {
		r.logger.WithField("user_id", request.UserID).Warn("Invalid leave request data")
		return &models.ValidationError{Message: "некорректные данные заявки"}
	}

	if err := r.db.Create(request).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create leave request")
		return &models.StoreError{Op: "leave_requests.create", Err: err}
	}

	r.logger.WithFields(logrus.Fields{
		"id":      request.ID,
		"user_id": request.UserID,
		"type":    request.Type,
	}).Info("Leave request created successfully")

	return nil
}

func (r *GormLeaveRequestRepository) GetByID(id uint) (*models.LeaveRequest, error) {
	var request models.LeaveRequest
	result := r.db.Preload("User").First(&request, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Leave request not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get leave request by ID")
		return nil, &models.StoreError{Op: "leave_requests.get_by_id", Err: result.Error}
	}

	return &request, nil
}

func (r *GormLeaveRequestRepository) GetPending() ([]*models.LeaveRequest, error) {
	var requests []*models.LeaveRequest
	result := r.db.Preload("User").
		Where("status = ?", models.RequestStatusPending).
		Order("created_at ASC").
		Find(&requests)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get pending leave requests")
		return nil, &models.StoreError{Op: "leave_requests.get_pending", Err: result.Error}
	}

	return requests, nil
}

func (r *GormLeaveRequestRepository) GetPendingByUserID(userID uint) ([]*models.LeaveRequest, error) {
	var requests []*models.LeaveRequest
	result := r.db.Where("user_id = ? AND status = ?", userID, models.RequestStatusPending).
		Order("created_at ASC").
		Find(&requests)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get pending requests by user ID")
		return nil, &models.StoreError{Op: "leave_requests.get_pending_by_user", Err: result.Error}
	}

	return requests, nil
}

// Decide переводит заявку pending -> approved/denied ровно один раз.
// Условие status = 'pending' в UPDATE делает переход атомарным: повторное
// нажатие кнопки не проходит, даже если два решения пришли одновременно.
func (r *GormLeaveRequestRepository) Decide(id uint, status string, approverID int64, decidedAt time.Time) (*models.LeaveRequest, error) {
	r.logger.WithFields(logrus.Fields{
		"id":          id,
		"status":      status,
		"approver_id": approverID,
	}).Info("Deciding leave request")

	result := r.db.Model(&models.LeaveRequest{}).
		Where("id = ? AND status = ?", id, models.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"approver_id": approverID,
			"decided_at":  decidedAt,
			"updated_at":  time.Now(),
		})

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to decide leave request")
		return nil, &models.StoreError{Op: "leave_requests.decide", Err: result.Error}
	}

	if result.RowsAffected == 0 {
		// Либо заявки нет, либо она уже обработана - различаем чтением
		existing, err := r.GetByID(id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			r.logger.WithField("id", id).Warn("Leave request not found for decision")
			return nil, &models.NotFoundError{Message: "заявка не найдена"}
		}

		r.logger.WithFields(logrus.Fields{
			"id":     id,
			"status": existing.Status,
		}).Warn("Leave request already decided")
		return nil, &models.AlreadyDecidedError{RequestID: id, Status: existing.Status}
	}

	request, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"id":     id,
		"status": status,
	}).Info("Leave request decided successfully")

	return request, nil
}
