package repository

import (
	"errors"
	"strings"
	"time"

	"leave-balance-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type LeaveSessionRepository interface {
	Create(session *models.LeaveSession) error
	Update(session *models.LeaveSession) error
	GetByID(id uint) (*models.LeaveSession, error)
	GetActiveByUserID(userID uint) (*models.LeaveSession, error)
	GetAllActive() ([]*models.LeaveSession, error)
	GetByUserID(userID uint, limit int) ([]*models.LeaveSession, error)
	ExtendPlanned(sessionID uint, additionalMinutes int) error
	SumActualByUserAndDate(userID uint, date time.Time) (int, error)
	SetReminderBucket(sessionID uint, bucket int) error
	MarkFinalWarningSent(sessionID uint) error
	MarkAutoConverted(sessionID uint) error
}

type GormLeaveSessionRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormLeaveSessionRepository(db *gorm.DB) (*GormLeaveSessionRepository, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	// Автомиграция
	if err := db.AutoMigrate(&models.LeaveSession{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate leave_sessions table")
		return nil, err
	}

	// Частичный уникальный индекс: не больше одной активной отлучки на пользователя.
	// Ограничение живет в хранилище, поэтому проверка-перед-вставкой не может
	// проскочить при гонке конкурентных задач.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_leave_sessions_one_active " +
			"ON leave_sessions(user_id) WHERE end_time IS NULL",
	).Error; err != nil {
		logger.WithError(err).Error("Failed to create active-session index")
		return nil, err
	}

	logger.Info("Leave session repository initialized")

	return &GormLeaveSessionRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormLeaveSessionRepository) Create(session *models.LeaveSession) error {
	r.logger.WithFields(logrus.Fields{
		"user_id":         session.UserID,
		"planned_minutes": session.PlannedMinutes,
	}).Info("Creating leave session")

	if !session.IsValid() {
		r.logger.WithField("user_id", session.UserID).Warn("Invalid leave session data")
		return &models.ValidationError{Message: "некорректные данные отлучки"}
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.LeaveSession{}).
			Where("user_id = ? AND end_time IS NULL", session.UserID).
			Count(&count).Error; err != nil {
			return &models.StoreError{Op: "leave_sessions.create", Err: err}
		}

		if count > 0 {
			return &models.ConflictError{Message: "у вас уже есть активная отлучка"}
		}

		if err := tx.Create(session).Error; err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				// Гонку поймал частичный индекс
				return &models.ConflictError{Message: "у вас уже есть активная отлучка"}
			}
			return &models.StoreError{Op: "leave_sessions.create", Err: err}
		}

		return nil
	})

	if err != nil {
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"id":      session.ID,
		"user_id": session.UserID,
		"date":    session.Date.Format("2006-01-02"),
	}).Info("Leave session created successfully")

	return nil
}

func (r *GormLeaveSessionRepository) Update(session *models.LeaveSession) error {
	r.logger.WithFields(logrus.Fields{
		"id":      session.ID,
		"user_id": session.UserID,
		"status":  session.Status,
	}).Info("Updating leave session")

	if err := r.db.Save(session).Error; err != nil {
		r.logger.WithError(err).Error("Failed to update leave session")
		return &models.StoreError{Op: "leave_sessions.update", Err: err}
	}

	return nil
}

func (r *GormLeaveSessionRepository) GetByID(id uint) (*models.LeaveSession, error) {
	var session models.LeaveSession
	result := r.db.Preload("User").First(&session, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Leave session not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get leave session by ID")
		return nil, &models.StoreError{Op: "leave_sessions.get_by_id", Err: result.Error}
	}

	return &session, nil
}

func (r *GormLeaveSessionRepository) GetActiveByUserID(userID uint) (*models.LeaveSession, error) {
	var session models.LeaveSession
	result := r.db.Where("user_id = ? AND end_time IS NULL", userID).First(&session)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("user_id", userID).Debug("No active leave session found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get active leave session")
		return nil, &models.StoreError{Op: "leave_sessions.get_active", Err: result.Error}
	}

	return &session, nil
}

func (r *GormLeaveSessionRepository) GetAllActive() ([]*models.LeaveSession, error) {
	var sessions []*models.LeaveSession
	result := r.db.Preload("User").
		Where("end_time IS NULL").
		Order("start_time ASC").
		Find(&sessions)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get active leave sessions")
		return nil, &models.StoreError{Op: "leave_sessions.get_all_active", Err: result.Error}
	}

	return sessions, nil
}

func (r *GormLeaveSessionRepository) GetByUserID(userID uint, limit int) ([]*models.LeaveSession, error) {
	var sessions []*models.LeaveSession

	query := r.db.Where("user_id = ?", userID).Order("start_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&sessions).Error; err != nil {
		r.logger.WithError(err).Error("Failed to get leave sessions by user ID")
		return nil, &models.StoreError{Op: "leave_sessions.get_by_user", Err: err}
	}

	return sessions, nil
}

func (r *GormLeaveSessionRepository) ExtendPlanned(sessionID uint, additionalMinutes int) error {
	r.logger.WithFields(logrus.Fields{
		"id":                 sessionID,
		"additional_minutes": additionalMinutes,
	}).Info("Extending leave session")

	result := r.db.Model(&models.LeaveSession{}).
		Where("id = ? AND end_time IS NULL", sessionID).
		Update("planned_minutes", gorm.Expr("planned_minutes + ?", additionalMinutes))

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to extend leave session")
		return &models.StoreError{Op: "leave_sessions.extend", Err: result.Error}
	}

	if result.RowsAffected == 0 {
		r.logger.WithField("id", sessionID).Warn("No active leave session to extend")
		return &models.NotFoundError{Message: "активная отлучка не найдена"}
	}

	return nil
}

func (r *GormLeaveSessionRepository) SumActualByUserAndDate(userID uint, date time.Time) (int, error) {
	var total int64
	result := r.db.Model(&models.LeaveSession{}).
		Select("COALESCE(SUM(actual_minutes), 0)").
		Where("user_id = ? AND DATE(date) = ?", userID, date.Format("2006-01-02")).
		Scan(&total)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to sum leave minutes")
		return 0, &models.StoreError{Op: "leave_sessions.sum_by_date", Err: result.Error}
	}

	return int(total), nil
}

func (r *GormLeaveSessionRepository) SetReminderBucket(sessionID uint, bucket int) error {
	result := r.db.Model(&models.LeaveSession{}).
		Where("id = ?", sessionID).
		Update("last_reminder_bucket", bucket)

	if result.Error != nil {
		return &models.StoreError{Op: "leave_sessions.set_reminder_bucket", Err: result.Error}
	}

	if result.RowsAffected == 0 {
		return &models.NotFoundError{Message: "отлучка не найдена"}
	}

	return nil
}

func (r *GormLeaveSessionRepository) MarkFinalWarningSent(sessionID uint) error {
	result := r.db.Model(&models.LeaveSession{}).
		Where("id = ?", sessionID).
		Update("final_warning_sent", true)

	if result.Error != nil {
		return &models.StoreError{Op: "leave_sessions.mark_final_warning", Err: result.Error}
	}

	if result.RowsAffected == 0 {
		return &models.NotFoundError{Message: "отлучка не найдена"}
	}

	return nil
}

func (r *GormLeaveSessionRepository) MarkAutoConverted(sessionID uint) error {
	result := r.db.Model(&models.LeaveSession{}).
		Where("id = ?", sessionID).
		Update("auto_converted", true)

	if result.Error != nil {
		return &models.StoreError{Op: "leave_sessions.mark_auto_converted", Err: result.Error}
	}

	if result.RowsAffected == 0 {
		return &models.NotFoundError{Message: "отлучка не найдена"}
	}

	return nil
}
