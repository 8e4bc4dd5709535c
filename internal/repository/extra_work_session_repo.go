package repository

import (
	"errors"
	"strings"
	"time"

	"leave-balance-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ExtraWorkSessionRepository interface {
	Create(session *models.ExtraWorkSession) error
	Update(session *models.ExtraWorkSession) error
	GetByID(id uint) (*models.ExtraWorkSession, error)
	GetActiveByUserID(userID uint) (*models.ExtraWorkSession, error)
	GetAllActive() ([]*models.ExtraWorkSession, error)
	GetByUserID(userID uint, limit int) ([]*models.ExtraWorkSession, error)
	SumDurationByUserAndDate(userID uint, date time.Time) (int, error)
	MarkCompletionNotified(sessionID uint) error
}

type GormExtraWorkSessionRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormExtraWorkSessionRepository(db *gorm.DB) (*GormExtraWorkSessionRepository, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	// Автомиграция
	if err := db.AutoMigrate(&models.ExtraWorkSession{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate extra_work_sessions table")
		return nil, err
	}

	// Не больше одной активной отработки на пользователя, ограничение в хранилище
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_extra_work_sessions_one_active " +
			"ON extra_work_sessions(user_id) WHERE end_time IS NULL",
	).Error; err != nil {
		logger.WithError(err).Error("Failed to create active-session index")
		return nil, err
	}

	logger.Info("Extra work session repository initialized")

	return &GormExtraWorkSessionRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormExtraWorkSessionRepository) Create(session *models.ExtraWorkSession) error {
	r.logger.WithFields(logrus.Fields{
		"user_id": session.UserID,
		"date":    session.Date.Format("2006-01-02"),
	}).Info("Creating extra work session")

	if !session.IsValid() {
		r.logger.WithField("user_id", session.UserID).Warn("Invalid extra work session data")
		return &models.ValidationError{Message: "некорректные данные отработки"}
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ExtraWorkSession{}).
			Where("user_id = ? AND end_time IS NULL", session.UserID).
			Count(&count).Error; err != nil {
			return &models.StoreError{Op: "extra_work_sessions.create", Err: err}
		}

		if count > 0 {
			return &models.ConflictError{Message: "у вас уже есть активная отработка"}
		}

		if err := tx.Create(session).Error; err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return &models.ConflictError{Message: "у вас уже есть активная отработка"}
			}
			return &models.StoreError{Op: "extra_work_sessions.create", Err: err}
		}

		return nil
	})

	if err != nil {
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"id":      session.ID,
		"user_id": session.UserID,
	}).Info("Extra work session created successfully")

	return nil
}

func (r *GormExtraWorkSessionRepository) Update(session *models.ExtraWorkSession) error {
	r.logger.WithFields(logrus.Fields{
		"id":      session.ID,
		"user_id": session.UserID,
		"status":  session.Status,
	}).Info("Updating extra work session")

	if err := r.db.Save(session).Error; err != nil {
		r.logger.WithError(err).Error("Failed to update extra work session")
		return &models.StoreError{Op: "extra_work_sessions.update", Err: err}
	}

	return nil
}

func (r *GormExtraWorkSessionRepository) GetByID(id uint) (*models.ExtraWorkSession, error) {
	var session models.ExtraWorkSession
	result := r.db.Preload("User").First(&session, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Extra work session not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get extra work session by ID")
		return nil, &models.StoreError{Op: "extra_work_sessions.get_by_id", Err: result.Error}
	}

	return &session, nil
}

func (r *GormExtraWorkSessionRepository) GetActiveByUserID(userID uint) (*models.ExtraWorkSession, error) {
	var session models.ExtraWorkSession
	result := r.db.Where("user_id = ? AND end_time IS NULL", userID).First(&session)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("user_id", userID).Debug("No active extra work session found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get active extra work session")
		return nil, &models.StoreError{Op: "extra_work_sessions.get_active", Err: result.Error}
	}

	return &session, nil
}

func (r *GormExtraWorkSessionRepository) GetAllActive() ([]*models.ExtraWorkSession, error) {
	var sessions []*models.ExtraWorkSession
	result := r.db.Preload("User").
		Where("end_time IS NULL").
		Order("start_time ASC").
		Find(&sessions)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get active extra work sessions")
		return nil, &models.StoreError{Op: "extra_work_sessions.get_all_active", Err: result.Error}
	}

	return sessions, nil
}

func (r *GormExtraWorkSessionRepository) GetByUserID(userID uint, limit int) ([]*models.ExtraWorkSession, error) {
	var sessions []*models.ExtraWorkSession

	query := r.db.Where("user_id = ?", userID).Order("start_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&sessions).Error; err != nil {
		r.logger.WithError(err).Error("Failed to get extra work sessions by user ID")
		return nil, &models.StoreError{Op: "extra_work_sessions.get_by_user", Err: err}
	}

	return sessions, nil
}

func (r *GormExtraWorkSessionRepository) SumDurationByUserAndDate(userID uint, date time.Time) (int, error) {
	var total int64
	result := r.db.Model(&models.ExtraWorkSession{}).
		Select("COALESCE(SUM(duration_minutes), 0)").
		Where("user_id = ? AND DATE(date) = ?", userID, date.Format("2006-01-02")).
		Scan(&total)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to sum extra work minutes")
		return 0, &models.StoreError{Op: "extra_work_sessions.sum_by_date", Err: result.Error}
	}

	return int(total), nil
}

func (r *GormExtraWorkSessionRepository) MarkCompletionNotified(sessionID uint) error {
	result := r.db.Model(&models.ExtraWorkSession{}).
		Where("id = ?", sessionID).
		Update("completion_notified", true)

	if result.Error != nil {
		return &models.StoreError{Op: "extra_work_sessions.mark_notified", Err: result.Error}
	}

	if result.RowsAffected == 0 {
		return &models.NotFoundError{Message: "отработка не найдена"}
	}

	return nil
}
