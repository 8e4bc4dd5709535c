package repository

import (
	"errors"
	"strings"
	"time"

	"leave-balance-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DailySummaryRepository interface {
	Upsert(summary *models.DailySummary) error
	GetByUserAndDate(userID uint, date time.Time) (*models.DailySummary, error)
	GetByDate(date time.Time) ([]*models.DailySummary, error)
	GetByUserID(userID uint, limit int) ([]*models.DailySummary, error)
}

type GormDailySummaryRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormDailySummaryRepository(db *gorm.DB) (*GormDailySummaryRepository, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	// Автомиграция
	if err := db.AutoMigrate(&models.DailySummary{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate daily_summaries table")
		return nil, err
	}

	logger.Info("Daily summary repository initialized")

	return &GormDailySummaryRepository{
		db:     db,
		logger: logger,
	}, nil
}

// Upsert записывает агрегат по (пользователь, дата), создавая или обновляя
// строку. Чтение и запись идут в одной транзакции; гонку первых записей,
// проскочившую мимо чтения, ловит уникальный индекс, и проигравший
// превращает вставку в обновление.
func (r *GormDailySummaryRepository) Upsert(summary *models.DailySummary) error {
	r.logger.WithFields(logrus.Fields{
		"user_id":         summary.UserID,
		"date":            summary.Date.Format("2006-01-02"),
		"pending_minutes": summary.PendingMinutes,
	}).Debug("Upserting daily summary")

	if !summary.IsValid() {
		r.logger.WithField("user_id", summary.UserID).Warn("Invalid daily summary data")
		return &models.ValidationError{Message: "некорректные данные дневной сводки"}
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.DailySummary
		result := tx.Where("user_id = ? AND DATE(date) = ?", summary.UserID, summary.Date.Format("2006-01-02")).
			First(&existing)

		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			err := tx.Create(summary).Error
			if err == nil {
				return nil
			}
			if !strings.Contains(err.Error(), "UNIQUE constraint failed") {
				r.logger.WithError(err).Error("Failed to create daily summary")
				return &models.StoreError{Op: "daily_summaries.create", Err: err}
			}
			// Конкурентная первая запись успела раньше - дочитываем ее строку
			if err := tx.Where("user_id = ? AND DATE(date) = ?", summary.UserID, summary.Date.Format("2006-01-02")).
				First(&existing).Error; err != nil {
				return &models.StoreError{Op: "daily_summaries.get", Err: err}
			}
		} else if result.Error != nil {
			r.logger.WithError(result.Error).Error("Failed to get daily summary")
			return &models.StoreError{Op: "daily_summaries.get", Err: result.Error}
		}

		summary.ID = existing.ID
		summary.CreatedAt = existing.CreatedAt
		summary.UpdatedAt = time.Now()

		if err := tx.Save(summary).Error; err != nil {
			r.logger.WithError(err).Error("Failed to update daily summary")
			return &models.StoreError{Op: "daily_summaries.update", Err: err}
		}

		return nil
	})
}

func (r *GormDailySummaryRepository) GetByUserAndDate(userID uint, date time.Time) (*models.DailySummary, error) {
	var summary models.DailySummary
	result := r.db.Where("user_id = ? AND DATE(date) = ?", userID, date.Format("2006-01-02")).First(&summary)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"date":    date.Format("2006-01-02"),
		}).Debug("Daily summary not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get daily summary")
		return nil, &models.StoreError{Op: "daily_summaries.get", Err: result.Error}
	}

	return &summary, nil
}

func (r *GormDailySummaryRepository) GetByDate(date time.Time) ([]*models.DailySummary, error) {
	var summaries []*models.DailySummary
	result := r.db.Preload("User").
		Where("DATE(date) = ?", date.Format("2006-01-02")).
		Order("user_id ASC").
		Find(&summaries)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get daily summaries by date")
		return nil, &models.StoreError{Op: "daily_summaries.get_by_date", Err: result.Error}
	}

	return summaries, nil
}

func (r *GormDailySummaryRepository) GetByUserID(userID uint, limit int) ([]*models.DailySummary, error) {
	var summaries []*models.DailySummary

	query := r.db.Where("user_id = ?", userID).Order("date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&summaries).Error; err != nil {
		r.logger.WithError(err).Error("Failed to get daily summaries by user ID")
		return nil, &models.StoreError{Op: "daily_summaries.get_by_user", Err: err}
	}

	return summaries, nil
}
