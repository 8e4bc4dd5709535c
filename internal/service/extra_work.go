package service

import (
	"fmt"
	"time"

	"leave-balance-bot/internal/models"
	"leave-balance-bot/internal/repository"
	"leave-balance-bot/pkg/timeutil"

	"github.com/sirupsen/logrus"
)

type ExtraWorkService struct {
	sessionRepo    repository.ExtraWorkSessionRepository
	summaryService *DailySummaryService
	logger         *logrus.Logger
}

func NewExtraWorkService(
	sessionRepo repository.ExtraWorkSessionRepository,
	summaryService *DailySummaryService,
) *ExtraWorkService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &ExtraWorkService{
		sessionRepo:    sessionRepo,
		summaryService: summaryService,
		logger:         logger,
	}
}

// StartWork открывает сессию отработки
func (s *ExtraWorkService) StartWork(userID uint, startTime time.Time, reason string) (*models.ExtraWorkSession, error) {
	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"start_time": startTime.Format("15:04"),
	}).Info("User starting extra work")

	session := &models.ExtraWorkSession{
		UserID:    userID,
		Date:      timeutil.DateOnly(startTime),
		StartTime: startTime,
		Reason:    reason,
		Status:    models.StatusActive,
	}

	if err := s.sessionRepo.Create(session); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to start extra work")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"id":      session.ID,
		"user_id": userID,
	}).Info("Extra work session started")

	return session, nil
}

// EndWork закрывает активную отработку и пересчитывает дневную сводку.
// Описание работы опционально на этом уровне; команда /endwork требует его.
func (s *ExtraWorkService) EndWork(userID uint, endTime time.Time, description string) (*models.ExtraWorkSession, error) {
	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"end_time": endTime.Format("15:04"),
	}).Info("User ending extra work")

	session, err := s.sessionRepo.GetActiveByUserID(userID)
	if err != nil {
		return nil, err
	}

	if session == nil {
		s.logger.WithField("user_id", userID).Warn("No active extra work session to end")
		return nil, &models.NotFoundError{Message: "у вас нет активной отработки"}
	}

	session.Close(endTime, description)

	if err := s.sessionRepo.Update(session); err != nil {
		return nil, err
	}

	if _, err := s.summaryService.Recompute(userID, session.Date); err != nil {
		s.logger.WithError(err).Error("Failed to recompute daily summary after work end")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"id":               session.ID,
		"user_id":          userID,
		"duration_minutes": session.DurationMinutes,
	}).Info("Extra work session ended")

	return session, nil
}

// GetActiveSession возвращает активную отработку пользователя
func (s *ExtraWorkService) GetActiveSession(userID uint) (*models.ExtraWorkSession, error) {
	return s.sessionRepo.GetActiveByUserID(userID)
}

// GetSessionHistory возвращает историю отработок
func (s *ExtraWorkService) GetSessionHistory(userID uint, limit int) ([]*models.ExtraWorkSession, error) {
	return s.sessionRepo.GetByUserID(userID, limit)
}

// FormatSession форматирует отработку для отображения
func (s *ExtraWorkService) FormatSession(session *models.ExtraWorkSession) string {
	if session == nil {
		return "❌ Отработка не найдена"
	}

	statusEmoji := "🟢"
	if session.Status == models.StatusCompleted {
		statusEmoji = "✅"
	}

	result := fmt.Sprintf(
		`%s Отработка от %s
🕐 Начало: %s`,
		statusEmoji,
		session.Date.Format("02.01.2006"),
		session.StartTime.Format("15:04"),
	)

	if session.EndTime != nil {
		result += fmt.Sprintf("\n🏁 Окончание: %s", session.EndTime.Format("15:04"))
		result += fmt.Sprintf("\n⏳ Отработано: %s", timeutil.FormatMinutes(session.DurationMinutes))
	}

	if session.Reason != "" {
		result += fmt.Sprintf("\n\n📝 Причина: %s", session.Reason)
	}

	if session.WorkDescription != "" {
		result += fmt.Sprintf("\n🛠 Что сделано: %s", session.WorkDescription)
	}

	return result
}
