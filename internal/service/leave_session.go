package service

import (
	"fmt"
	"time"

	"leave-balance-bot/internal/models"
	"leave-balance-bot/internal/repository"
	"leave-balance-bot/pkg/timeutil"

	"github.com/sirupsen/logrus"
)

type LeaveSessionService struct {
	sessionRepo    repository.LeaveSessionRepository
	summaryService *DailySummaryService
	capMinutes     int
	logger         *logrus.Logger
}

func NewLeaveSessionService(
	sessionRepo repository.LeaveSessionRepository,
	summaryService *DailySummaryService,
	capMinutes int,
) *LeaveSessionService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &LeaveSessionService{
		sessionRepo:    sessionRepo,
		summaryService: summaryService,
		capMinutes:     capMinutes,
		logger:         logger,
	}
}

// StartLeave открывает отлучку
func (s *LeaveSessionService) StartLeave(userID uint, startTime time.Time, plannedMinutes int, reason string) (*models.LeaveSession, error) {
	s.logger.WithFields(logrus.Fields{
		"user_id":         userID,
		"start_time":      startTime.Format("15:04"),
		"planned_minutes": plannedMinutes,
	}).Info("User starting leave")

	if plannedMinutes <= 0 {
		return nil, &models.ValidationError{Message: "длительность отлучки должна быть больше нуля"}
	}

	session := &models.LeaveSession{
		UserID:         userID,
		Date:           timeutil.DateOnly(startTime),
		StartTime:      startTime,
		PlannedMinutes: plannedMinutes,
		Reason:         reason,
		Status:         models.StatusActive,
	}

	if err := s.sessionRepo.Create(session); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to start leave")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"id":      session.ID,
		"user_id": userID,
	}).Info("Leave session started")

	return session, nil
}

// ExtendLeave продлевает активную отлучку.
// Только добавляет плановые минуты; верхнюю границу (8 часов) проверяет вызывающий.
func (s *LeaveSessionService) ExtendLeave(sessionID uint, additionalMinutes int) error {
	s.logger.WithFields(logrus.Fields{
		"id":                 sessionID,
		"additional_minutes": additionalMinutes,
	}).Info("Extending leave session")

	if additionalMinutes <= 0 {
		return &models.ValidationError{Message: "длительность продления должна быть больше нуля"}
	}

	return s.sessionRepo.ExtendPlanned(sessionID, additionalMinutes)
}

// EndLeave закрывает активную отлучку и пересчитывает дневную сводку.
// Единый путь закрытия: и /return пользователя, и автоконвертация
// планировщика проходят здесь.
func (s *LeaveSessionService) EndLeave(userID uint, endTime time.Time) (*models.LeaveSession, error) {
	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"end_time": endTime.Format("15:04"),
	}).Info("User ending leave")

	session, err := s.sessionRepo.GetActiveByUserID(userID)
	if err != nil {
		return nil, err
	}

	if session == nil {
		s.logger.WithField("user_id", userID).Warn("No active leave session to end")
		return nil, &models.NotFoundError{Message: "у вас нет активной отлучки"}
	}

	session.Close(endTime, s.capMinutes)

	if err := s.sessionRepo.Update(session); err != nil {
		return nil, err
	}

	if _, err := s.summaryService.Recompute(userID, session.Date); err != nil {
		s.logger.WithError(err).Error("Failed to recompute daily summary after leave end")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"id":             session.ID,
		"user_id":        userID,
		"actual_minutes": session.ActualMinutes,
		"half_day":       session.HalfDay,
	}).Info("Leave session ended")

	return session, nil
}

// GetActiveSession возвращает активную отлучку пользователя
func (s *LeaveSessionService) GetActiveSession(userID uint) (*models.LeaveSession, error) {
	return s.sessionRepo.GetActiveByUserID(userID)
}

// GetSessionHistory возвращает историю отлучек
func (s *LeaveSessionService) GetSessionHistory(userID uint, limit int) ([]*models.LeaveSession, error) {
	return s.sessionRepo.GetByUserID(userID, limit)
}

// FormatSession форматирует отлучку для отображения
func (s *LeaveSessionService) FormatSession(session *models.LeaveSession) string {
	if session == nil {
		return "❌ Отлучка не найдена"
	}

	statusEmoji := "🟢"
	if session.Status == models.StatusCompleted {
		statusEmoji = "✅"
	}

	result := fmt.Sprintf(
		`%s Отлучка от %s
🕐 Начало: %s
📋 План: %s
🔙 Ожидаемое возвращение: %s`,
		statusEmoji,
		session.Date.Format("02.01.2006"),
		session.StartTime.Format("15:04"),
		timeutil.FormatMinutes(session.PlannedMinutes),
		session.ExpectedReturn().Format("15:04"),
	)

	if session.EndTime != nil {
		result += fmt.Sprintf("\n🏁 Возвращение: %s", session.EndTime.Format("15:04"))
		result += fmt.Sprintf("\n⏳ Фактически: %s", timeutil.FormatMinutes(session.ActualMinutes))
	}

	if session.HalfDay {
		result += "\n\n📅 Засчитано как полдня отпуска"
	}

	if session.Reason != "" {
		result += fmt.Sprintf("\n\n📝 Причина: %s", session.Reason)
	}

	return result
}
