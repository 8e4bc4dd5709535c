package service

import (
	"fmt"
	"time"

	"leave-balance-bot/internal/models"
	"leave-balance-bot/internal/repository"
	"leave-balance-bot/pkg/timeutil"

	"github.com/sirupsen/logrus"
)

// DailySummaryService пересчитывает дневную сводку из строк сессий.
// Пересчет-из-источника вместо инкрементальных правок: агрегат не может
// разъехаться с сессиями, а повторный вызов без изменений дает тот же результат.
type DailySummaryService struct {
	summaryRepo repository.DailySummaryRepository
	leaveRepo   repository.LeaveSessionRepository
	workRepo    repository.ExtraWorkSessionRepository
	capMinutes  int
	logger      *logrus.Logger
}

func NewDailySummaryService(
	summaryRepo repository.DailySummaryRepository,
	leaveRepo repository.LeaveSessionRepository,
	workRepo repository.ExtraWorkSessionRepository,
	capMinutes int,
) *DailySummaryService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &DailySummaryService{
		summaryRepo: summaryRepo,
		leaveRepo:   leaveRepo,
		workRepo:    workRepo,
		capMinutes:  capMinutes,
		logger:      logger,
	}
}

// CapMinutes возвращает лимит компенсации в минутах
func (s *DailySummaryService) CapMinutes() int {
	return s.capMinutes
}

// Recompute пересчитывает сводку пользователя за дату и сохраняет ее.
// Вызывается после каждого закрытия сессии и каждого одобрения с недобором.
func (s *DailySummaryService) Recompute(userID uint, date time.Time) (*models.DailySummary, error) {
	date = timeutil.DateOnly(date)

	leaveMinutes, err := s.leaveRepo.SumActualByUserAndDate(userID, date)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sum leave minutes for summary")
		return nil, err
	}

	workMinutes, err := s.workRepo.SumDurationByUserAndDate(userID, date)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sum extra work minutes for summary")
		return nil, err
	}

	// Недобор хранится в самой сводке, пересчет его не затирает
	shortfall := 0
	existing, err := s.summaryRepo.GetByUserAndDate(userID, date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		shortfall = existing.ShortfallMinutes
	}

	summary := &models.DailySummary{
		UserID:                userID,
		Date:                  date,
		TotalLeaveMinutes:     leaveMinutes,
		TotalExtraWorkMinutes: workMinutes,
		ShortfallMinutes:      shortfall,
	}
	summary.Recalculate(s.capMinutes)

	if err := s.summaryRepo.Upsert(summary); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":          userID,
		"date":             date.Format("2006-01-02"),
		"total_leave":      leaveMinutes,
		"total_extra_work": workMinutes,
		"pending":          summary.PendingMinutes,
	}).Info("Daily summary recomputed")

	return summary, nil
}

// AddShortfall добавляет минуты недобора в сводку за дату.
// Для недобора нет строки-сессии, поэтому он учитывается отдельной колонкой
// и проходит через тот же путь пересчета.
func (s *DailySummaryService) AddShortfall(userID uint, date time.Time, minutes int) (*models.DailySummary, error) {
	if minutes <= 0 {
		return nil, &models.ValidationError{Message: "недобор должен быть больше нуля"}
	}

	date = timeutil.DateOnly(date)

	leaveMinutes, err := s.leaveRepo.SumActualByUserAndDate(userID, date)
	if err != nil {
		return nil, err
	}

	workMinutes, err := s.workRepo.SumDurationByUserAndDate(userID, date)
	if err != nil {
		return nil, err
	}

	shortfall := minutes
	existing, err := s.summaryRepo.GetByUserAndDate(userID, date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		shortfall += existing.ShortfallMinutes
	}

	summary := &models.DailySummary{
		UserID:                userID,
		Date:                  date,
		TotalLeaveMinutes:     leaveMinutes,
		TotalExtraWorkMinutes: workMinutes,
		ShortfallMinutes:      shortfall,
	}
	summary.Recalculate(s.capMinutes)

	if err := s.summaryRepo.Upsert(summary); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"date":      date.Format("2006-01-02"),
		"shortfall": shortfall,
		"pending":   summary.PendingMinutes,
	}).Info("Shortfall added to daily summary")

	return summary, nil
}

// GetForDay возвращает сводку пользователя за дату (nil если записей еще нет)
func (s *DailySummaryService) GetForDay(userID uint, date time.Time) (*models.DailySummary, error) {
	return s.summaryRepo.GetByUserAndDate(userID, timeutil.DateOnly(date))
}

// GetAllForDay возвращает сводки всех пользователей за дату
func (s *DailySummaryService) GetAllForDay(date time.Time) ([]*models.DailySummary, error) {
	return s.summaryRepo.GetByDate(timeutil.DateOnly(date))
}

// FormatSummary форматирует сводку для отображения
func (s *DailySummaryService) FormatSummary(summary *models.DailySummary) string {
	if summary == nil {
		return "📭 За сегодня записей нет"
	}

	result := fmt.Sprintf(
		`📊 Сводка за %s:
🚶 Отлучки: %s
💼 Отработано: %s`,
		summary.Date.Format("02.01.2006"),
		timeutil.FormatMinutes(summary.TotalLeaveMinutes),
		timeutil.FormatMinutes(summary.TotalExtraWorkMinutes),
	)

	if summary.ShortfallMinutes > 0 {
		result += fmt.Sprintf("\n⏰ Недобор: %s", timeutil.FormatMinutes(summary.ShortfallMinutes))
	}

	if summary.PendingMinutes > 0 {
		result += fmt.Sprintf("\n\n➖ Осталось отработать: %s", timeutil.FormatMinutes(summary.PendingMinutes))
	} else {
		result += "\n\n✅ Долга по отработке нет"
	}

	return result
}
