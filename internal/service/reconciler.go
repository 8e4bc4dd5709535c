package service

import (
	"fmt"
	"time"

	"leave-balance-bot/internal/models"
	"leave-balance-bot/internal/repository"
	"leave-balance-bot/pkg/timeutil"

	"github.com/sirupsen/logrus"
)

// Notifier - контракт отправки уведомлений. Отправка для ядра
// fire-and-forget: ошибка доставки логируется и не повторяется.
type Notifier interface {
	Send(chatID int64, text string) error
}

// ReconcilerService - фоновая сверка по времени. Один проход на тик,
// правила для каждой активной сессии проверяются в явном порядке:
// автоконвертация, последнее предупреждение, напоминание.
// Все состояние выводится из сохраненных меток времени, а не из
// живых таймеров в памяти - рестарт процесса ничего не теряет.
type ReconcilerService struct {
	leaveRepo   repository.LeaveSessionRepository
	workRepo    repository.ExtraWorkSessionRepository
	summaryRepo repository.DailySummaryRepository
	requestRepo repository.LeaveRequestRepository

	leaveService *LeaveSessionService

	notifier Notifier

	capMinutes            int
	finalWarningLead      int
	reminderBucketMinutes int
	approvalChatID        int64

	logger *logrus.Logger
}

func NewReconcilerService(
	leaveRepo repository.LeaveSessionRepository,
	workRepo repository.ExtraWorkSessionRepository,
	summaryRepo repository.DailySummaryRepository,
	requestRepo repository.LeaveRequestRepository,
	leaveService *LeaveSessionService,
	notifier Notifier,
	capMinutes int,
	finalWarningLead int,
	reminderBucketMinutes int,
	approvalChatID int64,
) *ReconcilerService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &ReconcilerService{
		leaveRepo:             leaveRepo,
		workRepo:              workRepo,
		summaryRepo:           summaryRepo,
		requestRepo:           requestRepo,
		leaveService:          leaveService,
		notifier:              notifier,
		capMinutes:            capMinutes,
		finalWarningLead:      finalWarningLead,
		reminderBucketMinutes: reminderBucketMinutes,
		approvalChatID:        approvalChatID,
		logger:                logger,
	}
}

// Tick выполняет один проход сверки. Ошибка по одной сессии
// логируется и не прерывает обработку остальных.
func (s *ReconcilerService) Tick(now time.Time) {
	s.sweepLeaveSessions(now)
	s.sweepExtraWorkSessions(now)
}

func (s *ReconcilerService) sweepLeaveSessions(now time.Time) {
	sessions, err := s.leaveRepo.GetAllActive()
	if err != nil {
		s.logger.WithError(err).Error("Reconciler: failed to list active leave sessions")
		return
	}

	for _, session := range sessions {
		if err := s.reconcileLeaveSession(session, now); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"id":      session.ID,
				"user_id": session.UserID,
			}).Error("Reconciler: leave session sweep failed, continuing")
		}
	}
}

func (s *ReconcilerService) reconcileLeaveSession(session *models.LeaveSession, now time.Time) error {
	elapsed := session.ElapsedMinutes(now)

	switch {
	case elapsed >= s.capMinutes:
		return s.autoConvert(session, now)

	case elapsed >= s.capMinutes-s.finalWarningLead:
		return s.sendFinalWarning(session)

	case elapsed > session.PlannedMinutes:
		return s.sendOverdueReminder(session, elapsed)
	}

	return nil
}

// autoConvert закрывает отлучку, пересидевшую лимит компенсации.
// Закрытие идет тем же путем, что и /return; агрегатор сам засчитает
// ее как полдня, потому что компенсируемые минуты ограничены лимитом.
func (s *ReconcilerService) autoConvert(session *models.LeaveSession, now time.Time) error {
	if session.AutoConverted {
		// Уже сконвертирована - повторный проход не закрывает и не уведомляет
		return nil
	}

	closed, err := s.leaveService.EndLeave(session.UserID, now)
	if err != nil {
		return err
	}

	if err := s.leaveRepo.MarkAutoConverted(session.ID); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"id":             session.ID,
		"user_id":        session.UserID,
		"actual_minutes": closed.ActualMinutes,
	}).Info("Reconciler: leave session auto-converted to half-day")

	s.notify(session.User.ChatID, fmt.Sprintf(
		"📅 Отлучка длится уже %s - лимит компенсации исчерпан.\n"+
			"Она закрыта автоматически и засчитана как полдня отпуска. Отработка не требуется.",
		timeutil.FormatMinutes(closed.ActualMinutes)))

	return nil
}

func (s *ReconcilerService) sendFinalWarning(session *models.LeaveSession) error {
	if session.FinalWarningSent {
		return nil
	}

	s.notify(session.User.ChatID, fmt.Sprintf(
		"⚠️ Последнее предупреждение: через %s отлучка будет закрыта автоматически "+
			"и засчитана как полдня отпуска. Вернитесь и отправьте /return.",
		timeutil.FormatMinutes(s.finalWarningLead)))

	return s.leaveRepo.MarkFinalWarningSent(session.ID)
}

// sendOverdueReminder шлет не больше одного напоминания на каждый
// 30-минутный интервал. Номера интервалов идут с единицы: ноль в строке
// сессии означает "еще не напоминали", поэтому первый интервал не теряется.
func (s *ReconcilerService) sendOverdueReminder(session *models.LeaveSession, elapsed int) error {
	bucket := elapsed/s.reminderBucketMinutes + 1
	if bucket <= session.LastReminderBucket {
		return nil
	}

	overdue := elapsed - session.PlannedMinutes
	s.notify(session.User.ChatID, fmt.Sprintf(
		"⏰ Вы отсутствуете уже %s - на %s дольше плана.\n"+
			"Вернулись? Отправьте /return. Нужно больше времени? /extend <длительность>.",
		timeutil.FormatMinutes(elapsed),
		timeutil.FormatMinutes(overdue)))

	return s.leaveRepo.SetReminderBucket(session.ID, bucket)
}

func (s *ReconcilerService) sweepExtraWorkSessions(now time.Time) {
	sessions, err := s.workRepo.GetAllActive()
	if err != nil {
		s.logger.WithError(err).Error("Reconciler: failed to list active extra work sessions")
		return
	}

	for _, session := range sessions {
		if err := s.reconcileExtraWorkSession(session, now); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"id":      session.ID,
				"user_id": session.UserID,
			}).Error("Reconciler: extra work sweep failed, continuing")
		}
	}
}

// reconcileExtraWorkSession уведомляет, когда отработано достаточно.
// Сессия не закрывается автоматически: для закрытия нужно описание
// работы, которое может дать только сам сотрудник.
func (s *ReconcilerService) reconcileExtraWorkSession(session *models.ExtraWorkSession, now time.Time) error {
	if session.CompletionNotified {
		return nil
	}

	summary, err := s.summaryRepo.GetByUserAndDate(session.UserID, timeutil.DateOnly(now))
	if err != nil {
		return err
	}

	if summary == nil || summary.PendingMinutes <= 0 {
		return nil
	}

	elapsed := session.ElapsedMinutes(now)
	if elapsed < summary.PendingMinutes {
		return nil
	}

	s.notify(session.User.ChatID, fmt.Sprintf(
		"✅ Вы отработали %s - долг за сегодня (%s) погашен.\n"+
			"Можно завершать: /endwork <что сделано>.",
		timeutil.FormatMinutes(elapsed),
		timeutil.FormatMinutes(summary.PendingMinutes)))

	return s.workRepo.MarkCompletionNotified(session.ID)
}

// RecoverOnStartup - сверка после рестарта: только чтение, без мутаций.
// Сообщает в канал согласования об ожидающих заявках и открытых сессиях,
// переживших перезапуск процесса.
func (s *ReconcilerService) RecoverOnStartup(now time.Time) error {
	pending, err := s.requestRepo.GetPending()
	if err != nil {
		return err
	}

	activeLeaves, err := s.leaveRepo.GetAllActive()
	if err != nil {
		return err
	}

	activeWork, err := s.workRepo.GetAllActive()
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"pending_requests":  len(pending),
		"active_leaves":     len(activeLeaves),
		"active_extra_work": len(activeWork),
	}).Info("Startup recovery scan completed")

	if len(pending) == 0 && len(activeLeaves) == 0 && len(activeWork) == 0 {
		return nil
	}

	if s.approvalChatID == 0 {
		return nil
	}

	text := "🔄 Бот перезапущен. Незавершенное состояние:\n"
	if len(pending) > 0 {
		text += fmt.Sprintf("📨 Ожидающих заявок: %d\n", len(pending))
		for _, request := range pending {
			text += fmt.Sprintf("  - #%d %s (%s)\n", request.ID, request.TypeLabel(), request.User.DisplayName())
		}
	}
	if len(activeLeaves) > 0 {
		text += fmt.Sprintf("🚶 Открытых отлучек: %d\n", len(activeLeaves))
	}
	if len(activeWork) > 0 {
		text += fmt.Sprintf("💼 Открытых отработок: %d\n", len(activeWork))
	}

	s.notify(s.approvalChatID, text)
	return nil
}

// notify отправляет уведомление; сбой доставки не фатален
func (s *ReconcilerService) notify(chatID int64, text string) {
	if chatID == 0 {
		return
	}

	if err := s.notifier.Send(chatID, text); err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to send notification")
	}
}
