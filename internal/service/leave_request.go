package service

import (
	"errors"
	"fmt"
	"time"

	"leave-balance-bot/internal/models"
	"leave-balance-bot/internal/repository"
	"leave-balance-bot/pkg/timeutil"

	"github.com/sirupsen/logrus"
)

type LeaveRequestService struct {
	requestRepo    repository.LeaveRequestRepository
	leaveService   *LeaveSessionService
	summaryService *DailySummaryService
	logger         *logrus.Logger
}

func NewLeaveRequestService(
	requestRepo repository.LeaveRequestRepository,
	leaveService *LeaveSessionService,
	summaryService *DailySummaryService,
) *LeaveRequestService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &LeaveRequestService{
		requestRepo:    requestRepo,
		leaveService:   leaveService,
		summaryService: summaryService,
		logger:         logger,
	}
}

// SubmitIntermediate создает заявку на отлучку с возвращением.
// Дубликаты ожидающих заявок не проверяются: сотрудник может
// одновременно подать заявки разных типов.
func (s *LeaveRequestService) SubmitIntermediate(userID uint, submittedAt time.Time, plannedMinutes int, reason, handover string) (*models.LeaveRequest, error) {
	if plannedMinutes <= 0 {
		return nil, &models.ValidationError{Message: "длительность отлучки должна быть больше нуля"}
	}
	// Та же граница, что и у прямого /leave: одобрение не должно
	// запускать отлучку, которую нельзя начать вручную
	if plannedMinutes > models.MaxLeaveMinutes {
		return nil, &models.ValidationError{Message: "отлучка не может быть дольше 8 часов, оформите плановый отпуск"}
	}
	if handover == "" {
		return nil, &models.ValidationError{Message: "укажите, кому переданы задачи"}
	}

	expectedReturn := timeutil.ReturnAt(submittedAt, plannedMinutes)

	request := &models.LeaveRequest{
		UserID:         userID,
		Type:           models.RequestTypeIntermediate,
		Reason:         reason,
		Handover:       handover,
		PlannedMinutes: plannedMinutes,
		ExpectedReturn: &expectedReturn,
		Status:         models.RequestStatusPending,
	}

	if err := s.requestRepo.Create(request); err != nil {
		return nil, err
	}

	return request, nil
}

// SubmitPlanned создает заявку на плановый отпуск.
// Количество дней считается без суббот и воскресений.
func (s *LeaveRequestService) SubmitPlanned(userID uint, startDate, endDate time.Time, reason, handover string) (*models.LeaveRequest, error) {
	startDate = timeutil.DateOnly(startDate)
	endDate = timeutil.DateOnly(endDate)

	if endDate.Before(startDate) {
		return nil, &models.ValidationError{Message: "дата окончания не может быть раньше даты начала"}
	}
	if handover == "" {
		return nil, &models.ValidationError{Message: "укажите, кому переданы задачи"}
	}

	dayCount := timeutil.WorkingDaysBetween(startDate, endDate)
	if dayCount == 0 {
		return nil, &models.ValidationError{Message: "в выбранном периоде нет рабочих дней"}
	}

	request := &models.LeaveRequest{
		UserID:    userID,
		Type:      models.RequestTypePlanned,
		Reason:    reason,
		Handover:  handover,
		StartDate: &startDate,
		EndDate:   &endDate,
		DayCount:  dayCount,
		Status:    models.RequestStatusPending,
	}

	if err := s.requestRepo.Create(request); err != nil {
		return nil, err
	}

	return request, nil
}

// SubmitShortfall создает заявку на ранний уход или поздний приход.
// Недобор: для раннего ухода - стандартное время минус фактическое,
// для позднего прихода - наоборот. Нулевой или отрицательный недобор
// отклоняется до создания заявки.
func (s *LeaveRequestService) SubmitShortfall(userID uint, requestType, standardTime, actualTime, reason string) (*models.LeaveRequest, error) {
	if requestType != models.RequestTypeEarlyLogout && requestType != models.RequestTypeLateLogin {
		return nil, &models.ValidationError{Message: "неизвестный тип заявки"}
	}

	standardMinutes, err := timeutil.ParseTimeOfDay(standardTime)
	if err != nil {
		return nil, &models.ValidationError{Message: err.Error()}
	}

	actualMinutes, err := timeutil.ParseTimeOfDay(actualTime)
	if err != nil {
		return nil, &models.ValidationError{Message: err.Error()}
	}

	var shortfall int
	if requestType == models.RequestTypeEarlyLogout {
		shortfall = standardMinutes - actualMinutes
	} else {
		shortfall = actualMinutes - standardMinutes
	}

	if shortfall <= 0 {
		return nil, &models.ValidationError{Message: "указанное время не дает недобора"}
	}

	request := &models.LeaveRequest{
		UserID:           userID,
		Type:             requestType,
		Reason:           reason,
		StandardTime:     standardTime,
		ActualTime:       actualTime,
		ShortfallMinutes: shortfall,
		Status:           models.RequestStatusPending,
	}

	if err := s.requestRepo.Create(request); err != nil {
		return nil, err
	}

	return request, nil
}

// Decide одобряет или отклоняет заявку и применяет побочные эффекты.
// Переход статуса атомарен в репозитории, поэтому повторное нажатие
// кнопки возвращает AlreadyDecidedError и эффекты не дублируются.
func (s *LeaveRequestService) Decide(requestID uint, approve bool, approverID int64, decidedAt time.Time) (*models.LeaveRequest, error) {
	status := models.RequestStatusDenied
	if approve {
		status = models.RequestStatusApproved
	}

	request, err := s.requestRepo.Decide(requestID, status, approverID, decidedAt)
	if err != nil {
		return nil, err
	}

	if !approve {
		s.logger.WithFields(logrus.Fields{
			"id":          requestID,
			"approver_id": approverID,
		}).Info("Leave request denied")
		return request, nil
	}

	// Побочные эффекты одобрения - по типу заявки
	switch request.Type {
	case models.RequestTypeIntermediate:
		// Гонка со вторым одобрением или ручным /leave должна падать громко,
		// а не молча перезаписывать активную отлучку
		if _, err := s.leaveService.StartLeave(request.UserID, decidedAt, request.PlannedMinutes, request.Reason); err != nil {
			if errors.Is(err, models.ErrConflict) {
				s.logger.WithFields(logrus.Fields{
					"id":      requestID,
					"user_id": request.UserID,
				}).Error("Approved request conflicts with an active leave session")
			}
			return request, fmt.Errorf("заявка одобрена, но отлучку начать не удалось: %w", err)
		}

	case models.RequestTypeEarlyLogout, models.RequestTypeLateLogin:
		if _, err := s.summaryService.AddShortfall(request.UserID, request.CreatedAt, request.ShortfallMinutes); err != nil {
			return request, fmt.Errorf("заявка одобрена, но недобор не зачислен: %w", err)
		}

	case models.RequestTypePlanned:
		// Одобрение планового отпуска информационное, баланс не меняется
	}

	s.logger.WithFields(logrus.Fields{
		"id":          requestID,
		"type":        request.Type,
		"approver_id": approverID,
	}).Info("Leave request approved")

	return request, nil
}

// GetByID возвращает заявку по ID
func (s *LeaveRequestService) GetByID(requestID uint) (*models.LeaveRequest, error) {
	return s.requestRepo.GetByID(requestID)
}

// GetPending возвращает все ожидающие заявки
func (s *LeaveRequestService) GetPending() ([]*models.LeaveRequest, error) {
	return s.requestRepo.GetPending()
}

// GetPendingByUser возвращает ожидающие заявки пользователя
func (s *LeaveRequestService) GetPendingByUser(userID uint) ([]*models.LeaveRequest, error) {
	return s.requestRepo.GetPendingByUserID(userID)
}

// FormatRequest форматирует заявку для канала согласования
func (s *LeaveRequestService) FormatRequest(request *models.LeaveRequest) string {
	if request == nil {
		return "❌ Заявка не найдена"
	}

	result := fmt.Sprintf("📨 Заявка #%d: %s", request.ID, request.TypeLabel())

	if request.User.ID != 0 {
		result += fmt.Sprintf("\n👤 Сотрудник: %s", request.User.DisplayName())
	}

	switch request.Type {
	case models.RequestTypeIntermediate:
		result += fmt.Sprintf("\n⏳ Длительность: %s", timeutil.FormatMinutes(request.PlannedMinutes))
		if request.ExpectedReturn != nil {
			result += fmt.Sprintf("\n🔙 Ожидаемое возвращение: %s", request.ExpectedReturn.Format("15:04"))
		}
	case models.RequestTypePlanned:
		result += fmt.Sprintf("\n📅 Период: %s - %s (%d раб. дн.)",
			request.StartDate.Format("02.01.2006"),
			request.EndDate.Format("02.01.2006"),
			request.DayCount)
	case models.RequestTypeEarlyLogout, models.RequestTypeLateLogin:
		result += fmt.Sprintf("\n🕐 Норма: %s, факт: %s", request.StandardTime, request.ActualTime)
		result += fmt.Sprintf("\n⏰ Недобор: %s", timeutil.FormatMinutes(request.ShortfallMinutes))
	}

	if request.Reason != "" {
		result += fmt.Sprintf("\n📝 Причина: %s", request.Reason)
	}
	if request.Handover != "" {
		result += fmt.Sprintf("\n🤝 Передача дел: %s", request.Handover)
	}

	switch request.Status {
	case models.RequestStatusApproved:
		result += "\n\n✅ Одобрена"
	case models.RequestStatusDenied:
		result += "\n\n❌ Отклонена"
	default:
		result += "\n\n⏳ Ожидает решения"
	}

	return result
}
