package models

import (
	"time"
)

// Типы заявок
const (
	RequestTypeIntermediate = "intermediate_logout" // Отлучка с возвращением
	RequestTypePlanned      = "planned_leave"       // Плановый отпуск
	RequestTypeEarlyLogout  = "early_logout"        // Ранний уход
	RequestTypeLateLogin    = "late_login"          // Поздний приход
)

// Статусы заявок
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusDenied   = "denied"
)

type LeaveRequest struct {
	ID     uint   `gorm:"primarykey" json:"id"`
	UserID uint   `gorm:"not null;index" json:"user_id"`
	Type   string `gorm:"type:varchar(30);not null" json:"type"`

	Reason   string `json:"reason"`
	Handover string `json:"handover"`

	// Поля отлучки (intermediate_logout)
	PlannedMinutes int        `gorm:"not null;default:0" json:"planned_minutes"`
	ExpectedReturn *time.Time `json:"expected_return"`

	// Поля планового отпуска (planned_leave)
	StartDate *time.Time `gorm:"type:date" json:"start_date"`
	EndDate   *time.Time `gorm:"type:date" json:"end_date"`
	DayCount  int        `gorm:"not null;default:0" json:"day_count"`

	// Поля раннего ухода / позднего прихода
	StandardTime     string `gorm:"type:varchar(5)" json:"standard_time"`
	ActualTime       string `gorm:"type:varchar(5)" json:"actual_time"`
	ShortfallMinutes int    `gorm:"not null;default:0" json:"shortfall_minutes"`

	// Решение
	Status     string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ApproverID int64      `gorm:"not null;default:0" json:"approver_id"`
	DecidedAt  *time.Time `json:"decided_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User User `gorm:"foreignKey:UserID"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// IsPending проверяет, ожидает ли заявка решения
func (lr *LeaveRequest) IsPending() bool {
	return lr.Status == RequestStatusPending
}

// TypeLabel возвращает название типа заявки для уведомлений
func (lr *LeaveRequest) TypeLabel() string {
	switch lr.Type {
	case RequestTypeIntermediate:
		return "Отлучка"
	case RequestTypePlanned:
		return "Плановый отпуск"
	case RequestTypeEarlyLogout:
		return "Ранний уход"
	case RequestTypeLateLogin:
		return "Поздний приход"
	default:
		return lr.Type
	}
}

// IsValid проверяет валидность данных
func (lr *LeaveRequest) IsValid() bool {
	if lr.UserID == 0 {
		return false
	}
	switch lr.Type {
	case RequestTypeIntermediate:
		if lr.PlannedMinutes <= 0 {
			return false
		}
	case RequestTypePlanned:
		if lr.StartDate == nil || lr.EndDate == nil {
			return false
		}
		if lr.EndDate.Before(*lr.StartDate) {
			return false
		}
	case RequestTypeEarlyLogout, RequestTypeLateLogin:
		if lr.ShortfallMinutes <= 0 {
			return false
		}
	default:
		return false
	}
	if lr.Status != RequestStatusPending && lr.Status != RequestStatusApproved && lr.Status != RequestStatusDenied {
		return false
	}
	return true
}
