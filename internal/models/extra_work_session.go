package models

import (
	"time"

	"leave-balance-bot/pkg/timeutil"
)

type ExtraWorkSession struct {
	ID     uint      `gorm:"primarykey" json:"id"`
	UserID uint      `gorm:"not null;index" json:"user_id"`
	Date   time.Time `gorm:"type:date;not null;index" json:"date"`

	// Время начала/окончания отработки
	StartTime time.Time  `gorm:"not null" json:"start_time"`
	EndTime   *time.Time `json:"end_time"`

	// Длительность, заполняется при закрытии
	DurationMinutes int `gorm:"not null;default:0" json:"duration_minutes"`

	Reason string `json:"reason"`

	// Описание выполненной работы, заполняется при закрытии
	WorkDescription string `json:"work_description"`

	// Статус
	Status string `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`

	// Флаг планировщика: уведомление о достаточной отработке уже отправлено
	CompletionNotified bool `gorm:"not null;default:false" json:"completion_notified"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User User `gorm:"foreignKey:UserID"`
}

func (ExtraWorkSession) TableName() string {
	return "extra_work_sessions"
}

// IsActive проверяет, активна ли сессия
func (ews *ExtraWorkSession) IsActive() bool {
	return ews.Status == StatusActive && ews.EndTime == nil
}

// ElapsedMinutes возвращает минуты с начала отработки, округленные от секунд
func (ews *ExtraWorkSession) ElapsedMinutes(now time.Time) int {
	return timeutil.MinutesBetween(ews.StartTime, now)
}

// Close закрывает сессию отработки
func (ews *ExtraWorkSession) Close(endTime time.Time, description string) {
	end := endTime
	ews.EndTime = &end
	ews.DurationMinutes = timeutil.MinutesBetween(ews.StartTime, endTime)
	ews.WorkDescription = description
	ews.Status = StatusCompleted
}

// IsValid проверяет валидность данных
func (ews *ExtraWorkSession) IsValid() bool {
	if ews.UserID == 0 {
		return false
	}
	if ews.StartTime.IsZero() {
		return false
	}
	if ews.Status != StatusActive && ews.Status != StatusCompleted {
		return false
	}
	return true
}
