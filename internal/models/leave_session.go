package models

import (
	"time"

	"leave-balance-bot/pkg/timeutil"
)

type LeaveSession struct {
	ID     uint      `gorm:"primarykey" json:"id"`
	UserID uint      `gorm:"not null;index" json:"user_id"`
	Date   time.Time `gorm:"type:date;not null;index" json:"date"`

	// Время начала/окончания отлучки
	StartTime time.Time  `gorm:"not null" json:"start_time"`
	EndTime   *time.Time `json:"end_time"`

	// Плановая длительность (увеличивается при продлении)
	PlannedMinutes int `gorm:"not null" json:"planned_minutes"`

	// Фактическая длительность, заполняется при закрытии
	ActualMinutes int `gorm:"not null;default:0" json:"actual_minutes"`

	Reason  string `json:"reason"`
	HalfDay bool   `gorm:"not null;default:false" json:"half_day"`

	// Статус
	Status string `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`

	// Флаги планировщика - структурные колонки вместо меток в тексте причины
	LastReminderBucket int  `gorm:"not null;default:0" json:"last_reminder_bucket"`
	FinalWarningSent   bool `gorm:"not null;default:false" json:"final_warning_sent"`
	AutoConverted      bool `gorm:"not null;default:false" json:"auto_converted"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User User `gorm:"foreignKey:UserID"`
}

func (LeaveSession) TableName() string {
	return "leave_sessions"
}

// Статусы сессий (общие для отлучек и отработок)
const (
	StatusActive    = "active"    // Сессия открыта
	StatusCompleted = "completed" // Сессия закрыта
)

// MaxLeaveMinutes - верхняя граница отлучки с учетом продлений.
// Все, что дольше, оформляется плановым отпуском.
const MaxLeaveMinutes = 8 * 60

// IsActive проверяет, активна ли сессия
func (ls *LeaveSession) IsActive() bool {
	return ls.Status == StatusActive && ls.EndTime == nil
}

// ElapsedMinutes возвращает минуты с начала отлучки, округленные от секунд
func (ls *LeaveSession) ElapsedMinutes(now time.Time) int {
	return timeutil.MinutesBetween(ls.StartTime, now)
}

// Overdue проверяет, превышена ли плановая длительность
func (ls *LeaveSession) Overdue(now time.Time) bool {
	return ls.ElapsedMinutes(now) > ls.PlannedMinutes
}

// Close закрывает сессию: единый путь для /return и автоконвертации.
// Отлучка длиннее лимита компенсации помечается как полдня.
func (ls *LeaveSession) Close(endTime time.Time, capMinutes int) {
	end := endTime
	ls.EndTime = &end
	ls.ActualMinutes = timeutil.MinutesBetween(ls.StartTime, endTime)
	ls.HalfDay = ls.ActualMinutes > capMinutes
	ls.Status = StatusCompleted
}

// ExpectedReturn возвращает ожидаемое время возвращения
func (ls *LeaveSession) ExpectedReturn() time.Time {
	return timeutil.ReturnAt(ls.StartTime, ls.PlannedMinutes)
}

// IsValid проверяет валидность данных
func (ls *LeaveSession) IsValid() bool {
	if ls.UserID == 0 {
		return false
	}
	if ls.StartTime.IsZero() {
		return false
	}
	if ls.PlannedMinutes <= 0 {
		return false
	}
	if ls.Status != StatusActive && ls.Status != StatusCompleted {
		return false
	}
	return true
}
