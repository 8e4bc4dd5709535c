package models

import (
	"time"
)

// DailySummary - кэшируемый агрегат по (пользователь, дата).
// Пересчитывается из сессий при каждом закрытии сессии
// и при одобрении заявки с недобором.
type DailySummary struct {
	ID     uint      `gorm:"primarykey" json:"id"`
	UserID uint      `gorm:"not null;uniqueIndex:idx_daily_summaries_user_date" json:"user_id"`
	Date   time.Time `gorm:"type:date;not null;uniqueIndex:idx_daily_summaries_user_date" json:"date"`

	// Суммы из сессий
	TotalLeaveMinutes     int `gorm:"not null;default:0" json:"total_leave_minutes"`
	TotalExtraWorkMinutes int `gorm:"not null;default:0" json:"total_extra_work_minutes"`

	// Недобор из одобренных заявок (ранний уход / поздний приход).
	// Отдельная колонка: у недобора нет строки-сессии, а пересчет
	// из сессий не должен его затирать.
	ShortfallMinutes int `gorm:"not null;default:0" json:"shortfall_minutes"`

	// Минуты, которые осталось отработать
	PendingMinutes int `gorm:"not null;default:0" json:"pending_minutes"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User User `gorm:"foreignKey:UserID"`
}

func (DailySummary) TableName() string {
	return "daily_summaries"
}

// Recalculate пересчитывает pending по правилу лимита компенсации:
// отлучки сверх лимита считаются полдневным отсутствием и не отрабатываются.
func (ds *DailySummary) Recalculate(capMinutes int) {
	compensatable := ds.TotalLeaveMinutes
	if compensatable > capMinutes {
		compensatable = capMinutes
	}

	pending := compensatable + ds.ShortfallMinutes - ds.TotalExtraWorkMinutes
	if pending < 0 {
		pending = 0
	}
	ds.PendingMinutes = pending
}

// IsValid проверяет валидность данных
func (ds *DailySummary) IsValid() bool {
	if ds.UserID == 0 {
		return false
	}
	if ds.Date.IsZero() {
		return false
	}
	if ds.TotalLeaveMinutes < 0 || ds.TotalExtraWorkMinutes < 0 {
		return false
	}
	if ds.ShortfallMinutes < 0 || ds.PendingMinutes < 0 {
		return false
	}
	return true
}
