package handler

import (
	"fmt"
	"strings"
	"time"

	"leave-balance-bot/internal/models"
	"leave-balance-bot/pkg/timeutil"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) startLeave(message *tgbotapi.Message, user *models.User) {
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	parts := strings.SplitN(args, " ", 2)
	if args == "" || len(parts) < 2 {
		h.reply(chatID, "ℹ️ Формат: /leave <длительность> <причина>\nНапример: /leave 1h30m к врачу")
		return
	}

	minutes, err := timeutil.ParseDuration(parts[0])
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	if minutes <= 0 {
		h.reply(chatID, "❌ Длительность отлучки должна быть больше нуля.")
		return
	}
	if minutes > models.MaxLeaveMinutes {
		h.reply(chatID, fmt.Sprintf("❌ Отлучка не может быть дольше %s.", timeutil.FormatMinutes(models.MaxLeaveMinutes)))
		return
	}

	reason := strings.TrimSpace(parts[1])

	session, err := h.leaveService.StartLeave(user.ID, time.Now(), minutes, reason)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.reply(chatID, fmt.Sprintf(
		"🚶 Отлучка начата на %s.\n🔙 Ожидаем вас к %s. Вернетесь - отправьте /return.",
		timeutil.FormatMinutes(session.PlannedMinutes),
		session.ExpectedReturn().Format("15:04"),
	))
}

func (h *Handler) endLeave(message *tgbotapi.Message, user *models.User) {
	chatID := message.Chat.ID

	session, err := h.leaveService.EndLeave(user.ID, time.Now())
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	text := fmt.Sprintf(
		"✅ С возвращением! Отлучка закрыта.\n⏳ План: %s, фактически: %s.",
		timeutil.FormatMinutes(session.PlannedMinutes),
		timeutil.FormatMinutes(session.ActualMinutes),
	)

	summary, err := h.summaryService.GetForDay(user.ID, time.Now())
	if err == nil && summary != nil {
		if session.HalfDay {
			text += "\n\n📅 Отлучка превысила лимит компенсации и засчитана как полдня отпуска."
		} else if summary.PendingMinutes > 0 {
			text += fmt.Sprintf("\n\n➖ Осталось отработать сегодня: %s (/work).", timeutil.FormatMinutes(summary.PendingMinutes))
		}
	}

	h.reply(chatID, text)
}

func (h *Handler) extendLeave(message *tgbotapi.Message, user *models.User) {
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	if args == "" {
		h.reply(chatID, "ℹ️ Формат: /extend <длительность>\nНапример: /extend 30m")
		return
	}

	minutes, err := timeutil.ParseDuration(args)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	if minutes <= 0 {
		h.reply(chatID, "❌ Длительность продления должна быть больше нуля.")
		return
	}

	session, err := h.leaveService.GetActiveSession(user.ID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	if session == nil {
		h.reply(chatID, "❌ У вас нет активной отлучки.")
		return
	}

	// Верхнюю границу проверяет вызывающий, не машина состояний
	if session.PlannedMinutes+minutes > models.MaxLeaveMinutes {
		h.reply(chatID, fmt.Sprintf(
			"❌ Вместе с продлением получится больше %s. Оформите плановый отпуск: /planned.",
			timeutil.FormatMinutes(models.MaxLeaveMinutes),
		))
		return
	}

	if err := h.leaveService.ExtendLeave(session.ID, minutes); err != nil {
		h.replyError(chatID, err)
		return
	}

	h.reply(chatID, fmt.Sprintf(
		"⏳ Отлучка продлена на %s.\n🔙 Новое ожидаемое возвращение: %s.",
		timeutil.FormatMinutes(minutes),
		timeutil.ReturnAt(session.StartTime, session.PlannedMinutes+minutes).Format("15:04"),
	))
}
