package handler

import (
	"fmt"
	"strings"
	"time"

	"leave-balance-bot/internal/models"
	"leave-balance-bot/pkg/timeutil"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) startWork(message *tgbotapi.Message, user *models.User) {
	chatID := message.Chat.ID
	reason := strings.TrimSpace(message.CommandArguments())

	now := time.Now()
	session, err := h.workService.StartWork(user.ID, now, reason)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	text := fmt.Sprintf("💼 Отработка начата в %s.", session.StartTime.Format("15:04"))

	summary, err := h.summaryService.GetForDay(user.ID, now)
	if err == nil && summary != nil && summary.PendingMinutes > 0 {
		text += fmt.Sprintf("\n➖ Долг за сегодня: %s. Я напомню, когда он будет погашен.",
			timeutil.FormatMinutes(summary.PendingMinutes))
	}

	text += "\n🏁 Закончите командой /endwork <что сделано>."

	h.reply(chatID, text)
}

func (h *Handler) endWork(message *tgbotapi.Message, user *models.User) {
	chatID := message.Chat.ID
	description := strings.TrimSpace(message.CommandArguments())

	// Описание работы обязательно: без него закрыть отработку нельзя
	if description == "" {
		h.reply(chatID, "ℹ️ Формат: /endwork <что сделано>\nНапример: /endwork починил баг с отчетом")
		return
	}

	session, err := h.workService.EndWork(user.ID, time.Now(), description)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	text := fmt.Sprintf(
		"🏁 Отработка закрыта: %s.",
		timeutil.FormatMinutes(session.DurationMinutes),
	)

	summary, err := h.summaryService.GetForDay(user.ID, time.Now())
	if err == nil && summary != nil {
		if summary.PendingMinutes > 0 {
			text += fmt.Sprintf("\n➖ Осталось отработать: %s.", timeutil.FormatMinutes(summary.PendingMinutes))
		} else {
			text += "\n✅ Долга по отработке нет."
		}
	}

	h.reply(chatID, text)
}
