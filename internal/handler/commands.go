package handler

import (
	"fmt"
	"strings"
	"time"

	"leave-balance-bot/internal/models"
	"leave-balance-bot/pkg/timeutil"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

func (h *Handler) handleStart(message *tgbotapi.Message, user *models.User) {
	text := fmt.Sprintf(
		`👋 Привет, %s!

Я помогаю учитывать отлучки и отработки.

🚶 /leave 1h30m причина - отлучиться
🔙 /return - вернуться
⏳ /extend 30m - продлить отлучку
💼 /work - начать отработку
🏁 /endwork что сделано - закончить отработку
📨 /request, /planned, /early, /late - заявки на согласование
📊 /review - мой статус за сегодня

Подробности: /help`,
		user.FirstName,
	)
	h.reply(message.Chat.ID, text)
}

func (h *Handler) handleHelp(message *tgbotapi.Message) {
	text := `📖 Команды:

🚶 Отлучки:
/leave <длительность> <причина> - начать отлучку ("1h30m", "30m", "1.5h", "2" = 2 часа)
/return - вернуться и закрыть отлучку
/extend <длительность> - продлить текущую отлучку (всего не больше 8 часов)

💼 Отработки:
/work [причина] - начать отработку
/endwork <что сделано> - закончить отработку (описание обязательно)

📨 Заявки (уходят на согласование руководителю):
/request <длительность> <причина> | <кому переданы задачи> - отлучка по согласованию
/planned <ДД.ММ.ГГГГ> <ДД.ММ.ГГГГ> <причина> | <кому переданы задачи> - плановый отпуск
/early <норма ЧЧ:ММ> <факт ЧЧ:ММ> [причина] - ранний уход
/late <норма ЧЧ:ММ> <факт ЧЧ:ММ> [причина] - поздний приход

📊 Статус:
/profile - мой профиль
/history - мои последние отлучки и отработки
/review - мои сессии, сводка и заявки за сегодня
/report <пароль> - отчет по всем сотрудникам (для администратора)`
	h.reply(message.Chat.ID, text)
}

func (h *Handler) handleProfile(message *tgbotapi.Message, user *models.User) {
	h.reply(message.Chat.ID, h.userService.FormatUserInfo(user))
}

// Сколько последних сессий каждого вида показывает /history
const historyLimit = 5

func (h *Handler) handleHistory(message *tgbotapi.Message, user *models.User) {
	chatID := message.Chat.ID

	leaveSessions, err := h.leaveService.GetSessionHistory(user.ID, historyLimit)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	workSessions, err := h.workService.GetSessionHistory(user.ID, historyLimit)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	if len(leaveSessions) == 0 && len(workSessions) == 0 {
		h.reply(chatID, "📭 Отлучек и отработок пока не было.")
		return
	}

	var sections []string
	for _, session := range leaveSessions {
		sections = append(sections, h.leaveService.FormatSession(session))
	}
	for _, session := range workSessions {
		sections = append(sections, h.workService.FormatSession(session))
	}

	h.reply(chatID, strings.Join(sections, "\n\n"))
}

func (h *Handler) handleReview(message *tgbotapi.Message, user *models.User) {
	chatID := message.Chat.ID
	now := time.Now()

	var sections []string

	leaveSession, err := h.leaveService.GetActiveSession(user.ID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	if leaveSession != nil {
		sections = append(sections, h.leaveService.FormatSession(leaveSession))
	}

	workSession, err := h.workService.GetActiveSession(user.ID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	if workSession != nil {
		sections = append(sections, h.workService.FormatSession(workSession))
	}

	summary, err := h.summaryService.GetForDay(user.ID, now)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	sections = append(sections, h.summaryService.FormatSummary(summary))

	pending, err := h.requestService.GetPendingByUser(user.ID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	if len(pending) > 0 {
		lines := []string{fmt.Sprintf("📨 Ожидают решения (%d):", len(pending))}
		for _, request := range pending {
			lines = append(lines, fmt.Sprintf("  - #%d %s", request.ID, request.TypeLabel()))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	h.reply(chatID, strings.Join(sections, "\n\n"))
}

func (h *Handler) handleReport(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	password := strings.TrimSpace(message.CommandArguments())

	if password != h.config.AdminPassword {
		logrus.WithField("chat_id", chatID).Warn("Admin report requested with wrong password")
		h.reply(chatID, "🔒 Неверный пароль.")
		return
	}

	now := time.Now()
	summaries, err := h.summaryService.GetAllForDay(now)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	if len(summaries) == 0 {
		h.reply(chatID, "📭 За сегодня записей нет.")
		return
	}

	lines := []string{fmt.Sprintf("📊 Отчет за %s:", now.Format("02.01.2006")), ""}
	for _, summary := range summaries {
		lines = append(lines, fmt.Sprintf(
			"👤 %s: отлучки %s, отработано %s, долг %s",
			summary.User.DisplayName(),
			timeutil.FormatMinutes(summary.TotalLeaveMinutes),
			timeutil.FormatMinutes(summary.TotalExtraWorkMinutes),
			timeutil.FormatMinutes(summary.PendingMinutes),
		))
	}

	h.reply(chatID, strings.Join(lines, "\n"))
}
