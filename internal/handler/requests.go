package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"leave-balance-bot/internal/models"
	"leave-balance-bot/pkg/timeutil"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

func (h *Handler) submitIntermediate(message *tgbotapi.Message, user *models.User) {
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	body, handover := splitHandover(args)
	parts := strings.SplitN(body, " ", 2)
	if body == "" || len(parts) < 2 || handover == "" {
		h.reply(chatID, "ℹ️ Формат: /request <длительность> <причина> | <кому переданы задачи>\nНапример: /request 2h к врачу | задачи у Иванова")
		return
	}

	minutes, err := timeutil.ParseDuration(parts[0])
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	request, err := h.requestService.SubmitIntermediate(user.ID, time.Now(), minutes, strings.TrimSpace(parts[1]), handover)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.confirmAndForward(chatID, user, request)
}

func (h *Handler) submitPlanned(message *tgbotapi.Message, user *models.User) {
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	body, handover := splitHandover(args)
	parts := strings.SplitN(body, " ", 3)
	if body == "" || len(parts) < 3 || handover == "" {
		h.reply(chatID, "ℹ️ Формат: /planned <ДД.ММ.ГГГГ> <ДД.ММ.ГГГГ> <причина> | <кому переданы задачи>\nНапример: /planned 01.09.2026 05.09.2026 отпуск | задачи у Петровой")
		return
	}

	startDate, err := timeutil.ParseDate(parts[0])
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	endDate, err := timeutil.ParseDate(parts[1])
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	request, err := h.requestService.SubmitPlanned(user.ID, startDate, endDate, strings.TrimSpace(parts[2]), handover)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.confirmAndForward(chatID, user, request)
}

func (h *Handler) submitShortfall(message *tgbotapi.Message, user *models.User, requestType string) {
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	parts := strings.SplitN(args, " ", 3)
	if args == "" || len(parts) < 2 {
		command := "early"
		if requestType == models.RequestTypeLateLogin {
			command = "late"
		}
		h.reply(chatID, fmt.Sprintf("ℹ️ Формат: /%s <норма ЧЧ:ММ> <факт ЧЧ:ММ> [причина]\nНапример: /%s 18:00 17:30 семейные обстоятельства", command, command))
		return
	}

	reason := ""
	if len(parts) == 3 {
		reason = strings.TrimSpace(parts[2])
	}

	request, err := h.requestService.SubmitShortfall(user.ID, requestType, parts[0], parts[1], reason)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.confirmAndForward(chatID, user, request)
}

// confirmAndForward подтверждает прием заявки сотруднику и публикует ее
// в канале согласования с кнопками решения
func (h *Handler) confirmAndForward(chatID int64, user *models.User, request *models.LeaveRequest) {
	h.reply(chatID, fmt.Sprintf("📨 Заявка #%d отправлена на согласование. Я сообщу о решении.", request.ID))

	// Preload не нужен: заявка только что создана этим же пользователем
	request.User = *user

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Одобрить", fmt.Sprintf("approve_%d", request.ID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", fmt.Sprintf("deny_%d", request.ID)),
		),
	)

	if err := h.client.SendWithKeyboard(h.config.ApprovalChatID, h.requestService.FormatRequest(request), keyboard); err != nil {
		logrus.WithError(err).WithField("request_id", request.ID).Error("Failed to post request to approval chat")
		h.reply(chatID, "⚠️ Не удалось отправить заявку в канал согласования, сообщите администратору.")
	}
}

func (h *Handler) decideRequest(callback *tgbotapi.CallbackQuery) {
	data := callback.Data
	approve := strings.HasPrefix(data, "approve_")

	idText := strings.TrimPrefix(strings.TrimPrefix(data, "approve_"), "deny_")
	requestID, err := strconv.ParseUint(idText, 10, 32)
	if err != nil {
		logrus.WithField("data", data).Warn("Malformed callback data")
		return
	}

	request, err := h.requestService.Decide(uint(requestID), approve, callback.From.ID, time.Now())
	if err != nil {
		h.answerCallback(callback.ID, "")
		h.replyError(callback.Message.Chat.ID, err)
		return
	}

	decision := "❌ отклонена"
	if approve {
		decision = "✅ одобрена"
	}

	h.answerCallback(callback.ID, fmt.Sprintf("Заявка #%d %s", request.ID, decision))

	// Обновляем сообщение в канале согласования: кнопки убираются
	edit := tgbotapi.NewEditMessageText(
		callback.Message.Chat.ID,
		callback.Message.MessageID,
		h.requestService.FormatRequest(request),
	)
	if _, err := h.client.Bot.Send(edit); err != nil {
		logrus.WithError(err).WithField("request_id", request.ID).Warn("Failed to edit approval message")
	}

	// Уведомление сотруднику о решении
	if request.User.ChatID != 0 {
		text := fmt.Sprintf("📬 Ваша заявка #%d (%s) %s.", request.ID, request.TypeLabel(), decision)
		if approve && request.Type == models.RequestTypeIntermediate {
			text += "\n🚶 Отлучка начата, вернетесь - отправьте /return."
		}
		h.reply(request.User.ChatID, text)
	}
}

func (h *Handler) answerCallback(callbackID, text string) {
	answer := tgbotapi.NewCallback(callbackID, text)
	if _, err := h.client.Bot.Request(answer); err != nil {
		logrus.WithError(err).Warn("Failed to answer callback query")
	}
}

// splitHandover отделяет текст заявки от блока передачи дел после "|"
func splitHandover(args string) (string, string) {
	parts := strings.SplitN(args, "|", 2)
	body := strings.TrimSpace(parts[0])
	handover := ""
	if len(parts) == 2 {
		handover = strings.TrimSpace(parts[1])
	}
	return body, handover
}
