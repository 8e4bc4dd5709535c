package handler

import (
	"errors"
	"strings"

	"leave-balance-bot/internal/config"
	"leave-balance-bot/internal/models"
	"leave-balance-bot/internal/service"
	"leave-balance-bot/pkg/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	client         *telegram.Client
	userService    *service.UserService
	leaveService   *service.LeaveSessionService
	workService    *service.ExtraWorkService
	summaryService *service.DailySummaryService
	requestService *service.LeaveRequestService
	config         *config.BotConfig
}

func NewHandler(
	client *telegram.Client,
	userService *service.UserService,
	leaveService *service.LeaveSessionService,
	workService *service.ExtraWorkService,
	summaryService *service.DailySummaryService,
	requestService *service.LeaveRequestService,
	cfg *config.BotConfig,
) *Handler {
	return &Handler{
		client:         client,
		userService:    userService,
		leaveService:   leaveService,
		workService:    workService,
		summaryService: summaryService,
		requestService: requestService,
		config:         cfg,
	}
}

func (h *Handler) HandleUpdates(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		// Обработка callback query (кнопки одобрения/отклонения)
		if update.CallbackQuery != nil {
			h.handleCallbackQuery(update.CallbackQuery)
			continue
		}

		if update.Message == nil {
			continue
		}

		h.handleMessage(update.Message)
	}
}

func (h *Handler) handleMessage(message *tgbotapi.Message) {
	if !message.IsCommand() {
		return
	}

	chatID := message.Chat.ID

	// Пользователь создается лениво при первом обращении
	user, err := h.userService.GetOrCreate(
		chatID,
		message.From.UserName,
		message.From.FirstName,
		message.From.LastName,
	)
	if err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Error("Failed to get or create user")
		h.reply(chatID, "❌ Внутренняя ошибка, попробуйте позже.")
		return
	}

	switch message.Command() {
	case "start":
		h.handleStart(message, user)
	case "help":
		h.handleHelp(message)
	case "leave":
		h.startLeave(message, user)
	case "return":
		h.endLeave(message, user)
	case "extend":
		h.extendLeave(message, user)
	case "work":
		h.startWork(message, user)
	case "endwork":
		h.endWork(message, user)
	case "request":
		h.submitIntermediate(message, user)
	case "planned":
		h.submitPlanned(message, user)
	case "early":
		h.submitShortfall(message, user, models.RequestTypeEarlyLogout)
	case "late":
		h.submitShortfall(message, user, models.RequestTypeLateLogin)
	case "profile":
		h.handleProfile(message, user)
	case "history":
		h.handleHistory(message, user)
	case "review":
		h.handleReview(message, user)
	case "report":
		h.handleReport(message)
	default:
		h.reply(chatID, "🤔 Неизвестная команда. Отправьте /help для списка команд.")
	}
}

func (h *Handler) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	data := callback.Data

	if strings.HasPrefix(data, "approve_") || strings.HasPrefix(data, "deny_") {
		h.decideRequest(callback)
		return
	}
}

// reply отправляет текст в чат; ошибка доставки только логируется
func (h *Handler) reply(chatID int64, text string) {
	if err := h.client.Send(chatID, text); err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Warn("Failed to send reply")
	}
}

// replyError переводит типизированные ошибки ядра в текст для пользователя
func (h *Handler) replyError(chatID int64, err error) {
	switch {
	case errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrValidation):
		h.reply(chatID, "❌ "+err.Error())
	case errors.Is(err, models.ErrAlreadyDecided):
		h.reply(chatID, "⚠️ "+err.Error())
	default:
		logrus.WithError(err).WithField("chat_id", chatID).Error("Command failed")
		h.reply(chatID, "❌ Что-то пошло не так, попробуйте позже.")
	}
}
