package telegram

import (
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Client struct {
	Bot          *tgbotapi.BotAPI
	UpdateConfig tgbotapi.UpdateConfig
}

func NewClient(token string) (*Client, error) {
	// Короткий таймаут на исходящие вызовы: один недоступный получатель
	// не должен подвешивать проход сверки
	httpClient := &http.Client{Timeout: 15 * time.Second}

	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, err
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	return &Client{
		Bot:          bot,
		UpdateConfig: updateConfig,
	}, nil
}

// Send отправляет текстовое сообщение. Реализует контракт Notifier ядра.
func (c *Client) Send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := c.Bot.Send(msg)
	return err
}

// SendWithKeyboard отправляет сообщение с inline клавиатурой
func (c *Client) SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	_, err := c.Bot.Send(msg)
	return err
}
