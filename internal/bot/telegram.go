// Package bot is the Telegram front-end: notification delivery plus the
// command and button UI that manages per-user monitoring state.
package bot

import (
	"fmt"

	"wb-order-monitor/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	API *tgbotapi.BotAPI
}

func New(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Bot{API: api}, nil
}

// SendOrder delivers one new-order notification.
func (b *Bot) SendOrder(chatID int64, order models.Order) error {
	msg := tgbotapi.NewMessage(chatID, FormatOrder(order))
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := b.API.Send(msg); err != nil {
		return fmt.Errorf("send order notification: %w", err)
	}
	return nil
}

func (b *Bot) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := b.API.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
