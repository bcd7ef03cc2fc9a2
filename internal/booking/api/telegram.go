package api

import (
	"context"
	"fmt"
	"time"

	"github.com/DenisKhanov/BookingBot/internal/booking/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// TelegramAPI adapts the Telegram Bot API to the booking bot chat contract.
type TelegramAPI struct {
	*tgbotapi.BotAPI // Встраивание оригинального API бота
}

// NewTelegramAPI wraps an initialized bot.
func NewTelegramAPI(bot *tgbotapi.BotAPI) *TelegramAPI {
	return &TelegramAPI{BotAPI: bot}
}

// Send delivers a reply to the chat. Messages use HTML parse mode.
func (t *TelegramAPI) Send(ctx context.Context, chatID int64, reply models.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, reply.Text)
	msg.ParseMode = tgbotapi.ModeHTML
	switch {
	case reply.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	case len(reply.Keyboard) > 0:
		msg.ReplyMarkup = replyKeyboard(reply.Keyboard)
	}

	if _, err := t.BotAPI.Send(msg); err != nil {
		logrus.WithError(err).Errorf("Failed to send message to chat %d", chatID)
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return nil
}

// replyKeyboard builds a resized reply keyboard from rows of button labels.
func replyKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	keyboard := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		keyboard = append(keyboard, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	markup := tgbotapi.NewReplyKeyboard(keyboard...)
	markup.ResizeKeyboard = true // Подгоняет размер клавиатуры под экран
	return markup
}

// GetUpdatesChan polls updates until ctx is cancelled, then closes the channel.
func (t *TelegramAPI) GetUpdatesChan(ctx context.Context, config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update, t.Buffer)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			updates, err := t.GetUpdates(config)
			if err != nil {
				logrus.WithError(err).Error("Failed to get updates, retrying in 3 seconds...")
				select {
				case <-ctx.Done():
					return
				case <-time.After(3 * time.Second):
				}
				continue
			}

			for _, update := range updates {
				if update.UpdateID >= config.Offset {
					config.Offset = update.UpdateID + 1
					select {
					case ch <- update:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return ch
}

// IncomingMessage extracts a text message from an update.
// It returns false for updates the booking bot does not handle.
func IncomingMessage(update tgbotapi.Update) (models.IncomingMessage, bool) {
	m := update.Message
	if m == nil || m.From == nil || m.Chat == nil || m.Text == "" {
		return models.IncomingMessage{}, false
	}
	return models.IncomingMessage{
		UserID: m.From.ID,
		ChatID: m.Chat.ID,
		Text:   m.Text,
	}, true
}
