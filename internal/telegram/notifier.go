// Package telegram delivers debt reminders as Telegram messages to the
// ledger owner's chat.
package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tagih/internal/log"
	"tagih/internal/services"
)

// Sender is the part of *tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

// Notifier implements services.Notifier on top of a bot. A bot cannot prompt
// for permission; it is granted once the owner has opened the chat with it.
type Notifier struct {
	api    Sender
	chatID int64
	logger *log.Logger
}

// New connects to the Bot API with token.
func New(token string, chatID int64, logger *log.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	api.Debug = false
	return NewWithSender(api, chatID, logger), nil
}

// NewWithSender wraps an existing sender.
func NewWithSender(api Sender, chatID int64, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.Discard()
	}
	return &Notifier{
		api:    api,
		chatID: chatID,
		logger: logger.WithComponent(log.ComponentTelegram),
	}
}

func (n *Notifier) Available() bool {
	return n != nil && n.api != nil && n.chatID != 0
}

// PermissionStatus asks Telegram whether the bot can see the chat. An API
// refusal (chat not found, bot blocked) is a denial, not an error.
func (n *Notifier) PermissionStatus(ctx context.Context) (services.Permission, error) {
	if !n.Available() {
		return services.PermissionDenied, nil
	}
	if err := ctx.Err(); err != nil {
		return services.PermissionUndetermined, err
	}

	_, err := n.api.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: n.chatID}})
	if err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			n.logger.WarnContext(ctx, "Bot cannot reach chat", "chat_id", n.chatID, log.FieldError, err)
			return services.PermissionDenied, nil
		}
		return services.PermissionUndetermined, fmt.Errorf("telegram get chat: %w", err)
	}
	return services.PermissionGranted, nil
}

func (n *Notifier) RequestPermission(ctx context.Context) (services.Permission, error) {
	return n.PermissionStatus(ctx)
}

// Schedule sends the notification immediately.
func (n *Notifier) Schedule(ctx context.Context, note services.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, FormatText(note))
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}

	n.logger.InfoContext(ctx, "Reminder delivered", log.FieldDebtID, note.DebtID, "chat_id", n.chatID)
	return nil
}

// Open sends link to the owner's chat so it can be tapped from the phone.
// It satisfies contact.Opener.
func (n *Notifier) Open(ctx context.Context, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, "Kirim pengingat: "+link)
	msg.DisableWebPagePreview = true
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send link: %w", err)
	}
	return nil
}

// FormatText renders a notification as a plain two-line message.
func FormatText(note services.Notification) string {
	if note.Body == "" {
		return note.Title
	}
	return note.Title + "\n" + note.Body
}
