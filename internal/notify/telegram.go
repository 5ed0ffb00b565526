package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const telegramMaxRunes = 4000

// MessageSender is the part of *tgbotapi.BotAPI the notifier needs.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier mirrors delivery notices into an operator chat.
type TelegramNotifier struct {
	bot    MessageSender
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func NewTelegramNotifierWithSender(bot MessageSender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

func (n *TelegramNotifier) SendSong(_ context.Context, d Delivery) error {
	body, err := SongEmailBody(d)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("order %s delivered to %s\n\n%s", d.OrderID, d.Email, body)
	return n.send(text)
}

func (n *TelegramNotifier) SendFailure(_ context.Context, f Failure) error {
	text := fmt.Sprintf("order %s failed (customer %s): %s", f.OrderID, f.Email, f.Reason)
	return n.send(text)
}

func (n *TelegramNotifier) send(text string) error {
	if r := []rune(text); len(r) > telegramMaxRunes {
		text = string(r[:telegramMaxRunes])
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send chat_id=%d: %w", n.chatID, err)
	}
	return nil
}
