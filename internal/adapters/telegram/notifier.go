package telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/selivandex/finsights/pkg/logger"
)

// Notifier sends ops alerts to the admin chat
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewNotifier creates new Telegram notifier
func NewNotifier(botToken string, chatID int64) (*Notifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
	)

	return &Notifier{api: bot, chatID: chatID}, nil
}

// NotifyJobFailure alerts on a failed scheduled job run
func (n *Notifier) NotifyJobFailure(jobName, classification string, err error) {
	if n == nil {
		return
	}

	msg := fmt.Sprintf("⚠️ Job failed: %s\nClassification: %s\nError: %v\nTime: %s",
		jobName, classification, err, time.Now().Format("15:04:05"))

	n.send(msg)
}

// NotifyGenerationFailure alerts on a permanent scenario generation failure
func (n *Notifier) NotifyGenerationFailure(newsID int64, err error) {
	if n == nil {
		return
	}

	msg := fmt.Sprintf("⚠️ Scenario generation failed for news %d\nError: %v\nTime: %s",
		newsID, err, time.Now().Format("15:04:05"))

	n.send(msg)
}

func (n *Notifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		logger.Warn("failed to send telegram alert", zap.Error(err))
	}
}
