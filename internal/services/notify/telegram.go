package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/promoter-admin-go/internal/config"
	"github.com/promoter-admin-go/internal/i18n"
	"github.com/sirupsen/logrus"
)

// Notifier sends operator alerts to a Telegram admin chat. Delivery failures
// are logged, never propagated; alerting must not break the insights path.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	loc    *i18n.Localizer
	logger *logrus.Logger
}

// New creates a notifier, or nil when alerting is disabled.
func New(cfg *config.NotifyConfig, loc *i18n.Localizer, logger *logrus.Logger) (*Notifier, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier bot: %w", err)
	}

	logger.WithField("username", bot.Self.UserName).Info("Notifier bot authorized")

	return &Notifier{
		bot:    bot,
		chatID: cfg.ChatID,
		loc:    loc,
		logger: logger,
	}, nil
}

// InsightFailure alerts the admin chat that insight generation failed.
func (n *Notifier) InsightFailure(err error) {
	text := n.loc.Default(i18n.MsgInsightsFailureAlert, map[string]interface{}{"Error": err.Error()})
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, sendErr := n.bot.Send(msg); sendErr != nil {
		n.logger.WithError(sendErr).Error("Failed to send insight failure alert")
	}
}
