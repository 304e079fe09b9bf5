package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/eventscope/internal/engine"
)

const maxTelegramMessage = 4096

// StatusFunc reports current engine state for the /status command.
type StatusFunc func() engine.Stats

// Adapter sends operator alerts to Telegram chats and answers a few
// read-only commands.
type Adapter struct {
	bot    *tgbotapi.BotAPI
	status StatusFunc
}

// New creates a Telegram adapter. status may be nil.
func New(token string, status StatusFunc) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Adapter{bot: bot, status: status}, nil
}

// Deliver implements delivery.Handler for targets of the form
// "telegram:<chat id>".
func (a *Adapter) Deliver(target, message string) error {
	chatID, err := parseTarget(target)
	if err != nil {
		return err
	}
	return a.send(chatID, message)
}

// Start begins long-polling for Telegram updates.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			a.handleCommand(update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		a.reply(chatID, fmt.Sprintf("eventscope alerts. Add telegram:%d to alerts.targets to receive them.", chatID))

	case "status":
		if a.status == nil {
			a.reply(chatID, "Status unavailable.")
			return
		}
		a.reply(chatID, formatStats(a.status()))

	default:
		a.reply(chatID, "Unknown command. Available: /start, /status")
	}
}

func (a *Adapter) reply(chatID int64, text string) {
	if err := a.send(chatID, text); err != nil {
		slog.Warn("telegram reply failed", "chat_id", chatID, "error", err)
	}
}

func (a *Adapter) send(chatID int64, text string) error {
	for _, part := range splitMessage(text) {
		if _, err := a.bot.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

func formatStats(s engine.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "State: %s\n", s.State)
	fmt.Fprintf(&b, "Events: %d in %d minutes across %d locations\n", s.Events, s.TimeBuckets, s.LocationBuckets)
	fmt.Fprintf(&b, "Highlights: %d", s.Highlights)
	return b.String()
}

func parseTarget(target string) (int64, error) {
	raw, ok := strings.CutPrefix(target, "telegram:")
	if !ok {
		return 0, fmt.Errorf("not a telegram target: %s", target)
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", raw, err)
	}
	return chatID, nil
}

func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := min(maxTelegramMessage, len(text))
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}
