package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"BookmarkSummarizer/internal/ports"
)

const maxMessageRunes = 4096

// Sender is the slice of the bot API the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotFactory creates a Sender. Tests swap it for a fake.
type BotFactory func(token, apiEndpoint string, client *http.Client) (Sender, error)

var defaultBotFactory BotFactory = func(token, apiEndpoint string, client *http.Client) (Sender, error) {
	return tgbotapi.NewBotAPIWithClient(token, apiEndpoint, client)
}

// Notifier sends digests to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	endpoint string
	client   *http.Client
	factory  BotFactory

	once sync.Once
	bot  Sender
	err  error
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return NewNotifierWithFactory(botToken, chatID, defaultBotFactory)
}

// NewNotifierWithFactory is NewNotifier with a custom bot constructor.
func NewNotifierWithFactory(botToken, chatID string, factory BotFactory) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		endpoint: tgbotapi.APIEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		factory:  factory,
	}
}

// PublishDigest posts the digest as one message, prefixed with the display name in bold.
func (n *Notifier) PublishDigest(ctx context.Context, displayName, digest string) error {
	if n.botToken == "" || n.chatID == "" || n.factory == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}
	chatID, err := strconv.ParseInt(n.chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram chat id %q: %w", n.chatID, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	n.once.Do(func() {
		n.bot, n.err = n.factory(n.botToken, n.endpoint, n.client)
	})
	if n.err != nil {
		return fmt.Errorf("create telegram bot: %w", n.err)
	}

	text := digest
	if displayName != "" {
		text = "*" + tgbotapi.EscapeText(tgbotapi.ModeMarkdown, displayName) + "*\n" + digest
	}
	msg := tgbotapi.NewMessage(chatID, truncate(text, maxMessageRunes))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, "\n"); i > 0 {
		return cut[:i]
	}
	return cut
}
