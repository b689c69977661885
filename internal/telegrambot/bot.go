// Package telegrambot connects the relay pipeline to the Telegram Bot API:
// it turns updates into raw messages and deletes, sends and audits on the
// pipeline's behalf.
package telegrambot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/media-relay-bot/internal/core/domain"
	"github.com/lueurxax/media-relay-bot/internal/core/links/linkextract"
	"github.com/lueurxax/media-relay-bot/internal/platform/htmlutils"
)

const (
	defaultUpdateTimeout = 60
	defaultSendRPS       = 1
	defaultSendBurst     = 3
	defaultHTTPTimeout   = 90 * time.Second

	LogFieldChatID     = "chat_id"
	LogFieldRetryAfter = "retry_after"
)

// Error message formats.
const (
	ErrSendMessage   = "failed to send message to chat %d: %w"
	ErrDeleteMessage = "failed to delete message %d in chat %d: %w"
)

// Config configures the Bot API connection.
type Config struct {
	Token string

	// LogChatID receives audit notices; zero disables auditing.
	LogChatID int64

	SendRPS       float64
	SendBurst     int
	UpdateTimeout int

	// APIEndpoint overrides tgbotapi.APIEndpoint.
	APIEndpoint string
}

type Bot struct {
	cfg     Config
	api     *tgbotapi.BotAPI
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

func New(cfg Config, logger *zerolog.Logger) (*Bot, error) {
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = tgbotapi.APIEndpoint
	}

	if cfg.SendRPS <= 0 {
		cfg.SendRPS = defaultSendRPS
	}

	if cfg.SendBurst <= 0 {
		cfg.SendBurst = defaultSendBurst
	}

	if cfg.UpdateTimeout <= 0 {
		cfg.UpdateTimeout = defaultUpdateTimeout
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, cfg.APIEndpoint, &http.Client{Timeout: defaultHTTPTimeout})
	if err != nil {
		return nil, fmt.Errorf("creating bot API: %w", err)
	}

	return &Bot{
		cfg:     cfg,
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(cfg.SendRPS), cfg.SendBurst),
		logger:  logger,
	}, nil
}

// SelfID returns the bot's own user id.
func (b *Bot) SelfID() int64 {
	return b.api.Self.ID
}

// Username returns the bot's @username.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Messages long-polls for updates and emits every message and channel post.
// The channel is closed when ctx is canceled.
func (b *Bot) Messages(ctx context.Context) <-chan domain.RawMessage {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	u.AllowedUpdates = []string{"message", "channel_post"}

	updates := b.api.GetUpdatesChan(u)
	out := make(chan domain.RawMessage)

	go func() {
		defer close(out)
		defer b.api.StopReceivingUpdates()

		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}

				msg, ok := ToRawMessage(update)
				if !ok {
					continue
				}

				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// DeleteMessage removes a message from a chat.
func (b *Bot) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf(ErrDeleteMessage, messageID, chatID, err)
	}

	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf(ErrDeleteMessage, messageID, chatID, err)
	}

	return nil
}

// SendMessage posts an HTML message with link previews enabled so media embeds.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	return b.send(ctx, chatID, text, false)
}

// Audit posts a notice to the log chat, if one is configured.
func (b *Bot) Audit(ctx context.Context, text string) error {
	if b.cfg.LogChatID == 0 {
		return nil
	}

	return b.send(ctx, b.cfg.LogChatID, text, true)
}

// send delivers text in as many messages as Telegram's length limit requires.
func (b *Bot) send(ctx context.Context, chatID int64, text string, disablePreview bool) error {
	for _, part := range htmlutils.SplitLines(text, htmlutils.MaxMessageLength) {
		if err := b.sendPart(ctx, chatID, part, disablePreview); err != nil {
			return err
		}
	}

	return nil
}

func (b *Bot) sendPart(ctx context.Context, chatID int64, text string, disablePreview bool) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send rate limiter: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = disablePreview

	if _, err := b.api.Send(msg); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			b.logger.Warn().Int64(LogFieldChatID, chatID).Int(LogFieldRetryAfter, apiErr.RetryAfter).Msg("telegram flood limit hit")
		}

		return fmt.Errorf(ErrSendMessage, chatID, err)
	}

	return nil
}

// ToRawMessage converts a message or channel post update. Updates without
// a message are skipped.
func ToRawMessage(update tgbotapi.Update) (domain.RawMessage, bool) {
	m := update.Message
	if m == nil {
		m = update.ChannelPost
	}

	if m == nil || m.Chat == nil {
		return domain.RawMessage{}, false
	}

	raw := domain.RawMessage{
		ChatID:    m.Chat.ID,
		ChatTitle: m.Chat.Title,
		MessageID: m.MessageID,
		Text:      m.Text,
	}

	entities := m.Entities
	if raw.Text == "" {
		raw.Text = m.Caption
		entities = m.CaptionEntities
	}

	// anonymous admins and linked channels post on behalf of a chat
	switch {
	case m.SenderChat != nil:
		raw.AuthorID = m.SenderChat.ID
		raw.AuthorName = m.SenderChat.UserName

		if raw.AuthorName == "" {
			raw.AuthorName = m.SenderChat.Title
		}
	case m.From != nil:
		raw.AuthorID = m.From.ID
		raw.AuthorName = m.From.UserName

		if raw.AuthorName == "" {
			raw.AuthorName = m.From.FirstName
		}
	}

	converted := make([]linkextract.Entity, 0, len(entities))
	for _, e := range entities {
		converted = append(converted, linkextract.Entity{Type: e.Type, URL: e.URL})
	}

	raw.EntityURLs = linkextract.EntityURLs(converted)

	return raw, true
}
