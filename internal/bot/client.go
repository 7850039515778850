package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const pollTimeoutSeconds = 60

// Client wraps the Telegram Bot API. Outbound messages share one rate limiter
// so broadcasts stay under Telegram's global send limit.
type Client struct {
	api  *tgbotapi.BotAPI
	pace *rate.Limiter
}

// NewClient authorizes the bot. perSecond bounds outbound messages per second.
func NewClient(token string, perSecond float64) (*Client, error) {
	if err := tgbotapi.SetLogger(tgLogger{}); err != nil {
		return nil, fmt.Errorf("set bot api logger: %w", err)
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info().Str("account", api.Self.UserName).Msg("bot authorized")

	return &Client{api: api, pace: newPace(perSecond)}, nil
}

func newPace(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Send delivers text verbatim, without a parse mode.
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	return c.send(ctx, tgbotapi.NewMessage(chatID, text))
}

// Reply delivers an HTML formatted reply.
func (c *Client) Reply(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	return c.send(ctx, msg)
}

func (c *Client) send(ctx context.Context, msg tgbotapi.MessageConfig) error {
	if err := c.pace.Wait(ctx); err != nil {
		return err
	}
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("send message to %d: %w", msg.ChatID, err)
	}
	return nil
}

// Updates starts long polling.
func (c *Client) Updates() tgbotapi.UpdatesChannel {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeoutSeconds
	cfg.AllowedUpdates = []string{"message"}
	return c.api.GetUpdatesChan(cfg)
}

// StopUpdates stops polling and closes the updates channel.
func (c *Client) StopUpdates() {
	c.api.StopReceivingUpdates()
}

// tgLogger routes the Bot API library's own logging into zerolog.
type tgLogger struct{}

func (tgLogger) Println(v ...interface{}) {
	log.Warn().Str("component", "telegram").Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (tgLogger) Printf(format string, v ...interface{}) {
	log.Warn().Str("component", "telegram").Msgf(format, v...)
}
