package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"telepilot/internal/service"
)

const defaultMaxInFlight = 8

// Transport is the part of the Telegram client the polling loop needs.
type Transport interface {
	Updates() tgbotapi.UpdatesChannel
	StopUpdates()
	Reply(ctx context.Context, chatID int64, text string) error
}

// Bot feeds Telegram updates through the router and sends the replies.
type Bot struct {
	transport   Transport
	router      *Router
	maxInFlight int
}

func New(transport Transport, router *Router) *Bot {
	return &Bot{transport: transport, router: router, maxInFlight: defaultMaxInFlight}
}

// Start polls updates until ctx is cancelled, then waits for in-flight handlers.
// Handlers run to completion even after cancellation.
func (b *Bot) Start(ctx context.Context) error {
	updates := b.transport.Updates()
	log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.transport.StopUpdates()
	}()

	handlerCtx := context.WithoutCancel(ctx)
	var g errgroup.Group
	g.SetLimit(b.maxInFlight)
	for update := range updates {
		ev, ok := EventFromMessage(update.Message)
		if !ok {
			continue
		}
		g.Go(func() error {
			b.handle(handlerCtx, ev)
			return nil
		})
	}
	_ = g.Wait()

	return ctx.Err()
}

func (b *Bot) handle(ctx context.Context, ev Event) {
	out := b.router.Dispatch(ctx, ev)
	if out.Reply == "" {
		return
	}
	if err := b.transport.Reply(ctx, ev.ChatID, out.Reply); err != nil {
		log.Error().Err(err).Int64("chat_id", ev.ChatID).Str("command", out.Command).Msg("send reply")
	}
}

// EventFromMessage converts a private chat text message. Other messages are skipped.
func EventFromMessage(msg *tgbotapi.Message) (Event, bool) {
	if msg == nil || msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return Event{}, false
	}
	return Event{
		SenderID: msg.From.ID,
		ChatID:   msg.Chat.ID,
		Profile: service.Profile{
			Username:  msg.From.UserName,
			FirstName: msg.From.FirstName,
		},
		Text: msg.Text,
	}, true
}
