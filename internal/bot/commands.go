package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"telepilot/internal/model"
	"telepilot/internal/service"
)

// Broadcaster sends an admin message to all users.
type Broadcaster interface {
	Broadcast(ctx context.Context, actorID int64, raw string) (service.BroadcastResult, error)
}

// Analytics reports user counts.
type Analytics interface {
	TotalUsers(ctx context.Context) int64
	UsersCreatedInWindows(ctx context.Context, now time.Time) service.WindowCounts
	UsersActiveInWindows(ctx context.Context, now time.Time) service.WindowCounts
}

// QuoteSource returns random quotes.
type QuoteSource interface {
	Random(ctx context.Context) (model.Quote, error)
}

// Handlers implements the bot's command set.
type Handlers struct {
	broadcaster Broadcaster
	analytics   Analytics
	quotes      QuoteSource
	isAdmin     func(int64) bool
	startedAt   time.Time
	now         func() time.Time
}

func NewHandlers(broadcaster Broadcaster, analytics Analytics, quotes QuoteSource) *Handlers {
	return &Handlers{
		broadcaster: broadcaster,
		analytics:   analytics,
		quotes:      quotes,
		isAdmin:     func(int64) bool { return false },
		startedAt:   time.Now(),
		now:         time.Now,
	}
}

// Install registers every command and the fallback on r.
func (h *Handlers) Install(r *Router) {
	h.isAdmin = r.IsAdmin
	r.Register(h.Commands()...)
	r.SetFallback(h.acknowledge)
}

// Commands returns the command table.
func (h *Handlers) Commands() []Command {
	return []Command{
		{Name: "/start", RefreshProfile: true, Handle: h.start},
		{Name: "/help", Handle: h.help},
		{Name: "/status", Handle: h.status},
		{Name: "/about", Handle: h.about},
		{Name: "/quote", Handle: h.quote},
		{Name: "/broadcast", AdminOnly: true, Handle: h.broadcast},
		{Name: "/stats", AdminOnly: true, Handle: h.stats},
		{Name: "/active", AdminOnly: true, Handle: h.active},
		{Name: "/growth", AdminOnly: true, Handle: h.growth},
	}
}

func (h *Handlers) start(_ context.Context, req Request) (string, error) {
	name := strings.TrimSpace(req.Profile.FirstName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(msgStart, escape(name)), nil
}

func (h *Handlers) help(_ context.Context, req Request) (string, error) {
	if h.isAdmin(req.SenderID) {
		return msgHelp + msgAdminHelp, nil
	}
	return msgHelp, nil
}

func (h *Handlers) status(ctx context.Context, _ Request) (string, error) {
	uptime := h.now().Sub(h.startedAt).Truncate(time.Second)
	return fmt.Sprintf(msgStatus, uptime, h.analytics.TotalUsers(ctx)), nil
}

func (h *Handlers) about(context.Context, Request) (string, error) {
	return msgAbout, nil
}

func (h *Handlers) quote(ctx context.Context, req Request) (string, error) {
	q, err := h.quotes.Random(ctx)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", req.SenderID).Msg("quote fetch failed")
		return msgQuoteFailed, nil
	}
	return fmt.Sprintf(msgQuote, escape(q.Text), escape(q.Author)), nil
}

func (h *Handlers) broadcast(ctx context.Context, req Request) (string, error) {
	res, err := h.broadcaster.Broadcast(ctx, req.SenderID, req.Text)
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		return msgBroadcastUsage, nil
	case errors.Is(err, service.ErrDirectoryUnavailable):
		return msgBroadcastFailed, nil
	case err != nil:
		return "", err
	}
	return fmt.Sprintf(msgBroadcastDone, res.Sent, res.Total), nil
}

func (h *Handlers) stats(ctx context.Context, _ Request) (string, error) {
	return fmt.Sprintf(msgStats, h.analytics.TotalUsers(ctx)), nil
}

func (h *Handlers) active(ctx context.Context, _ Request) (string, error) {
	c := h.analytics.UsersActiveInWindows(ctx, h.now())
	return fmt.Sprintf(msgActive, c.H24, c.D7, c.D30), nil
}

func (h *Handlers) growth(ctx context.Context, _ Request) (string, error) {
	c := h.analytics.UsersCreatedInWindows(ctx, h.now())
	return fmt.Sprintf(msgGrowth, c.H24, c.D7, c.D30), nil
}

func (h *Handlers) acknowledge(context.Context, Request) (string, error) {
	return msgAck, nil
}

// Digest renders the admin's daily summary: totals, activity and growth.
func (h *Handlers) Digest(ctx context.Context) string {
	now := h.now()
	active := h.analytics.UsersActiveInWindows(ctx, now)
	growth := h.analytics.UsersCreatedInWindows(ctx, now)
	return strings.Join([]string{
		fmt.Sprintf(msgDigestHeader, now.Format("2006-01-02")),
		fmt.Sprintf(msgStats, h.analytics.TotalUsers(ctx)),
		fmt.Sprintf(msgActive, active.H24, active.D7, active.D30),
		fmt.Sprintf(msgGrowth, growth.H24, growth.D7, growth.D30),
	}, "\n\n")
}

func escape(s string) string {
	return html.EscapeString(s)
}
