package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"telepilot/internal/service"
)

// Event is one inbound text message, independent of the transport.
type Event struct {
	SenderID int64
	ChatID   int64
	Profile  service.Profile
	Text     string
}

// Status tells the transport what happened to an event.
type Status string

const (
	StatusHandled      Status = "handled"
	StatusRateLimited  Status = "rate_limited"
	StatusUnauthorized Status = "unauthorized"
	StatusFailed       Status = "failed"
	StatusIgnored      Status = "ignored"
)

// Outcome is the result of dispatching an event. An empty Reply means nothing to send.
type Outcome struct {
	Status  Status
	Command string
	Reply   string
}

// Request is what a handler sees.
type Request struct {
	Event
	Command string // matched command, empty for the fallback
	Args    string // text after the command token, or the whole text for the fallback
}

type HandlerFunc func(ctx context.Context, req Request) (string, error)

// Command binds a literal command token to a handler.
type Command struct {
	Name           string
	AdminOnly      bool
	RefreshProfile bool // the event counts as a welcome and refreshes the stored profile
	Handle         HandlerFunc
}

// Admitter gates senders that send too fast.
type Admitter interface {
	Admit(senderID int64, now time.Time) bool
}

// rejectionCounter is implemented by limiters that track consecutive refusals.
type rejectionCounter interface {
	Rejections(senderID int64) int
}

// Toucher records sender activity. It must not fail the caller.
type Toucher interface {
	Touch(ctx context.Context, userID int64, profile service.Profile, refreshProfile bool)
}

// Router maps command tokens to handlers and enforces rate limits and admin-only commands.
// Dispatch is safe for concurrent use once registration is done.
type Router struct {
	limiter   Admitter
	directory Toucher
	adminID   string
	commands  map[string]Command
	fallback  HandlerFunc
	now       func() time.Time
}

// NewRouter returns a router. adminID is compared with the decimal sender id; empty means no admin.
func NewRouter(limiter Admitter, directory Toucher, adminID string) *Router {
	return &Router{
		limiter:   limiter,
		directory: directory,
		adminID:   strings.TrimSpace(adminID),
		commands:  make(map[string]Command),
		now:       time.Now,
	}
}

// Register adds commands, replacing any earlier command with the same name.
func (r *Router) Register(cmds ...Command) {
	for _, cmd := range cmds {
		r.commands[cmd.Name] = cmd
	}
}

// SetFallback sets the handler for text that matches no command.
func (r *Router) SetFallback(h HandlerFunc) {
	r.fallback = h
}

// IsAdmin reports whether senderID is the configured admin.
func (r *Router) IsAdmin(senderID int64) bool {
	return r.adminID != "" && strconv.FormatInt(senderID, 10) == r.adminID
}

// Dispatch runs one event through rate limiting, activity tracking, authorization and the handler.
// It never panics and never returns an error; failures become a generic notice.
func (r *Router) Dispatch(ctx context.Context, ev Event) Outcome {
	token, args := splitCommand(ev.Text)
	cmd, matched := r.commands[token]

	if !r.limiter.Admit(ev.SenderID, r.now()) {
		e := log.Info().Int64("user_id", ev.SenderID)
		if rc, ok := r.limiter.(rejectionCounter); ok {
			e = e.Int("rejections", rc.Rejections(ev.SenderID))
		}
		e.Msg("rate limited")
		return Outcome{Status: StatusRateLimited, Command: cmd.Name, Reply: msgRateLimited}
	}

	r.directory.Touch(ctx, ev.SenderID, ev.Profile, matched && cmd.RefreshProfile)

	req := Request{Event: ev, Args: args}
	switch {
	case matched:
		if cmd.AdminOnly && !r.IsAdmin(ev.SenderID) {
			log.Warn().Int64("user_id", ev.SenderID).Str("command", cmd.Name).Msg("unauthorized command")
			return Outcome{Status: StatusUnauthorized, Command: cmd.Name, Reply: msgUnauthorized}
		}
		req.Command = cmd.Name
		log.Info().Int64("user_id", ev.SenderID).Str("command", cmd.Name).Msg("command")
		return r.invoke(ctx, cmd.Name, cmd.Handle, req)
	case strings.TrimSpace(ev.Text) != "" && r.fallback != nil:
		log.Debug().Int64("user_id", ev.SenderID).Str("text", ev.Text).Msg("text message")
		req.Args = strings.TrimSpace(ev.Text)
		return r.invoke(ctx, "", r.fallback, req)
	default:
		return Outcome{Status: StatusIgnored}
	}
}

func (r *Router) invoke(ctx context.Context, name string, h HandlerFunc, req Request) (out Outcome) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("command", name).Int64("user_id", req.SenderID).
				Str("panic", fmt.Sprint(p)).Bytes("stack", debug.Stack()).
				Msg("handler panicked")
			out = Outcome{Status: StatusFailed, Command: name, Reply: msgFailure}
		}
	}()

	reply, err := h(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("command", name).Int64("user_id", req.SenderID).Msg("handler failed")
		return Outcome{Status: StatusFailed, Command: name, Reply: msgFailure}
	}
	return Outcome{Status: StatusHandled, Command: name, Reply: reply}
}

// splitCommand returns the first token when text starts with "/", and the trimmed rest.
func splitCommand(text string) (token, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i:])
}
