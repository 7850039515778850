package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"telepilot/internal/model"
)

// Sender delivers a single message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// RecipientLister lists every user a broadcast goes to.
type RecipientLister interface {
	ListRecipientIDs(ctx context.Context) ([]int64, error)
}

// AuditStore appends audit log entries.
type AuditStore interface {
	Insert(ctx context.Context, entry *model.AuditLog) error
}

// BroadcastResult is the outcome of one broadcast.
type BroadcastResult struct {
	Sent  int
	Total int
}

// BroadcastService sends an admin message to every known user and audits it.
type BroadcastService struct {
	recipients   RecipientLister
	sender       Sender
	audit        AuditStore
	workers      int
	storeTimeout time.Duration
	now          func() time.Time
}

func NewBroadcastService(recipients RecipientLister, sender Sender, audit AuditStore, workers int, storeTimeout time.Duration) *BroadcastService {
	if workers <= 0 {
		workers = 1
	}
	return &BroadcastService{
		recipients:   recipients,
		sender:       sender,
		audit:        audit,
		workers:      workers,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// Broadcast strips the command token from raw and sends the rest to every known user.
// Each recipient gets exactly one attempt; failures only lower Sent.
// One audit entry is written after all sends settle, whatever their outcome.
func (s *BroadcastService) Broadcast(ctx context.Context, actorID int64, raw string) (BroadcastResult, error) {
	text := BroadcastBody(raw)
	if text == "" {
		return BroadcastResult{}, ErrEmptyMessage
	}

	ids, err := s.recipients.ListRecipientIDs(ctx)
	if err != nil {
		log.Error().Err(err).Int64("actor_id", actorID).Msg("broadcast: list recipients")
		return BroadcastResult{}, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}

	var sent atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := s.sender.Send(ctx, id, text); err != nil {
				log.Warn().Err(err).Int64("recipient_id", id).Msg("broadcast: send failed")
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	result := BroadcastResult{Sent: int(sent.Load()), Total: len(ids)}
	s.writeAudit(ctx, actorID, text, result)

	log.Info().Int64("actor_id", actorID).Int("sent", result.Sent).Int("total", result.Total).Msg("broadcast finished")
	return result, nil
}

func (s *BroadcastService) writeAudit(ctx context.Context, actorID int64, text string, result BroadcastResult) {
	// The caller may already be done waiting; the audit row is still owed.
	auditCtx := context.WithoutCancel(ctx)
	if s.storeTimeout > 0 {
		var cancel context.CancelFunc
		auditCtx, cancel = context.WithTimeout(auditCtx, s.storeTimeout)
		defer cancel()
	}

	entry := &model.AuditLog{
		Type:      model.AuditTypeBroadcast,
		ActorID:   actorID,
		Message:   fmt.Sprintf("%s\n\n[sent %d/%d]", text, result.Sent, result.Total),
		CreatedAt: s.now().UTC(),
	}
	if err := s.audit.Insert(auditCtx, entry); err != nil {
		log.Error().Err(err).Int64("actor_id", actorID).Msg("broadcast: write audit log")
	}
}

// BroadcastBody removes a leading /command token and surrounding whitespace.
// Line breaks inside the message are kept.
func BroadcastBody(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "/") {
		i := strings.IndexFunc(text, unicode.IsSpace)
		if i < 0 {
			return ""
		}
		text = text[i:]
	}
	return strings.TrimSpace(text)
}
