package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"telepilot/internal/model"
)

// UserStore is the persistence the directory relies on.
type UserStore interface {
	Upsert(ctx context.Context, user *model.User, refreshProfile bool) error
	ListTelegramIDs(ctx context.Context) ([]int64, error)
	Count(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountActiveSince(ctx context.Context, since time.Time) (int64, error)
}

// Profile is the optional user metadata the transport knows about a sender.
type Profile struct {
	Username  string
	FirstName string
}

// DirectoryService records who talks to the bot and answers count queries.
// Every store call is bounded by the configured timeout.
type DirectoryService struct {
	store   UserStore
	timeout time.Duration
	now     func() time.Time
}

func NewDirectoryService(store UserStore, timeout time.Duration) *DirectoryService {
	return &DirectoryService{store: store, timeout: timeout, now: time.Now}
}

// Touch marks userID as active now, creating the record on first sight.
// refreshProfile overwrites the stored profile of a known user.
// Store failures are logged and swallowed so an outage never blocks a reply.
func (s *DirectoryService) Touch(ctx context.Context, userID int64, profile Profile, refreshProfile bool) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now().UTC()
	user := &model.User{
		TelegramID: userID,
		FirstName:  profile.FirstName,
		Username:   profile.Username,
		CreatedAt:  now,
		LastActive: now,
	}
	if err := s.store.Upsert(ctx, user, refreshProfile); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("directory: touch failed, activity not recorded")
	}
}

// ListRecipientIDs returns every known user id.
func (s *DirectoryService) ListRecipientIDs(ctx context.Context) ([]int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ids, err := s.store.ListTelegramIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return ids, nil
}

func (s *DirectoryService) CountAll(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return wrapCount(s.store.Count(ctx))
}

// CountCreatedSince counts users first seen at or after since.
func (s *DirectoryService) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return wrapCount(s.store.CountCreatedSince(ctx, since))
}

// CountActiveSince counts users seen at or after since.
func (s *DirectoryService) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return wrapCount(s.store.CountActiveSince(ctx, since))
}

func (s *DirectoryService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func wrapCount(n int64, err error) (int64, error) {
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return n, nil
}
