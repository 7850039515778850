package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Lookback windows used by the analytics commands.
const (
	Window24h = 24 * time.Hour
	Window7d  = 7 * 24 * time.Hour
	Window30d = 30 * 24 * time.Hour
)

// UserCounter answers the count queries analytics needs.
type UserCounter interface {
	CountAll(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountActiveSince(ctx context.Context, since time.Time) (int64, error)
}

// WindowCounts holds one count per lookback window.
type WindowCounts struct {
	H24 int64
	D7  int64
	D30 int64
}

// AnalyticsService computes point-in-time user counts.
// A failed count reads as zero; the other windows are still reported.
type AnalyticsService struct {
	counter UserCounter
}

func NewAnalyticsService(counter UserCounter) *AnalyticsService {
	return &AnalyticsService{counter: counter}
}

func (s *AnalyticsService) TotalUsers(ctx context.Context) int64 {
	n, err := s.counter.CountAll(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("analytics: count all users")
		return 0
	}
	return n
}

// UsersCreatedInWindows counts users first seen within each window before now.
func (s *AnalyticsService) UsersCreatedInWindows(ctx context.Context, now time.Time) WindowCounts {
	return s.windows(ctx, now, "created", s.counter.CountCreatedSince)
}

// UsersActiveInWindows counts users seen within each window before now.
func (s *AnalyticsService) UsersActiveInWindows(ctx context.Context, now time.Time) WindowCounts {
	return s.windows(ctx, now, "active", s.counter.CountActiveSince)
}

func (s *AnalyticsService) windows(ctx context.Context, now time.Time, kind string, count func(context.Context, time.Time) (int64, error)) WindowCounts {
	get := func(window time.Duration) int64 {
		n, err := count(ctx, now.Add(-window))
		if err != nil {
			log.Warn().Err(err).Str("kind", kind).Dur("window", window).Msg("analytics: count failed, reporting 0")
			return 0
		}
		return n
	}
	return WindowCounts{
		H24: get(Window24h),
		D7:  get(Window7d),
		D30: get(Window30d),
	}
}
