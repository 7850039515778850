package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// fakeCounter answers from fixed timestamps and fails for the listed lookbacks.
type fakeCounter struct {
	created  []time.Time
	active   []time.Time
	failAll  bool
	failFrom map[time.Duration]bool
	now      time.Time
}

func (f *fakeCounter) CountAll(context.Context) (int64, error) {
	if f.failAll {
		return 0, errors.New("timeout")
	}
	return int64(len(f.created)), nil
}

func (f *fakeCounter) CountCreatedSince(_ context.Context, since time.Time) (int64, error) {
	return f.count(f.created, since)
}

func (f *fakeCounter) CountActiveSince(_ context.Context, since time.Time) (int64, error) {
	return f.count(f.active, since)
}

func (f *fakeCounter) count(ts []time.Time, since time.Time) (int64, error) {
	if f.failFrom[f.now.Sub(since)] {
		return 0, errors.New("timeout")
	}
	var n int64
	for _, t := range ts {
		if !t.Before(since) {
			n++
		}
	}
	return n, nil
}

func TestAnalyticsWindows(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	counter := &fakeCounter{
		now: now,
		created: []time.Time{
			now.Add(-10 * 24 * time.Hour),
			now.Add(-10 * 24 * time.Hour),
			now.Add(-time.Hour),
			now.Add(-time.Hour),
			now.Add(-time.Hour),
		},
		active: []time.Time{
			now.Add(-40 * 24 * time.Hour),
			now.Add(-24 * time.Hour), // boundary counts
			now.Add(-2 * 24 * time.Hour),
			now,
		},
	}
	svc := NewAnalyticsService(counter)

	if diff := cmp.Diff(WindowCounts{H24: 3, D7: 5, D30: 5}, svc.UsersCreatedInWindows(context.Background(), now)); diff != "" {
		t.Errorf("created mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(WindowCounts{H24: 2, D7: 3, D30: 3}, svc.UsersActiveInWindows(context.Background(), now)); diff != "" {
		t.Errorf("active mismatch (-want +got):\n%s", diff)
	}
	if got := svc.TotalUsers(context.Background()); got != 5 {
		t.Errorf("TotalUsers() = %d, want 5", got)
	}
}

func TestAnalyticsPartialFailure(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	counter := &fakeCounter{
		now:      now,
		created:  []time.Time{now, now.Add(-3 * 24 * time.Hour)},
		failAll:  true,
		failFrom: map[time.Duration]bool{Window7d: true},
	}
	svc := NewAnalyticsService(counter)

	got := svc.UsersCreatedInWindows(context.Background(), now)
	if diff := cmp.Diff(WindowCounts{H24: 1, D7: 0, D30: 2}, got); diff != "" {
		t.Errorf("created mismatch (-want +got):\n%s", diff)
	}
	if total := svc.TotalUsers(context.Background()); total != 0 {
		t.Errorf("TotalUsers() = %d on failure, want 0", total)
	}
}
