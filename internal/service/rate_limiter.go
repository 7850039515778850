package service

import (
	"slices"
	"sort"
	"sync"
	"time"
)

// Default limiter parameters: three events per three seconds per sender.
const (
	DefaultRateWindow = 3 * time.Second
	DefaultRateMax    = 3
)

type senderWindow struct {
	hits     []time.Time // admitted events, sorted oldest first
	rejected int
}

// RateLimiter is a per-sender sliding window counter. It is safe for concurrent use.
type RateLimiter struct {
	window time.Duration
	max    int

	mu      sync.Mutex
	senders map[int64]*senderWindow
}

func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	if window <= 0 {
		window = DefaultRateWindow
	}
	if max <= 0 {
		max = DefaultRateMax
	}
	return &RateLimiter{window: window, max: max, senders: make(map[int64]*senderWindow)}
}

// Admit reports whether senderID may trigger a handler at now.
// It admits when fewer than max events were admitted within [now-window, now].
func (l *RateLimiter) Admit(senderID int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.senders[senderID]
	if !ok {
		w = &senderWindow{}
		l.senders[senderID] = w
	}
	w.hits = expire(w.hits, now.Add(-l.window))

	if len(w.hits) >= l.max {
		w.rejected++
		return false
	}
	// Concurrent callers may pass timestamps out of order.
	i := sort.Search(len(w.hits), func(i int) bool { return w.hits[i].After(now) })
	w.hits = slices.Insert(w.hits, i, now)
	w.rejected = 0
	return true
}

// Rejections returns how many consecutive events senderID has had refused.
func (l *RateLimiter) Rejections(senderID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok := l.senders[senderID]; ok {
		return w.rejected
	}
	return 0
}

// Sweep drops senders with no events inside the window and returns how many were removed.
func (l *RateLimiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	removed := 0
	for id, w := range l.senders {
		w.hits = expire(w.hits, cutoff)
		if len(w.hits) == 0 {
			delete(l.senders, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked senders.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.senders)
}

// expire drops hits strictly before cutoff.
func expire(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && hits[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return hits
	}
	return append(hits[:0], hits[i:]...)
}
