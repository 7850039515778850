package bot

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telepilot/internal/service"
)

type stubLimiter struct{ deny bool }

func (s stubLimiter) Admit(int64, time.Time) bool { return !s.deny }

type touch struct {
	userID  int64
	profile service.Profile
	refresh bool
}

type recordingDirectory struct {
	mu      sync.Mutex
	touches []touch
}

func (d *recordingDirectory) Touch(_ context.Context, userID int64, profile service.Profile, refresh bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.touches = append(d.touches, touch{userID, profile, refresh})
}

const adminID = 1000

// captureLog sends the global logger to a buffer for the rest of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func newTestRouter(limiter Admitter, dir Toucher) (*Router, *[]string) {
	r := NewRouter(limiter, dir, "1000")
	var called []string
	record := func(reply string) HandlerFunc {
		return func(_ context.Context, req Request) (string, error) {
			called = append(called, req.Command+"|"+req.Args)
			return reply, nil
		}
	}
	r.Register(
		Command{Name: "/start", RefreshProfile: true, Handle: record("hi")},
		Command{Name: "/stats", AdminOnly: true, Handle: record("stats")},
		Command{Name: "/boom", Handle: func(context.Context, Request) (string, error) {
			return "", errors.New("store exploded")
		}},
		Command{Name: "/panic", Handle: func(context.Context, Request) (string, error) {
			panic("nil map")
		}},
	)
	r.SetFallback(record("ack"))
	return r, &called
}

func TestDispatch(t *testing.T) {
	cases := map[string]struct {
		sender     int64
		text       string
		want       Outcome
		wantCalled []string
	}{
		"command":           {sender: 1, text: "/start", want: Outcome{Status: StatusHandled, Command: "/start", Reply: "hi"}, wantCalled: []string{"/start|"}},
		"command with args": {sender: 1, text: "/start  ref 42 ", want: Outcome{Status: StatusHandled, Command: "/start", Reply: "hi"}, wantCalled: []string{"/start|ref 42"}},
		"admin command":     {sender: adminID, text: "/stats", want: Outcome{Status: StatusHandled, Command: "/stats", Reply: "stats"}, wantCalled: []string{"/stats|"}},
		"not admin":         {sender: 1, text: "/stats", want: Outcome{Status: StatusUnauthorized, Command: "/stats", Reply: msgUnauthorized}},
		"plain text":        {sender: 1, text: "hello bot", want: Outcome{Status: StatusHandled, Reply: "ack"}, wantCalled: []string{"|hello bot"}},
		"unknown command":   {sender: 1, text: "/nope", want: Outcome{Status: StatusHandled, Reply: "ack"}, wantCalled: []string{"|/nope"}},
		"case sensitive":    {sender: 1, text: "/Start", want: Outcome{Status: StatusHandled, Reply: "ack"}, wantCalled: []string{"|/Start"}},
		"token must match":  {sender: 1, text: "/startnow", want: Outcome{Status: StatusHandled, Reply: "ack"}, wantCalled: []string{"|/startnow"}},
		"no text":           {sender: 1, text: "", want: Outcome{Status: StatusIgnored}},
		"handler error":     {sender: 1, text: "/boom", want: Outcome{Status: StatusFailed, Command: "/boom", Reply: msgFailure}},
		"handler panic":     {sender: 1, text: "/panic", want: Outcome{Status: StatusFailed, Command: "/panic", Reply: msgFailure}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dir := &recordingDirectory{}
			r, called := newTestRouter(stubLimiter{}, dir)

			got := r.Dispatch(context.Background(), Event{SenderID: tc.sender, ChatID: tc.sender, Text: tc.text})
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Dispatch() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.wantCalled, *called); diff != "" {
				t.Errorf("handlers called mismatch (-want +got):\n%s", diff)
			}
			if len(dir.touches) != 1 || dir.touches[0].userID != tc.sender {
				t.Errorf("touches = %+v, want one for sender %d", dir.touches, tc.sender)
			}
		})
	}
}

func TestDispatchRateLimited(t *testing.T) {
	dir := &recordingDirectory{}
	r, called := newTestRouter(stubLimiter{deny: true}, dir)

	got := r.Dispatch(context.Background(), Event{SenderID: 1, Text: "/start"})
	if got.Status != StatusRateLimited || got.Reply != msgRateLimited {
		t.Errorf("Dispatch() = %+v, want rate limited notice", got)
	}
	if len(*called) != 0 || len(dir.touches) != 0 {
		t.Errorf("rate limited event reached handler (%v) or directory (%v)", *called, dir.touches)
	}
}

func TestDispatchRefreshesProfileOnlyOnWelcome(t *testing.T) {
	dir := &recordingDirectory{}
	r, _ := newTestRouter(stubLimiter{}, dir)
	profile := service.Profile{Username: "neo", FirstName: "Thomas"}

	r.Dispatch(context.Background(), Event{SenderID: 5, Profile: profile, Text: "hello"})
	r.Dispatch(context.Background(), Event{SenderID: 5, Profile: profile, Text: "/start"})

	want := []touch{{5, profile, false}, {5, profile, true}}
	if diff := cmp.Diff(want, dir.touches, cmp.AllowUnexported(touch{})); diff != "" {
		t.Errorf("touches mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchSurvivesFailures(t *testing.T) {
	r, _ := newTestRouter(stubLimiter{}, &recordingDirectory{})
	for i := 0; i < 3; i++ {
		r.Dispatch(context.Background(), Event{SenderID: 1, Text: "/panic"})
		r.Dispatch(context.Background(), Event{SenderID: 1, Text: "/boom"})
	}
	if got := r.Dispatch(context.Background(), Event{SenderID: 1, Text: "/start"}); got.Status != StatusHandled {
		t.Errorf("router stopped serving after failures: %+v", got)
	}
}

func TestDispatchWithRealLimiter(t *testing.T) {
	r, _ := newTestRouter(service.NewRateLimiter(3*time.Second, 3), &recordingDirectory{})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if got := r.Dispatch(context.Background(), Event{SenderID: 1, Text: "hi"}); got.Status != StatusHandled {
			t.Fatalf("event %d: %+v", i, got)
		}
	}
	if got := r.Dispatch(context.Background(), Event{SenderID: 1, Text: "hi"}); got.Status != StatusRateLimited {
		t.Fatalf("4th event: %+v, want rate limited", got)
	}
	if got := r.Dispatch(context.Background(), Event{SenderID: 2, Text: "hi"}); got.Status != StatusHandled {
		t.Errorf("other sender throttled: %+v", got)
	}
	now = now.Add(4 * time.Second)
	if got := r.Dispatch(context.Background(), Event{SenderID: 1, Text: "hi"}); got.Status != StatusHandled {
		t.Errorf("sender still throttled after the window: %+v", got)
	}
}

func TestRateLimitedLogCountsRejections(t *testing.T) {
	logs := captureLog(t)
	r, _ := newTestRouter(service.NewRateLimiter(3*time.Second, 1), &recordingDirectory{})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		r.Dispatch(context.Background(), Event{SenderID: 8, Text: "hi"})
	}
	out := logs.String()
	for _, want := range []string{`"rejections":1`, `"rejections":2`} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %s:\n%s", want, out)
		}
	}
}

func TestIsAdmin(t *testing.T) {
	r := NewRouter(stubLimiter{}, &recordingDirectory{}, " 1000 ")
	if !r.IsAdmin(1000) || r.IsAdmin(1001) {
		t.Error("IsAdmin does not match the configured id exactly")
	}
	none := NewRouter(stubLimiter{}, &recordingDirectory{}, "")
	if none.IsAdmin(0) {
		t.Error("IsAdmin(0) true with no admin configured")
	}
}

func TestSplitCommand(t *testing.T) {
	cases := map[string][2]string{
		"/start":             {"/start", ""},
		"  /broadcast a\nb ": {"/broadcast", "a\nb"},
		"hello /start":       {"", "hello /start"},
		"":                   {"", ""},
	}
	for in, want := range cases {
		token, args := splitCommand(in)
		if token != want[0] || args != want[1] {
			t.Errorf("splitCommand(%q) = %q, %q, want %q, %q", in, token, args, want[0], want[1])
		}
	}
}
