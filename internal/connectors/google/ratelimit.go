package google

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// API names a Google API with its own quota.
type API string

// Known APIs.
const (
	APIGmail    API = "gmail"
	APICalendar API = "calendar"
)

// Per-user quotas are far above these; messages.get costs 5 units, so
// 5 req/s keeps a full mailbox scan under the 250 units/s user limit.
const (
	defaultRate  = rate.Limit(5)
	defaultBurst = 10

	// defaultRetryAfter applies when a 429 carries no Retry-After.
	defaultRetryAfter = time.Minute
)

var (
	throttlesMu sync.Mutex
	throttles   = map[API]*Throttle{}
)

// SharedThrottle returns the process-wide throttle for api. Every
// connection of the same API draws from it, since quotas are per project.
func SharedThrottle(api API) *Throttle {
	throttlesMu.Lock()
	defer throttlesMu.Unlock()
	t, ok := throttles[api]
	if !ok {
		t = NewThrottle(defaultRate, defaultBurst)
		throttles[api] = t
	}
	return t
}

// Throttle paces API calls with a token bucket and pauses every caller
// after a 429 until the server's Retry-After has passed.
type Throttle struct {
	limiter *rate.Limiter
	now     func() time.Time

	mu        sync.Mutex
	pausedTil time.Time
}

// NewThrottle creates a throttle allowing r calls per second with bursts of b.
func NewThrottle(r rate.Limit, b int) *Throttle {
	return &Throttle{limiter: rate.NewLimiter(r, b), now: time.Now}
}

// Wait blocks until a call may be made, or ctx ends.
func (t *Throttle) Wait(ctx context.Context) error {
	if d := t.pause(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return t.limiter.Wait(ctx)
}

// Call waits for a slot, runs fn and converts its error with WrapError.
// A 429 from fn pauses the throttle for everyone.
func (t *Throttle) Call(ctx context.Context, op string, fn func() error) error {
	if err := t.Wait(ctx); err != nil {
		return err
	}
	err := fn()
	if err == nil {
		return nil
	}
	if IsRateLimited(err) {
		d := time.Duration(RetryAfter(err)) * time.Second
		if d <= 0 {
			d = defaultRetryAfter
		}
		t.Pause(d)
	}
	return WrapError(op, err)
}

// Pause stops calls for d. A shorter pause never cuts a longer one short.
func (t *Throttle) Pause(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if until := t.now().Add(d); until.After(t.pausedTil) {
		t.pausedTil = until
	}
}

// Paused reports whether a 429 pause is in effect.
func (t *Throttle) Paused() bool {
	return t.pause() > 0
}

func (t *Throttle) pause() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pausedTil.Sub(t.now())
}
