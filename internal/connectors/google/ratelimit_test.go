package google

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

func frozenThrottle(now time.Time) *Throttle {
	t := NewThrottle(rate.Inf, 1)
	t.now = func() time.Time { return now }
	return t
}

func TestSharedThrottle(t *testing.T) {
	assert.Same(t, SharedThrottle(APIGmail), SharedThrottle(APIGmail))
	assert.NotSame(t, SharedThrottle(APIGmail), SharedThrottle(APICalendar))
}

func TestThrottle_Call(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		err       error
		wantErr   error
		wantPause time.Duration
	}{
		{name: "success", err: nil},
		{
			name:    "unauthorised",
			err:     &googleapi.Error{Code: http.StatusUnauthorized},
			wantErr: domain.ErrAuthExpired,
		},
		{
			name: "rate limited with retry-after",
			err: &googleapi.Error{
				Code:   http.StatusTooManyRequests,
				Header: http.Header{"Retry-After": []string{"30"}},
			},
			wantErr:   domain.ErrRateLimited,
			wantPause: 30 * time.Second,
		},
		{
			name:      "rate limited without retry-after",
			err:       &googleapi.Error{Code: http.StatusTooManyRequests},
			wantErr:   domain.ErrRateLimited,
			wantPause: defaultRetryAfter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := frozenThrottle(now)
			calls := 0

			err := th.Call(context.Background(), "list events", func() error {
				calls++
				return tt.err
			})

			assert.Equal(t, 1, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "list events")
			}
			if tt.wantPause > 0 {
				assert.Equal(t, tt.wantPause, th.pause())
			} else {
				assert.False(t, th.Paused())
			}
		})
	}
}

func TestThrottle_PauseKeepsLongest(t *testing.T) {
	th := frozenThrottle(time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC))

	th.Pause(time.Minute)
	th.Pause(10 * time.Second)

	assert.Equal(t, time.Minute, th.pause())
}

func TestThrottle_WaitHonoursContextDuringPause(t *testing.T) {
	th := NewThrottle(rate.Inf, 1)
	th.Pause(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := th.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestThrottle_CallSkipsFnWhenContextDone(t *testing.T) {
	th := NewThrottle(rate.Inf, 1)
	th.Pause(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := th.Call(ctx, "get message", func() error {
		called = true
		return nil
	})

	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, called)
}
