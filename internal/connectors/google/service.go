package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// userAgent identifies rentsync in Google's API logs.
const userAgent = "rentsync"

// StaticToken returns a TokenSource that always yields token. Sync runs
// pass the token they already hold so a 401 reaches the sync guard instead
// of being refreshed inside the client.
func StaticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

// clientOptions puts the bearer token first so caller options such as
// option.WithEndpoint or option.WithHTTPClient in tests take precedence.
func clientOptions(token string, extra []option.ClientOption) []option.ClientOption {
	opts := []option.ClientOption{
		option.WithTokenSource(StaticToken(token)),
		option.WithUserAgent(userAgent),
	}
	return append(opts, extra...)
}

// GmailService returns a Gmail client authorized with an access token.
func GmailService(ctx context.Context, token string, extra ...option.ClientOption) (*gmail.Service, error) {
	svc, err := gmail.NewService(ctx, clientOptions(token, extra)...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}

// CalendarService returns a Calendar client authorized with an access token.
func CalendarService(ctx context.Context, token string, extra ...option.ClientOption) (*calendar.Service, error) {
	svc, err := calendar.NewService(ctx, clientOptions(token, extra)...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return svc, nil
}
