package gmail

import (
	"context"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/custodia-labs/rentsync/internal/connectors/google"
	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
	"github.com/custodia-labs/rentsync/internal/logger"
)

// Verify interface compliance.
var _ driven.MailboxFetcher = (*Mailbox)(nil)

// Mailbox reads label-scoped messages through the Gmail API.
type Mailbox struct {
	limiter *google.Throttle
	opts    []option.ClientOption
}

// NewMailbox creates a Gmail mailbox fetcher. Options are passed to the
// API client, e.g. option.WithEndpoint in tests.
func NewMailbox(opts ...option.ClientOption) *Mailbox {
	return &Mailbox{
		limiter: google.SharedThrottle(google.APIGmail),
		opts:    opts,
	}
}

// FetchMessages lists message IDs page by page, then fetches each one in
// full format. A failure on any call aborts the fetch so the caller can
// decide between refresh and retry.
func (m *Mailbox) FetchMessages(
	ctx context.Context,
	conn *domain.Connection,
	token string,
	limit int,
) ([]domain.MailMessage, error) {
	if token == "" {
		return nil, domain.ErrAuthRequired
	}

	svc, err := google.GmailService(ctx, token, m.opts...)
	if err != nil {
		return nil, err
	}

	cfg := ParseConfig(conn)
	ids, err := m.listIDs(ctx, svc, cfg, limit)
	if err != nil {
		return nil, err
	}

	messages := make([]domain.MailMessage, 0, len(ids))
	for _, id := range ids {
		var msg *gmail.Message
		err := m.limiter.Call(ctx, "get message "+id, func() error {
			var err error
			msg, err = svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, err
		}
		messages = append(messages, ToMailMessage(msg))
	}

	logger.Debug("gmail %s: fetched %d messages", conn.ID, len(messages))
	return messages, nil
}

func (m *Mailbox) listIDs(ctx context.Context, svc *gmail.Service, cfg *Config, limit int) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		call := svc.Users.Messages.List("me").
			MaxResults(cfg.PageSize).
			IncludeSpamTrash(cfg.IncludeSpamTrash).
			Context(ctx)
		if len(cfg.LabelIDs) > 0 {
			call = call.LabelIds(cfg.LabelIDs...)
		}
		if cfg.Query != "" {
			call = call.Q(cfg.Query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var resp *gmail.ListMessagesResponse
		err := m.limiter.Call(ctx, "list messages", func() error {
			var err error
			resp, err = call.Do()
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, msg := range resp.Messages {
			ids = append(ids, msg.Id)
			if limit > 0 && len(ids) >= limit {
				return ids, nil
			}
		}

		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}
