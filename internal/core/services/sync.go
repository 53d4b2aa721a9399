package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
	"github.com/custodia-labs/rentsync/internal/core/ports/driving"
	"github.com/custodia-labs/rentsync/internal/logger"
	"github.com/custodia-labs/rentsync/internal/normalisers/reservation"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// Fetchers bundles the external inputs of the pipeline.
type Fetchers struct {
	Mailbox driven.MailboxFetcher

	// Feeds maps each feed connection type to its fetcher.
	Feeds map[domain.ConnectionType]driven.FeedFetcher
}

// SyncOrchestrator drives connections through fetch, extraction,
// persistence and reconciliation.
type SyncOrchestrator struct {
	stores     Stores
	fetchers   Fetchers
	tokens     driven.TokenProviderFactory
	extractor  *reservation.Extractor
	reconciler *ReconcileService
	locks      *LockTable
	settings   domain.SyncSettings
	now        func() time.Time
}

// NewSyncOrchestrator creates a new sync orchestrator. The reconciler
// must share locks with the orchestrator.
func NewSyncOrchestrator(
	stores Stores,
	fetchers Fetchers,
	tokens driven.TokenProviderFactory,
	reconciler *ReconcileService,
	locks *LockTable,
	settings domain.SyncSettings,
) *SyncOrchestrator {
	defaults := domain.DefaultAppSettings().Sync
	if settings.FetchTimeout <= 0 {
		settings.FetchTimeout = defaults.FetchTimeout
	}
	if settings.Parallelism <= 0 {
		settings.Parallelism = defaults.Parallelism
	}
	if settings.MaxMessages <= 0 {
		settings.MaxMessages = defaults.MaxMessages
	}
	return &SyncOrchestrator{
		stores:     stores,
		fetchers:   fetchers,
		tokens:     tokens,
		extractor:  reservation.New(),
		reconciler: reconciler,
		locks:      locks,
		settings:   settings,
		now:        time.Now,
	}
}

// Sync runs one connection and records its health. The returned error is
// non-nil only when the run failed outright; item-level problems make the
// result partial instead.
func (o *SyncOrchestrator) Sync(ctx context.Context, connectionID string) (*domain.SyncResult, error) {
	conn, err := o.stores.Connections.Get(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}

	release, err := o.locks.TryAcquire(connectionID)
	if err != nil {
		return nil, err
	}
	defer release()

	result := &domain.SyncResult{ConnectionID: conn.ID, StartedAt: o.now()}
	logger.Section("Sync " + conn.ID)
	logger.Info("Starting %s sync for connection %s", conn.Type, conn.ID)

	runErr := o.run(ctx, conn, result)
	if runErr != nil {
		result.Fail(runErr)
	}
	result.Finish(o.now())

	health := healthFor(runErr)
	lastError := ""
	if len(result.Errors) > 0 {
		lastError = result.Errors[0]
	}
	if health == domain.StatusNeedsReconnect {
		logger.Warn("Connection %s needs to be reconnected: %v", conn.ID, runErr)
	}
	// The run's own context may be spent; the status must still land.
	if err := o.stores.Connections.UpdateStatus(context.WithoutCancel(ctx), conn.ID, health, lastError); err != nil {
		logger.Warn("Failed to record status for %s: %v", conn.ID, err)
	}

	logger.Info("Sync %s finished %s: %d parsed, %d rejected, %d upserted, %d deactivated, %d enriched, %d review",
		conn.ID, result.Status, result.FactsParsed, result.FactsRejected, result.BookingsUpserted,
		result.BookingsDeactivated, result.BookingsEnriched, result.ReviewItemsCreated)

	if runErr != nil {
		return result, fmt.Errorf("sync %s: %w", conn.ID, runErr)
	}
	return result, nil
}

func (o *SyncOrchestrator) run(ctx context.Context, conn *domain.Connection, result *domain.SyncResult) error {
	provider, err := o.tokens.ForConnection(ctx, conn)
	if err != nil {
		return fmt.Errorf("token provider: %w", err)
	}

	switch {
	case conn.Type.IsFeed():
		return o.syncFeed(ctx, conn, provider, result)
	case conn.Type.IsMailbox():
		return o.syncMailbox(ctx, conn, provider, result)
	default:
		return fmt.Errorf("connection type %q: %w", conn.Type, domain.ErrUnsupportedType)
	}
}

// syncFeed upserts every event of the feed, retires the ones that
// disappeared and then re-matches the mailboxes that reach the property.
func (o *SyncOrchestrator) syncFeed(
	ctx context.Context,
	conn *domain.Connection,
	provider driven.TokenProvider,
	result *domain.SyncResult,
) error {
	fetcher := o.fetchers.Feeds[conn.Type]
	if fetcher == nil {
		return fmt.Errorf("no fetcher for %s: %w", conn.Type, domain.ErrUnsupportedType)
	}

	var bookings []*domain.Booking
	err := withToken(ctx, conn.ID, provider, func(ctx context.Context, token string) error {
		callCtx, cancel := context.WithTimeout(ctx, o.settings.FetchTimeout)
		defer cancel()
		var err error
		bookings, err = fetcher.FetchBookings(callCtx, conn, token)
		return err
	})
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}

	uids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		uids = append(uids, b.ExternalUID)
		changed, err := o.stores.Bookings.UpsertFromFeed(ctx, b)
		if err != nil {
			result.AddItemError(fmt.Errorf("booking %s: %w", b.ExternalUID, err))
			continue
		}
		if changed {
			result.BookingsUpserted++
		}
	}

	n, err := o.stores.Bookings.DeactivateMissing(ctx, conn.ID, uids)
	if err != nil {
		result.AddItemError(fmt.Errorf("deactivate removed events: %w", err))
	}
	result.BookingsDeactivated = n

	if result.BookingsUpserted > 0 || n > 0 {
		o.reconcileDependents(ctx, conn, result)
	}
	return nil
}

// reconcileDependents re-matches mailboxes that reach the feed's property.
// A mailbox with its own run in flight is skipped; that run reconciles anyway.
func (o *SyncOrchestrator) reconcileDependents(ctx context.Context, feed *domain.Connection, result *domain.SyncResult) {
	conns, err := o.stores.Connections.List(ctx)
	if err != nil {
		result.AddItemError(fmt.Errorf("list connections: %w", err))
		return
	}
	for i := range conns {
		mailbox := &conns[i]
		if !mailbox.Type.IsMailbox() || !slices.Contains(mailbox.PropertyIDs, feed.FeedPropertyID()) {
			continue
		}
		release, err := o.locks.TryAcquire(mailbox.ID)
		if err != nil {
			logger.Debug("Skipping reconcile of %s: %v", mailbox.ID, err)
			continue
		}
		summary, err := o.reconciler.reconcile(ctx, mailbox)
		release()
		if summary != nil {
			result.BookingsEnriched += summary.BookingsEnriched
			result.ReviewItemsCreated += summary.ReviewItemsCreated
		}
		if err != nil {
			result.AddItemError(fmt.Errorf("reconcile %s: %w", mailbox.ID, err))
		}
	}
}

// syncMailbox extracts facts from unprocessed messages and reconciles
// every fact of the connection.
func (o *SyncOrchestrator) syncMailbox(
	ctx context.Context,
	conn *domain.Connection,
	provider driven.TokenProvider,
	result *domain.SyncResult,
) error {
	if o.fetchers.Mailbox == nil {
		return fmt.Errorf("no mailbox fetcher: %w", domain.ErrUnsupportedType)
	}

	var messages []domain.MailMessage
	err := withToken(ctx, conn.ID, provider, func(ctx context.Context, token string) error {
		callCtx, cancel := context.WithTimeout(ctx, o.settings.FetchTimeout)
		defer cancel()
		var err error
		messages, err = o.fetchers.Mailbox.FetchMessages(callCtx, conn, token, o.settings.MaxMessages)
		return err
	})
	if err != nil {
		return fmt.Errorf("fetch mailbox: %w", err)
	}

	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	processed, err := o.stores.Attempts.Processed(ctx, ids)
	if err != nil {
		return fmt.Errorf("load processed messages: %w", err)
	}

	for i := range messages {
		msg := &messages[i]
		if processed[msg.ID] {
			continue
		}
		if err := o.extract(ctx, conn, msg, result); err != nil {
			result.AddItemError(fmt.Errorf("message %s: %w", msg.ID, err))
		}
	}

	summary, err := o.reconciler.reconcile(ctx, conn)
	if summary != nil {
		result.BookingsEnriched += summary.BookingsEnriched
		result.ReviewItemsCreated += summary.ReviewItemsCreated
	}
	if err != nil {
		result.AddItemError(fmt.Errorf("reconcile: %w", err))
	}
	return nil
}

// extract parses one message and leaves its audit record. A message whose
// fact could not be stored gets no record, so the next run retries it.
func (o *SyncOrchestrator) extract(
	ctx context.Context,
	conn *domain.Connection,
	msg *domain.MailMessage,
	result *domain.SyncResult,
) error {
	res := o.extractor.Extract(msg, conn.ID)
	attempt := res.Attempt(msg, conn.ID, o.now())

	if res.Fact != nil {
		fact, err := o.stores.Facts.Upsert(ctx, res.Fact)
		if err != nil {
			return fmt.Errorf("store fact: %w", err)
		}
		attempt.FactID = fact.ID
		result.FactsParsed++
	} else if attempt.Outcome == domain.OutcomeRejected {
		result.FactsRejected++
	}

	if err := o.stores.Attempts.Record(ctx, attempt); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// SyncAll runs every connection with bounded parallelism: feeds first so
// mailboxes match against fresh bookings, then mailboxes.
func (o *SyncOrchestrator) SyncAll(ctx context.Context) ([]domain.SyncResult, error) {
	conns, err := o.stores.Connections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	var feeds, mailboxes []domain.Connection
	for _, c := range conns {
		if c.Type.IsFeed() {
			feeds = append(feeds, c)
		} else {
			mailboxes = append(mailboxes, c)
		}
	}

	var (
		mu      sync.Mutex
		results []domain.SyncResult
		errs    []error
	)
	for _, phase := range [][]domain.Connection{feeds, mailboxes} {
		var g errgroup.Group
		g.SetLimit(o.settings.Parallelism)
		for _, c := range phase {
			g.Go(func() error {
				res, err := o.Sync(ctx, c.ID)
				mu.Lock()
				defer mu.Unlock()
				if res != nil {
					results = append(results, *res)
				}
				if err != nil {
					errs = append(errs, err)
				}
				// Never cancel siblings.
				return nil
			})
		}
		_ = g.Wait()
	}

	slices.SortFunc(results, func(a, b domain.SyncResult) int {
		return cmp.Compare(a.ConnectionID, b.ConnectionID)
	})
	return results, errors.Join(errs...)
}

// Status returns the run state and health of a connection.
func (o *SyncOrchestrator) Status(ctx context.Context, connectionID string) (*driving.SyncStatus, error) {
	conn, err := o.stores.Connections.Get(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	return &driving.SyncStatus{
		ConnectionID: conn.ID,
		Running:      o.locks.Held(conn.ID),
		Health:       conn.Status,
		LastError:    conn.LastError,
	}, nil
}

// RefreshTokens makes sure every OAuth connection holds a token that is
// valid beyond the safety margin.
func (o *SyncOrchestrator) RefreshTokens(ctx context.Context) (int, error) {
	conns, err := o.stores.Connections.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list connections: %w", err)
	}

	fresh := 0
	var errs []error
	for i := range conns {
		conn := &conns[i]
		if !conn.Type.RequiresOAuth() {
			continue
		}
		provider, err := o.tokens.ForConnection(ctx, conn)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", conn.ID, err))
			continue
		}
		if _, err := provider.GetToken(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", conn.ID, err))
			if domain.NeedsReconnect(err) && conn.Status != domain.StatusNeedsReconnect {
				logger.Warn("Connection %s needs to be reconnected: %v", conn.ID, err)
				if err := o.stores.Connections.UpdateStatus(ctx, conn.ID, domain.StatusNeedsReconnect, err.Error()); err != nil {
					errs = append(errs, err)
				}
			}
			continue
		}
		fresh++
	}
	return fresh, errors.Join(errs...)
}
