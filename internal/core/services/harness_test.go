package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rentsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
)

const (
	testProperty = "prop-1"
	testFeed     = "feed-1"
	testMailbox  = "mail-1"
)

// fakeProvider is a scripted driven.TokenProvider.
type fakeProvider struct {
	mu           sync.Mutex
	token        string
	getErr       error
	refreshErr   error
	refreshCalls int
	invalidated  int
}

func (p *fakeProvider) GetToken(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token, p.getErr
}

func (p *fakeProvider) Refresh(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshCalls++
	if p.refreshErr != nil {
		return "", p.refreshErr
	}
	p.token = "refreshed"
	return p.token, nil
}

func (p *fakeProvider) InvalidateCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidated++
}

func (p *fakeProvider) IsAuthenticated() bool { return true }

func (p *fakeProvider) refreshes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshCalls
}

// fakeTokens hands out one provider per connection.
type fakeTokens struct {
	mu        sync.Mutex
	providers map[string]*fakeProvider
}

func (f *fakeTokens) ForConnection(_ context.Context, conn *domain.Connection) (driven.TokenProvider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.providers == nil {
		f.providers = make(map[string]*fakeProvider)
	}
	p, ok := f.providers[conn.ID]
	if !ok {
		p = &fakeProvider{token: "token"}
		f.providers[conn.ID] = p
	}
	return p, nil
}

func (f *fakeTokens) provider(id string) *fakeProvider {
	p, _ := f.ForConnection(context.Background(), &domain.Connection{ID: id})
	return p.(*fakeProvider)
}

// fakeMailbox serves a fixed message list. The first authFailures calls
// are refused as expired, and block holds every call until it is closed.
type fakeMailbox struct {
	mu           sync.Mutex
	messages     []domain.MailMessage
	err          error
	authFailures int
	calls        int
	tokens       []string
	block        chan struct{}
}

func (m *fakeMailbox) FetchMessages(ctx context.Context, _ *domain.Connection, token string, limit int) ([]domain.MailMessage, error) {
	m.mu.Lock()
	m.calls++
	m.tokens = append(m.tokens, token)
	block := m.block
	if m.authFailures > 0 {
		m.authFailures--
		m.mu.Unlock()
		return nil, domain.ErrAuthExpired
	}
	msgs, err := append([]domain.MailMessage(nil), m.messages...), m.err
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, err
}

func (m *fakeMailbox) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *fakeMailbox) setMessages(msgs ...domain.MailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = msgs
}

// fakeFeed serves bookings per connection and stamps them with the
// connection's property and feed ID like the real fetchers do.
type fakeFeed struct {
	mu       sync.Mutex
	bookings map[string][]*domain.Booking
	errs     map[string]error
	hang     map[string]bool
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		bookings: make(map[string][]*domain.Booking),
		errs:     make(map[string]error),
		hang:     make(map[string]bool),
	}
}

func (f *fakeFeed) FetchBookings(ctx context.Context, conn *domain.Connection, _ string) ([]*domain.Booking, error) {
	f.mu.Lock()
	hang, err := f.hang[conn.ID], f.errs[conn.ID]
	var out []*domain.Booking
	for _, b := range f.bookings[conn.ID] {
		c := *b
		c.PropertyID = conn.FeedPropertyID()
		c.SourceFeedID = conn.ID
		out = append(out, &c)
	}
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return out, err
}

func (f *fakeFeed) set(connID string, bookings ...*domain.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings[connID] = bookings
}

// harness wires the services over memory stores.
type harness struct {
	stores  Stores
	mailbox *fakeMailbox
	feed    *fakeFeed
	tokens  *fakeTokens
	locks   *LockTable
	orch    *SyncOrchestrator
	reviews *ReviewService
}

func newHarness(t *testing.T, settings domain.SyncSettings) *harness {
	t.Helper()
	ctx := context.Background()

	h := &harness{
		stores: Stores{
			Connections: memory.NewConnectionStore(),
			Properties:  memory.NewPropertyStore(),
			Credentials: memory.NewCredentialsStore(),
			Facts:       memory.NewFactStore(),
			Bookings:    memory.NewBookingStore(),
			Reviews:     memory.NewReviewStore(),
			Attempts:    memory.NewAttemptStore(),
		},
		mailbox: &fakeMailbox{},
		feed:    newFakeFeed(),
		tokens:  &fakeTokens{},
		locks:   NewLockTable(),
	}

	require.NoError(t, h.stores.Properties.Save(ctx, domain.Property{
		ID:       testProperty,
		Name:     "Beach House",
		Cleaning: domain.CleaningPolicy{PreDays: 1, PostDays: 1},
	}))
	h.addFeed(t, testFeed, testProperty)
	require.NoError(t, h.stores.Connections.Save(ctx, domain.Connection{
		ID:          testMailbox,
		Type:        domain.ConnectionGmail,
		Name:        "Reservations label",
		PropertyIDs: []string{testProperty},
		Status:      domain.StatusActive,
	}))

	reconciler := NewReconcileService(h.stores, h.locks)
	h.orch = NewSyncOrchestrator(h.stores, Fetchers{
		Mailbox: h.mailbox,
		Feeds:   map[domain.ConnectionType]driven.FeedFetcher{domain.ConnectionICal: h.feed},
	}, h.tokens, reconciler, h.locks, settings)
	h.reviews = NewReviewService(h.stores)
	return h
}

func (h *harness) addFeed(t *testing.T, id, propertyID string) {
	t.Helper()
	ctx := context.Background()
	if _, err := h.stores.Properties.Get(ctx, propertyID); err != nil {
		require.NoError(t, h.stores.Properties.Save(ctx, domain.Property{ID: propertyID, Name: propertyID}))
	}
	require.NoError(t, h.stores.Connections.Save(ctx, domain.Connection{
		ID:          id,
		Type:        domain.ConnectionICal,
		Name:        id,
		Config:      map[string]string{domain.ConfigURL: "https://example.com/" + id + ".ics"},
		PropertyIDs: []string{propertyID},
		Status:      domain.StatusActive,
	}))
}

func (h *harness) connection(t *testing.T, id string) *domain.Connection {
	t.Helper()
	conn, err := h.stores.Connections.Get(context.Background(), id)
	require.NoError(t, err)
	return conn
}

func (h *harness) activeBookings(t *testing.T) []*domain.Booking {
	t.Helper()
	bookings, err := h.stores.Bookings.ListActiveByProperties(context.Background(), []string{testProperty})
	require.NoError(t, err)
	return bookings
}

func (h *harness) bookingByUID(t *testing.T, uid string) *domain.Booking {
	t.Helper()
	for _, b := range h.activeBookings(t) {
		if b.ExternalUID == uid {
			return b
		}
	}
	t.Fatalf("no active booking %s", uid)
	return nil
}

func (h *harness) openReviews(t *testing.T) []*domain.ReviewItem {
	t.Helper()
	items, err := h.stores.Reviews.List(context.Background(), domain.ReviewFilter{Status: domain.ReviewOpen})
	require.NoError(t, err)
	return items
}

func defaultSyncSettings() domain.SyncSettings {
	return domain.DefaultAppSettings().Sync
}

func stay(in, out string) (domain.Date, domain.Date) {
	return domain.MustParseDate(in), domain.MustParseDate(out)
}

func feedBooking(uid, summary, in, out string) *domain.Booking {
	checkIn, checkOut := stay(in, out)
	return &domain.Booking{
		ExternalUID: uid,
		Summary:     summary,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Platform:    "Airbnb",
	}
}

var receivedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// airbnbConfirmation is a message the extractor parses into a fact.
func airbnbConfirmation(id, guest, code, checkIn, checkOut string) domain.MailMessage {
	return domain.MailMessage{
		ID:      id,
		Subject: "Reservation confirmed - " + guest + " arrives " + checkIn,
		From:    "Airbnb <automated@airbnb.com>",
		PlainBody: "New booking confirmed! " + guest + " arrives " + checkIn + ".\n\n" +
			"Check-in: " + checkIn + ", 2026\n" +
			"Checkout: " + checkOut + ", 2026\n" +
			"Guests: 2\n" +
			"Confirmation code: " + code,
		ReceivedAt: receivedAt,
	}
}

// codeless is a confirmation the extractor rejects for lacking a code.
func codeless(id string) domain.MailMessage {
	return domain.MailMessage{
		ID:         id,
		Subject:    "Reservation confirmed - Eric arrives Mar 13",
		From:       "Airbnb <automated@airbnb.com>",
		PlainBody:  "Check-in: Mar 13, 2026\nCheckout: Mar 16, 2026",
		ReceivedAt: receivedAt,
	}
}
