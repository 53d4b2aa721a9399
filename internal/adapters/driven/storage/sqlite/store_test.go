package sqlite

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "rentsync-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

func d(s string) domain.Date {
	return domain.MustParseDate(s)
}

func testFact(msgID, code string) *domain.ReservationFact {
	return &domain.ReservationFact{
		SourceMessageID:  msgID,
		ConnectionID:     "inbox",
		GuestName:        "Eric",
		GuestCount:       2,
		ConfirmationCode: code,
		CheckIn:          d("2026-03-13"),
		CheckOut:         d("2026-03-16"),
		Platform:         "Airbnb",
		Confidence:       0.95,
	}
}

func feedBooking(uid, in, out, summary string) *domain.Booking {
	return &domain.Booking{
		PropertyID:   "prop-1",
		SourceFeedID: "feed-1",
		ExternalUID:  uid,
		CheckIn:      d(in),
		CheckOut:     d(out),
		Summary:      summary,
		GuestName:    summary,
		Platform:     "Lodgify",
		IsActive:     true,
	}
}

// ==================== Store Creation ====================

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	tempDir := t.TempDir()

	first, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, first.PropertyStore().Save(context.Background(), domain.Property{ID: "p", Name: "Loft"}))
	require.NoError(t, first.Close())

	second, err := NewStore(tempDir)
	require.NoError(t, err)
	defer second.Close()

	var version int
	require.NoError(t, second.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	p, err := second.PropertyStore().Get(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "Loft", p.Name)
	assert.Contains(t, second.Path(), "rentsync.db")
}

// ==================== Fact Store ====================

func TestFactStore_UpsertIsIdempotent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	facts := store.FactStore()

	first, err := facts.Upsert(ctx, testFact("msg-1", "HMABC12345"))
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	again := testFact("msg-1", "HMABC12345")
	again.ID = "ignored"
	again.GuestCount = 3
	second, err := facts.Upsert(ctx, again)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.GuestCount, "stored fact is returned unchanged")

	all, err := facts.ListByConnection(ctx, "inbox")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFactStore_UpsertRejectsInvalid(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	bad := testFact("msg-1", "X")
	bad.CheckOut = bad.CheckIn
	_, err := store.FactStore().Upsert(context.Background(), bad)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestFactStore_Lookups(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	facts := store.FactStore()

	a, err := facts.Upsert(ctx, testFact("msg-a", "CODEA1"))
	require.NoError(t, err)
	b, err := facts.Upsert(ctx, testFact("msg-b", "CODEB2"))
	require.NoError(t, err)

	got, err := facts.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "msg-a", got.SourceMessageID)
	assert.Equal(t, d("2026-03-13"), got.CheckIn)
	assert.Equal(t, "Airbnb", got.Platform)

	_, err = facts.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	none, err := facts.GetBySourceMessageID(ctx, "msg-z")
	require.NoError(t, err)
	assert.Nil(t, none)

	codes, err := facts.ConfirmationCodes(ctx, []string{a.ID, b.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{a.ID: "CODEA1", b.ID: "CODEB2"}, codes)

	empty, err := facts.ConfirmationCodes(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFactStore_UpdateDates(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	facts := store.FactStore()

	f, err := facts.Upsert(ctx, testFact("msg-1", "C1"))
	require.NoError(t, err)

	stay := domain.Stay{CheckIn: d("2026-03-14"), CheckOut: d("2026-03-16")}
	require.NoError(t, facts.UpdateDates(ctx, f.ID, stay))

	got, err := facts.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, stay, got.Stay())

	assert.ErrorIs(t, facts.UpdateDates(ctx, "missing", stay), domain.ErrNotFound)
	assert.ErrorIs(t, facts.UpdateDates(ctx, f.ID, domain.Stay{CheckIn: stay.CheckOut, CheckOut: stay.CheckIn}),
		domain.ErrInvalidDateRange)
}

func TestFactStore_ReprocessingKeepsCorrectedDates(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	facts := store.FactStore()

	f, err := facts.Upsert(ctx, testFact("msg-1", "HMABC12345"))
	require.NoError(t, err)

	corrected := domain.Stay{CheckIn: d("2026-03-14"), CheckOut: d("2026-03-17")}
	require.NoError(t, facts.UpdateDates(ctx, f.ID, corrected))

	again := testFact("msg-1", "HMABC12345")
	again.GuestName = "Somebody Else"
	got, err := facts.Upsert(ctx, again)
	require.NoError(t, err)

	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, "Eric", got.GuestName)
	assert.Equal(t, corrected, got.Stay())

	stored, err := facts.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Eric", stored.GuestName)
	assert.Equal(t, corrected, stored.Stay())
}

// ==================== Booking Store ====================

func TestBookingStore_UpsertFromFeed(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	bookings := store.BookingStore()

	changed, err := bookings.UpsertFromFeed(ctx, feedBooking("uid-1", "2026-03-13", "2026-03-16", "Reserved"))
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = bookings.UpsertFromFeed(ctx, feedBooking("uid-1", "2026-03-13", "2026-03-16", "Reserved"))
	require.NoError(t, err)
	assert.False(t, changed, "identical feed row is a no-op")

	changed, err = bookings.UpsertFromFeed(ctx, feedBooking("uid-1", "2026-03-13", "2026-03-17", "Reserved"))
	require.NoError(t, err)
	assert.True(t, changed)

	list, err := bookings.ListByFeed(ctx, "feed-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, d("2026-03-17"), list[0].CheckOut)
	assert.True(t, list[0].IsActive)
}

func TestBookingStore_UpsertKeepsEnrichedGuest(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	bookings := store.BookingStore()

	_, err := bookings.UpsertFromFeed(ctx, feedBooking("uid-1", "2026-03-13", "2026-03-16", "Reserved"))
	require.NoError(t, err)
	list, err := bookings.ListByFeed(ctx, "feed-1")
	require.NoError(t, err)
	id := list[0].ID

	require.NoError(t, bookings.ApplyEnrichment(ctx, domain.BookingEnrichment{
		BookingID: id, MatchedFactID: "fact-1", GuestName: "Eric", GuestCount: 2,
	}))

	_, err = bookings.UpsertFromFeed(ctx, feedBooking("uid-1", "2026-03-13", "2026-03-16", "Reserved"))
	require.NoError(t, err)

	got, err := bookings.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Eric", got.GuestName)
	assert.Equal(t, 2, got.GuestCount)
	assert.Equal(t, "fact-1", got.MatchedFactID)
}

func TestBookingStore_DeactivateMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	bookings := store.BookingStore()

	for _, uid := range []string{"a", "b", "c"} {
		_, err := bookings.UpsertFromFeed(ctx, feedBooking(uid, "2026-03-13", "2026-03-16", "Reserved"))
		require.NoError(t, err)
	}

	n, err := bookings.DeactivateMissing(ctx, "feed-1", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	active, err := bookings.ListActiveByProperties(ctx, []string{"prop-1"})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].ExternalUID)

	// Retired bookings come back when the feed lists them again.
	_, err = bookings.UpsertFromFeed(ctx, feedBooking("b", "2026-03-13", "2026-03-16", "Reserved"))
	require.NoError(t, err)
	active, err = bookings.ListActiveByProperties(ctx, []string{"prop-1"})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	n, err = bookings.DeactivateMissing(ctx, "feed-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBookingStore_ManualBookings(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	bookings := store.BookingStore()

	in := &domain.Booking{
		PropertyID:  "prop-1",
		ExternalUID: "manual:fact-1",
		CheckIn:     d("2026-05-01"),
		CheckOut:    d("2026-05-04"),
		GuestName:   "Ann",
		GuestCount:  2,
	}
	created, err := bookings.CreateManual(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, domain.ManualFeedID, created.SourceFeedID)
	assert.True(t, created.IsManual())

	again, err := bookings.CreateManual(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	err = bookings.ApplyEnrichment(ctx, domain.BookingEnrichment{BookingID: created.ID, GuestName: "Bot"})
	assert.ErrorIs(t, err, domain.ErrManualBooking)

	err = bookings.ApplyEnrichment(ctx, domain.BookingEnrichment{BookingID: "missing", GuestName: "Bot"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := bookings.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.GuestName)
}

func TestBookingStore_MarkManuallyResolved(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	bookings := store.BookingStore()

	_, err := bookings.UpsertFromFeed(ctx, feedBooking("uid-1", "2026-03-13", "2026-03-16", "Reserved"))
	require.NoError(t, err)
	list, err := bookings.ListByFeed(ctx, "feed-1")
	require.NoError(t, err)

	require.NoError(t, bookings.MarkManuallyResolved(ctx, domain.BookingEnrichment{
		BookingID: list[0].ID, MatchedFactID: "fact-9", GuestName: "Maya",
	}))

	got, err := bookings.Get(ctx, list[0].ID)
	require.NoError(t, err)
	assert.True(t, got.IsManual())
	assert.Equal(t, "Maya", got.GuestName)
	assert.Equal(t, "fact-9", got.MatchedFactID)

	assert.ErrorIs(t, bookings.MarkManuallyResolved(ctx, domain.BookingEnrichment{BookingID: "missing"}),
		domain.ErrNotFound)
}

func TestBookingStore_RejectsBadKeys(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.BookingStore().UpsertFromFeed(ctx, feedBooking("", "2026-03-13", "2026-03-16", "x"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.BookingStore().UpsertFromFeed(ctx, feedBooking("u", "2026-03-16", "2026-03-13", "x"))
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	none, err := store.BookingStore().ListActiveByProperties(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// ==================== Review Store ====================

func TestReviewStore_UpsertOnePerFact(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	reviews := store.ReviewStore()

	fact := testFact("msg-1", "C1")
	fact.ID = "fact-1"

	item, created, err := reviews.Upsert(ctx, domain.NewReviewItem(fact, domain.ReviewNoCandidates, nil))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.ReviewOpen, item.Status)

	again, created, err := reviews.Upsert(ctx, domain.NewReviewItem(fact, domain.ReviewAmbiguous, []string{"b1", "b2"}))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, item.ID, again.ID)

	got, err := reviews.GetByFact(ctx, "fact-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewAmbiguous, got.Reason)
	assert.Equal(t, []string{"b1", "b2"}, got.CandidateBookingIDs)
	assert.Equal(t, "C1", got.ConfirmationCode)

	open, err := reviews.List(ctx, domain.ReviewFilter{Status: domain.ReviewOpen})
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestReviewStore_ClosedItemsAreFinal(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	reviews := store.ReviewStore()

	fact := testFact("msg-1", "C1")
	fact.ID = "fact-1"
	item, _, err := reviews.Upsert(ctx, domain.NewReviewItem(fact, domain.ReviewNoCandidates, nil))
	require.NoError(t, err)

	require.NoError(t, reviews.Close(ctx, item.ID, domain.ReviewDismissed, ""))
	assert.ErrorIs(t, reviews.Close(ctx, item.ID, domain.ReviewResolved, "b1"), domain.ErrReviewClosed)
	assert.ErrorIs(t, reviews.Close(ctx, "missing", domain.ReviewResolved, ""), domain.ErrNotFound)
	assert.ErrorIs(t, reviews.Close(ctx, item.ID, domain.ReviewOpen, ""), domain.ErrInvalidInput)

	stored, created, err := reviews.Upsert(ctx, domain.NewReviewItem(fact, domain.ReviewAmbiguous, []string{"b1"}))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, domain.ReviewDismissed, stored.Status)
	assert.Equal(t, domain.ReviewNoCandidates, stored.Reason)
	require.NotNil(t, stored.ResolvedAt)

	open, err := reviews.List(ctx, domain.ReviewFilter{Status: domain.ReviewOpen})
	require.NoError(t, err)
	assert.Empty(t, open)

	byConn, err := reviews.List(ctx, domain.ReviewFilter{ConnectionID: "inbox"})
	require.NoError(t, err)
	assert.Len(t, byConn, 1)
}

// ==================== Attempt Store ====================

func TestAttemptStore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	attempts := store.AttemptStore()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []*domain.ExtractionAttempt{
		{SourceMessageID: "m1", ConnectionID: "inbox", Classification: domain.ClassConfirmation,
			Outcome: domain.OutcomeParsed, FactID: "f1", AttemptedAt: base},
		{SourceMessageID: "m2", ConnectionID: "inbox", Classification: domain.ClassConfirmation,
			Outcome: domain.OutcomeRejected, Reason: domain.RejectNoDates, AttemptedAt: base.Add(time.Minute),
			Trace: []domain.RuleTrace{{Field: "check_in", Tried: []string{"check_in_label"}}}},
		{SourceMessageID: "m3", ConnectionID: "inbox", Classification: domain.ClassOther,
			Outcome: domain.OutcomeIgnored, AttemptedAt: base.Add(2 * time.Minute)},
	}
	for _, a := range records {
		require.NoError(t, attempts.Record(ctx, a))
	}

	seen, err := attempts.Processed(ctx, []string{"m1", "m3", "m9"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"m1": true, "m3": true}, seen)

	rejected, err := attempts.List(ctx, "inbox", domain.OutcomeRejected, 0)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, domain.RejectNoDates, rejected[0].Reason)
	assert.Equal(t, "check_in", rejected[0].Trace[0].Field)

	latest, err := attempts.List(ctx, "inbox", "", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "m3", latest[0].SourceMessageID)

	got, err := attempts.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "f1", got.FactID)

	missing, err := attempts.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.ErrorIs(t, attempts.Record(ctx, &domain.ExtractionAttempt{}), domain.ErrInvalidInput)
}

// ==================== Configuration Stores ====================

func TestConnectionStore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	conns := store.ConnectionStore()

	conn := domain.Connection{
		ID:          "feed-1",
		Type:        domain.ConnectionICal,
		Name:        "Loft Lodgify",
		Config:      map[string]string{domain.ConfigURL: "https://example.test/feed.ics"},
		PropertyIDs: []string{"prop-1"},
	}
	require.NoError(t, conns.Save(ctx, conn))

	got, err := conns.Get(ctx, "feed-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.Equal(t, []string{"prop-1"}, got.PropertyIDs)
	assert.Equal(t, "https://example.test/feed.ics", got.Config[domain.ConfigURL])
	assert.Nil(t, got.LastSyncAt)

	require.NoError(t, conns.UpdateStatus(ctx, "feed-1", domain.StatusNeedsReconnect, "feed revoked"))
	got, err = conns.Get(ctx, "feed-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNeedsReconnect, got.Status)
	assert.Equal(t, "feed revoked", got.LastError)
	assert.NotNil(t, got.LastSyncAt)

	assert.ErrorIs(t, conns.UpdateStatus(ctx, "missing", domain.StatusActive, ""), domain.ErrNotFound)

	list, err := conns.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, conns.Delete(ctx, "feed-1"))
	_, err = conns.Get(ctx, "feed-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPropertyStore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	props := store.PropertyStore()

	require.NoError(t, props.Save(ctx, domain.Property{ID: "p1", Name: "Loft", Cleaning: domain.CleaningPolicy{PreDays: 1, PostDays: 1}}))
	require.NoError(t, props.Save(ctx, domain.Property{ID: "p1", Name: "Loft", Cleaning: domain.CleaningPolicy{PostDays: 2}}))

	got, err := props.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.CleaningPolicy{PostDays: 2}, got.Cleaning)

	err = props.Save(ctx, domain.Property{ID: "p2", Cleaning: domain.CleaningPolicy{PreDays: -1}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = props.Get(ctx, "p2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCredentialsStore_CascadeOnConnectionDelete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.ConnectionStore().Save(ctx, domain.Connection{
		ID: "inbox", Type: domain.ConnectionGmail, Name: "Inbox",
	}))

	creds := store.CredentialsStore()
	expiry := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	require.NoError(t, creds.Save(ctx, domain.Credentials{
		ID:           "cred-1",
		ConnectionID: "inbox",
		OAuth:        &domain.OAuthCredentials{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer", Expiry: expiry},
	}))

	got, err := creds.GetByConnectionID(ctx, "inbox")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "rt", got.OAuth.RefreshToken)
	assert.True(t, expiry.Equal(got.OAuth.Expiry))

	require.NoError(t, store.ConnectionStore().Delete(ctx, "inbox"))

	gone, err := creds.GetByConnectionID(ctx, "inbox")
	require.NoError(t, err)
	assert.Nil(t, gone)

	assert.ErrorIs(t, creds.Save(ctx, domain.Credentials{ID: "x"}), domain.ErrInvalidInput)
}
