package domain

import (
	"fmt"
	"time"
)

// ConnectionType identifies the kind of external input.
type ConnectionType string

const (
	// ConnectionGmail is a label-scoped Gmail mailbox.
	ConnectionGmail ConnectionType = "gmail"

	// ConnectionICal is an iCalendar feed fetched over HTTP.
	ConnectionICal ConnectionType = "ical"

	// ConnectionGoogleCalendar is a Google Calendar read via the API.
	ConnectionGoogleCalendar ConnectionType = "gcal"
)

// IsValid returns true if the connection type is recognised.
func (t ConnectionType) IsValid() bool {
	switch t {
	case ConnectionGmail, ConnectionICal, ConnectionGoogleCalendar:
		return true
	default:
		return false
	}
}

// IsFeed reports whether the connection produces bookings.
func (t ConnectionType) IsFeed() bool {
	return t == ConnectionICal || t == ConnectionGoogleCalendar
}

// IsMailbox reports whether the connection produces facts.
func (t ConnectionType) IsMailbox() bool {
	return t == ConnectionGmail
}

// RequiresOAuth reports whether the connection needs OAuth credentials.
func (t ConnectionType) RequiresOAuth() bool {
	return t == ConnectionGmail || t == ConnectionGoogleCalendar
}

// ConnectionStatus is the health of a connection after its last run.
type ConnectionStatus string

const (
	// StatusActive means the last run reached the provider.
	StatusActive ConnectionStatus = "active"

	// StatusError is a transient failure; the next run retries.
	StatusError ConnectionStatus = "error"

	// StatusNeedsReconnect means the credential is permanently invalid.
	StatusNeedsReconnect ConnectionStatus = "needs_reconnect"
)

// Config keys understood by the connectors.
const (
	ConfigURL        = "url"
	ConfigPlatform   = "platform"
	ConfigLabelIDs   = "label_ids"
	ConfigQuery      = "query"
	ConfigCalendarID = "calendar_id"
)

// Connection is one external mailbox or calendar feed.
type Connection struct {
	// ID is the unique identifier for the connection.
	ID string

	// Type is gmail, ical or gcal.
	Type ConnectionType

	// Name is the human-readable name.
	Name string

	// Config contains connector-specific configuration.
	Config map[string]string

	// PropertyIDs are the properties reachable from this connection.
	// A feed connection has exactly one.
	PropertyIDs []string

	// CredentialsID references OAuth tokens. Empty for plain iCal feeds.
	CredentialsID string

	// Status is the health after the last run.
	Status ConnectionStatus

	// LastError is the message of the last failure.
	LastError string

	// LastSyncAt is when the last run finished.
	LastSyncAt *time.Time

	// CreatedAt is when the connection was created.
	CreatedAt time.Time

	// UpdatedAt is when the connection was last updated.
	UpdatedAt time.Time
}

// Validate checks the connection is usable.
func (c *Connection) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("connection id is required: %w", ErrInvalidInput)
	}
	if !c.Type.IsValid() {
		return fmt.Errorf("connection type %q: %w", c.Type, ErrUnsupportedType)
	}
	if c.Type.IsFeed() && len(c.PropertyIDs) != 1 {
		return fmt.Errorf("feed connection %s must map to exactly one property: %w", c.ID, ErrInvalidInput)
	}
	if c.Type == ConnectionICal && c.Config[ConfigURL] == "" {
		return fmt.Errorf("ical connection %s has no url: %w", c.ID, ErrInvalidInput)
	}
	return nil
}

// FeedPropertyID returns the single property a feed writes to.
func (c *Connection) FeedPropertyID() string {
	if len(c.PropertyIDs) == 0 {
		return ""
	}
	return c.PropertyIDs[0]
}

// Property is a rental unit with its own calendar.
type Property struct {
	// ID is the unique identifier for the property.
	ID string

	// Name is the human-readable name.
	Name string

	// Cleaning is the turnover policy used to derive buffer days.
	Cleaning CleaningPolicy

	// CreatedAt is when the property was created.
	CreatedAt time.Time
}

// CleaningPolicy sizes the buffers around real bookings.
type CleaningPolicy struct {
	// PreDays are blocked immediately before check-in.
	PreDays int

	// PostDays are blocked starting at check-out.
	PostDays int
}

// MaxBufferDays bounds each side of a cleaning policy.
const MaxBufferDays = 14

// Validate checks the policy bounds.
func (p CleaningPolicy) Validate() error {
	if p.PreDays < 0 || p.PreDays > MaxBufferDays || p.PostDays < 0 || p.PostDays > MaxBufferDays {
		return fmt.Errorf("cleaning policy %d/%d outside 0..%d: %w", p.PreDays, p.PostDays, MaxBufferDays, ErrInvalidInput)
	}
	return nil
}
