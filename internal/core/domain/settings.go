package domain

import "time"

// DefaultBufferBlockPlatforms are the providers whose placeholder blocks
// are dropped when they coincide with a generated cleaning window.
var DefaultBufferBlockPlatforms = []string{"Lodgify"}

// SyncSettings controls how connections are run.
type SyncSettings struct {
	// FetchTimeout bounds each external call (feed fetch, mailbox page).
	FetchTimeout time.Duration

	// Parallelism bounds concurrent connection runs in one SyncAll.
	Parallelism int

	// TokenMargin is how long before expiry an access token is refreshed.
	TokenMargin time.Duration

	// MaxMessages bounds messages listed per mailbox run.
	MaxMessages int
}

// GoogleSettings holds the OAuth client used to refresh Google tokens.
type GoogleSettings struct {
	ClientID     string
	ClientSecret string
}

// IsConfigured reports whether a client ID and secret are set.
func (g GoogleSettings) IsConfigured() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// ReconcileSettings tunes the reconciliation read model.
type ReconcileSettings struct {
	// BufferBlockPlatforms lists providers whose generic blocks may be
	// replaced by generated cleaning buffers.
	BufferBlockPlatforms []string
}

// AppSettings holds all application configuration.
type AppSettings struct {
	Sync      SyncSettings
	Google    GoogleSettings
	Reconcile ReconcileSettings
}

// DefaultAppSettings returns sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Sync: SyncSettings{
			FetchTimeout: 30 * time.Second,
			Parallelism:  4,
			TokenMargin:  5 * time.Minute,
			MaxMessages:  200,
		},
		Reconcile: ReconcileSettings{
			BufferBlockPlatforms: append([]string(nil), DefaultBufferBlockPlatforms...),
		},
	}
}
