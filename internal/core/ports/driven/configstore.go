package driven

import "time"

// ConfigReader reads settings by dotted key ("sync.parallelism").
// Typed getters return the zero value for a missing or unreadable key.
type ConfigReader interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// GetDuration accepts Go duration strings and whole seconds.
	GetDuration(key string) time.Duration
}

// ConfigStore is a ConfigReader that can also write. Set persists before
// returning, so a failed write is reported to the caller.
type ConfigStore interface {
	ConfigReader
	Set(key string, value any) error
}
