package gmail

import (
	"strconv"
	"strings"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// Config holds Gmail mailbox configuration.
type Config struct {
	// LabelIDs limits fetching to specific label IDs.
	// If empty, fetches INBOX.
	LabelIDs []string
	// Query is a Gmail search query (optional).
	Query string
	// PageSize is the page size for list requests.
	PageSize int64
	// IncludeSpamTrash includes spam and trash if true.
	IncludeSpamTrash bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LabelIDs: []string{"INBOX"},
		PageSize: 100,
	}
}

// ParseConfig extracts configuration from a connection.
func ParseConfig(conn *domain.Connection) *Config {
	cfg := DefaultConfig()

	if val := conn.Config[domain.ConfigLabelIDs]; val != "" {
		cfg.LabelIDs = cfg.LabelIDs[:0]
		for _, id := range strings.Split(val, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.LabelIDs = append(cfg.LabelIDs, id)
			}
		}
	}

	cfg.Query = conn.Config[domain.ConfigQuery]

	if val := conn.Config["page_size"]; val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil && n > 0 && n <= 500 {
			cfg.PageSize = n
		}
	}

	if conn.Config["include_spam_trash"] == "true" {
		cfg.IncludeSpamTrash = true
	}

	return cfg
}
