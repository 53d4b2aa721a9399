package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
	"github.com/custodia-labs/rentsync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyFetchTimeout   = "sync.fetch_timeout"
	keyParallelism    = "sync.parallelism"
	keyTokenMargin    = "sync.token_margin"
	keyMaxMessages    = "sync.max_messages"
	keyGoogleClientID = "google.client_id"
	keyGoogleSecret   = "google.client_secret"
	keyBlockPlatforms = "reconcile.buffer_block_platforms"
	keySchedulerOn    = "scheduler.enabled"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Sync: domain.SyncSettings{
			FetchTimeout: s.getDuration(keyFetchTimeout, defaults.Sync.FetchTimeout),
			Parallelism:  s.getInt(keyParallelism, defaults.Sync.Parallelism),
			TokenMargin:  s.getDuration(keyTokenMargin, defaults.Sync.TokenMargin),
			MaxMessages:  s.getInt(keyMaxMessages, defaults.Sync.MaxMessages),
		},
		Google: domain.GoogleSettings{
			ClientID:     s.configStore.GetString(keyGoogleClientID),
			ClientSecret: s.configStore.GetString(keyGoogleSecret),
		},
		Reconcile: domain.ReconcileSettings{
			BufferBlockPlatforms: defaults.Reconcile.BufferBlockPlatforms,
		},
	}

	// An explicitly empty list disables block replacement.
	if _, exists := s.configStore.Get(keyBlockPlatforms); exists {
		settings.Reconcile.BufferBlockPlatforms = s.configStore.GetStringSlice(keyBlockPlatforms)
		if settings.Reconcile.BufferBlockPlatforms == nil {
			settings.Reconcile.BufferBlockPlatforms = []string{}
		}
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := Validate(settings); err != nil {
		return err
	}

	if err := s.configStore.Set(keyFetchTimeout, settings.Sync.FetchTimeout.String()); err != nil {
		return fmt.Errorf("save fetch timeout: %w", err)
	}
	if err := s.configStore.Set(keyParallelism, settings.Sync.Parallelism); err != nil {
		return fmt.Errorf("save parallelism: %w", err)
	}
	if err := s.configStore.Set(keyTokenMargin, settings.Sync.TokenMargin.String()); err != nil {
		return fmt.Errorf("save token margin: %w", err)
	}
	if err := s.configStore.Set(keyMaxMessages, settings.Sync.MaxMessages); err != nil {
		return fmt.Errorf("save max messages: %w", err)
	}

	if settings.Google.ClientID != "" {
		if err := s.configStore.Set(keyGoogleClientID, settings.Google.ClientID); err != nil {
			return fmt.Errorf("save google client_id: %w", err)
		}
	}
	if settings.Google.ClientSecret != "" {
		if err := s.configStore.Set(keyGoogleSecret, settings.Google.ClientSecret); err != nil {
			return fmt.Errorf("save google client_secret: %w", err)
		}
	}

	platforms := settings.Reconcile.BufferBlockPlatforms
	if platforms == nil {
		platforms = []string{}
	}
	if err := s.configStore.Set(keyBlockPlatforms, platforms); err != nil {
		return fmt.Errorf("save buffer block platforms: %w", err)
	}

	return nil
}

// Validate checks settings for values the sync engine cannot run with.
func Validate(settings *domain.AppSettings) error {
	switch {
	case settings == nil:
		return fmt.Errorf("settings are required: %w", domain.ErrInvalidInput)
	case settings.Sync.FetchTimeout <= 0:
		return fmt.Errorf("fetch timeout must be positive: %w", domain.ErrInvalidInput)
	case settings.Sync.Parallelism < 1:
		return fmt.Errorf("parallelism must be at least 1: %w", domain.ErrInvalidInput)
	case settings.Sync.TokenMargin < 0:
		return fmt.Errorf("token margin must not be negative: %w", domain.ErrInvalidInput)
	case settings.Sync.MaxMessages < 1:
		return fmt.Errorf("max messages must be at least 1: %w", domain.ErrInvalidInput)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

// GetSchedulerConfig returns the scheduler configuration.
// Returns default configuration if nothing is configured.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	defaults := domain.DefaultSchedulerConfig()

	// Master switch
	if _, exists := s.configStore.Get(keySchedulerOn); exists {
		defaults.Enabled = s.configStore.GetBool(keySchedulerOn)
	}

	// Map from task ID to config key (underscore version for TOML)
	taskKeys := map[string]string{
		domain.TaskIDOAuthRefresh:    "oauth_refresh",
		domain.TaskIDReservationSync: "reservation_sync",
	}

	for taskID, configKey := range taskKeys {
		prefix := "scheduler." + configKey + "."

		taskCfg := defaults.TaskConfigs[taskID]

		if _, exists := s.configStore.Get(prefix + "enabled"); exists {
			taskCfg.Enabled = s.configStore.GetBool(prefix + "enabled")
		}

		// Interval is a duration string like "45m" or "1h".
		if interval := s.configStore.GetDuration(prefix + "interval"); interval > 0 {
			taskCfg.Interval = interval
		}

		defaults.TaskConfigs[taskID] = taskCfg
	}

	return defaults
}
