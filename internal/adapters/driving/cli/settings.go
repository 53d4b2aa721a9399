package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rentsync/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change sync limits, the Google OAuth client and the
reconciliation options. Settings live in ~/.rentsync/config.toml and can
be overridden with RENTSYNC_* environment variables or a .env file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings",
	Long: `Change one or more settings. Only the flags given are changed.

Examples:
  rentsync settings set --fetch-timeout 45s --parallelism 2
  rentsync settings set --google-client-id ID --google-client-secret SECRET
  rentsync settings set --buffer-block-platforms Lodgify,Hostaway
  rentsync settings set --buffer-block-platforms ""`,
	RunE: runSettingsSet,
}

func init() {
	f := settingsSetCmd.Flags()
	f.Duration("fetch-timeout", 0, "timeout for each feed fetch or mailbox call")
	f.Int("parallelism", 0, "connections synchronised at once")
	f.Duration("token-margin", 0, "refresh access tokens this long before expiry")
	f.Int("max-messages", 0, "messages read per mailbox run")
	f.String("google-client-id", "", "Google OAuth client ID")
	f.String("google-client-secret", "", "Google OAuth client secret")
	f.StringSlice("buffer-block-platforms", nil, "platforms whose blocks become cleaning days (empty disables)")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Sync]")
	cmd.Printf("  Fetch timeout: %s\n", settings.Sync.FetchTimeout)
	cmd.Printf("  Parallelism:   %d\n", settings.Sync.Parallelism)
	cmd.Printf("  Token margin:  %s\n", settings.Sync.TokenMargin)
	cmd.Printf("  Max messages:  %d\n", settings.Sync.MaxMessages)
	cmd.Println()

	cmd.Println("[Google]")
	if settings.Google.ClientID != "" {
		cmd.Printf("  Client ID:     %s\n", settings.Google.ClientID)
	} else {
		cmd.Println("  Client ID:     (not set)")
	}
	if settings.Google.ClientSecret != "" {
		cmd.Printf("  Client secret: %s\n", maskAPIKey(settings.Google.ClientSecret))
	} else {
		cmd.Println("  Client secret: (not set)")
	}
	cmd.Println()

	cmd.Println("[Reconcile]")
	platforms := strings.Join(settings.Reconcile.BufferBlockPlatforms, ", ")
	if platforms == "" {
		platforms = "(none)"
	}
	cmd.Printf("  Buffer block platforms: %s\n", platforms)
	cmd.Println()

	if !settings.Google.IsConfigured() {
		cmd.Println("Google client not configured: Gmail and Google Calendar tokens cannot be refreshed.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	f := cmd.Flags()
	changed := 0
	if f.Changed("fetch-timeout") {
		settings.Sync.FetchTimeout, _ = f.GetDuration("fetch-timeout")
		changed++
	}
	if f.Changed("parallelism") {
		settings.Sync.Parallelism, _ = f.GetInt("parallelism")
		changed++
	}
	if f.Changed("token-margin") {
		settings.Sync.TokenMargin, _ = f.GetDuration("token-margin")
		changed++
	}
	if f.Changed("max-messages") {
		settings.Sync.MaxMessages, _ = f.GetInt("max-messages")
		changed++
	}
	if f.Changed("google-client-id") {
		settings.Google.ClientID, _ = f.GetString("google-client-id")
		changed++
	}
	if f.Changed("google-client-secret") {
		settings.Google.ClientSecret, _ = f.GetString("google-client-secret")
		changed++
	}
	if f.Changed("buffer-block-platforms") {
		platforms, _ := f.GetStringSlice("buffer-block-platforms")
		settings.Reconcile.BufferBlockPlatforms = compact(platforms)
		changed++
	}
	if changed == 0 {
		return errors.New("no settings given; see 'rentsync settings set --help'")
	}

	if err := services.Validate(settings); err != nil {
		return err
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("Updated %d setting(s).\n", changed)
	return nil
}

// compact drops blank entries, keeping an empty non-nil slice.
func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// maskAPIKey masks a secret for display, showing only the first and last 4 characters.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
