package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/rentsync/internal/adapters/driving/oauth"
	"github.com/custodia-labs/rentsync/internal/core/domain"
)

var connectionAuthorizeCmd = &cobra.Command{
	Use:   "authorize <connection-id>",
	Short: "Authorize a Google connection in the browser",
	Long: `Open Google's consent page for a gmail or gcal connection and store
the tokens it returns. google.client_id and google.client_secret must be
configured, and the OAuth client must allow loopback redirects.`,
	Args: cobra.ExactArgs(1),
	RunE: runConnectionAuthorize,
}

var (
	authorizeNoBrowser bool
	authorizeTimeout   time.Duration
)

// authorize runs the consent flow. Tests replace it.
var authorize = func(ctx context.Context, cfg oauth2.Config, open func(string) error, timeout time.Duration) (*domain.OAuthCredentials, error) {
	flow := &oauth.Flow{Config: cfg, Open: open, Timeout: timeout}
	return flow.Run(ctx)
}

func init() {
	f := connectionAuthorizeCmd.Flags()
	f.BoolVar(&authorizeNoBrowser, "no-browser", false, "print the consent URL instead of opening a browser")
	f.DurationVar(&authorizeTimeout, "timeout", 5*time.Minute, "how long to wait for consent")

	connectionCmd.AddCommand(connectionAuthorizeCmd)
}

func runConnectionAuthorize(cmd *cobra.Command, args []string) error {
	if connectionService == nil {
		return errors.New("connection service not configured")
	}
	ctx := commandContext(cmd)

	conn, err := connectionService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	if !conn.Type.RequiresOAuth() {
		return fmt.Errorf("%s connections do not use OAuth", conn.Type)
	}
	if googleOAuth.ClientID == "" {
		return errors.New("google.client_id is not configured; set it with: rentsync settings set --google-client-id <id>")
	}

	printURL := func(u string) error {
		cmd.Printf("Open this URL to authorize %q:\n\n  %s\n\n", conn.Name, u)
		return nil
	}
	open := printURL
	if !authorizeNoBrowser {
		open = func(u string) error {
			if err := oauth.OpenBrowser(u); err != nil {
				return printURL(u)
			}
			cmd.Println("Waiting for consent in the browser...")
			return nil
		}
	}

	creds, err := authorize(ctx, googleOAuth, open, authorizeTimeout)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}
	if creds.RefreshToken == "" {
		cmd.Println("Warning: no refresh token was issued; re-run authorize once the access token expires.")
	}

	if err := connectionService.SetCredentials(ctx, conn.ID, *creds); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	cmd.Printf("Authorized %s\n", conn.ID)
	return nil
}
