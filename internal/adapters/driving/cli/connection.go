package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

var connectionCmd = &cobra.Command{
	Use:     "connection",
	Aliases: []string{"conn"},
	Short:   "Manage mailboxes and calendar feeds",
}

var connectionAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a mailbox or calendar feed",
	Long: `Add a connection.

Types:
  gmail - a Gmail mailbox, optionally narrowed with --label and --query
  ical  - an iCalendar feed URL (--url), mapped to exactly one property
  gcal  - a Google Calendar (--calendar), mapped to exactly one property

Examples:
  rentsync connection add --type ical --name "Beach House (Airbnb)" \
    --property beach --url https://www.airbnb.com/calendar/ical/123.ics --platform Airbnb
  rentsync connection add --type gmail --name Reservations --property beach --property loft \
    --label Label_42`,
	RunE: runConnectionAdd,
}

var connectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connections",
	RunE:  runConnectionList,
}

var connectionRemoveCmd = &cobra.Command{
	Use:   "remove <connection-id>",
	Short: "Remove a connection and its credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runConnectionRemove,
}

var connectionCredentialsCmd = &cobra.Command{
	Use:   "credentials <connection-id>",
	Short: "Store OAuth tokens for a Google connection",
	Long: `Store OAuth tokens obtained outside rentsync (for example with the
OAuth Playground) for a gmail or gcal connection. A refresh token lets
rentsync renew access on its own; google.client_id and
google.client_secret must then be configured.`,
	Args: cobra.ExactArgs(1),
	RunE: runConnectionCredentials,
}

var attemptsCmd = &cobra.Command{
	Use:   "attempts <mailbox-id>",
	Short: "Show how each message of a mailbox was extracted",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttempts,
}

var (
	connAddID         string
	connAddType       string
	connAddName       string
	connAddProperties []string
	connAddURL        string
	connAddPlatform   string
	connAddLabels     []string
	connAddQuery      string
	connAddCalendar   string

	credAccessToken  string
	credRefreshToken string
	credExpiresIn    time.Duration

	attemptsOutcome string
	attemptsLimit   int
	attemptsTrace   bool
)

func init() {
	f := connectionAddCmd.Flags()
	f.StringVar(&connAddID, "id", "", "connection ID (generated when empty)")
	f.StringVar(&connAddType, "type", "", "gmail, ical or gcal")
	f.StringVar(&connAddName, "name", "", "display name")
	f.StringSliceVar(&connAddProperties, "property", nil, "property reachable from the connection (repeatable)")
	f.StringVar(&connAddURL, "url", "", "iCal feed URL")
	f.StringVar(&connAddPlatform, "platform", "", "platform label for feed bookings (e.g. Airbnb, Lodgify)")
	f.StringSliceVar(&connAddLabels, "label", nil, "Gmail label ID (repeatable)")
	f.StringVar(&connAddQuery, "query", "", "Gmail search query")
	f.StringVar(&connAddCalendar, "calendar", "", "Google Calendar ID")
	_ = connectionAddCmd.MarkFlagRequired("type")

	cf := connectionCredentialsCmd.Flags()
	cf.StringVar(&credAccessToken, "access-token", "", "OAuth access token")
	cf.StringVar(&credRefreshToken, "refresh-token", "", "OAuth refresh token")
	cf.DurationVar(&credExpiresIn, "expires-in", time.Hour, "remaining lifetime of the access token")

	af := attemptsCmd.Flags()
	af.StringVar(&attemptsOutcome, "outcome", "", "parsed, rejected or ignored")
	af.IntVar(&attemptsLimit, "limit", 20, "maximum attempts to show (0 = all)")
	af.BoolVar(&attemptsTrace, "trace", false, "show the rules tried for every field")

	connectionCmd.AddCommand(connectionAddCmd)
	connectionCmd.AddCommand(connectionListCmd)
	connectionCmd.AddCommand(connectionRemoveCmd)
	connectionCmd.AddCommand(connectionCredentialsCmd)
	rootCmd.AddCommand(connectionCmd)
	rootCmd.AddCommand(attemptsCmd)
}

func runConnectionAdd(cmd *cobra.Command, _ []string) error {
	if connectionService == nil {
		return errors.New("connection service not configured")
	}

	conn := domain.Connection{
		ID:          connAddID,
		Type:        domain.ConnectionType(connAddType),
		Name:        connAddName,
		Config:      make(map[string]string),
		PropertyIDs: connAddProperties,
	}
	setIf := func(key, val string) {
		if val != "" {
			conn.Config[key] = val
		}
	}
	setIf(domain.ConfigURL, connAddURL)
	setIf(domain.ConfigPlatform, connAddPlatform)
	setIf(domain.ConfigLabelIDs, strings.Join(connAddLabels, ","))
	setIf(domain.ConfigQuery, connAddQuery)
	setIf(domain.ConfigCalendarID, connAddCalendar)
	if conn.Name == "" {
		conn.Name = connAddType
	}

	if err := connectionService.Add(commandContext(cmd), conn); err != nil {
		return fmt.Errorf("failed to add connection: %w", err)
	}

	cmd.Printf("Added %s connection %q\n", conn.Type, conn.Name)
	if conn.Type.RequiresOAuth() {
		cmd.Println("Authorize it with: rentsync connection authorize <connection-id>")
	}
	return nil
}

func runConnectionList(cmd *cobra.Command, _ []string) error {
	if connectionService == nil {
		return errors.New("connection service not configured")
	}

	conns, err := connectionService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list connections: %w", err)
	}
	if len(conns) == 0 {
		cmd.Println("No connections configured.")
		cmd.Println("Add one with: rentsync connection add --type ical ...")
		return nil
	}

	for i := range conns {
		c := &conns[i]
		cmd.Printf("%s  %s  %q\n", c.ID, c.Type, c.Name)
		cmd.Printf("    Properties: %s\n", strings.Join(c.PropertyIDs, ", "))
		cmd.Printf("    Status:     %s\n", c.Status)
		if c.LastSyncAt != nil {
			cmd.Printf("    Last sync:  %s\n", c.LastSyncAt.Format(time.RFC3339))
		}
		if c.LastError != "" {
			cmd.Printf("    Last error: %s\n", c.LastError)
		}
	}
	return nil
}

func runConnectionRemove(cmd *cobra.Command, args []string) error {
	if connectionService == nil {
		return errors.New("connection service not configured")
	}
	if err := connectionService.Remove(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to remove connection: %w", err)
	}
	cmd.Printf("Removed connection %s\n", args[0])
	return nil
}

func runConnectionCredentials(cmd *cobra.Command, args []string) error {
	if connectionService == nil {
		return errors.New("connection service not configured")
	}

	oauth := domain.OAuthCredentials{
		AccessToken:  credAccessToken,
		RefreshToken: credRefreshToken,
		TokenType:    "Bearer",
	}
	if credAccessToken != "" {
		oauth.Expiry = time.Now().Add(credExpiresIn)
	}

	if err := connectionService.SetCredentials(commandContext(cmd), args[0], oauth); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	cmd.Printf("Stored credentials for %s\n", args[0])
	return nil
}

func runAttempts(cmd *cobra.Command, args []string) error {
	if connectionService == nil {
		return errors.New("connection service not configured")
	}

	attempts, err := connectionService.Attempts(commandContext(cmd), args[0],
		domain.AttemptOutcome(attemptsOutcome), attemptsLimit)
	if err != nil {
		return fmt.Errorf("failed to list attempts: %w", err)
	}
	if len(attempts) == 0 {
		cmd.Println("No extraction attempts.")
		return nil
	}

	for _, a := range attempts {
		cmd.Printf("%s  %s  %s", a.AttemptedAt.Format(time.DateTime), a.Outcome, a.Subject)
		if a.Reason != "" {
			cmd.Printf("  (%s)", a.Reason)
		}
		cmd.Println()
		if !attemptsTrace {
			continue
		}
		for _, tr := range a.Trace {
			matched := tr.Matched
			if matched == "" {
				matched = "-"
			}
			cmd.Printf("    %-10s tried %s, matched %s\n", tr.Field, strings.Join(tr.Tried, ", "), matched)
		}
	}
	return nil
}
