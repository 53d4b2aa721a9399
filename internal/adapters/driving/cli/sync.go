package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync [connection-id]",
	Short: "Synchronise calendar feeds and mailboxes",
	Long: `Fetches calendar feeds and confirmation emails and reconciles them.
If a connection ID is provided, only that connection is synchronised.
Otherwise, every feed is synchronised first, then every mailbox.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status <connection-id>",
	Short: "Show the sync state of a connection",
	Args:  cobra.ExactArgs(1),
	RunE:  runSyncStatus,
}

func init() {
	syncCmd.AddCommand(syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	ctx := commandContext(cmd)

	if len(args) > 0 {
		connectionID := args[0]
		cmd.Printf("Synchronising connection: %s...\n", connectionID)

		result, err := syncOrchestrator.Sync(ctx, connectionID)
		if result != nil {
			printSyncResult(cmd, result)
		}
		if err != nil {
			if errors.Is(err, domain.ErrSyncInProgress) {
				return fmt.Errorf("connection %s is already syncing", connectionID)
			}
			return fmt.Errorf("sync failed: %w", err)
		}
		return nil
	}

	cmd.Println("Synchronising all connections...")
	results, err := syncOrchestrator.SyncAll(ctx)
	for i := range results {
		printSyncResult(cmd, &results[i])
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	cmd.Println("All connections synchronised successfully.")
	return nil
}

func printSyncResult(cmd *cobra.Command, r *domain.SyncResult) {
	cmd.Printf("  %s: %s", r.ConnectionID, r.Status)
	var parts []string
	add := func(n int, label string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	add(r.BookingsUpserted, "bookings updated")
	add(r.BookingsDeactivated, "bookings removed")
	add(r.FactsParsed, "facts parsed")
	add(r.FactsRejected, "messages rejected")
	add(r.BookingsEnriched, "bookings enriched")
	add(r.ReviewItemsCreated, "new review items")
	if len(parts) > 0 {
		cmd.Printf(" (%s)", strings.Join(parts, ", "))
	}
	cmd.Println()
	for _, e := range r.Errors {
		cmd.Printf("    error: %s\n", e)
	}
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	status, err := syncOrchestrator.Status(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	cmd.Printf("Connection: %s\n", status.ConnectionID)
	cmd.Printf("Health:     %s\n", status.Health)
	cmd.Printf("Running:    %t\n", status.Running)
	if status.LastError != "" {
		cmd.Printf("Last error: %s\n", status.LastError)
	}
	if status.Health == domain.StatusNeedsReconnect {
		cmd.Printf("Store new tokens with: rentsync connection credentials %s\n", status.ConnectionID)
	}
	return nil
}
