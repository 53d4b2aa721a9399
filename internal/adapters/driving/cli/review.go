package cli

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Work through facts that could not be matched",
	Long: `A review item is opened when a confirmation email matches no calendar
booking, or more than one. Assign it to a property (optionally a specific
booking) or dismiss it.`,
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List review items",
	RunE:  runReviewList,
}

var reviewAssignCmd = &cobra.Command{
	Use:   "assign <review-id>",
	Short: "Assign a review item to a property or booking",
	Long: `Assign resolves a review item. With --booking the fact is attached to
that booking. With only --property the single matching booking on the
property is used, or a manual booking is created when there is none.`,
	Args: cobra.ExactArgs(1),
	RunE: runReviewAssign,
}

var reviewDismissCmd = &cobra.Command{
	Use:   "dismiss <review-id>",
	Short: "Dismiss a review item",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewDismiss,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <mailbox-id>",
	Short: "Re-run matching for a mailbox without fetching",
	Args:  cobra.ExactArgs(1),
	RunE:  runReconcile,
}

var (
	reviewStatus     string
	reviewConnection string
	assignProperty   string
	assignBooking    string
)

func init() {
	reviewListCmd.Flags().StringVar(&reviewStatus, "status", string(domain.ReviewOpen),
		"open, resolved, dismissed or all")
	reviewListCmd.Flags().StringVar(&reviewConnection, "connection", "", "only items from this mailbox")
	reviewAssignCmd.Flags().StringVar(&assignProperty, "property", "", "property to place the stay on")
	reviewAssignCmd.Flags().StringVar(&assignBooking, "booking", "", "booking to attach the fact to")

	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewAssignCmd)
	reviewCmd.AddCommand(reviewDismissCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(reconcileCmd)
}

func runReviewList(cmd *cobra.Command, _ []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	filter := domain.ReviewFilter{ConnectionID: reviewConnection}
	if reviewStatus != "all" {
		filter.Status = domain.ReviewStatus(reviewStatus)
	}

	items, err := reviewService.List(commandContext(cmd), filter)
	if err != nil {
		return fmt.Errorf("failed to list review items: %w", err)
	}
	if len(items) == 0 {
		cmd.Println("No review items.")
		return nil
	}

	for _, it := range items {
		printReviewItem(cmd, it)
	}
	return nil
}

func printReviewItem(cmd *cobra.Command, it *domain.ReviewItem) {
	cmd.Printf("%s  [%s] %s\n", it.ID, it.Status, it.Reason)
	cmd.Printf("    Guest:   %s (%d)\n", it.GuestName, it.GuestCount)
	cmd.Printf("    Stay:    %s to %s\n", it.CheckIn, it.CheckOut)
	cmd.Printf("    Code:    %s\n", it.ConfirmationCode)
	if it.ListingName != "" {
		cmd.Printf("    Listing: %s\n", it.ListingName)
	}
	if len(it.CandidateBookingIDs) > 0 {
		cmd.Printf("    Candidates: %s\n", strings.Join(it.CandidateBookingIDs, ", "))
	}
	if it.ResolvedBookingID != "" {
		cmd.Printf("    Booking: %s\n", it.ResolvedBookingID)
	}
	cmd.Println()
}

func runReviewAssign(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}
	if assignProperty == "" && assignBooking == "" {
		return errors.New("--property or --booking is required")
	}

	booking, err := reviewService.Assign(commandContext(cmd), domain.Resolution{
		ReviewID:   args[0],
		PropertyID: assignProperty,
		BookingID:  assignBooking,
	})
	switch {
	case errors.Is(err, domain.ErrAmbiguous):
		return fmt.Errorf("%w; pick one with --booking", err)
	case err != nil:
		return fmt.Errorf("failed to assign: %w", err)
	}

	cmd.Printf("Assigned %s to booking %s (%s, %s)\n",
		args[0], booking.ID, booking.DisplayName(), booking.Stay())
	return nil
}

func runReviewDismiss(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}
	if err := reviewService.Dismiss(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to dismiss: %w", err)
	}
	cmd.Printf("Dismissed %s\n", args[0])
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	if reconcileService == nil {
		return errors.New("reconcile service not configured")
	}

	summary, err := reconcileService.ReconcileConnection(commandContext(cmd), args[0])
	if summary != nil {
		cmd.Printf("Facts: %d, enriched: %d, corrected: %d, new review items: %d\n",
			summary.Facts, summary.BookingsEnriched, summary.FactsCorrected, summary.ReviewItemsCreated)
		for _, outcome := range slices.Sorted(maps.Keys(summary.Outcomes)) {
			cmd.Printf("  %s: %d\n", outcome, summary.Outcomes[outcome])
		}
	}
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}
	return nil
}
