package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar <property-id>",
	Short: "Show the occupancy of a property",
	Long: `Show active bookings for a property after block suppression, with the
cleaning buffers derived from its cleaning policy and any overlapping
bookings that need attention.`,
	Args: cobra.ExactArgs(1),
	RunE: runCalendar,
}

var calendarJSON bool

func init() {
	calendarCmd.Flags().BoolVar(&calendarJSON, "json", false, "print the calendar as JSON")
	rootCmd.AddCommand(calendarCmd)
}

func runCalendar(cmd *cobra.Command, args []string) error {
	if calendarService == nil {
		return errors.New("calendar service not configured")
	}

	cal, err := calendarService.PropertyCalendar(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to build calendar: %w", err)
	}

	if calendarJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cal)
	}

	cmd.Printf("%s\n\n", cal.Property.Name)
	if len(cal.Bookings) == 0 {
		cmd.Println("No active bookings.")
	}
	for _, b := range cal.Bookings {
		cmd.Printf("  %s  %-8s %s", b.Stay(), b.Kind(), b.DisplayName())
		if b.Platform != "" {
			cmd.Printf(" [%s]", b.Platform)
		}
		if b.IsManual() {
			cmd.Print(" (manual)")
		}
		cmd.Println()
	}

	if len(cal.Buffers) > 0 {
		cmd.Println("\nCleaning:")
		for _, buf := range cal.Buffers {
			cmd.Printf("  %s  %s\n", buf.Date, buf.Side)
		}
	}
	printHidden(cmd, "Suppressed blocks", cal.Suppressed)
	printHidden(cmd, "Blocks shown as cleaning", cal.Replaced)

	if len(cal.Conflicts) > 0 {
		cmd.Println("\nOverlapping bookings:")
		for _, c := range cal.Conflicts {
			cmd.Printf("  %s <-> %s\n", c.First, c.Second)
		}
	}
	return nil
}

func printHidden(cmd *cobra.Command, title string, bookings []*domain.Booking) {
	if len(bookings) == 0 {
		return
	}
	cmd.Printf("\n%s:\n", title)
	for _, b := range bookings {
		cmd.Printf("  %s  %s\n", b.Stay(), b.DisplayName())
	}
}
