package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/normalisers/eml"
	"github.com/custodia-labs/rentsync/internal/normalisers/reservation"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file.eml>...",
	Short: "Run fact extraction on saved email files",
	Long: `Extract reads .eml files and shows what rentsync would extract from
them, without storing anything. Use "-" to read one message from stdin.

Examples:
  rentsync extract confirmation.eml
  rentsync extract --trace ~/Downloads/*.eml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

var (
	extractTrace bool
	extractJSON  bool
)

func init() {
	extractCmd.Flags().BoolVar(&extractTrace, "trace", false, "show the rules tried for every field")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(extractCmd)
}

type extractOutput struct {
	File       string                  `json:"file"`
	Class      domain.MessageClass     `json:"class"`
	Outcome    domain.AttemptOutcome   `json:"outcome"`
	BodySource string                  `json:"body_source,omitempty"`
	Reason     domain.RejectReason     `json:"reason,omitempty"`
	Fact       *domain.ReservationFact `json:"fact,omitempty"`
	Trace      []domain.RuleTrace      `json:"trace,omitempty"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	extractor := reservation.New()
	outputs := make([]extractOutput, 0, len(args))

	for _, path := range args {
		msg, err := readMessage(cmd, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		res := extractor.Extract(msg, "")
		out := extractOutput{
			File:       path,
			Class:      res.Class,
			Outcome:    res.Outcome(),
			BodySource: res.BodySource,
			Reason:     res.Reason,
			Fact:       res.Fact,
		}
		if extractTrace || extractJSON {
			out.Trace = res.Trace
		}
		outputs = append(outputs, out)
	}

	if extractJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(outputs)
	}

	for i := range outputs {
		printExtract(cmd, &outputs[i])
	}
	return nil
}

func readMessage(cmd *cobra.Command, path string) (*domain.MailMessage, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return eml.Parse(r)
}

func printExtract(cmd *cobra.Command, out *extractOutput) {
	cmd.Printf("%s: %s, %s", out.File, out.Class, out.Outcome)
	if out.Reason != "" {
		cmd.Printf(" (%s)", out.Reason)
	}
	cmd.Println()

	if f := out.Fact; f != nil {
		cmd.Printf("    Guest:      %s (%d)\n", f.GuestName, f.GuestCount)
		cmd.Printf("    Code:       %s\n", f.ConfirmationCode)
		cmd.Printf("    Stay:       %s to %s\n", f.CheckIn, f.CheckOut)
		if f.ListingName != "" {
			cmd.Printf("    Listing:    %s\n", f.ListingName)
		}
		if f.Platform != "" {
			cmd.Printf("    Platform:   %s\n", f.Platform)
		}
		cmd.Printf("    Confidence: %.2f (from %s body)\n", f.Confidence, out.BodySource)
	}

	for _, tr := range out.Trace {
		matched := tr.Matched
		if matched == "" {
			matched = "-"
		}
		cmd.Printf("    %-10s tried %s, matched %s\n", tr.Field, strings.Join(tr.Tried, ", "), matched)
	}
}
