package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run scheduled syncs in the foreground",
	Long: `Run the background scheduler until interrupted.

The scheduler periodically refreshes OAuth tokens and syncs every
connection, feeds before mailboxes. Intervals are read from the
[scheduler] section of the config file.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

var scheduleStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show when each scheduled task last ran and runs next",
	Args:  cobra.NoArgs,
	RunE:  runScheduleStatus,
}

var scheduleHistory int

func init() {
	scheduleStatusCmd.Flags().IntVar(&scheduleHistory, "history", 5, "recent runs to show per task (0 = none)")
	scheduleCmd.AddCommand(scheduleStatusCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}
	if !schedulerConfig.Enabled {
		return errors.New("scheduler is disabled; set scheduler.enabled = true in the config file")
	}

	ids := make([]string, 0, len(schedulerConfig.TaskConfigs))
	for id, tc := range schedulerConfig.TaskConfigs {
		if tc.Enabled {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	for _, id := range ids {
		cmd.Printf("  %-20s every %s\n", id, schedulerConfig.TaskConfigs[id].Interval)
	}
	cmd.Println("Scheduler running. Press Ctrl+C to stop.")

	runErr := scheduler.Start(commandContext(cmd))
	if err := scheduler.Stop(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("scheduler: %w", runErr)
	}
	return nil
}

func runScheduleStatus(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}
	ctx := commandContext(cmd)

	tasks, err := scheduler.Tasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to read tasks: %w", err)
	}
	if len(tasks) == 0 {
		cmd.Println("No scheduled tasks yet. They are created the first time the scheduler runs.")
		return nil
	}

	for i := range tasks {
		t := &tasks[i]
		cmd.Printf("%s  %q  every %s\n", t.ID, t.Name, t.Interval)
		cmd.Printf("    Next run:     %s\n", formatWhen(t.NextRun))
		cmd.Printf("    Last run:     %s\n", formatWhen(t.LastRun))
		cmd.Printf("    Last success: %s\n", formatWhen(t.LastSuccess))
		if t.LastError != "" {
			cmd.Printf("    Last error:   %s (%d failure(s) in a row)\n", t.LastError, t.Failures)
		}
		if scheduleHistory <= 0 {
			continue
		}

		runs, err := scheduler.History(ctx, t.ID, scheduleHistory)
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}
		for _, r := range runs {
			outcome := "ok"
			if !r.Success {
				outcome = "failed"
			}
			cmd.Printf("      %s  %-6s  %d item(s)  %s\n", r.StartedAt.Local().Format("2006-01-02 15:04"),
				outcome, r.ItemsProcessed, r.Duration().Round(time.Millisecond))
		}
	}
	return nil
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}
