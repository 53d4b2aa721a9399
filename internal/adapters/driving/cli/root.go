package cli

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driving"
	"github.com/custodia-labs/rentsync/internal/logger"
)

var (
	version  = "dev"
	verbose  bool
	logLevel string
)

// Services wired by main. Commands check for nil before use.
var (
	syncOrchestrator  driving.SyncOrchestrator
	reconcileService  driving.ReconcileService
	reviewService     driving.ReviewService
	calendarService   driving.CalendarService
	connectionService driving.ConnectionService
	propertyService   driving.PropertyService
	settingsService   driving.SettingsService
	scheduler         driving.Scheduler
	schedulerConfig   domain.SchedulerConfig
	googleOAuth       oauth2.Config
)

// Services holds the driving ports the commands use.
type Services struct {
	Sync            driving.SyncOrchestrator
	Reconcile       driving.ReconcileService
	Review          driving.ReviewService
	Calendar        driving.CalendarService
	Connection      driving.ConnectionService
	Property        driving.PropertyService
	Settings        driving.SettingsService
	Scheduler       driving.Scheduler
	SchedulerConfig domain.SchedulerConfig

	// GoogleOAuth is the client used by "connection authorize".
	GoogleOAuth oauth2.Config
}

// SetServices injects the services used by the commands.
func SetServices(s Services) {
	syncOrchestrator = s.Sync
	reconcileService = s.Reconcile
	reviewService = s.Review
	calendarService = s.Calendar
	connectionService = s.Connection
	propertyService = s.Property
	settingsService = s.Settings
	scheduler = s.Scheduler
	schedulerConfig = s.SchedulerConfig
	googleOAuth = s.GoogleOAuth
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "rentsync",
	Short: "Reconcile short-term rental reservations",
	Long: `rentsync joins booking confirmation emails with property calendar feeds.

Calendar feeds (iCal, Google Calendar) say when a property is occupied.
Confirmation emails say who is staying. rentsync matches the two, enriches
anonymous calendar blocks with guest details and queues anything it cannot
match unambiguously for review.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if logLevel == "" {
			logger.SetVerbose(verbose)
			return nil
		}
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log threshold: debug, info, warn or off (overrides --verbose)")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
