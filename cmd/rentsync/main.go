// Command rentsync reconciles short-term rental calendar feeds with
// booking confirmation emails.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/rentsync/internal/adapters/driven/auth"
	"github.com/custodia-labs/rentsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/rentsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/rentsync/internal/connectors/google/calendar"
	"github.com/custodia-labs/rentsync/internal/connectors/google/gmail"
	"github.com/custodia-labs/rentsync/internal/connectors/ical"
	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
	"github.com/custodia-labs/rentsync/internal/core/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configStore, err := file.NewConfigStore(os.Getenv("RENTSYNC_CONFIG_DIR"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "rentsync: loading config: %v\n", err)
		return err
	}
	if err := configStore.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "rentsync: reading .env: %v\n", err)
		return err
	}

	store, err := sqlite.NewStore(os.Getenv("RENTSYNC_DATA_DIR"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "rentsync: opening database: %v\n", err)
		return err
	}
	defer store.Close()

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rentsync: reading settings: %v\n", err)
		return err
	}

	stores := services.Stores{
		Connections: store.ConnectionStore(),
		Properties:  store.PropertyStore(),
		Credentials: store.CredentialsStore(),
		Facts:       store.FactStore(),
		Bookings:    store.BookingStore(),
		Reviews:     store.ReviewStore(),
		Attempts:    store.AttemptStore(),
	}

	fetchers := services.Fetchers{
		Mailbox: gmail.NewMailbox(),
		Feeds: map[domain.ConnectionType]driven.FeedFetcher{
			domain.ConnectionICal:           ical.NewFetcher(nil),
			domain.ConnectionGoogleCalendar: calendar.NewFeed(),
		},
	}

	locks := services.NewLockTable()
	tokens := auth.NewFactory(stores.Credentials, settings.Google, settings.Sync.TokenMargin)
	reconciler := services.NewReconcileService(stores, locks)
	orchestrator := services.NewSyncOrchestrator(stores, fetchers, tokens, reconciler, locks, settings.Sync)

	schedulerConfig := settingsService.GetSchedulerConfig()
	scheduler := services.NewScheduler(schedulerConfig, store.SchedulerStore(), orchestrator)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Sync:            orchestrator,
		Reconcile:       reconciler,
		Review:          services.NewReviewService(stores),
		Calendar:        services.NewCalendarService(stores, settings.Reconcile),
		Connection:      services.NewConnectionService(stores),
		Property:        services.NewPropertyService(stores),
		Settings:        settingsService,
		Scheduler:       scheduler,
		SchedulerConfig: schedulerConfig,
		GoogleOAuth:     auth.GoogleConfig(settings.Google),
	})

	// Cobra prints the error itself.
	return cli.Execute(ctx)
}
