// Package cli implements the splitledger command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
	"github.com/mmynk/splitledger/pkg/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command for the splitledger CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "splitledger",
		Short: "splitledger - shared group expense ledger",
		Long: `splitledger tracks money shared inside groups: who paid, how each expense
was split, and what every member owes or is owed.

Configuration comes from an optional YAML file (--config), a .env file in the
working directory and the environment, in increasing order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))

	return cmd
}

// loadConfig reads the configuration and installs the default logger.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	logging.SetupWithFormat(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*sqlstore.Store, error) {
	if err := cfg.ValidateStorage(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	store, err := sqlstore.Open(ctx, cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.DB.Driver, err)
	}
	slog.Info("Storage initialized", "driver", cfg.DB.Driver)
	return store, nil
}

// newLedger builds the ledger with log delivery, plus e-mail when SMTP is
// configured. Callers must Wait on the returned Async before exiting.
func newLedger(cfg *config.Config, store *sqlstore.Store) (*ledger.Service, *notify.Async, error) {
	unit, err := notify.ParseCurrency(cfg.Currency)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid currency: %w", err)
	}

	notifiers := notify.Multi{notify.NewLogNotifier(slog.Default())}
	if cfg.SMTP.Host != "" {
		notifiers = append(notifiers, notify.NewMailNotifier(notify.MailConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, store))
		slog.Info("E-mail notifications enabled", "host", cfg.SMTP.Host)
	}
	async := notify.NewAsync(notifiers, 10*time.Second, slog.Default())

	l := ledger.New(store,
		ledger.WithNotifier(async),
		ledger.WithCurrency(unit),
		ledger.WithLogger(slog.Default()),
	)
	return l, async, nil
}
