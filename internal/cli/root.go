// Package cli implements the minnal command line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/oszuidwest/minnal/internal/config"
	"github.com/oszuidwest/minnal/internal/database"
	"github.com/oszuidwest/minnal/internal/extension"
	"github.com/oszuidwest/minnal/internal/log"
	"github.com/oszuidwest/minnal/internal/service"
	"github.com/oszuidwest/minnal/internal/version"
)

// NewRootCmd returns the root command with all subcommands attached.
func NewRootCmd(name, shortDesc, longDesc string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           name,
		Short:         shortDesc,
		Long:          longDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Get(),
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: config.yaml)")
	cmd.PersistentFlags().String("log_level", "warn", "Set the log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log_format", "text", "Set the log format (text, logfmt, json)")

	cmd.PersistentPreRunE = func(cc *cobra.Command, _ []string) error {
		flags := cc.Flags()

		var merr error

		logLevel, err := flags.GetString("log_level")
		if err != nil {
			merr = multierror.Append(merr, err)
		}

		logFormat, err := flags.GetString("log_format")
		if err != nil {
			merr = multierror.Append(merr, err)
		}

		if merr != nil {
			return fmt.Errorf("invalid argument: %w", merr)
		}

		h, err := log.CreateHandler(cc.ErrOrStderr(), logLevel, logFormat)
		if err != nil {
			return fmt.Errorf("failed creating log handler: %w", err)
		}
		slog.SetDefault(slog.New(h))

		return nil
	}

	cmd.AddCommand(NewVersionCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInstallCmd())
	cmd.AddCommand(NewUninstallCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewPackageCmd())
	cmd.AddCommand(NewSQLiteCmd())

	return cmd
}

// connectService loads the configuration, connects to PostgreSQL and returns the service
// together with a function that closes the connection.
func connectService(ctx context.Context, cc *cobra.Command) (*service.MinnalService, func(), error) {
	configFile, err := cc.Flags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("invalid argument: %w", err)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			slog.Error("Fout bij sluiten database", "error", err)
		}
	}

	return service.New(db, cfg, extension.Default()), closeDB, nil
}
