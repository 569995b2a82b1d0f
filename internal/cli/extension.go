package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oszuidwest/minnal/internal/extension"
	"github.com/oszuidwest/minnal/internal/pgext"
	"github.com/oszuidwest/minnal/internal/sqlite"
	"github.com/oszuidwest/minnal/internal/types"
	"github.com/oszuidwest/minnal/internal/version"
)

// NewInstallCmd returns the install command.
func NewInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install minnal_version() in the configured PostgreSQL schema",
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			svc, closeDB, err := connectService(cc.Context(), cc)
			if err != nil {
				return err
			}
			defer closeDB()

			result, err := svc.Install(cc.Context())
			if err != nil {
				return err
			}

			for _, fn := range result.Functions {
				fmt.Fprintf(cc.OutOrStdout(), "%s.%s geïnstalleerd (versie %s)\n", result.Schema, fn, result.Version)
			}
			return nil
		},
	}
}

// NewUninstallCmd returns the uninstall command.
func NewUninstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Drop minnal_version() from the configured PostgreSQL schema",
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			yes, err := cc.Flags().GetBool("yes")
			if err != nil {
				return fmt.Errorf("invalid argument: %w", err)
			}
			if !yes {
				return errors.New("bevestig het verwijderen met --yes")
			}

			svc, closeDB, err := connectService(cc.Context(), cc)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := svc.Uninstall(cc.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cc.OutOrStdout(), "%s() verwijderd\n", types.VersionFunction)
			return nil
		},
	}

	cmd.Flags().Bool("yes", false, "Confirm dropping the function")

	return cmd
}

// NewStatusCmd returns the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether minnal_version() is installed and up to date",
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			svc, closeDB, err := connectService(cc.Context(), cc)
			if err != nil {
				return err
			}
			defer closeDB()

			status, err := svc.Status(cc.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cc.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		},
	}
}

// NewPackageCmd returns the package command.
func NewPackageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Write the control file and install script for CREATE EXTENSION",
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			out, err := cc.Flags().GetString("out")
			if err != nil {
				return fmt.Errorf("invalid argument: %w", err)
			}

			paths, err := pgext.WriteFiles(extension.Default(), out, version.Get())
			if err != nil {
				return err
			}

			for _, p := range paths {
				fmt.Fprintln(cc.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().String("out", ".", "Output directory, usually $(pg_config --sharedir)/extension")

	return cmd
}

// NewSQLiteCmd returns the sqlite command.
func NewSQLiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sqlite",
		Short: "Evaluate minnal_version() inside an embedded SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			path, err := cc.Flags().GetString("db")
			if err != nil {
				return fmt.Errorf("invalid argument: %w", err)
			}

			db, err := sqlite.Open(cc.Context(), extension.Default(), path)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			v, err := sqlite.Version(cc.Context(), db)
			if err != nil {
				return err
			}

			fmt.Fprintln(cc.OutOrStdout(), v)
			return nil
		},
	}

	cmd.Flags().String("db", sqlite.MemoryPath, "SQLite database path")

	return cmd
}
