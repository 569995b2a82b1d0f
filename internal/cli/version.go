package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oszuidwest/minnal/internal/extension"
	"github.com/oszuidwest/minnal/internal/service"
)

// NewVersionCmd returns the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the extension version",
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			full, err := cc.Flags().GetBool("full")
			if err != nil {
				return fmt.Errorf("invalid argument: %w", err)
			}

			svc := service.New(nil, nil, extension.Default())
			if full {
				info := svc.VersionInfo()
				fmt.Fprintf(cc.OutOrStdout(), "Minnal %s (%s)\n", info.Version, info.Commit)
				fmt.Fprintf(cc.OutOrStdout(), "Build time: %s\n", info.BuildTime)
				fmt.Fprintf(cc.OutOrStdout(), "Go: %s\n", info.GoVersion)
				return nil
			}

			v, err := svc.Version()
			if err != nil {
				return err
			}
			fmt.Fprintln(cc.OutOrStdout(), v)

			return nil
		},
	}

	cmd.Flags().Bool("full", false, "Also show commit, build time and Go version")

	return cmd
}
