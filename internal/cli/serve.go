package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oszuidwest/minnal/internal/api"
	"github.com/oszuidwest/minnal/internal/metrics"
	"github.com/oszuidwest/minnal/internal/service"
	"github.com/oszuidwest/minnal/internal/version"
)

const shutdownTimeout = 30 * time.Second

// NewServeCmd returns the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			port, err := cc.Flags().GetString("port")
			if err != nil {
				return fmt.Errorf("invalid argument: %w", err)
			}

			ctx, stop := signal.NotifyContext(cc.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, closeDB, err := connectService(ctx, cc)
			if err != nil {
				return err
			}
			defer closeDB()

			return serve(ctx, svc, port)
		},
	}

	cmd.Flags().String("port", "8080", "API server port")

	return cmd
}

func serve(ctx context.Context, svc *service.MinnalService, port string) error {
	info := version.GetInfo()
	metrics.SetBuildInfo(info.Version, info.Commit)

	if svc.Config().Watcher.Enabled {
		watcher, err := service.NewWatcher(svc)
		if err != nil {
			return fmt.Errorf("watcher configureren mislukt: %w", err)
		}
		watcher.Start()
		defer func() { <-watcher.Stop().Done() }()
	}

	apiServer := api.New(svc, svc.Config())

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("API-server gestart op poort", "poort", port, "version", info.Version)
		if err := apiServer.Start(port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server fout", "error", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutdown signaal ontvangen, server wordt gestopt...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Fout bij graceful shutdown", "error", err)
			return err
		}

		slog.Info("Server succesvol gestopt")
		return nil
	})

	return g.Wait()
}
