package service

import (
	"context"
	"log/slog"
	"time"

	cron "github.com/netresearch/go-cron"
)

const watchTimeout = time.Minute

// Watcher periodically verifies that the installed function reports the build version.
type Watcher struct {
	cron    *cron.Cron
	service *MinnalService
}

// NewWatcher creates a new installation watcher from the watcher configuration.
func NewWatcher(svc *MinnalService) (*Watcher, error) {
	cfg := svc.Config().Watcher

	loc := time.Local
	if cfg.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return nil, err
		}
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	w := &Watcher{cron: c, service: svc}

	if _, err := c.AddFunc(cfg.GetSchedule(), w.run); err != nil {
		return nil, err
	}

	return w, nil
}

// Start begins the scheduler.
func (w *Watcher) Start() {
	w.cron.Start()
	slog.Info("Installatie watcher gestart",
		"schedule", w.service.Config().Watcher.GetSchedule(),
		"next_run", w.cron.Entries()[0].Next.Format(time.RFC3339))
}

// Stop stops the scheduler and returns a context that is done when running jobs have completed.
func (w *Watcher) Stop() context.Context {
	slog.Info("Installatie watcher wordt gestopt...")
	return w.cron.Stop()
}

func (w *Watcher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), watchTimeout)
	defer cancel()

	_, _ = w.service.Verify(ctx)
}

// Verify checks the installed function once and reinstalls it on drift when configured to.
// It returns the status observed before any reinstall.
func (s *MinnalService) Verify(ctx context.Context) (*ExtensionStatus, error) {
	status, err := s.Status(ctx)
	if err != nil {
		slog.Error("Controle van installatie mislukt", "error", err)
		return nil, err
	}

	if status.InSync {
		slog.Debug("Installatie is actueel", "version", status.InstalledVersion)
		return status, nil
	}

	slog.Warn("Geïnstalleerde versie wijkt af",
		"installed", status.Installed,
		"installed_version", status.InstalledVersion,
		"build_version", status.BuildVersion)

	if !s.config.Watcher.ReinstallOnDrift {
		return status, nil
	}

	if _, err := s.Install(ctx); err != nil {
		return status, err
	}

	return status, nil
}
