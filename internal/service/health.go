package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/oszuidwest/minnal/internal/database"
	"github.com/oszuidwest/minnal/internal/version"
)

// Health represents the overall health of the service.
type Health struct {
	Status          string           `json:"status"`
	Version         string           `json:"version"`
	Database        string           `json:"database,omitempty"`
	DatabaseStatus  string           `json:"database_status"`
	DatabaseVersion string           `json:"database_version,omitempty"`
	Extension       *ExtensionStatus `json:"extension,omitempty"`
	CheckedAt       time.Time        `json:"checked_at"`
}

// Health checks database connectivity and the installed function.
// It never fails; problems are reported in the returned status fields.
func (s *MinnalService) Health(ctx context.Context) *Health {
	h := &Health{
		Status:         "healthy",
		Version:        version.Get(),
		DatabaseStatus: "not_configured",
		CheckedAt:      time.Now(),
	}

	if s.requireDB() != nil {
		return h
	}
	h.Database = s.config.Database.Name

	if err := s.db.PingContext(ctx); err != nil {
		slog.Warn("Database health check mislukt", "error", err)
		h.DatabaseStatus = "disconnected"
		h.Status = "degraded"
		return h
	}
	h.DatabaseStatus = "connected"

	if v, err := database.ServerVersion(ctx, s.db); err == nil {
		h.DatabaseVersion = v
	}

	status, err := s.Status(ctx)
	if err != nil {
		slog.Warn("Status van extensie ophalen mislukt", "error", err)
		h.Status = "degraded"
		return h
	}
	h.Extension = status

	return h
}
