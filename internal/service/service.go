// Package service provides the operations behind the Minnal CLI and API.
package service

import (
	"context"
	"log/slog"

	"github.com/oszuidwest/minnal/internal/config"
	"github.com/oszuidwest/minnal/internal/database"
	"github.com/oszuidwest/minnal/internal/extension"
	"github.com/oszuidwest/minnal/internal/metrics"
	"github.com/oszuidwest/minnal/internal/types"
	"github.com/oszuidwest/minnal/internal/version"
)

// DB defines the database interface required by the service layer.
// It extends the database package's interface with PingContext for health monitoring.
// The *sqlx.DB type satisfies this interface.
type DB interface {
	database.DB
	PingContext(ctx context.Context) error
}

// MinnalService reports the extension version and manages its installation in PostgreSQL.
type MinnalService struct {
	db       DB
	config   *config.Config
	registry *extension.Registry
	schema   string
}

// New creates a new MinnalService.
// db and cfg may be nil for commands that only report the build version.
func New(db DB, cfg *config.Config, reg *extension.Registry) *MinnalService {
	s := &MinnalService{
		db:       db,
		config:   cfg,
		registry: reg,
	}
	if cfg != nil {
		s.schema = cfg.Database.Schema
	}
	return s
}

// Config returns the service configuration.
func (s *MinnalService) Config() *config.Config {
	return s.config
}

// Registry returns the function registry.
func (s *MinnalService) Registry() *extension.Registry {
	return s.registry
}

// Version returns the result of minnal_version() as evaluated by the registry.
func (s *MinnalService) Version() (string, error) {
	return s.registry.InvokeText(types.VersionFunction)
}

// VersionInfo returns the build metadata of this binary.
func (s *MinnalService) VersionInfo() version.Info {
	return version.GetInfo()
}

// InstallResult describes a completed installation.
type InstallResult struct {
	Schema    string   `json:"schema"`
	Functions []string `json:"functions"`
	Version   string   `json:"version"`
}

// Install defines every registry function in the configured schema.
func (s *MinnalService) Install(ctx context.Context) (result *InstallResult, err error) {
	defer func() { metrics.RecordInstall("install", err) }()

	if err := s.requireDB(); err != nil {
		return nil, err
	}

	result = &InstallResult{Schema: s.schema, Version: version.Get()}
	for _, fn := range s.registry.All() {
		value, err := s.registry.InvokeText(fn.Name)
		if err != nil {
			return nil, types.NewOperationError("installatie", err)
		}

		if err := database.InstallFunction(ctx, s.db, s.schema, fn, value); err != nil {
			slog.Error("Installeren functie mislukt", "function", fn.Signature(), "schema", s.schema, "error", err)
			return nil, err
		}

		slog.Info("Functie geïnstalleerd", "function", fn.Signature(), "schema", s.schema, "value", value)
		result.Functions = append(result.Functions, fn.Signature())
	}

	return result, nil
}

// Uninstall drops every registry function from the configured schema.
func (s *MinnalService) Uninstall(ctx context.Context) (err error) {
	defer func() { metrics.RecordInstall("uninstall", err) }()

	if err := s.requireDB(); err != nil {
		return err
	}

	for _, fn := range s.registry.All() {
		if err := database.DropFunction(ctx, s.db, s.schema, fn.Name); err != nil {
			slog.Error("Verwijderen functie mislukt", "function", fn.Signature(), "schema", s.schema, "error", err)
			return err
		}
		slog.Info("Functie verwijderd", "function", fn.Signature(), "schema", s.schema)
	}

	return nil
}

// ExtensionStatus describes the installed state of minnal_version() in the database.
type ExtensionStatus struct {
	Schema           string `json:"schema"`
	Function         string `json:"function"`
	Installed        bool   `json:"installed"`
	InstalledVersion string `json:"installed_version,omitempty"`
	BuildVersion     string `json:"build_version"`
	InSync           bool   `json:"in_sync"`
}

// Status reports whether minnal_version() is installed and whether it returns the build version.
// The versions are compared for equality only.
func (s *MinnalService) Status(ctx context.Context) (*ExtensionStatus, error) {
	if err := s.requireDB(); err != nil {
		return nil, err
	}

	fn := extension.VersionFunction()
	status := &ExtensionStatus{
		Schema:       s.schema,
		Function:     fn.Signature(),
		BuildVersion: version.Get(),
	}

	exists, err := database.FunctionExists(ctx, s.db, s.schema, fn.Name, fn.Arity())
	if err != nil {
		return nil, err
	}
	if !exists {
		metrics.SetInSync(false)
		return status, nil
	}

	installed, err := database.CallText(ctx, s.db, s.schema, fn.Name)
	if err != nil {
		return nil, err
	}

	status.Installed = true
	status.InstalledVersion = installed
	status.InSync = installed == status.BuildVersion
	metrics.SetInSync(status.InSync)

	return status, nil
}

func (s *MinnalService) requireDB() error {
	if s.db == nil || s.config == nil {
		return &types.ConfigurationError{Field: "database", Message: "geen databaseverbinding geconfigureerd"}
	}
	return nil
}
