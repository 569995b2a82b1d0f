package service_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oszuidwest/minnal/internal/config"
	"github.com/oszuidwest/minnal/internal/extension"
	"github.com/oszuidwest/minnal/internal/service"
	"github.com/oszuidwest/minnal/internal/types"
	"github.com/oszuidwest/minnal/internal/version"
)

// fakeDB emulates a schema holding at most one installed minnal_version().
type fakeDB struct {
	installed string // value returned by the installed function; empty means not installed
	pingErr   error
	execs     []string
}

func (f *fakeDB) GetContext(_ context.Context, dest interface{}, query string, _ ...interface{}) error {
	switch d := dest.(type) {
	case *bool:
		*d = f.installed != ""
	case *sql.NullString:
		*d = sql.NullString{String: f.installed, Valid: true}
	case *string:
		*d = "16.4"
	default:
		return errors.New("unexpected query: " + query)
	}
	return nil
}

func (f *fakeDB) SelectContext(context.Context, interface{}, string, ...interface{}) error {
	return nil
}

func (f *fakeDB) ExecContext(_ context.Context, query string, _ ...interface{}) (sql.Result, error) {
	f.execs = append(f.execs, query)
	switch {
	case strings.HasPrefix(query, "CREATE OR REPLACE FUNCTION"):
		// The literal sits between ''...'' in the function body.
		_, rest, _ := strings.Cut(query, "SELECT ''")
		value, _, _ := strings.Cut(rest, "''::text")
		f.installed = value
	case strings.HasPrefix(query, "DROP FUNCTION"):
		f.installed = ""
	}
	return nil, nil
}

func (f *fakeDB) PingContext(context.Context) error {
	return f.pingErr
}

func setVersion(t *testing.T, v string) {
	t.Helper()

	old := version.Version
	version.Version = v
	t.Cleanup(func() { version.Version = old })
}

func newService(db service.DB) *service.MinnalService {
	cfg := &config.Config{
		Database: config.DatabaseConfig{Name: "minnal", Schema: "public"},
	}
	return service.New(db, cfg, extension.Default())
}

func TestVersion(t *testing.T) {
	setVersion(t, "0.4.0")

	svc := service.New(nil, nil, extension.Default())
	got, err := svc.Version()
	require.NoError(t, err)
	assert.Equal(t, "0.4.0", got)
	assert.Equal(t, "0.4.0", svc.VersionInfo().Version)
}

func TestInstallStatusUninstall(t *testing.T) {
	setVersion(t, "0.4.0")

	db := &fakeDB{}
	svc := newService(db)
	ctx := context.Background()

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Installed)
	assert.False(t, status.InSync)
	assert.Equal(t, "minnal_version()", status.Function)

	result, err := svc.Install(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"minnal_version()"}, result.Functions)
	assert.Equal(t, "public", result.Schema)
	assert.Equal(t, "0.4.0", result.Version)

	status, err = svc.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Installed)
	assert.Equal(t, "0.4.0", status.InstalledVersion)
	assert.True(t, status.InSync)

	require.NoError(t, svc.Uninstall(ctx))
	status, err = svc.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Installed)
}

func TestStatusDrift(t *testing.T) {
	setVersion(t, "0.5.0")

	svc := newService(&fakeDB{installed: "0.4.0"})

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Installed)
	assert.False(t, status.InSync)
	assert.Equal(t, "0.4.0", status.InstalledVersion)
	assert.Equal(t, "0.5.0", status.BuildVersion)
}

func TestVerifyReinstallsOnDrift(t *testing.T) {
	setVersion(t, "0.5.0")

	db := &fakeDB{installed: "0.4.0"}
	svc := newService(db)
	svc.Config().Watcher.ReinstallOnDrift = true

	status, err := svc.Verify(context.Background())
	require.NoError(t, err)
	assert.False(t, status.InSync)
	assert.Equal(t, "0.5.0", db.installed)
}

func TestVerifyReportsOnly(t *testing.T) {
	setVersion(t, "0.5.0")

	db := &fakeDB{installed: "0.4.0"}
	svc := newService(db)

	_, err := svc.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.4.0", db.installed)
	assert.Empty(t, db.execs)
}

func TestOperationsRequireDatabase(t *testing.T) {
	t.Parallel()

	svc := service.New(nil, nil, extension.Default())

	var cfgErr *types.ConfigurationError
	_, err := svc.Install(context.Background())
	require.ErrorAs(t, err, &cfgErr)
	require.ErrorAs(t, svc.Uninstall(context.Background()), &cfgErr)
	_, err = svc.Status(context.Background())
	require.ErrorAs(t, err, &cfgErr)
}

func TestHealth(t *testing.T) {
	setVersion(t, "0.4.0")

	h := newService(&fakeDB{installed: "0.4.0"}).Health(context.Background())
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "connected", h.DatabaseStatus)
	assert.Equal(t, "16.4", h.DatabaseVersion)
	require.NotNil(t, h.Extension)
	assert.True(t, h.Extension.InSync)

	h = newService(&fakeDB{pingErr: errors.New("down")}).Health(context.Background())
	assert.Equal(t, "degraded", h.Status)
	assert.Equal(t, "disconnected", h.DatabaseStatus)

	h = service.New(nil, nil, extension.Default()).Health(context.Background())
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "not_configured", h.DatabaseStatus)
}

func TestNewWatcher(t *testing.T) {
	t.Parallel()

	svc := newService(&fakeDB{})
	svc.Config().Watcher.Schedule = "*/5 * * * *"

	w, err := service.NewWatcher(svc)
	require.NoError(t, err)
	w.Start()
	<-w.Stop().Done()

	svc.Config().Watcher.Schedule = "not a schedule"
	_, err = service.NewWatcher(svc)
	require.Error(t, err)
}
