package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oszuidwest/minnal/internal/extension"
	"github.com/oszuidwest/minnal/internal/sqlite"
	"github.com/oszuidwest/minnal/internal/types"
	"github.com/oszuidwest/minnal/internal/version"
)

func newTestDB(t *testing.T, path string) *sqlx.DB {
	t.Helper()

	db, err := sqlite.Open(context.Background(), extension.Default(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestVersionInMemory(t *testing.T) {
	old := version.Version
	version.Version = "0.4.0"
	t.Cleanup(func() { version.Version = old })

	db := newTestDB(t, "")

	got, err := sqlite.Version(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, "0.4.0", got)
}

func TestVersionOnFile(t *testing.T) {
	db := newTestDB(t, filepath.Join(t.TempDir(), "minnal.db"))

	got, err := sqlite.Version(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, version.Get(), got)
}

func TestVersionStableAcrossCalls(t *testing.T) {
	db := newTestDB(t, "")
	ctx := context.Background()

	first, err := sqlite.Version(ctx, db)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	var rows []string
	require.NoError(t, db.SelectContext(ctx, &rows,
		"SELECT minnal_version() FROM (SELECT 1 UNION ALL SELECT 2 UNION ALL SELECT 3)"))
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, first, r)
	}
}

func TestHostRejectsArguments(t *testing.T) {
	db := newTestDB(t, "")

	var got string
	err := db.GetContext(context.Background(), &got, "SELECT minnal_version(1)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minnal_version")
}

func TestRegisterFunctionsIdempotent(t *testing.T) {
	reg := extension.Default()

	require.NoError(t, sqlite.RegisterFunctions(reg))
	require.NoError(t, sqlite.RegisterFunctions(reg))
}

func TestCallInvalidName(t *testing.T) {
	db := newTestDB(t, "")

	_, err := sqlite.Call(context.Background(), db, "minnal_version(); --")

	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
}
