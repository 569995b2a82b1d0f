// Package sqlite hosts the extension functions inside an embedded SQLite engine.
package sqlite

import (
	"context"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"

	"github.com/oszuidwest/minnal/internal/extension"
	"github.com/oszuidwest/minnal/internal/types"
)

// DriverName is the database/sql driver name registered by modernc.org/sqlite.
const DriverName = "sqlite"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var (
	mu         sync.Mutex
	registered = make(map[string]bool)
)

// RegisterFunctions registers every function of reg with the SQLite driver.
// Registration is process wide and applies to connections opened afterwards;
// functions that are already registered are skipped.
func RegisterFunctions(reg *extension.Registry) error {
	mu.Lock()
	defer mu.Unlock()

	for _, fn := range reg.All() {
		if registered[fn.Name] {
			continue
		}

		if err := register(reg, fn); err != nil {
			return types.NewOperationError(fmt.Sprintf("registreren van %s", fn.Name), err)
		}
		registered[fn.Name] = true

		slog.Debug("SQLite functie geregistreerd", "function", fn.Signature())
	}

	return nil
}

func register(reg *extension.Registry, fn extension.Function) error {
	name := fn.Name
	xFunc := func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		in := make([]any, len(args))
		for i, a := range args {
			in[i] = a
		}
		return reg.Invoke(name, in...)
	}

	// SQLite enforces the argument count for us when nArg >= 0.
	nArg := int32(fn.Arity())
	if fn.Volatility == types.VolatilityImmutable {
		return sqlite.RegisterDeterministicScalarFunction(name, nArg, xFunc)
	}
	return sqlite.RegisterScalarFunction(name, nArg, xFunc)
}

// Open opens an SQLite database with the extension functions available.
func Open(ctx context.Context, reg *extension.Registry, path string) (*sqlx.DB, error) {
	if path == "" {
		path = MemoryPath
	}

	if err := RegisterFunctions(reg); err != nil {
		return nil, err
	}

	db, err := sqlx.Open(DriverName, path)
	if err != nil {
		return nil, &types.DatabaseError{Operation: "openen SQLite database", Err: err}
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &types.DatabaseError{Operation: "openen SQLite database", Err: err}
	}

	return db, nil
}

// Call evaluates a zero-argument text function through SQLite.
func Call(ctx context.Context, db *sqlx.DB, name string) (string, error) {
	if !types.IsValidIdentifier(name) {
		return "", types.NewValidationError("function", fmt.Sprintf("ongeldige functie naam: %s", name))
	}

	var result string
	if err := db.GetContext(ctx, &result, fmt.Sprintf("SELECT %s()", name)); err != nil {
		return "", &types.DatabaseError{Operation: fmt.Sprintf("aanroepen %s()", name), Err: err}
	}
	return result, nil
}

// Version returns the result of SELECT minnal_version().
func Version(ctx context.Context, db *sqlx.DB) (string, error) {
	return Call(ctx, db, types.VersionFunction)
}
