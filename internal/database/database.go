// Package database installs and queries the extension functions in PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sethvargo/go-retry"

	"github.com/oszuidwest/minnal/internal/config"
	"github.com/oszuidwest/minnal/internal/extension"
	"github.com/oszuidwest/minnal/internal/types"
)

// DB defines the minimal database interface required for data access operations.
// The *sqlx.DB and *sqlx.Tx types satisfy this interface.
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// PostgreSQL error codes that mean the function is not installed.
const (
	codeUndefinedFunction = "42883"
	codeInvalidSchemaName = "3F000"
)

const (
	retryBaseDelay = 250 * time.Millisecond
	retryMaxDelay  = 5 * time.Second
)

// Connect opens a PostgreSQL connection pool and waits until the server answers a ping.
func Connect(ctx context.Context, cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.ConnectionString())
	if err != nil {
		slog.Error("Database verbinding mislukt", "error", err)
		return nil, &types.DatabaseError{Operation: "verbinden", Err: err}
	}

	db.SetMaxOpenConns(cfg.GetMaxOpenConns())
	db.SetMaxIdleConns(cfg.GetMaxIdleConns())
	db.SetConnMaxLifetime(cfg.GetConnMaxLifetime())

	slog.Debug("Database connection pool geconfigureerd",
		"max_open", cfg.GetMaxOpenConns(),
		"max_idle", cfg.GetMaxIdleConns(),
		"max_lifetime", cfg.GetConnMaxLifetime())

	if err := Ping(ctx, db, cfg.GetConnectRetries()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Pinger is implemented by database handles that can verify connectivity.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Ping pings the database up to attempts times with capped exponential backoff.
func Ping(ctx context.Context, db Pinger, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}

	backoff := retry.WithMaxRetries(
		uint64(attempts-1),
		retry.WithCappedDuration(retryMaxDelay, retry.NewExponential(retryBaseDelay)),
	)

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			slog.Warn("Database ping mislukt", "poging", attempt, "max", attempts, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return &types.DatabaseError{Operation: "ping", Err: err}
	}

	return nil
}

// FunctionDefinition returns the CREATE FUNCTION statement that defines fn in schema
// as a SQL function returning value.
func FunctionDefinition(schema string, fn extension.Function, value string) (string, error) {
	if !types.IsValidIdentifier(schema) {
		return "", types.NewValidationError("schema", fmt.Sprintf("ongeldige schema naam: %s", schema))
	}
	if !types.IsValidIdentifier(fn.Name) {
		return "", types.NewValidationError("function", fmt.Sprintf("ongeldige functie naam: %s", fn.Name))
	}
	if fn.Arity() != 0 || fn.Result != types.TypeText {
		return "", types.NewValidationError("function",
			fmt.Sprintf("functie %s kan niet als SQL functie geïnstalleerd worden", fn.Signature()))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE OR REPLACE FUNCTION %s() RETURNS %s\n", qualified(schema, fn.Name), fn.Result)
	fmt.Fprintf(&b, "LANGUAGE sql %s", fn.Volatility)
	if fn.Strict {
		b.WriteString(" STRICT")
	}
	if fn.ParallelSafe {
		b.WriteString(" PARALLEL SAFE")
	}
	fmt.Fprintf(&b, "\nAS %s", pq.QuoteLiteral("SELECT "+pq.QuoteLiteral(value)+"::"+fn.Result))

	return b.String(), nil
}

// InstallFunction creates or replaces fn in schema so that it returns value.
func InstallFunction(ctx context.Context, db DB, schema string, fn extension.Function, value string) error {
	stmt, err := FunctionDefinition(schema, fn, value)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return &types.DatabaseError{Operation: fmt.Sprintf("installeren van %s", fn.Signature()), Err: err}
	}

	comment := fmt.Sprintf("COMMENT ON FUNCTION %s() IS %s",
		qualified(schema, fn.Name), pq.QuoteLiteral(fmt.Sprintf("%s (%s)", fn.Description, value)))
	if _, err := db.ExecContext(ctx, comment); err != nil {
		return &types.DatabaseError{Operation: fmt.Sprintf("commentaar op %s", fn.Signature()), Err: err}
	}

	return nil
}

// DropFunction removes the zero-argument function name from schema if it exists.
func DropFunction(ctx context.Context, db DB, schema, name string) error {
	if _, err := types.QualifiedName(schema, name); err != nil {
		return types.NewValidationError("function", err.Error())
	}

	stmt := fmt.Sprintf("DROP FUNCTION IF EXISTS %s()", qualified(schema, name))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return &types.DatabaseError{Operation: fmt.Sprintf("verwijderen van %s()", name), Err: err}
	}

	return nil
}

const functionExistsQuery = `
	SELECT EXISTS (
		SELECT 1
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		WHERE n.nspname = $1 AND p.proname = $2 AND p.pronargs = $3
	)`

// FunctionExists reports whether schema contains a function name with the given arity.
func FunctionExists(ctx context.Context, db DB, schema, name string, arity int) (bool, error) {
	var exists bool
	if err := db.GetContext(ctx, &exists, functionExistsQuery, schema, name, arity); err != nil {
		return false, &types.DatabaseError{Operation: "opzoeken functie", Err: err}
	}
	return exists, nil
}

// CallText calls the zero-argument text function schema.name() and returns its result.
// A missing function or schema is reported as a NotFoundError.
func CallText(ctx context.Context, db DB, schema, name string) (string, error) {
	if _, err := types.QualifiedName(schema, name); err != nil {
		return "", types.NewValidationError("function", err.Error())
	}

	var result sql.NullString
	err := db.GetContext(ctx, &result, fmt.Sprintf("SELECT %s()", qualified(schema, name)))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && (pqErr.Code == codeUndefinedFunction || pqErr.Code == codeInvalidSchemaName) {
			return "", types.NewNotFoundError("functie", schema+"."+name+"()")
		}
		return "", &types.DatabaseError{Operation: fmt.Sprintf("aanroepen %s()", name), Err: err}
	}
	if !result.Valid {
		return "", &types.DatabaseError{Operation: fmt.Sprintf("aanroepen %s()", name), Err: errors.New("resultaat is NULL")}
	}

	return result.String, nil
}

// ServerVersion returns the PostgreSQL server version string.
func ServerVersion(ctx context.Context, db DB) (string, error) {
	var v string
	if err := db.GetContext(ctx, &v, "SHOW server_version"); err != nil {
		return "", &types.DatabaseError{Operation: "ophalen server versie", Err: err}
	}
	return v, nil
}

func qualified(schema, name string) string {
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(name)
}
