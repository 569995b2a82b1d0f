package types

import "fmt"

// VersionFunction is the SQL name of the version reporting function.
const VersionFunction = "minnal_version"

// ExtensionName is the name used for CREATE EXTENSION and the shared library.
const ExtensionName = "minnal"

// ModuleName is the file name (without suffix) of the loadable PostgreSQL module.
const ModuleName = "pg_minnal"

// Volatility describes how a SQL function's result may change between calls.
type Volatility string

const (
	// VolatilityImmutable marks functions whose result only depends on their arguments.
	VolatilityImmutable Volatility = "IMMUTABLE"
	// VolatilityStable marks functions that return the same result within a statement.
	VolatilityStable Volatility = "STABLE"
	// VolatilityVolatile marks functions that may return different results on every call.
	VolatilityVolatile Volatility = "VOLATILE"
)

// TypeText is the SQL result type of text-returning functions.
const TypeText = "text"

// IsValidIdentifier reports whether name contains only valid SQL identifier characters.
func IsValidIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}

// QualifiedName returns a fully qualified schema.name after validating both identifiers.
func QualifiedName(schema, name string) (string, error) {
	if !IsValidIdentifier(schema) {
		return "", fmt.Errorf("ongeldige schema naam: %s", schema)
	}
	if !IsValidIdentifier(name) {
		return "", fmt.Errorf("ongeldige functie naam: %s", name)
	}
	return fmt.Sprintf("%s.%s", schema, name), nil
}
