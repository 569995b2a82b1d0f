// Package extension describes the SQL-callable functions of the Minnal extension
// and invokes them the way a database host would.
//
// Host adapters (the PostgreSQL module, the SQL installer and the SQLite host)
// read their function definitions from a [Registry] so that every host exposes
// the same name, arity and result type.
package extension

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/oszuidwest/minnal/internal/metrics"
	"github.com/oszuidwest/minnal/internal/types"
	"github.com/oszuidwest/minnal/internal/version"
)

// Function describes a single SQL-callable function.
type Function struct {
	Name         string           // SQL name, must be a valid identifier
	Args         []string         // SQL argument types; empty for zero-argument functions
	Result       string           // SQL result type
	Volatility   types.Volatility // Volatility category reported to the host
	Strict       bool             // Returns NULL on NULL input
	ParallelSafe bool             // Safe to run in parallel workers
	Description  string           // Used for COMMENT ON FUNCTION and the control file
	Body         func(args []any) (any, error)
}

// Arity returns the number of arguments the function accepts.
func (f Function) Arity() int {
	return len(f.Args)
}

// Signature returns the SQL signature, e.g. "minnal_version()".
func (f Function) Signature() string {
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(f.Args, ", "))
}

// Registry holds the functions exposed by the extension.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{functions: make(map[string]Function)}
}

// Default returns a registry containing the extension's functions.
func Default() *Registry {
	r := NewRegistry()
	if err := r.Register(VersionFunction()); err != nil {
		panic(err)
	}
	return r
}

// VersionFunction returns the definition of minnal_version().
func VersionFunction() Function {
	return Function{
		Name:         types.VersionFunction,
		Result:       types.TypeText,
		Volatility:   types.VolatilityImmutable,
		Strict:       true,
		ParallelSafe: true,
		Description:  "Returns the Minnal extension version",
		Body: func([]any) (any, error) {
			return version.Get(), nil
		},
	}
}

// Register adds fn to the registry.
func (r *Registry) Register(fn Function) error {
	if !types.IsValidIdentifier(fn.Name) {
		return types.NewValidationError("name", fmt.Sprintf("ongeldige functie naam: %q", fn.Name))
	}
	if fn.Body == nil {
		return types.NewValidationError("body", fmt.Sprintf("functie %s heeft geen implementatie", fn.Name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.functions[fn.Name]; ok {
		return types.NewValidationError("name", fmt.Sprintf("functie %s is al geregistreerd", fn.Name))
	}
	r.functions[fn.Name] = fn

	return nil
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.functions[name]
	return fn, ok
}

// All returns every registered function, sorted by name.
func (r *Registry) All() []Function {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fns := make([]Function, 0, len(r.functions))
	for _, fn := range r.functions {
		fns = append(fns, fn)
	}
	slices.SortFunc(fns, func(a, b Function) int {
		return strings.Compare(a.Name, b.Name)
	})
	return fns
}

// Invoke calls the named function with args.
// The argument count is checked here so function bodies never see a mismatched call.
func (r *Registry) Invoke(name string, args ...any) (result any, err error) {
	logger := slog.With(slog.String("function", name))
	logger.Debug("functie aanroep", "args", len(args))

	defer func() { metrics.RecordFunctionCall(name, err) }()

	fn, ok := r.Lookup(name)
	if !ok {
		return nil, types.NewNotFoundError("functie", name)
	}

	if len(args) != fn.Arity() {
		return nil, &types.ArgumentCountError{Function: name, Expected: fn.Arity(), Got: len(args)}
	}

	result, err = fn.Body(args)
	if err != nil {
		logger.Error("functie aanroep mislukt", "error", err)
		return nil, fmt.Errorf("%s: %w", fn.Signature(), err)
	}

	return result, nil
}

// InvokeText calls a text-returning function and returns its result as a string.
func (r *Registry) InvokeText(name string, args ...any) (string, error) {
	v, err := r.Invoke(name, args...)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.New("functie resultaat is geen tekst")
	}
	return s, nil
}
