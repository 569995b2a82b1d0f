// Package pgext renders the packaging files PostgreSQL needs for CREATE EXTENSION.
package pgext

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/lib/pq"

	"github.com/oszuidwest/minnal/internal/extension"
	"github.com/oszuidwest/minnal/internal/types"
)

var controlTmpl = template.Must(template.New("control").Funcs(funcs).Parse(
	`# {{ .Name }} extension
comment = {{ quote .Comment }}
default_version = {{ quote .Version }}
module_pathname = '$libdir/{{ .Module }}'
relocatable = true
`))

var scriptTmpl = template.Must(template.New("script").Funcs(funcs).Parse(
	`-- complain if script is sourced in psql, rather than via CREATE EXTENSION
\echo Use "CREATE EXTENSION {{ .Name }}" to load this file. \quit
{{ range .Functions }}
CREATE FUNCTION {{ .Signature }} RETURNS {{ .Result }}
AS 'MODULE_PATHNAME', {{ quote .Name }}
LANGUAGE C {{ .Volatility }}{{ if .Strict }} STRICT{{ end }}{{ if .ParallelSafe }} PARALLEL SAFE{{ end }};

COMMENT ON FUNCTION {{ .Signature }} IS {{ quote .Description }};
{{ end }}`))

var funcs = template.FuncMap{"quote": pq.QuoteLiteral}

type templateData struct {
	Name      string
	Module    string
	Comment   string
	Version   string
	Functions []extension.Function
}

// Package holds the rendered packaging files.
type Package struct {
	Control     []byte // minnal.control
	Script      []byte // minnal--<version>.sql
	ScriptName  string
	ControlName string
}

// Render renders the control file and install script for the given version.
func Render(reg *extension.Registry, version string) (*Package, error) {
	if err := validateVersion(version); err != nil {
		return nil, err
	}

	data := templateData{
		Name:      types.ExtensionName,
		Module:    types.ModuleName,
		Comment:   "Minnal extension",
		Version:   version,
		Functions: reg.All(),
	}

	var control, script bytes.Buffer
	if err := controlTmpl.Execute(&control, data); err != nil {
		return nil, types.NewOperationError("renderen control bestand", err)
	}
	if err := scriptTmpl.Execute(&script, data); err != nil {
		return nil, types.NewOperationError("renderen installatiescript", err)
	}

	return &Package{
		Control:     control.Bytes(),
		Script:      script.Bytes(),
		ControlName: types.ExtensionName + ".control",
		ScriptName:  fmt.Sprintf("%s--%s.sql", types.ExtensionName, version),
	}, nil
}

// WriteFiles renders the packaging files and writes them into dir.
// It returns the paths of the written files.
func WriteFiles(reg *extension.Registry, dir, version string) ([]string, error) {
	pkg, err := Render(reg, version)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.NewOperationError("aanmaken uitvoermap", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{pkg.ControlName, pkg.Control},
		{pkg.ScriptName, pkg.Script},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return nil, types.NewOperationError(fmt.Sprintf("schrijven %s", f.name), err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// validateVersion rejects versions that cannot be used in an extension script file name.
func validateVersion(version string) error {
	if version == "" {
		return types.NewValidationError("version", "versie mag niet leeg zijn")
	}
	if strings.Contains(version, "--") || strings.ContainsAny(version, "/\\ \t\n") ||
		strings.HasPrefix(version, "-") || strings.HasSuffix(version, "-") {
		return types.NewValidationError("version", fmt.Sprintf("versie %q is ongeldig in een extensie bestandsnaam", version))
	}
	return nil
}
