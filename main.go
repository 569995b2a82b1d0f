// Package main implements the minnal command.
//
// Minnal is a PostgreSQL extension whose minnal_version() function reports the
// version the extension was built from. This command installs that function in
// a database, checks its status, renders the CREATE EXTENSION packaging files and
// serves a small HTTP API with the same information.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/oszuidwest/minnal/internal/cli"
)

const (
	cmdName   = "minnal"
	shortDesc = "Minnal extension tooling"
	longDesc  = `Minnal extension tooling.

Reports the build version of the Minnal extension and manages the
minnal_version() function in PostgreSQL. Configuration is read from
config.yaml, a .env file and MINNAL_DB_* environment variables.`
)

func main() {
	cmd := cli.NewRootCmd(cmdName, shortDesc, longDesc)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimLeft(err.Error(), "\n"))
		os.Exit(1)
	}
}
