//go:build pgext

// Command pg_minnal is the loadable PostgreSQL module exporting minnal_version().
//
// Build it against the server headers of the target PostgreSQL installation:
//
//	CGO_CFLAGS="-I$(pg_config --includedir-server)" \
//	  go build -tags pgext -buildmode=c-shared \
//	  -ldflags "-X github.com/oszuidwest/minnal/internal/version.Version=0.4.0" \
//	  -o "$(pg_config --pkglibdir)/pg_minnal.so" ./cmd/pg_minnal
//
// and install the control file and script written by "minnal package".
package main

/*
#cgo darwin LDFLAGS: -undefined dynamic_lookup
#include <stdlib.h>
#include "postgres.h"
#include "fmgr.h"

extern Datum minnal_text_datum(const char *s);
*/
import "C"

import (
	"unsafe"

	"github.com/oszuidwest/minnal/internal/extension"
	"github.com/oszuidwest/minnal/internal/types"
	"github.com/oszuidwest/minnal/internal/version"
)

var registry = extension.Default()

// minnal_version implements the V1 calling convention entry point. PostgreSQL has
// already checked the argument count against the catalog, so fcinfo is unused.
//
//export minnal_version
func minnal_version(_ C.FunctionCallInfo) C.Datum {
	// Errors must not unwind through the backend; fall back to the raw build value.
	v, err := registry.InvokeText(types.VersionFunction)
	if err != nil {
		v = version.Get()
	}

	cs := C.CString(v)
	defer C.free(unsafe.Pointer(cs))

	// cstring_to_text copies into a palloc'd text in the current memory context.
	return C.minnal_text_datum(cs)
}

func main() {}
