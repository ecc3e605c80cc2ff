//go:build cgo

package history

import (
	// Register the libsql database/sql driver. The driver is cgo-only, so
	// registration is gated behind the cgo build tag to keep non-cgo builds
	// compiling; Open will fail at runtime without it.
	_ "github.com/tursodatabase/go-libsql"
)
