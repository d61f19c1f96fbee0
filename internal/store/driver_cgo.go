//go:build cgo

package store

// The libsql driver is cgo-only; registering it here keeps non-cgo builds
// (which skip the cgo-gated store tests) compiling.
import _ "github.com/tursodatabase/go-libsql"
