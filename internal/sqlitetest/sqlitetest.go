// Package sqlitetest locates a system SQLite library for integration tests.
package sqlitetest

import (
	"os"
	"testing"
)

// EnvLibrary names a library path which takes precedence over the
// well-known system locations.
const EnvLibrary = "SQLITE_NATIVE_LIB"

var candidates = []string{
	"/usr/lib/x86_64-linux-gnu/libsqlite3.so.0",
	"/usr/lib/aarch64-linux-gnu/libsqlite3.so.0",
	"/usr/lib64/libsqlite3.so.0",
	"/usr/lib/libsqlite3.so.0",
	"/usr/lib/libsqlite3.so",
	"/usr/local/lib/libsqlite3.so",
	"/opt/homebrew/opt/sqlite/lib/libsqlite3.dylib",
	"/usr/local/opt/sqlite/lib/libsqlite3.dylib",
	"/usr/lib/libsqlite3.dylib",
}

// Find returns the path of a SQLite library, if one is available.
func Find() (string, bool) {
	if path := os.Getenv(EnvLibrary); path != "" {
		return path, true
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Library returns the path of a SQLite library, or skips the test.
func Library(t testing.TB) string {
	t.Helper()

	path, ok := Find()
	if !ok {
		t.Skipf("no SQLite library found; set %s to run", EnvLibrary)
	}
	return path
}
