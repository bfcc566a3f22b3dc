package driver

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/connerohnesorge/sqlite-native-go/internal/engine"
)

// DefaultStmtCacheSize is the number of prepared statements each connection
// caches unless the DSN sets stmt_cache.
const DefaultStmtCacheSize = 64

// Config is a parsed DSN.
type Config struct {
	// Path is passed to the native open call. It may be a file: URI.
	Path    string
	Options engine.Options
	// StmtCacheSize is the number of statements cached per connection.
	// Zero disables the cache.
	StmtCacheSize int
	// BusyTimeoutMS, when non-zero, is applied with PRAGMA busy_timeout.
	BusyTimeoutMS int
}

// ParseDSN parses a filesystem path, ":memory:", or a file: URI. URIs may
// carry these parameters, besides any understood by SQLite itself:
//
//	mode=ro|rw|rwc|memory  open flags (default rwc)
//	lib=<path>             native library to load, bypassing provisioning
//	stmt_cache=<n>         statements cached per connection
//	busy_timeout=<ms>      busy handler timeout
//
// lib, stmt_cache and busy_timeout are removed before the URI reaches
// SQLite.
func ParseDSN(dsn string) (*Config, error) {
	var cfg = &Config{Path: dsn, StmtCacheSize: DefaultStmtCacheSize}
	if !strings.HasPrefix(dsn, "file:") {
		return cfg, nil
	}

	var base, rawQuery, _ = strings.Cut(dsn, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing DSN %q", dsn)
	}

	switch mode := query.Get("mode"); mode {
	case "", "rwc":
	case "ro":
		cfg.Options.ReadOnly = true
	case "rw":
		cfg.Options.NoCreate = true
	case "memory":
		cfg.Options.Memory = true
	default:
		return nil, errors.Errorf("invalid DSN mode %q", mode)
	}

	if v := query.Get("lib"); v != "" {
		cfg.Options.LibraryPath = v
	}
	if v := query.Get("stmt_cache"); v != "" {
		if cfg.StmtCacheSize, err = strconv.Atoi(v); err != nil || cfg.StmtCacheSize < 0 {
			return nil, errors.Errorf("invalid DSN stmt_cache %q", v)
		}
	}
	if v := query.Get("busy_timeout"); v != "" {
		if cfg.BusyTimeoutMS, err = strconv.Atoi(v); err != nil || cfg.BusyTimeoutMS < 0 {
			return nil, errors.Errorf("invalid DSN busy_timeout %q", v)
		}
	}
	for _, key := range []string{"lib", "stmt_cache", "busy_timeout"} {
		query.Del(key)
	}

	cfg.Path = base
	if len(query) != 0 {
		cfg.Path += "?" + query.Encode()
	}
	return cfg, nil
}
