package driver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDSN(t *testing.T) {
	var cfg, err = ParseDSN("/var/lib/app.db")
	require.NoError(t, err)
	require.Equal(t, &Config{Path: "/var/lib/app.db", StmtCacheSize: DefaultStmtCacheSize}, cfg)

	cfg, err = ParseDSN(":memory:")
	require.NoError(t, err)
	require.Equal(t, ":memory:", cfg.Path)

	cfg, err = ParseDSN("file:app.db?mode=ro&lib=%2Fopt%2Flibsqlite3.so&stmt_cache=8&busy_timeout=250&cache=shared")
	require.NoError(t, err)
	require.Equal(t, "file:app.db?cache=shared&mode=ro", cfg.Path)
	require.True(t, cfg.Options.ReadOnly)
	require.Equal(t, "/opt/libsqlite3.so", cfg.Options.LibraryPath)
	require.Equal(t, 8, cfg.StmtCacheSize)
	require.Equal(t, 250, cfg.BusyTimeoutMS)

	cfg, err = ParseDSN("file:app.db?mode=rw")
	require.NoError(t, err)
	require.True(t, cfg.Options.NoCreate)

	cfg, err = ParseDSN("file:mem?mode=memory&stmt_cache=0")
	require.NoError(t, err)
	require.True(t, cfg.Options.Memory)
	require.Equal(t, 0, cfg.StmtCacheSize)
	require.Equal(t, "file:mem?mode=memory", cfg.Path)

	cfg, err = ParseDSN("file:app.db")
	require.NoError(t, err)
	require.Equal(t, "file:app.db", cfg.Path)

	for _, bad := range []string{
		"file:app.db?mode=bogus",
		"file:app.db?stmt_cache=-1",
		"file:app.db?busy_timeout=soon",
		"file:app.db?%zz",
	} {
		_, err = ParseDSN(bad)
		require.Error(t, err, bad)
	}
}
