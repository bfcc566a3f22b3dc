package purego

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckSpan(t *testing.T) {
	require.NoError(t, checkSpan(0, 0))
	require.NoError(t, checkSpan(10, 100))
	require.NoError(t, checkSpan(1, math.MaxInt32-1))

	require.Error(t, checkSpan(1, -1))
	require.Error(t, checkSpan(2, math.MaxInt32-1))
	require.Error(t, checkSpan(2, 1<<32))
	require.Error(t, checkSpan(math.MaxInt32+1, 0))
}

func TestBlobRangeRejectedBeforeNativeCall(t *testing.T) {
	// A zero SQLite has no registered functions: reaching native code panics.
	var s = new(SQLite)

	require.Error(t, s.BlobWrite(0, 0, []byte("XY"), 1<<32))
	require.Error(t, s.BlobRead(0, 0, make([]byte, 2), -1))
	require.Error(t, <-s.BlobWriteAsync(0, 0, []byte("XY"), 1<<32))
}
