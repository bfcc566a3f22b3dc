package purego

import (
	"fmt"
	"strconv"

	"github.com/connerohnesorge/sqlite-native-go/internal/metrics"
)

// NativeCallError is returned when a native entry point reports a status
// code outside of its expected set.
type NativeCallError struct {
	Code    int32
	Message string
}

func (e *NativeCallError) Error() string {
	return fmt.Sprintf("sqlite: (%d) %s", e.Code, e.Message)
}

// PrimaryCode returns the primary result code, stripping extended bits.
func (e *NativeCallError) PrimaryCode() int32 {
	return e.Code & 0xff
}

// misuseCodes are reported through sqlite3_errstr, since the connection's
// error state is not meaningful for them.
var misuseCodes = map[int32]struct{}{
	ResultMisuse: {},
	ResultRange:  {},
}

// Unwrap checks |code| against |expected| (SQLITE_OK when empty) and
// converts a mismatch into a *NativeCallError describing the failure on |db|.
func (s *SQLite) Unwrap(db DB, code int32, expected ...int32) error {
	if len(expected) == 0 {
		if code == ResultOK {
			return nil
		}
	} else {
		for _, e := range expected {
			if code == e {
				return nil
			}
		}
	}
	metrics.NativeErrorsTotal.WithLabelValues(strconv.Itoa(int(code))).Inc()

	var msg = s.Errstr(code)
	if _, ok := misuseCodes[code&0xff]; !ok && db != 0 {
		msg = fmt.Sprintf("%s: %s", msg, s.Errmsg(db))
	}
	return &NativeCallError{Code: code, Message: msg}
}

// Errmsg returns the English-language description of the most recent error on |db|
func (s *SQLite) Errmsg(db DB) string {
	return ptrToString(s.sqlite3Errmsg(db))
}

// Errstr returns the English-language description of a result code
func (s *SQLite) Errstr(code int32) string {
	return ptrToString(s.sqlite3Errstr(code))
}
