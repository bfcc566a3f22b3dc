package binary

import "fmt"

// FetchError is returned when the native library can be neither located nor
// downloaded.
type FetchError struct {
	Filename string
	Reason   string
	Err      error
}

func (e *FetchError) Error() string {
	var msg = "fetching sqlite library"
	if e.Filename != "" {
		msg += " " + e.Filename
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }
