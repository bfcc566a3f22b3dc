package engine

// arena owns the buffers of bound Text and Blob values. The native engine
// reads them by reference, so they live until the statement is reset or
// finalized and are never mutated in the meantime.
type arena struct {
	bufs  [][]byte
	bytes int
}

// text returns an owned copy of |s|.
func (a *arena) text(s string) []byte {
	var buf = make([]byte, len(s), len(s)+1)
	copy(buf, s)
	return a.retain(buf)
}

// blob returns an owned copy of |b|.
func (a *arena) blob(b []byte) []byte {
	var buf = make([]byte, len(b), len(b)+1)
	copy(buf, b)
	return a.retain(buf)
}

// retain keeps |buf| until release. Buffers always have non-zero capacity so
// that empty values bind by a non-NULL pointer.
func (a *arena) retain(buf []byte) []byte {
	a.bufs = append(a.bufs, buf)
	a.bytes += len(buf)
	return buf
}

// release drops every retained buffer. Callers must first ensure the native
// engine holds no reference to them.
func (a *arena) release() {
	a.bufs, a.bytes = nil, 0
}

func (a *arena) len() int { return len(a.bufs) }
