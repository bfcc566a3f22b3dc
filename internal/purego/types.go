package purego

import "unsafe"

// SQLite C API handles represented as Go types
type (
	DB         uintptr
	Stmt       uintptr
	BlobHandle uintptr
)

// SQLite result codes
const (
	ResultOK         int32 = 0
	ResultError      int32 = 1
	ResultInternal   int32 = 2
	ResultPerm       int32 = 3
	ResultAbort      int32 = 4
	ResultBusy       int32 = 5
	ResultLocked     int32 = 6
	ResultNoMem      int32 = 7
	ResultReadOnly   int32 = 8
	ResultInterrupt  int32 = 9
	ResultIOErr      int32 = 10
	ResultCorrupt    int32 = 11
	ResultNotFound   int32 = 12
	ResultFull       int32 = 13
	ResultCantOpen   int32 = 14
	ResultProtocol   int32 = 15
	ResultEmpty      int32 = 16
	ResultSchema     int32 = 17
	ResultTooBig     int32 = 18
	ResultConstraint int32 = 19
	ResultMismatch   int32 = 20
	ResultMisuse     int32 = 21
	ResultNoLFS      int32 = 22
	ResultAuth       int32 = 23
	ResultFormat     int32 = 24
	ResultRange      int32 = 25
	ResultNotADB     int32 = 26
	ResultRow        int32 = 100
	ResultDone       int32 = 101
)

// SQLite fundamental datatypes, as reported by sqlite3_column_type
const (
	TypeInteger int32 = 1
	TypeFloat   int32 = 2
	TypeText    int32 = 3
	TypeBlob    int32 = 4
	TypeNull    int32 = 5
)

// Flags for sqlite3_open_v2
const (
	OpenReadOnly  int32 = 0x00000001
	OpenReadWrite int32 = 0x00000002
	OpenCreate    int32 = 0x00000004
	OpenURI       int32 = 0x00000040
	OpenMemory    int32 = 0x00000080
	OpenNoMutex   int32 = 0x00008000
	OpenFullMutex int32 = 0x00010000
)

// Destructor sentinels accepted by sqlite3_bind_text and sqlite3_bind_blob.
// Static tells SQLite the buffer outlives the binding and must not be copied.
const (
	DestructorStatic uintptr = 0
)

// ptrToString copies a NUL-terminated C string into a Go string
func ptrToString(ptr unsafe.Pointer) string {
	if ptr == nil {
		return ""
	}
	var length int
	for *(*byte)(unsafe.Add(ptr, length)) != 0 {
		length++
	}
	return string(unsafe.Slice((*byte)(ptr), length))
}

// ptrToBytes copies n bytes of native memory into an owned slice
func ptrToBytes(ptr unsafe.Pointer, n int) []byte {
	var out = make([]byte, n)
	if n != 0 {
		copy(out, unsafe.Slice((*byte)(ptr), n))
	}
	return out
}

// bufferPtr returns a pointer to the first byte of |b|. A zero-length slice
// with spare capacity still yields a non-nil pointer, which SQLite needs to
// tell an empty value apart from NULL.
func bufferPtr(b []byte) unsafe.Pointer {
	if cap(b) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(b[:1]))
}
