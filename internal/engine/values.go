package engine

import (
	"encoding/hex"
	"math"
	"strconv"
	"time"
)

// BindValue is a statement parameter. It is one of Null, Bool, Int32, Int64,
// Float64, Text, Blob or Temporal. A nil BindValue binds as Null.
type BindValue interface {
	bindValue()
}

// ColumnValue is a decoded result column. It is one of Null, Int, Int64,
// Float64, Text or Blob.
type ColumnValue interface {
	columnValue()
}

type (
	// Null is SQL NULL.
	Null struct{}
	// Bool binds as the integer 0 or 1.
	Bool bool
	// Int32 binds as a 32-bit integer.
	Int32 int32
	// Int64 binds as the narrowest native integer holding it. As a
	// ColumnValue, it is an integer outside of the range of Int.
	Int64 int64
	// Int is an integer column which fits the platform int.
	Int int
	// Float64 is a double precision float. NaN binds as NULL.
	Float64 float64
	// Text is UTF-8 text.
	Text string
	// Blob is raw bytes.
	Blob []byte
	// Temporal binds as RFC 3339 text in UTC with nanosecond precision.
	Temporal time.Time
)

func (Null) bindValue()     {}
func (Bool) bindValue()     {}
func (Int32) bindValue()    {}
func (Int64) bindValue()    {}
func (Float64) bindValue()  {}
func (Text) bindValue()     {}
func (Blob) bindValue()     {}
func (Temporal) bindValue() {}

func (Null) columnValue()    {}
func (Int) columnValue()     {}
func (Int64) columnValue()   {}
func (Float64) columnValue() {}
func (Text) columnValue()    {}
func (Blob) columnValue()    {}

// TimeFormat is the text encoding of Temporal values.
const TimeFormat = time.RFC3339Nano

// ValueOf converts a Go value into a BindValue. Integers become Int64,
// floats Float64, strings Text, byte slices Blob and time.Time Temporal.
// Values already implementing BindValue are returned as-is.
func ValueOf(v interface{}) (BindValue, error) {
	switch v := v.(type) {
	case nil:
		return Null{}, nil
	case BindValue:
		return v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int64(v), nil
	case int8:
		return Int64(v), nil
	case int16:
		return Int64(v), nil
	case int32:
		return Int32(v), nil
	case int64:
		return Int64(v), nil
	case uint:
		return uintValue(uint64(v))
	case uint8:
		return Int64(v), nil
	case uint16:
		return Int64(v), nil
	case uint32:
		return Int64(v), nil
	case uint64:
		return uintValue(v)
	case float32:
		return Float64(v), nil
	case float64:
		return Float64(v), nil
	case string:
		return Text(v), nil
	case []byte:
		if v == nil {
			return Null{}, nil
		}
		return Blob(v), nil
	case time.Time:
		return Temporal(v), nil
	default:
		return nil, &BindTypeError{Value: v}
	}
}

func uintValue(v uint64) (BindValue, error) {
	if v > math.MaxInt64 {
		return nil, &BindTypeError{Value: v}
	}
	return Int64(v), nil
}

// NativeValue converts a ColumnValue into its plain Go representation:
// nil, int64, float64, string or []byte.
func NativeValue(v ColumnValue) interface{} {
	switch v := v.(type) {
	case Int:
		return int64(v)
	case Int64:
		return int64(v)
	case Float64:
		return float64(v)
	case Text:
		return string(v)
	case Blob:
		return []byte(v)
	default:
		return nil
	}
}

// FormatValue renders a ColumnValue for display.
func FormatValue(v ColumnValue) string {
	switch v := v.(type) {
	case Int:
		return strconv.Itoa(int(v))
	case Int64:
		return strconv.FormatInt(int64(v), 10)
	case Float64:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case Text:
		return string(v)
	case Blob:
		return "x'" + hex.EncodeToString(v) + "'"
	default:
		return "NULL"
	}
}

// narrow decodes a native integer column.
func narrow(v int64) ColumnValue {
	if v >= math.MinInt && v <= math.MaxInt {
		return Int(v)
	}
	return Int64(v)
}
