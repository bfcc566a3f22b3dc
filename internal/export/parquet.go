// Package export writes decoded result rows to columnar files.
package export

import (
	"io"
	"strconv"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"

	"github.com/connerohnesorge/sqlite-native-go/internal/engine"
)

// ColumnKind is the Parquet representation chosen for a result column.
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindInt64
	KindDouble
	KindBytes
)

// InferKinds chooses a ColumnKind per column from the values present in
// |rows|. SQLite types values rather than columns, so a column holding only
// integers maps to INT64, integers mixed with floats to DOUBLE, only blobs
// to BYTE_ARRAY, and anything else to STRING.
func InferKinds(columns int, rows []engine.Row) []ColumnKind {
	type seen struct{ ints, floats, texts, blobs bool }
	var s = make([]seen, columns)

	for _, row := range rows {
		for i, v := range row.Values[:columns] {
			switch v.(type) {
			case engine.Int, engine.Int64:
				s[i].ints = true
			case engine.Float64:
				s[i].floats = true
			case engine.Text:
				s[i].texts = true
			case engine.Blob:
				s[i].blobs = true
			}
		}
	}

	var kinds = make([]ColumnKind, columns)
	for i, c := range s {
		switch {
		case c.texts:
			kinds[i] = KindString
		case c.blobs && !c.ints && !c.floats:
			kinds[i] = KindBytes
		case c.blobs:
			kinds[i] = KindString
		case c.floats:
			kinds[i] = KindDouble
		case c.ints:
			kinds[i] = KindInt64
		default:
			kinds[i] = KindString
		}
	}
	return kinds
}

func (k ColumnKind) node() parquet.Node {
	switch k {
	case KindInt64:
		return parquet.Optional(parquet.Int(64))
	case KindDouble:
		return parquet.Optional(parquet.Leaf(parquet.DoubleType))
	case KindBytes:
		return parquet.Optional(parquet.Leaf(parquet.ByteArrayType))
	default:
		return parquet.Optional(parquet.String())
	}
}

func (k ColumnKind) value(v engine.ColumnValue) parquet.Value {
	if _, ok := v.(engine.Null); ok || v == nil {
		return parquet.NullValue()
	}
	switch k {
	case KindInt64:
		return parquet.Int64Value(engine.NativeValue(v).(int64))
	case KindDouble:
		switch n := engine.NativeValue(v).(type) {
		case int64:
			return parquet.DoubleValue(float64(n))
		case float64:
			return parquet.DoubleValue(n)
		}
	case KindBytes:
		return parquet.ByteArrayValue(engine.NativeValue(v).([]byte))
	}
	return parquet.ByteArrayValue([]byte(engine.FormatValue(v)))
}

// FieldNames returns unique, non-empty Parquet field names for |columns|.
func FieldNames(columns []string) []string {
	var out = make([]string, len(columns))
	var used = make(map[string]bool, len(columns))

	for i, name := range columns {
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		var base = name
		for n := 2; used[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// WriteParquet writes |rows|, having result |columns|, as a single Parquet
// file to |w|. Every column is optional so that NULLs are preserved.
func WriteParquet(w io.Writer, columns []string, rows []engine.Row) error {
	var names = FieldNames(columns)
	var kinds = InferKinds(len(columns), rows)

	var group = make(parquet.Group, len(names))
	for i, name := range names {
		group[name] = kinds[i].node()
	}
	var schema = parquet.NewSchema("sqlite", group)

	// Group fields are ordered by name, which need not be result order.
	var index = make([]int, len(names))
	for i, name := range names {
		leaf, ok := schema.Lookup(name)
		if !ok {
			return errors.Errorf("column %q missing from parquet schema", name)
		}
		index[i] = leaf.ColumnIndex
	}

	var out = make([]parquet.Row, 0, len(rows))
	for _, row := range rows {
		var pr = make(parquet.Row, len(names))
		for i, v := range row.Values[:len(names)] {
			var def = 1
			var pv = kinds[i].value(v)
			if pv.IsNull() {
				def = 0
			}
			pr[index[i]] = pv.Level(0, def, index[i])
		}
		out = append(out, pr)
	}

	var pw = parquet.NewWriter(w, schema)
	if _, err := pw.WriteRows(out); err != nil {
		return errors.Wrap(err, "writing parquet rows")
	}
	return errors.Wrap(pw.Close(), "closing parquet writer")
}
