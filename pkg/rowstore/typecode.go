package rowstore

import "time"

// TypeCode identifies the scalar kind stored in a column. Every column
// carries exactly one TypeCode; newColumn switches on it once, at table
// construction, and every later column operation goes through the
// column interface (column.go) rather than reflection.
type TypeCode uint8

const (
	LONG TypeCode = iota
	INT
	SHORT
	BYTE
	BOOL
	CHAR
	FLOAT
	DOUBLE
	STRING
	INSTANT
)

// String implements fmt.Stringer for diagnostics and error messages.
func (t TypeCode) String() string {
	switch t {
	case LONG:
		return "LONG"
	case INT:
		return "INT"
	case SHORT:
		return "SHORT"
	case BYTE:
		return "BYTE"
	case BOOL:
		return "BOOL"
	case CHAR:
		return "CHAR"
	case FLOAT:
		return "FLOAT"
	case DOUBLE:
		return "DOUBLE"
	case STRING:
		return "STRING"
	case INSTANT:
		return "INSTANT"
	default:
		return "UNKNOWN"
	}
}

// supportsOrdering reports whether the type participates in <, <=, >, >=,
// BETWEEN and range-index placement.
func (t TypeCode) supportsOrdering() bool {
	return true // every scalar kind here has a natural order
}

// isString reports whether the type is the only one that supports
// prefix/suffix/ignore-case predicates and prefix/suffix indexes.
func (t TypeCode) isString() bool {
	return t == STRING
}

// zeroValue returns the type's default value, used by typedColumn.getAny for
// unpublished or absent cells (invariant C3).
func (t TypeCode) zeroValue() any {
	switch t {
	case LONG:
		return int64(0)
	case INT:
		return int32(0)
	case SHORT:
		return int16(0)
	case BYTE:
		return int8(0)
	case BOOL:
		return false
	case CHAR:
		return rune(0)
	case FLOAT:
		return float32(0)
	case DOUBLE:
		return float64(0)
	case STRING:
		return ""
	case INSTANT:
		return time.Time{}
	default:
		panic("rowstore: unknown type code")
	}
}
