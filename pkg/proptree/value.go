// Package proptree implements the vDC API's property tree: a recursive
// value type whose leaves are typed scalars and whose internal nodes are
// named maps or indexed sequences (spec.md §4.5, §9).
package proptree

import "fmt"

// Kind tags the concrete type stored in a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindBytes
	KindMap
	KindSeq
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindMap:
		return "map"
	case KindSeq:
		return "seq"
	default:
		return "unknown"
	}
}

// Value is a tagged union covering every property-tree leaf and container
// type used on the wire and in entity property catalogs.
type Value struct {
	kind Kind
	b    bool
	i    int64
	d    float64
	s    string
	by   []byte
	m    map[string]Value
	seq  []Value
}

// Null returns the null/absent value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean leaf.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer leaf.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Double wraps a floating-point leaf.
func Double(d float64) Value { return Value{kind: KindDouble, d: d} }

// String wraps a string leaf.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bytes wraps an opaque byte-string leaf.
func Bytes(b []byte) Value { return Value{kind: KindBytes, by: append([]byte(nil), b...)} }

// Map constructs a named-map internal node.
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMap, m: m}
}

// Seq constructs an indexed-sequence internal node.
func Seq(items ...Value) Value {
	return Value{kind: KindSeq, seq: items}
}

// Kind reports the value's tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null/absent.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload and whether the kind matched.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Int returns the integer payload and whether the kind matched.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Double returns the double payload and whether the kind matched. Int
// values widen transparently since the wire format does not always
// distinguish them.
func (v Value) Double() (float64, bool) {
	switch v.kind {
	case KindDouble:
		return v.d, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// String returns the string payload and whether the kind matched.
func (v Value) String() (string, bool) { return v.s, v.kind == KindString }

// Bytes returns the byte-string payload and whether the kind matched.
func (v Value) Bytes() ([]byte, bool) { return v.by, v.kind == KindBytes }

// Map returns the map payload and whether the kind matched.
func (v Value) Map() (map[string]Value, bool) { return v.m, v.kind == KindMap }

// Seq returns the sequence payload and whether the kind matched.
func (v Value) Seq() ([]Value, bool) { return v.seq, v.kind == KindSeq }

// Get looks up a named child of a map value. Returns (Null, false) if v is
// not a map or the key is absent.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Null(), false
	}
	child, ok := v.m[key]
	return child, ok
}

// Set returns a copy of v (which must be a map, or null — treated as an
// empty map) with key set to child.
func (v Value) Set(key string, child Value) Value {
	var m map[string]Value
	if v.kind == KindMap {
		m = make(map[string]Value, len(v.m)+1)
		for k, val := range v.m {
			m[k] = val
		}
	} else {
		m = make(map[string]Value, 1)
	}
	m[key] = child
	return Map(m)
}

// GoString renders a debug representation for error messages and logs.
func (v Value) GoString() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("bool(%v)", v.b)
	case KindInt:
		return fmt.Sprintf("int(%d)", v.i)
	case KindDouble:
		return fmt.Sprintf("double(%v)", v.d)
	case KindString:
		return fmt.Sprintf("string(%q)", v.s)
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.by))
	case KindMap:
		return fmt.Sprintf("map(%d keys)", len(v.m))
	case KindSeq:
		return fmt.Sprintf("seq(%d items)", len(v.seq))
	default:
		return "invalid"
	}
}
