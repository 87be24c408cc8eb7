package value

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/firedoc/internal/path"
)

// Type is a value's type category. The numeric value is its rank.
type Type int

const (
	TypeNull      Type = 0
	TypeNaN       Type = 1
	TypeBoolean   Type = 2
	TypeNumber    Type = 3
	TypeDate      Type = 4
	TypeString    Type = 5
	TypeBytes     Type = 6
	TypeReference Type = 7
	TypeGeoPoint  Type = 8
	TypeArray     Type = 9
	TypeMap       Type = 10
)

var typeNames = map[Type]string{
	TypeNull:      "NULL",
	TypeNaN:       "NAN",
	TypeBoolean:   "BOOLEAN",
	TypeNumber:    "NUMBER",
	TypeDate:      "DATE",
	TypeString:    "STRING",
	TypeBytes:     "BYTES",
	TypeReference: "REFERENCE",
	TypeGeoPoint:  "GEOPOINT",
	TypeArray:     "ARRAY",
	TypeMap:       "MAP",
}

// String returns the textual type name (e.g. "NUMBER").
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Rank returns the cross-type ordering rank.
func (t Type) Rank() int {
	return int(t)
}

// ParseType maps a textual type name to its Type.
func ParseType(name string) (Type, bool) {
	for t, n := range typeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// Value is a sealed interface over the document value domain.
type Value interface {
	Type() Type
	fsValue() // Sealed - only types in this package implement it
}

// Null is the null value.
type Null struct{}

func (Null) Type() Type { return TypeNull }
func (Null) fsValue()   {}

// NaN is the not-a-number value. It is its own category, distinct from Number.
type NaN struct{}

func (NaN) Type() Type { return TypeNaN }
func (NaN) fsValue()   {}

// Boolean is a boolean value.
type Boolean bool

func (Boolean) Type() Type { return TypeBoolean }
func (Boolean) fsValue()   {}

// NumberKind records how a Number was written.
type NumberKind uint8

const (
	KindInt NumberKind = iota
	KindDouble
)

func (k NumberKind) String() string {
	if k == KindInt {
		return "int"
	}
	return "double"
}

// Number is an integer or floating-point number. A Number never holds NaN.
type Number struct {
	kind NumberKind
	i    int64
	f    float64
}

func (Number) Type() Type { return TypeNumber }
func (Number) fsValue()   {}

// Kind returns the representation kind.
func (n Number) Kind() NumberKind {
	return n.kind
}

// IsInt reports whether n holds an integer.
func (n Number) IsInt() bool {
	return n.kind == KindInt
}

// Int returns the integer payload. For doubles it truncates toward zero.
func (n Number) Int() int64 {
	if n.kind == KindInt {
		return n.i
	}
	return int64(n.f)
}

// Float returns the value as a float64, rounding large integers.
func (n Number) Float() float64 {
	if n.kind == KindInt {
		return float64(n.i)
	}
	return n.f
}

// Date is a timestamp in microseconds since the Unix epoch.
// The category is reserved; only ordering and round-tripping are supported.
type Date int64

func (Date) Type() Type { return TypeDate }
func (Date) fsValue()   {}

// String is a UTF-8 string value.
type String string

func (String) Type() Type { return TypeString }
func (String) fsValue()   {}

// Bytes is an opaque byte sequence.
type Bytes []byte

func (Bytes) Type() Type { return TypeBytes }
func (Bytes) fsValue()   {}

// Reference points at a location in the document tree.
type Reference struct {
	Path path.Path
}

func (Reference) Type() Type { return TypeReference }
func (Reference) fsValue()   {}

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Lat float64
	Lon float64
}

func (GeoPoint) Type() Type { return TypeGeoPoint }
func (GeoPoint) fsValue()   {}

// Array is an ordered list of values.
type Array []Value

func (Array) Type() Type { return TypeArray }
func (Array) fsValue()   {}

// Entry is a single key/value pair of a Map.
type Entry struct {
	Key   string
	Value Value
}

// Map is a string-keyed mapping with unique keys. Insertion order is kept
// for display and round-tripping but ignored by comparison.
type Map struct {
	entries []Entry
	index   map[string]int
}

func (Map) Type() Type { return TypeMap }
func (Map) fsValue()   {}

// NewInt creates an integer Number.
func NewInt(n int64) Number {
	return Number{kind: KindInt, i: n}
}

// NewDouble creates a floating Number. NaN input yields the NaN value,
// since NaN is not a member of the Number category.
func NewDouble(f float64) Value {
	if math.IsNaN(f) {
		return NaN{}
	}
	return Number{kind: KindDouble, f: f}
}

// NewString creates a String value.
func NewString(s string) String {
	return String(s)
}

// NewBytes creates a Bytes value holding a copy of b.
func NewBytes(b []byte) Bytes {
	out := make([]byte, len(b))
	copy(out, b)
	return Bytes(out)
}

// NewReference creates a Reference value.
func NewReference(p path.Path) Reference {
	return Reference{Path: p}
}

// NewGeoPoint creates a GeoPoint value.
func NewGeoPoint(lat, lon float64) GeoPoint {
	return GeoPoint{Lat: lat, Lon: lon}
}

// NewArray creates an Array holding a copy of vals.
func NewArray(vals ...Value) Array {
	arr := make(Array, len(vals))
	copy(arr, vals)
	return arr
}

// E is shorthand for Entry, for ergonomic Map construction.
// Example: NewMap(E("name", NewString("ada")), E("age", NewInt(36)))
func E(key string, v Value) Entry {
	return Entry{Key: key, Value: v}
}

// NewMap creates a Map from entries. A repeated key keeps its first
// position and takes the last value.
func NewMap(entries ...Entry) Map {
	m := Map{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if i, ok := m.index[e.Key]; ok {
			m.entries[i].Value = e.Value
			continue
		}
		m.index[e.Key] = len(m.entries)
		m.entries = append(m.entries, e)
	}
	return m
}

// Len returns the number of entries.
func (m Map) Len() int {
	return len(m.entries)
}

// Get returns the value stored under key.
func (m Map) Get(key string) (Value, bool) {
	if m.index != nil {
		i, ok := m.index[key]
		if !ok {
			return nil, false
		}
		return m.entries[i].Value, true
	}
	for _, e := range m.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Entries returns the entries in insertion order.
func (m Map) Entries() []Entry {
	return slices.Clone(m.entries)
}

// Keys returns the keys in insertion order.
func (m Map) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// SortedKeys returns the keys in byte order, for deterministic iteration.
func (m Map) SortedKeys() []string {
	keys := m.Keys()
	slices.SortFunc(keys, strings.Compare)
	return keys
}

// AsMap returns v as a Map when it is one.
func AsMap(v Value) (Map, bool) {
	m, ok := v.(Map)
	return m, ok
}

// AsArray returns v as an Array when it is one.
func AsArray(v Value) (Array, bool) {
	a, ok := v.(Array)
	return a, ok
}

// AsReference returns v as a Reference when it is one.
func AsReference(v Value) (Reference, bool) {
	r, ok := v.(Reference)
	return r, ok
}

// MaxDepth is the deepest container nesting a value may have. A scalar has
// depth 0; each enclosing Array or Map adds one.
const MaxDepth = 20

// WithinDepth reports whether v nests no more than max containers deep. It
// never descends past max+1 levels.
func WithinDepth(v Value, max int) bool {
	switch val := v.(type) {
	case Array:
		if max == 0 {
			return false
		}
		for _, elem := range val {
			if !WithinDepth(elem, max-1) {
				return false
			}
		}
	case Map:
		if max == 0 {
			return false
		}
		for _, e := range val.entries {
			if !WithinDepth(e.Value, max-1) {
				return false
			}
		}
	}
	return true
}

// TypeOf returns the category of v. A nil Value is treated as Null.
func TypeOf(v Value) Type {
	if v == nil {
		return TypeNull
	}
	return v.Type()
}
