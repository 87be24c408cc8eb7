package codec

import (
	"strconv"
	"strings"
)

type segmentKind uint8

const (
	segRoot segmentKind = iota
	segIndex
	segKey
	segField
)

// location points at a value being decoded. Segments link to their parent
// and are only rendered when an error needs them.
type location struct {
	parent *location
	kind   segmentKind
	index  int
	name   string

	// depth counts the containers enclosing the value.
	depth int
}

func rootLocation() *location {
	return &location{kind: segRoot}
}

// elem locates the i-th element of the array at l.
func (l *location) elem(i int) *location {
	return &location{parent: l, kind: segIndex, index: i, depth: l.depth + 1}
}

// entry locates the value stored under key in the map at l.
func (l *location) entry(key string) *location {
	return &location{parent: l, kind: segKey, name: key, depth: l.depth + 1}
}

// field locates a member of the tagged object at l.
func (l *location) field(name string) *location {
	return &location{parent: l, kind: segField, name: name, depth: l.depth}
}

// String renders a JSONPath-like pointer such as $.value[1]["k"].
func (l *location) String() string {
	var segs []*location
	for cur := l; cur != nil && cur.kind != segRoot; cur = cur.parent {
		segs = append(segs, cur)
	}

	var sb strings.Builder
	sb.WriteByte('$')
	for i := len(segs) - 1; i >= 0; i-- {
		switch s := segs[i]; s.kind {
		case segIndex:
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(s.index))
			sb.WriteByte(']')
		case segKey:
			sb.WriteByte('[')
			sb.WriteString(strconv.Quote(s.name))
			sb.WriteByte(']')
		case segField:
			sb.WriteByte('.')
			sb.WriteString(s.name)
		}
	}
	return sb.String()
}
