// Package path implements the hierarchical path algebra for documents and
// collections.
//
// A Path is an ordered list of non-empty segments, always rooted. Parity
// decides the kind:
//   - even length >= 2: document path (last segment is the document id)
//   - odd length: collection path (last segment is the collection id)
//   - zero length: the database root
//
// All predicates are total over valid Paths and never panic.
package path

import (
	"errors"
	"fmt"
	"strings"
)

// Separator delimits path segments in textual form.
const Separator = "/"

// ErrInvalidPath is the sentinel wrapped by every parse failure.
var ErrInvalidPath = errors.New("invalid path")

// InvalidPathError reports malformed path text.
type InvalidPathError struct {
	Text   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Text, e.Reason)
}

func (e *InvalidPathError) Unwrap() error {
	return ErrInvalidPath
}

// Path is an immutable rooted segment list. The zero value is the root.
type Path struct {
	segments []string
}

// Root returns the database root path.
func Root() Path {
	return Path{}
}

// Parse parses slash-separated path text. The leading slash is optional;
// "" and "/" both denote the root. Empty segments and a trailing slash are
// rejected.
func Parse(text string) (Path, error) {
	trimmed := strings.TrimPrefix(text, Separator)
	if trimmed == "" {
		return Path{}, nil
	}
	if strings.HasSuffix(trimmed, Separator) {
		return Path{}, &InvalidPathError{Text: text, Reason: "trailing separator"}
	}

	segments := strings.Split(trimmed, Separator)
	for i, seg := range segments {
		if seg == "" {
			return Path{}, &InvalidPathError{Text: text, Reason: fmt.Sprintf("segment %d is empty", i)}
		}
	}
	return Path{segments: segments}, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or with constant input.
func MustParse(text string) Path {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

// New builds a Path from raw segments.
func New(segments ...string) (Path, error) {
	for i, seg := range segments {
		if seg == "" {
			return Path{}, &InvalidPathError{Text: strings.Join(segments, Separator), Reason: fmt.Sprintf("segment %d is empty", i)}
		}
		if strings.Contains(seg, Separator) {
			return Path{}, &InvalidPathError{Text: strings.Join(segments, Separator), Reason: fmt.Sprintf("segment %d contains %q", i, Separator)}
		}
	}
	if len(segments) == 0 {
		return Path{}, nil
	}
	return Path{segments: append([]string(nil), segments...)}, nil
}

// Len returns the segment count.
func (p Path) Len() int {
	return len(p.segments)
}

// Segments returns a copy of the segments.
func (p Path) Segments() []string {
	return append([]string(nil), p.segments...)
}

// Segment returns the i-th segment, or "" when i is out of range.
func (p Path) Segment(i int) string {
	if i < 0 || i >= len(p.segments) {
		return ""
	}
	return p.segments[i]
}

// Last returns the final segment, or "" for the root.
func (p Path) Last() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// IsRoot reports whether p is the database root.
func (p Path) IsRoot() bool {
	return len(p.segments) == 0
}

// IsDocument reports whether p addresses a document.
func (p Path) IsDocument() bool {
	return len(p.segments) >= 2 && len(p.segments)%2 == 0
}

// IsCollection reports whether p addresses a collection, or is the root.
func (p Path) IsCollection() bool {
	return len(p.segments)%2 == 1 || len(p.segments) == 0
}

// Parent drops the last segment. For a document this is its collection;
// for a collection it is the owning document (or the root).
// The parent of the root is the root.
func (p Path) Parent() Path {
	if len(p.segments) <= 1 {
		return Path{}
	}
	return Path{segments: p.segments[:len(p.segments)-1:len(p.segments)-1]}
}

// CollectionID returns the id of the collection immediately containing a
// document path, or "" when p is not a document.
func (p Path) CollectionID() string {
	if !p.IsDocument() {
		return ""
	}
	return p.segments[len(p.segments)-2]
}

// Child appends segments to p.
func (p Path) Child(segments ...string) (Path, error) {
	all := make([]string, 0, len(p.segments)+len(segments))
	all = append(all, p.segments...)
	all = append(all, segments...)
	return New(all...)
}

// HasPrefix reports whether prefix is an ancestor of, or equal to, p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	for i, seg := range prefix.segments {
		if p.segments[i] != seg {
			return false
		}
	}
	return true
}

// Equal reports segment-wise equality.
func (p Path) Equal(other Path) bool {
	return Compare(p, other) == 0
}

// Compare orders paths segment by segment using byte order. When one path
// is a prefix of the other, the shorter one sorts first.
func Compare(a, b Path) int {
	n := min(len(a.segments), len(b.segments))
	for i := 0; i < n; i++ {
		if c := strings.Compare(a.segments[i], b.segments[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a.segments) < len(b.segments):
		return -1
	case len(a.segments) > len(b.segments):
		return 1
	default:
		return 0
	}
}

// String renders p with a leading separator; the root renders as "/".
func (p Path) String() string {
	return Separator + strings.Join(p.segments, Separator)
}
