package query

import (
	"strings"

	"github.com/roach88/firedoc/internal/path"
	"github.com/roach88/firedoc/internal/value"
)

// FieldDocumentName is the pseudo-field that resolves to the document's
// own reference.
const FieldDocumentName = "__name__"

// InCollection reports whether ref is a direct child document of the
// collection id under parent.
func InCollection(ref, parent path.Path, id string) bool {
	if !ref.IsDocument() || ref.Len() != parent.Len()+2 {
		return false
	}
	return ref.HasPrefix(parent) && ref.Segment(parent.Len()) == id
}

// InGroup reports whether ref is a document whose immediate collection is id.
func InGroup(ref path.Path, id string) bool {
	return ref.IsDocument() && ref.CollectionID() == id
}

// Collection returns, in scan order, the documents directly under the
// collection id of parent. Deeper descendants are excluded.
func Collection(docs []Document, parent path.Path, id string) []Document {
	out := make([]Document, 0)
	for _, doc := range docs {
		if InCollection(doc.Reference, parent, id) {
			out = append(out, doc)
		}
	}
	return out
}

// CollectionGroup returns, in scan order, every document whose immediate
// collection is id, regardless of ancestry.
func CollectionGroup(docs []Document, id string) []Document {
	out := make([]Document, 0)
	for _, doc := range docs {
		if InGroup(doc.Reference, id) {
			out = append(out, doc)
		}
	}
	return out
}

// MapGet returns the value stored under key when v is a Map holding it,
// and Null otherwise. It never fails.
func MapGet(v value.Value, key string) value.Value {
	if got, ok := lookupKey(v, key); ok {
		return got
	}
	return value.Null{}
}

// GetField follows a dotted field path with MapGet semantics.
func GetField(v value.Value, field string) value.Value {
	if got, ok := Lookup(v, field); ok {
		return got
	}
	return value.Null{}
}

// Lookup follows a dotted field path and reports whether every step was
// present. An explicit Null is present; a missing key is not.
func Lookup(v value.Value, field string) (value.Value, bool) {
	cur := v
	for _, key := range strings.Split(field, ".") {
		next, ok := lookupKey(cur, key)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func lookupKey(v value.Value, key string) (value.Value, bool) {
	m, ok := value.AsMap(v)
	if !ok {
		return nil, false
	}
	got, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	if got == nil {
		return value.Null{}, true
	}
	return got, true
}

// ArrayContains reports whether arr is an Array holding an element equal
// to target under the default order. Non-arrays contain nothing.
func ArrayContains(arr, target value.Value) bool {
	elems, ok := value.AsArray(arr)
	if !ok {
		return false
	}
	for _, elem := range elems {
		if value.Equal(elem, target) {
			return true
		}
	}
	return false
}

// ArrayContainsAny reports whether ArrayContains holds for any target.
func ArrayContainsAny(arr value.Value, targets []value.Value) bool {
	for _, target := range targets {
		if ArrayContains(arr, target) {
			return true
		}
	}
	return false
}
