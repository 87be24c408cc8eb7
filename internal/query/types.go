package query

import (
	"github.com/roach88/firedoc/internal/path"
	"github.com/roach88/firedoc/internal/value"
)

// Document is a stored (reference, properties) pair.
type Document struct {
	Reference  path.Path
	Properties value.Value
}

// Source selects the documents a query starts from.
//
// This is a sealed interface - only types in this package implement it.
type Source interface {
	sourceNode()
}

// CollectionSource selects the direct children of the collection ID under
// Parent. A root Parent selects a top-level collection.
type CollectionSource struct {
	Parent path.Path
	ID     string
}

func (CollectionSource) sourceNode() {}

// GroupSource selects every document whose immediate collection is ID,
// at any depth.
type GroupSource struct {
	ID string
}

func (GroupSource) sourceNode() {}

// Predicate is a document filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Filter compares the value at a dotted field path against a literal.
//
// Example:
//
//	Filter{Field: "author.name", Op: OpEqual, Value: value.NewString("ada")}
//
// Documents lacking the field never match, including for OpNotEqual.
type Filter struct {
	Field string
	Op    FilterOp
	Value value.Value
}

func (Filter) predicateNode() {}

// And is a conjunction. An empty And matches every document.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Order sorts results by the default value order of a field.
// Documents lacking the field are dropped from ordered results.
type Order struct {
	Field      string
	Descending bool
}

// Query is a source plus optional filtering, ordering and limit.
type Query struct {
	From    Source
	Where   Predicate // nil matches everything
	OrderBy []Order
	Limit   int // 0 means unlimited
}
