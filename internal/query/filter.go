package query

import (
	"fmt"

	"github.com/roach88/firedoc/internal/value"
)

// FilterOp is a field filter operator, spelled as in Firestore queries.
type FilterOp string

const (
	OpLess             FilterOp = "<"
	OpLessOrEqual      FilterOp = "<="
	OpGreater          FilterOp = ">"
	OpGreaterOrEqual   FilterOp = ">="
	OpEqual            FilterOp = "=="
	OpNotEqual         FilterOp = "!="
	OpArrayContains    FilterOp = "array-contains"
	OpArrayContainsAny FilterOp = "array-contains-any"
	OpIn               FilterOp = "in"
)

var comparisonOps = map[FilterOp]value.Op{
	OpLess:           value.OpLt,
	OpLessOrEqual:    value.OpLe,
	OpGreater:        value.OpGt,
	OpGreaterOrEqual: value.OpGe,
	OpEqual:          value.OpEq,
	OpNotEqual:       value.OpNeq,
}

// ParseFilterOp maps operator text to a FilterOp. The query comparison
// spellings accepted by value.ParseOp ("#<", "#=", ...) are also accepted.
func ParseFilterOp(text string) (FilterOp, error) {
	switch op := FilterOp(text); op {
	case OpArrayContains, OpArrayContainsAny, OpIn:
		return op, nil
	}
	cmpOp, err := value.ParseOp(text)
	if err != nil {
		return "", fmt.Errorf("unknown filter operator %q", text)
	}
	for op, candidate := range comparisonOps {
		if candidate == cmpOp {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown filter operator %q", text)
}

// Matches evaluates p against a document. A nil Predicate matches.
func Matches(doc Document, p Predicate) bool {
	switch pred := p.(type) {
	case nil:
		return true
	case Filter:
		return matchFilter(doc, pred)
	case *Filter:
		return matchFilter(doc, *pred)
	case And:
		return matchAll(doc, pred.Predicates)
	case *And:
		return matchAll(doc, pred.Predicates)
	default:
		return false
	}
}

func matchAll(doc Document, preds []Predicate) bool {
	for _, p := range preds {
		if !Matches(doc, p) {
			return false
		}
	}
	return true
}

func matchFilter(doc Document, f Filter) bool {
	field, ok := fieldValue(doc, f.Field)
	if !ok {
		return false
	}

	if op, ok := comparisonOps[f.Op]; ok {
		return value.QueryCompare(op, field, f.Value)
	}

	switch f.Op {
	case OpArrayContains:
		return ArrayContains(field, f.Value)
	case OpArrayContainsAny:
		targets, _ := value.AsArray(f.Value)
		return ArrayContainsAny(field, targets)
	case OpIn:
		candidates, _ := value.AsArray(f.Value)
		for _, c := range candidates {
			if value.QueryCompare(value.OpEq, field, c) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func fieldValue(doc Document, field string) (value.Value, bool) {
	if field == FieldDocumentName {
		return value.NewReference(doc.Reference), true
	}
	return Lookup(doc.Properties, field)
}

// Apply keeps, in order, the documents satisfying every filter.
func Apply(docs []Document, filters ...Filter) []Document {
	preds := make([]Predicate, len(filters))
	for i, f := range filters {
		preds[i] = f
	}
	where := And{Predicates: preds}

	out := make([]Document, 0)
	for _, doc := range docs {
		if Matches(doc, where) {
			out = append(out, doc)
		}
	}
	return out
}
