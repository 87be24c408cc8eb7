package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/firedoc/internal/value"
)

// ErrInvalidQuery is wrapped by every Validate failure.
var ErrInvalidQuery = errors.New("invalid query")

// Validate checks that q can be evaluated: the source names a collection
// under the root or a document, filters use known operators on well-formed
// field paths, and list operators carry an Array operand.
//
// Validate is a pure function with no side effects.
func Validate(q Query) error {
	v := &validator{}
	v.validateSource(q.From)
	v.validatePredicate(q.Where)
	for i, o := range q.OrderBy {
		if err := validateField(o.Field); err != nil {
			v.addProblem("order_by[%d]: %v", i, err)
		}
	}
	if q.Limit < 0 {
		v.addProblem("limit must not be negative, got %d", q.Limit)
	}

	if len(v.problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidQuery, strings.Join(v.problems, "; "))
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateSource(s Source) {
	switch src := s.(type) {
	case nil:
		v.addProblem("missing source")
	case CollectionSource:
		v.validateCollection(src)
	case *CollectionSource:
		v.validateCollection(*src)
	case GroupSource:
		v.validateCollectionID(src.ID)
	case *GroupSource:
		v.validateCollectionID(src.ID)
	default:
		v.addProblem("unknown source type %T", s)
	}
}

func (v *validator) validateCollection(src CollectionSource) {
	if !src.Parent.IsRoot() && !src.Parent.IsDocument() {
		v.addProblem("collection parent %s is not the root or a document", src.Parent)
	}
	v.validateCollectionID(src.ID)
}

func (v *validator) validateCollectionID(id string) {
	if id == "" {
		v.addProblem("collection id is empty")
	} else if strings.Contains(id, "/") {
		v.addProblem("collection id %q contains '/'", id)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Filter:
		v.validateFilter(pred)
	case *Filter:
		v.validateFilter(*pred)
	case And:
		for _, child := range pred.Predicates {
			v.validatePredicate(child)
		}
	case *And:
		for _, child := range pred.Predicates {
			v.validatePredicate(child)
		}
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) validateFilter(f Filter) {
	if err := validateField(f.Field); err != nil {
		v.addProblem("filter: %v", err)
	}
	switch f.Op {
	case OpArrayContainsAny, OpIn:
		if value.TypeOf(f.Value) != value.TypeArray {
			v.addProblem("filter %s %s: operand must be an ARRAY, got %s", f.Field, f.Op, value.TypeOf(f.Value))
		}
	case OpArrayContains:
	default:
		if _, ok := comparisonOps[f.Op]; !ok {
			v.addProblem("filter %s: unknown operator %q", f.Field, f.Op)
		}
	}
}

func validateField(field string) error {
	if field == "" {
		return errors.New("field path is empty")
	}
	for _, key := range strings.Split(field, ".") {
		if key == "" {
			return fmt.Errorf("field path %q has an empty segment", field)
		}
	}
	return nil
}
