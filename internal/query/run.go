package query

import (
	"slices"

	"github.com/roach88/firedoc/internal/value"
)

// Select returns the documents of docs that belong to source, in scan order.
func Select(docs []Document, source Source) []Document {
	switch src := source.(type) {
	case CollectionSource:
		return Collection(docs, src.Parent, src.ID)
	case *CollectionSource:
		return Collection(docs, src.Parent, src.ID)
	case GroupSource:
		return CollectionGroup(docs, src.ID)
	case *GroupSource:
		return CollectionGroup(docs, src.ID)
	default:
		return make([]Document, 0)
	}
}

// Run validates q and evaluates it over a scanned document set.
func Run(docs []Document, q Query) ([]Document, error) {
	if err := Validate(q); err != nil {
		return nil, err
	}

	out := make([]Document, 0)
	for _, doc := range Select(docs, q.From) {
		if Matches(doc, q.Where) && hasFields(doc, q.OrderBy) {
			out = append(out, doc)
		}
	}

	if len(q.OrderBy) > 0 {
		slices.SortStableFunc(out, func(a, b Document) int {
			return compareDocuments(a, b, q.OrderBy)
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func hasFields(doc Document, orders []Order) bool {
	for _, o := range orders {
		if _, ok := fieldValue(doc, o.Field); !ok {
			return false
		}
	}
	return true
}

// compareDocuments orders by each Order in turn, then by reference.
func compareDocuments(a, b Document, orders []Order) int {
	for _, o := range orders {
		av, _ := fieldValue(a, o.Field)
		bv, _ := fieldValue(b, o.Field)
		c := value.Compare(av, bv)
		if o.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return value.Compare(value.NewReference(a.Reference), value.NewReference(b.Reference))
}
