package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/firedoc/internal/docstore"
	"github.com/roach88/firedoc/internal/path"
)

// Assertion validates the final store contents.
type Assertion struct {
	// Type specifies the assertion type:
	// - "document_count": Total stored documents equals Count
	// - "collection_size": Collection under Parent holds Count documents
	// - "group_size": Collection group holds Count documents
	// - "exists": Reference is stored
	// - "absent": Reference is not stored
	Type string `yaml:"type"`

	Reference  string `yaml:"reference,omitempty"`
	Parent     string `yaml:"parent,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	Count      int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertDocumentCount  = "document_count"
	AssertCollectionSize = "collection_size"
	AssertGroupSize      = "group_size"
	AssertExists         = "exists"
	AssertAbsent         = "absent"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", event.Seq, event.Op, event.Target, event.Outcome)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. An empty slice means all passed.
func EvaluateAssertions(ctx context.Context, s *docstore.Store, result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		if err := evaluateAssertion(ctx, s, a, result.Trace); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func evaluateAssertion(ctx context.Context, s *docstore.Store, a Assertion, trace []TraceEvent) error {
	var (
		expected string
		actual   string
		ok       bool
	)

	switch a.Type {
	case AssertDocumentCount:
		docs, err := s.Documents(ctx)
		if err != nil {
			return err
		}
		ok = len(docs) == a.Count
		expected = fmt.Sprintf("%d documents", a.Count)
		actual = fmt.Sprintf("%d documents", len(docs))

	case AssertCollectionSize:
		parent := path.Root()
		if a.Parent != "" {
			p, err := path.Parse(a.Parent)
			if err != nil {
				return err
			}
			parent = p
		}
		docs, err := s.Collection(ctx, parent, a.Collection)
		if err != nil {
			return err
		}
		ok = len(docs) == a.Count
		expected = fmt.Sprintf("%d documents in %s", a.Count, collectionTarget(parent, a.Collection))
		actual = fmt.Sprintf("%d documents", len(docs))

	case AssertGroupSize:
		docs, err := s.CollectionGroup(ctx, a.Collection)
		if err != nil {
			return err
		}
		ok = len(docs) == a.Count
		expected = fmt.Sprintf("%d documents in group %s", a.Count, a.Collection)
		actual = fmt.Sprintf("%d documents", len(docs))

	case AssertExists, AssertAbsent:
		ref, err := path.Parse(a.Reference)
		if err != nil {
			return err
		}
		_, found, err := s.Get(ctx, ref)
		if err != nil {
			return err
		}
		want := a.Type == AssertExists
		ok = found == want
		expected = fmt.Sprintf("%s stored=%t", ref, want)
		actual = fmt.Sprintf("stored=%t", found)

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}

	if ok {
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Trace: trace}
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertDocumentCount:
	case AssertCollectionSize, AssertGroupSize:
		if a.Collection == "" {
			return fmt.Errorf("assertions[%d]: collection is required for %s", index, a.Type)
		}
	case AssertExists, AssertAbsent:
		if a.Reference == "" {
			return fmt.Errorf("assertions[%d]: reference is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}
	return nil
}
