package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/roach88/firedoc/internal/codec"
	"github.com/roach88/firedoc/internal/docstore"
	"github.com/roach88/firedoc/internal/fixture"
	"github.com/roach88/firedoc/internal/path"
	"github.com/roach88/firedoc/internal/query"
	"github.com/roach88/firedoc/internal/store"
	"github.com/roach88/firedoc/internal/value"
)

// Harness executes one scenario against a fresh store.
type Harness struct {
	store *docstore.Store
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh substrate: in-memory SQLite for the
// sqlite backend, a MemoryStore otherwise. Add steps draw IDs from the
// scenario's fixed list so traces are reproducible.
//
// Execution flow:
// 1. Open the substrate
// 2. Seed the fixture file, then the inline fixture
// 3. Execute steps, comparing each outcome with its expectation
// 4. Evaluate assertions against the final store
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	backend := scenario.Backend
	if backend == "" {
		backend = store.BackendMemory
	}
	sub, err := store.Open(backend, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", backend, err)
	}
	defer sub.Close()

	h := &Harness{
		store: docstore.New(sub, docstore.WithIDGenerator(docstore.NewFixedGenerator(scenario.IDs...))),
	}

	result := NewResult()
	if err := h.seed(ctx, scenario, result); err != nil {
		return nil, fmt.Errorf("failed to seed fixture: %w", err)
	}

	for i := range scenario.Steps {
		if err := h.executeStep(ctx, i, &scenario.Steps[i], result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	for _, msg := range EvaluateAssertions(ctx, h.store, result, scenario.Assertions) {
		result.AddError(msg)
	}

	slog.Debug("scenario finished", "name", scenario.Name, "pass", result.Pass, "events", len(result.Trace))
	return result, nil
}

func (h *Harness) seed(ctx context.Context, scenario *Scenario, result *Result) error {
	if scenario.FixtureFile != "" {
		fx, err := fixture.LoadFile(scenario.FixtureFile)
		if err != nil {
			return err
		}
		n, err := fx.Apply(ctx, h.store)
		if err != nil {
			return err
		}
		result.AddEvent(TraceEvent{Op: "seed", Target: fx.Source, Outcome: OutcomeOK, Count: n})
	}

	if scenario.Fixture.Kind != 0 {
		docs, err := fixture.DocumentsFromYAML(scenario.Name, &scenario.Fixture)
		if err != nil {
			return err
		}
		fx := &fixture.Fixture{Source: "inline", Documents: docs}
		n, err := fx.Apply(ctx, h.store)
		if err != nil {
			return err
		}
		result.AddEvent(TraceEvent{Op: "seed", Target: fx.Source, Outcome: OutcomeOK, Count: n})
	}
	return nil
}

// executeStep runs one step. Operation failures are outcomes, not errors;
// an error means the step itself could not be interpreted.
func (h *Harness) executeStep(ctx context.Context, i int, step *Step, result *Result) error {
	var (
		ev  TraceEvent
		err error
	)
	switch step.Op() {
	case OpInsert:
		ev, err = h.insert(ctx, step)
	case OpAdd:
		ev, err = h.add(ctx, step)
	case OpGet:
		ev, err = h.get(ctx, step, result, i)
	case OpCollection:
		ev, err = h.collection(ctx, step)
	case OpGroup:
		ev, err = h.group(ctx, step)
	case OpQuery:
		ev, err = h.query(ctx, step)
	default:
		return fmt.Errorf("no operation given")
	}
	if err != nil {
		return err
	}
	result.AddEvent(ev)

	want := step.Expect
	if want == "" {
		want = OutcomeOK
	}
	if ev.Outcome != want {
		result.AddError(fmt.Sprintf("steps[%d] %s %s: expected %s, got %s", i, ev.Op, ev.Target, want, ev.Outcome))
	}
	if step.References != nil && ev.Outcome == OutcomeOK && !slices.Equal(step.References, ev.References) {
		result.AddError(fmt.Sprintf("steps[%d] %s %s: expected references %v, got %v", i, ev.Op, ev.Target, step.References, ev.References))
	}
	return nil
}

func (h *Harness) insert(ctx context.Context, step *Step) (TraceEvent, error) {
	props, err := fixture.ValueFromYAML(&step.Properties)
	if err != nil {
		return TraceEvent{}, fmt.Errorf("properties: %w", err)
	}

	var key value.Value
	if step.Key.Kind != 0 {
		key, err = fixture.ValueFromYAML(&step.Key)
		if err != nil {
			return TraceEvent{}, fmt.Errorf("key: %w", err)
		}
	} else {
		ref, err := path.Parse(step.Insert)
		if err != nil {
			return TraceEvent{}, fmt.Errorf("insert: %w", err)
		}
		key = value.NewReference(ref)
	}

	ev := TraceEvent{Op: OpInsert, Target: codec.MustEncodeText(key)}
	if ref, ok := value.AsReference(key); ok {
		ev.Target = ref.Path.String()
	}
	ev.Outcome = outcomeOf(h.store.Insert(ctx, key, props))
	return ev, nil
}

func (h *Harness) add(ctx context.Context, step *Step) (TraceEvent, error) {
	props, err := fixture.ValueFromYAML(&step.Properties)
	if err != nil {
		return TraceEvent{}, fmt.Errorf("properties: %w", err)
	}
	collection, err := path.Parse(step.Add)
	if err != nil {
		return TraceEvent{}, fmt.Errorf("add: %w", err)
	}

	ev := TraceEvent{Op: OpAdd, Target: collection.String()}
	ref, err := h.store.Add(ctx, collection, props)
	ev.Outcome = outcomeOf(err)
	if err == nil {
		ev.References = []string{ref.String()}
	}
	return ev, nil
}

func (h *Harness) get(ctx context.Context, step *Step, result *Result, i int) (TraceEvent, error) {
	ref, err := path.Parse(step.Get)
	if err != nil {
		return TraceEvent{}, fmt.Errorf("get: %w", err)
	}

	ev := TraceEvent{Op: OpGet, Target: ref.String()}
	doc, found, err := h.store.Get(ctx, ref)
	if err != nil {
		return TraceEvent{}, err
	}
	if !found {
		ev.Outcome = OutcomeNotFound
		return ev, nil
	}

	ev.Outcome = OutcomeOK
	ev.Properties = codec.MustEncodeText(doc.Properties)

	if step.Properties.Kind != 0 {
		want, err := fixture.ValueFromYAML(&step.Properties)
		if err != nil {
			return TraceEvent{}, fmt.Errorf("properties: %w", err)
		}
		if !value.Equal(want, doc.Properties) {
			result.AddError(fmt.Sprintf("steps[%d] get %s: expected properties %s, got %s",
				i, ref, codec.MustEncodeText(want), ev.Properties))
		}
	}
	return ev, nil
}

func (h *Harness) collection(ctx context.Context, step *Step) (TraceEvent, error) {
	parent := path.Root()
	if step.Parent != "" {
		p, err := path.Parse(step.Parent)
		if err != nil {
			return TraceEvent{}, fmt.Errorf("parent: %w", err)
		}
		parent = p
	}

	docs, err := h.store.Collection(ctx, parent, step.Collection)
	if err != nil {
		return TraceEvent{}, err
	}
	return readEvent(OpCollection, collectionTarget(parent, step.Collection), docs), nil
}

func (h *Harness) group(ctx context.Context, step *Step) (TraceEvent, error) {
	docs, err := h.store.CollectionGroup(ctx, step.Group)
	if err != nil {
		return TraceEvent{}, err
	}
	return readEvent(OpGroup, step.Group, docs), nil
}

func (h *Harness) query(ctx context.Context, step *Step) (TraceEvent, error) {
	q, target, err := buildQuery(step.Query)
	if err != nil {
		return TraceEvent{}, err
	}

	docs, err := h.store.Query(ctx, q)
	if errors.Is(err, query.ErrInvalidQuery) {
		return TraceEvent{Op: OpQuery, Target: target, Outcome: OutcomeInvalidQuery}, nil
	}
	if err != nil {
		return TraceEvent{}, err
	}
	return readEvent(OpQuery, target, docs), nil
}

func buildQuery(qs *QueryStep) (query.Query, string, error) {
	var (
		q      query.Query
		target string
	)
	if qs.Group != "" {
		q.From = query.GroupSource{ID: qs.Group}
		target = qs.Group
	} else {
		parent := path.Root()
		if qs.Parent != "" {
			p, err := path.Parse(qs.Parent)
			if err != nil {
				return query.Query{}, "", fmt.Errorf("parent: %w", err)
			}
			parent = p
		}
		q.From = query.CollectionSource{Parent: parent, ID: qs.Collection}
		target = collectionTarget(parent, qs.Collection)
	}

	var preds []query.Predicate
	for i, w := range qs.Where {
		op, err := query.ParseFilterOp(w.Op)
		if err != nil {
			return query.Query{}, "", fmt.Errorf("where[%d]: %w", i, err)
		}
		v, err := fixture.ValueFromYAML(&w.Value)
		if err != nil {
			return query.Query{}, "", fmt.Errorf("where[%d]: %w", i, err)
		}
		preds = append(preds, query.Filter{Field: w.Field, Op: op, Value: v})
	}
	if len(preds) > 0 {
		q.Where = query.And{Predicates: preds}
	}

	for _, o := range qs.OrderBy {
		q.OrderBy = append(q.OrderBy, query.Order{Field: o.Field, Descending: o.Descending})
	}
	q.Limit = qs.Limit
	return q, target, nil
}

func readEvent(op, target string, docs []query.Document) TraceEvent {
	ev := TraceEvent{Op: op, Target: target, Outcome: OutcomeOK}
	for _, doc := range docs {
		ev.References = append(ev.References, doc.Reference.String())
	}
	return ev
}

// collectionTarget renders a collection path such as /users/1/posts.
func collectionTarget(parent path.Path, id string) string {
	if parent.IsRoot() {
		return path.Separator + id
	}
	return parent.String() + path.Separator + id
}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if code := docstore.CodeOf(err); code != "" {
		return string(code)
	}
	return "ERROR: " + strconv.Quote(err.Error())
}
