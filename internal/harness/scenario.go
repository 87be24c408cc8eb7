package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/firedoc/internal/store"
)

// Scenario defines a store conformance scenario: seed documents, run a
// sequence of operations, and check their outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Backend selects the substrate ("memory" or "sqlite").
	// Defaults to memory.
	Backend string `yaml:"backend,omitempty"`

	// FixtureFile is a YAML or CUE fixture, relative to the scenario file.
	FixtureFile string `yaml:"fixture_file,omitempty"`

	// Fixture is an inline documents list, seeded after FixtureFile.
	Fixture yaml.Node `yaml:"fixture,omitempty"`

	// IDs are handed out in order to add steps.
	IDs []string `yaml:"ids,omitempty"`

	// Steps run in order after seeding.
	Steps []Step `yaml:"steps"`

	// Assertions check the final store contents.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one store operation. Exactly one of Insert (or Key), Add, Get,
// Collection, Group or Query is set.
type Step struct {
	Insert string `yaml:"insert,omitempty"`

	// Key replaces Insert with an arbitrary encoded value, for inserting
	// keys that are not document references.
	Key yaml.Node `yaml:"key,omitempty"`

	// Add is a collection path; the document ID comes from Scenario.IDs.
	Add string `yaml:"add,omitempty"`

	Get string `yaml:"get,omitempty"`

	// Collection lists the direct children of Parent (default "/").
	Collection string `yaml:"collection,omitempty"`
	Parent     string `yaml:"parent,omitempty"`

	Group string `yaml:"group,omitempty"`

	Query *QueryStep `yaml:"query,omitempty"`

	// Properties is the insert/add payload, or the expected document for get.
	Properties yaml.Node `yaml:"properties,omitempty"`

	// Expect is the expected outcome code. Defaults to OK.
	Expect string `yaml:"expect,omitempty"`

	// References, when set, is the exact expected result list for reads.
	References []string `yaml:"references,omitempty"`
}

// QueryStep describes a filtered, ordered query.
type QueryStep struct {
	Collection string        `yaml:"collection,omitempty"`
	Parent     string        `yaml:"parent,omitempty"`
	Group      string        `yaml:"group,omitempty"`
	Where      []WhereClause `yaml:"where,omitempty"`
	OrderBy    []OrderClause `yaml:"order_by,omitempty"`
	Limit      int           `yaml:"limit,omitempty"`
}

// WhereClause is a single field filter. Value uses the textual value
// encoding.
type WhereClause struct {
	Field string    `yaml:"field"`
	Op    string    `yaml:"op"`
	Value yaml.Node `yaml:"value"`
}

// OrderClause sorts query results by a field.
type OrderClause struct {
	Field      string `yaml:"field"`
	Descending bool   `yaml:"descending,omitempty"`
}

// Step operations.
const (
	OpInsert     = "insert"
	OpAdd        = "add"
	OpGet        = "get"
	OpCollection = "collection"
	OpGroup      = "group"
	OpQuery      = "query"
)

// Step outcomes besides the docstore insert error codes.
const (
	OutcomeOK           = "OK"
	OutcomeNotFound     = "NOT_FOUND"
	OutcomeInvalidQuery = "INVALID_QUERY"
)

// Op reports which operation the step performs, or "" if it names none.
func (s *Step) Op() string {
	ops := s.ops()
	if len(ops) != 1 {
		return ""
	}
	return ops[0]
}

func (s *Step) ops() []string {
	var ops []string
	if s.Insert != "" || s.Key.Kind != 0 {
		ops = append(ops, OpInsert)
	}
	if s.Add != "" {
		ops = append(ops, OpAdd)
	}
	if s.Get != "" {
		ops = append(ops, OpGet)
	}
	if s.Collection != "" {
		ops = append(ops, OpCollection)
	}
	if s.Group != "" {
		ops = append(ops, OpGroup)
	}
	if s.Query != nil {
		ops = append(ops, OpQuery)
	}
	return ops
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative fixture_file is resolved against the scenario's directory.
func LoadScenario(file string) (*Scenario, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.FixtureFile != "" && !filepath.IsAbs(scenario.FixtureFile) {
		scenario.FixtureFile = filepath.Join(filepath.Dir(file), scenario.FixtureFile)
	}
	if scenario.FixtureFile != "" {
		if _, err := os.Stat(scenario.FixtureFile); err != nil {
			return nil, fmt.Errorf("invalid scenario: fixture file not found: %s", scenario.FixtureFile)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML, rejecting unknown fields.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Backend {
	case "", store.BackendMemory, store.BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	adds := 0
	for i := range s.Steps {
		step := &s.Steps[i]
		ops := step.ops()
		switch len(ops) {
		case 0:
			return fmt.Errorf("steps[%d]: no operation given", i)
		case 1:
		default:
			return fmt.Errorf("steps[%d]: multiple operations %v", i, ops)
		}
		if err := validateStep(i, step); err != nil {
			return err
		}
		if ops[0] == OpAdd {
			adds++
		}
	}
	if adds > len(s.IDs) {
		return fmt.Errorf("%d add steps but only %d ids", adds, len(s.IDs))
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step *Step) error {
	switch step.Op() {
	case OpInsert, OpAdd:
		if step.Properties.Kind == 0 {
			return fmt.Errorf("steps[%d]: properties is required for %s", i, step.Op())
		}
	case OpQuery:
		q := step.Query
		if (q.Collection == "") == (q.Group == "") {
			return fmt.Errorf("steps[%d].query: exactly one of collection or group is required", i)
		}
		for j, w := range q.Where {
			if w.Field == "" || w.Op == "" || w.Value.Kind == 0 {
				return fmt.Errorf("steps[%d].query.where[%d]: field, op and value are required", i, j)
			}
		}
		for j, o := range q.OrderBy {
			if o.Field == "" {
				return fmt.Errorf("steps[%d].query.order_by[%d]: field is required", i, j)
			}
		}
	}
	if step.Parent != "" && step.Op() != OpCollection {
		return fmt.Errorf("steps[%d]: parent only applies to collection steps", i)
	}
	return nil
}
