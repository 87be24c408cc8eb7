package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/firedoc/internal/store"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name))
	require.NoError(t, err)
	return s
}

func TestRun_ScenariosPass(t *testing.T) {
	for _, name := range []string{"city_queries.yaml", "collection_scoping.yaml", "insert_errors.yaml"} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(context.Background(), loadScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_BackendsAgree(t *testing.T) {
	for _, name := range []string{"collection_scoping.yaml", "insert_errors.yaml"} {
		t.Run(name, func(t *testing.T) {
			mem := loadScenario(t, name)
			mem.Backend = store.BackendMemory
			sql := loadScenario(t, name)
			sql.Backend = store.BackendSQLite

			memResult, err := Run(context.Background(), mem)
			require.NoError(t, err)
			sqlResult, err := Run(context.Background(), sql)
			require.NoError(t, err)

			assert.Equal(t, memResult.Trace, sqlResult.Trace)
		})
	}
}

func TestRun_UnexpectedOutcome(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: wrong_expectations
description: every expectation is wrong
fixture:
  - reference: /users/1
    properties: {type: MAP, value: {n: {type: NUMBER, value: 1}}}
steps:
  - insert: /users/1
    properties: {type: MAP, value: {}}
  - collection: users
    references: [/users/2]
  - get: /users/1
    properties: {type: MAP, value: {n: {type: NUMBER, value: 2}}}
  - get: /users/1
    expect: NOT_FOUND
assertions:
  - type: document_count
    count: 2
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "steps[0] insert /users/1: expected OK, got DUPLICATE_REFERENCE")
	assert.Contains(t, result.Errors[1], "expected references [/users/2], got [/users/1]")
	assert.Contains(t, result.Errors[2], `expected properties {"type":"MAP","value":{"n":{"type":"NUMBER","value":2}}}`)
	assert.Contains(t, result.Errors[3], "expected NOT_FOUND, got OK")
	assert.Contains(t, result.Errors[4], "Assertion failed: document_count")

	// The trace records what happened regardless of expectations.
	require.Len(t, result.Trace, 5)
	assert.Equal(t, "DUPLICATE_REFERENCE", result.Trace[1].Outcome)
}

func TestRun_StepInterpretationErrors(t *testing.T) {
	tests := []struct {
		name string
		step Step
	}{
		{"bad insert path", Step{Insert: "/a//b", Properties: *mapNode(t)}},
		{"bad get path", Step{Get: "/a//b"}},
		{"bad parent", Step{Collection: "a", Parent: "/x//y"}},
		{"unknown operator", Step{Query: &QueryStep{Group: "a", Where: []WhereClause{{Field: "f", Op: "~", Value: *mapNode(t)}}}}},
		{"undecodable properties", Step{Insert: "/a/b", Properties: *stringNode("plain")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Scenario{Name: "broken", Description: "broken", Steps: []Step{tt.step}}
			_, err := Run(context.Background(), s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "step 0")
		})
	}
}

func TestRun_FixtureErrors(t *testing.T) {
	s := &Scenario{
		Name:        "dup_fixture",
		Description: "fixture inserts the same document twice",
		Steps:       []Step{{Group: "users"}},
	}
	s.Fixture = *parseNode(t, `
- reference: /users/1
  properties: {type: MAP, value: {}}
- reference: /users/1
  properties: {type: MAP, value: {}}
`)

	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to seed fixture")
	assert.Contains(t, err.Error(), "DUPLICATE_REFERENCE")
}

func TestRun_AddUsesFixedIDs(t *testing.T) {
	s := &Scenario{
		Name:        "adds",
		Description: "ids are consumed in order",
		IDs:         []string{"first", "second"},
		Steps: []Step{
			{Add: "/items", Properties: *parseNode(t, "{type: MAP, value: {}}")},
			{Add: "/items", Properties: *parseNode(t, "{type: MAP, value: {}}")},
			{Collection: "items", References: []string{"/items/first", "/items/second"}},
		},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"/items/first"}, result.Trace[0].References)
	assert.Equal(t, []string{"/items/second"}, result.Trace[1].References)
}

func TestCollectionTarget(t *testing.T) {
	s := &Scenario{Name: "t", Description: "t", Steps: []Step{
		{Collection: "users"},
		{Collection: "posts", Parent: "/users/1"},
	}}
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "/users", result.Trace[0].Target)
	assert.Equal(t, "/users/1/posts", result.Trace[1].Target)
}
