package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadScenario_Files(t *testing.T) {
	tests := []struct {
		file  string
		name  string
		steps int
	}{
		{"city_queries.yaml", "city_queries", 8},
		{"collection_scoping.yaml", "collection_scoping", 8},
		{"insert_errors.yaml", "insert_errors", 9},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			s, err := LoadScenario(filepath.Join("testdata", "scenarios", tt.file))
			require.NoError(t, err)
			assert.Equal(t, tt.name, s.Name)
			assert.Len(t, s.Steps, tt.steps)
		})
	}
}

func TestLoadScenario_ResolvesFixtureFile(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "city_queries.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "fixtures", "cities.yaml"), s.FixtureFile)
}

func TestLoadScenario_MissingFixtureFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "s.yaml")
	content := `
name: missing_fixture
description: points at nothing
fixture_file: nope.yaml
steps:
  - group: users
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	_, err := LoadScenario(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixture file not found")
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "scenarios", "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_StepOps(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: ops
description: one of each
ids: [x]
steps:
  - insert: /a/1
    properties: {type: MAP, value: {}}
  - key: {type: "NULL", value: null}
    properties: {type: MAP, value: {}}
  - add: /a
    properties: {type: MAP, value: {}}
  - get: /a/1
  - collection: a
  - group: a
  - query: {group: a}
`))
	require.NoError(t, err)

	want := []string{OpInsert, OpInsert, OpAdd, OpGet, OpCollection, OpGroup, OpQuery}
	require.Len(t, s.Steps, len(want))
	for i, op := range want {
		assert.Equal(t, op, s.Steps[i].Op(), "step %d", i)
	}
	assert.Equal(t, yaml.MappingNode, s.Steps[1].Key.Kind)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{
			"missing name",
			"description: d\nsteps: [{group: a}]\n",
			"name is required",
		},
		{
			"missing description",
			"name: n\nsteps: [{group: a}]\n",
			"description is required",
		},
		{
			"missing steps",
			"name: n\ndescription: d\n",
			"steps list is required",
		},
		{
			"unknown field",
			"name: n\ndescription: d\nstep: []\n",
			"failed to parse YAML",
		},
		{
			"unknown backend",
			"name: n\ndescription: d\nbackend: postgres\nsteps: [{group: a}]\n",
			`unknown backend "postgres"`,
		},
		{
			"no operation",
			"name: n\ndescription: d\nsteps: [{expect: OK}]\n",
			"steps[0]: no operation given",
		},
		{
			"two operations",
			"name: n\ndescription: d\nsteps: [{group: a, get: /a/1}]\n",
			"steps[0]: multiple operations",
		},
		{
			"insert without properties",
			"name: n\ndescription: d\nsteps: [{insert: /a/1}]\n",
			"properties is required for insert",
		},
		{
			"not enough ids",
			"name: n\ndescription: d\nsteps: [{add: /a, properties: {type: MAP, value: {}}}]\n",
			"1 add steps but only 0 ids",
		},
		{
			"query with both sources",
			"name: n\ndescription: d\nsteps: [{query: {collection: a, group: a}}]\n",
			"exactly one of collection or group",
		},
		{
			"query filter without value",
			"name: n\ndescription: d\nsteps: [{query: {group: a, where: [{field: f, op: '=='}]}}]\n",
			"where[0]: field, op and value are required",
		},
		{
			"query order without field",
			"name: n\ndescription: d\nsteps: [{query: {group: a, order_by: [{descending: true}]}}]\n",
			"order_by[0]: field is required",
		},
		{
			"parent on group",
			"name: n\ndescription: d\nsteps: [{group: a, parent: /x/1}]\n",
			"parent only applies to collection steps",
		},
		{
			"unknown assertion",
			"name: n\ndescription: d\nsteps: [{group: a}]\nassertions: [{type: bogus}]\n",
			`unknown assertion type "bogus"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
