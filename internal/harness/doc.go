// Package harness runs conformance scenarios against the document store.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	backend: memory            # or sqlite
//	fixture_file: ../fixtures/cities.yaml
//	fixture:
//	  - reference: /users/1
//	    properties: {type: MAP, value: {}}
//	ids: [generated-1]
//	steps:
//	  - insert: /users/2
//	    properties: {type: MAP, value: {}}
//	  - insert: /users/1
//	    properties: {type: MAP, value: {}}
//	    expect: DUPLICATE_REFERENCE
//	  - add: /users
//	    properties: {type: MAP, value: {}}
//	  - collection: posts
//	    parent: /users/1
//	    references: [/users/1/posts/1]
//	  - query:
//	      collection: cities
//	      where: [{field: population, op: ">", value: {type: NUMBER, value: 1000000}}]
//	      order_by: [{field: population, descending: true}]
//	      limit: 2
//	assertions:
//	  - type: collection_size
//	    collection: users
//	    count: 3
//
// Values in properties, keys and where clauses use the textual value
// encoding written as YAML.
//
// # Outcomes
//
// Every step records an outcome code in the trace: OK, NOT_FOUND,
// INVALID_QUERY, or one of the docstore insert error codes. A step's
// expect field names the outcome it should produce (default OK).
//
// # Assertion Types
//
//   - document_count: total stored documents
//   - collection_size: direct children of a collection
//   - group_size: members of a collection group
//   - exists / absent: whether a reference is stored
//
// # Golden Traces
//
// RunWithGolden writes the trace as indented JSON and compares it with
// testdata/golden/<name>.golden using goldie. Add steps take their IDs from
// the scenario's ids list, so traces are reproducible.
package harness
