// Package harness runs PROV round-trip scenarios.
//
// A scenario feeds a piece of RDF through the decoder, optionally unifies
// or flattens the result, pushes it through one or more wire formats (and
// the document store) and checks that nothing was lost. Assertions then
// inspect the decoded document and the diagnostics the decoder produced.
//
// # Scenario Format
//
//	name: qualified_usage
//	description: "Usage with a role decodes from a qualified node"
//	namespaces:
//	  ex: http://example.org/
//	input:
//	  format: nquads
//	  data: |
//	    <http://example.org/a1> <http://www.w3.org/ns/prov#qualifiedUsage> _:u .
//	    ...
//	transform: unified
//	roundtrip: [nquads, jsonld, store]
//	assertions:
//	  - type: record_count
//	    kind: used
//	    count: 1
//	  - type: has_record
//	    kind: used
//	    attributes: { prov:activity: ex:a1, prov:role: input }
//	  - type: diagnostics
//	    count: 0
//
// Input may also come from a file (input.file) resolved relative to the
// scenario. "store" in the roundtrip list puts the document into an
// in-memory store and reads it back.
//
// # Assertion Types
//
//   - record_count: number of records of a kind (all kinds if omitted)
//   - has_record: a record of a kind, optionally with an identifier and
//     attribute values, exists
//   - bundle_count: number of bundles in the document
//   - diagnostics: exact number of decode diagnostics, optionally of a code
//   - decode_error: decoding failed with a message containing a substring
//
// # Golden Files
//
// RunWithGolden snapshots the decoded records as sorted PROV-N lines per
// graph, so the snapshot does not depend on record order. Regenerate with:
//
//	go test ./internal/harness -update
package harness
