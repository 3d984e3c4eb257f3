// Package prov implements the W3C PROV data model: namespaces and qualified
// names, typed records, bundles and documents.
//
// All other provkit packages import prov; prov imports only vocab. Records
// are created through a Bundle, which resolves identifiers in its namespace
// scope, validates attribute values and indexes the result.
//
// Key constraints:
//   - Elements (Entity, Activity, Agent) always have an identifier
//   - Formal attributes hold at most one value, except Membership's entity
//   - Attributes reference other records by QualifiedName, never by pointer
//   - Unified and Flattened build new documents and never mutate their input
//   - Anonymous identifier counters and prefix rename tables are per manager
package prov
