// Package provrdf maps PROV documents to RDF datasets and back, and reads
// and writes them in the common RDF wire formats.
//
// Encoding follows PROV-O. Elements become a typed node with one triple per
// attribute. A relation becomes its direct property (prov:used, ...) when
// it has no identifier and no qualifying attributes; otherwise a qualified
// node carries the attributes and hangs off the subject through the
// matching prov:qualifiedX property.
//
// Key constraints:
//   - Top-level records live in the default graph; each bundle is a named
//     graph keyed by its identifier URI
//   - Encoding never modifies the document; blank nodes are numbered by the
//     encoder
//   - alternateOf and mentionOf are never qualified
//   - Decoding reports what it cannot represent as Diagnostics, or fails on
//     the first one in strict mode
//   - Turtle and TriG are write-only
package provrdf
