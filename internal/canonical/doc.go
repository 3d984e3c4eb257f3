// Package canonical provides the byte-stable forms of a document used for
// content addressing: canonical N-Quads, RFC 8785 JSON and domain-separated
// SHA-256 hashes.
//
// Key constraints:
//   - Every string is NFC normalised before it is hashed
//   - Blank node labels never influence a hash (URDNA2015 relabelling)
//   - Hashes are SHA256(domain + 0x00 + data) with a versioned domain
package canonical
