package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/provkit/internal/prov"
	"github.com/roach88/provkit/internal/provrdf"
)

// Domain prefixes for content hashes.
// Version suffix enables future algorithm migration.
const (
	DomainDocument   = "provkit/document/v1"
	DomainNamespaces = "provkit/namespaces/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentHash is the content hash of a document: the SHA-256 of its
// canonical N-Quads. Namespace prefixes do not take part.
func DocumentHash(doc *prov.Document) (string, error) {
	nq, err := NQuads(doc)
	if err != nil {
		return "", fmt.Errorf("DocumentHash: %w", err)
	}
	return hashWithDomain(DomainDocument, nq), nil
}

// NQuadsHash hashes N-Quads that are already canonical.
func NQuadsHash(canonicalNQuads []byte) string {
	return hashWithDomain(DomainDocument, canonicalNQuads)
}

// Namespaces returns the canonical JSON object of the document's prefix
// bindings.
func Namespaces(doc *prov.Document) ([]byte, error) {
	out, err := MarshalJSON(provrdf.Prefixes(doc))
	if err != nil {
		return nil, fmt.Errorf("Namespaces: %w", err)
	}
	return out, nil
}

// NamespacesHash hashes the prefix bindings of a document.
func NamespacesHash(doc *prov.Document) (string, error) {
	ns, err := Namespaces(doc)
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainNamespaces, ns), nil
}

// MustDocumentHash is like DocumentHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDocumentHash(doc *prov.Document) string {
	h, err := DocumentHash(doc)
	if err != nil {
		panic(err)
	}
	return h
}
