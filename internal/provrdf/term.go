package provrdf

import (
	"strconv"
	"strings"

	"github.com/piprate/json-gold/ld"

	"github.com/roach88/provkit/internal/prov"
	"github.com/roach88/provkit/internal/vocab"
)

// valueNode converts an attribute value to an RDF object term.
func valueNode(v prov.Value) ld.Node {
	switch x := v.(type) {
	case prov.QualifiedName:
		return ld.NewIRI(x.URI())
	case prov.Identifier:
		return ld.NewLiteral(string(x), vocab.XsdAnyURI, "")
	case prov.Literal:
		if x.Lang() != "" {
			return ld.NewLiteral(x.Value(), vocab.RdfLangString, x.Lang())
		}
		dt := vocab.XsdString
		if !x.Datatype().IsZero() {
			dt = x.Datatype().URI()
		}
		return ld.NewLiteral(x.Value(), dt, "")
	case prov.Time:
		return ld.NewLiteral(prov.FormatTime(x.Time), vocab.XsdDateTime, "")
	case prov.String:
		return ld.NewLiteral(string(x), vocab.XsdString, "")
	case prov.Int:
		return ld.NewLiteral(strconv.FormatInt(int64(x), 10), vocab.XsdInt, "")
	case prov.Float:
		return ld.NewLiteral(strconv.FormatFloat(float64(x), 'g', -1, 64), vocab.XsdDouble, "")
	case prov.Bool:
		return ld.NewLiteral(strconv.FormatBool(bool(x)), vocab.XsdBoolean, "")
	}
	return nil
}

// splitIRI cuts an IRI into a namespace URI and a local part at the last
// '#', '/' or ':'.
func splitIRI(iri string) (string, string) {
	if i := strings.LastIndexAny(iri, "#/"); i >= 0 && i < len(iri)-1 {
		return iri[:i+1], iri[i+1:]
	}
	if i := strings.LastIndex(iri, ":"); i >= 0 && i < len(iri)-1 {
		return iri[:i+1], iri[i+1:]
	}
	return iri, ""
}

// provLocal returns the local name of a PROV IRI.
func provLocal(iri string) (string, bool) {
	if !strings.HasPrefix(iri, vocab.ProvNS) {
		return "", false
	}
	return strings.TrimPrefix(iri, vocab.ProvNS), true
}

// nodeKey renders a term for set membership and diagnostics.
func nodeKey(n ld.Node) string {
	switch t := n.(type) {
	case ld.IRI:
		return "<" + t.Value + ">"
	case ld.BlankNode:
		return t.Attribute
	case ld.Literal:
		return strconv.Quote(t.Value) + "^^" + t.Datatype + "@" + t.Language
	}
	return ""
}
