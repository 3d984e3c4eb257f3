package provrdf

import (
	"regexp"
	"sort"
	"strings"

	"github.com/piprate/json-gold/ld"

	"github.com/roach88/provkit/internal/prov"
	"github.com/roach88/provkit/internal/vocab"
)

var turtleLocal = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// writeTurtle renders doc as Turtle. With graphs set, sub-bundles are
// written as TriG graph blocks; otherwise only the default graph is written.
func writeTurtle(doc *prov.Document, graphs bool) []byte {
	ds := Encode(doc)
	w := newTurtleWriter(Prefixes(doc))
	w.writePrefixes()
	w.writeTriples(ds.Graphs[DefaultGraph], "")
	if graphs {
		for _, b := range doc.Bundles() {
			name := b.Identifier().URI()
			w.sb.WriteString("\n" + w.term(ld.NewIRI(name)) + " {\n")
			w.writeTriples(ds.Graphs[name], "  ")
			w.sb.WriteString("}\n")
		}
	}
	return []byte(w.sb.String())
}

// turtleWriter writes RDF in Turtle syntax.
type turtleWriter struct {
	prefixes map[string]string
	sb       strings.Builder
}

func newTurtleWriter(prefixes map[string]string) *turtleWriter {
	return &turtleWriter{prefixes: prefixes}
}

func (w *turtleWriter) writePrefixes() {
	keys := make([]string, 0, len(w.prefixes))
	for k := range w.prefixes {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, p := range keys {
		w.sb.WriteString("@prefix " + p + ": <" + w.prefixes[p] + "> .\n")
	}
}

// writeTriples groups quads by subject in first-seen order.
func (w *turtleWriter) writeTriples(quads []*ld.Quad, indent string) {
	var order []string
	bySubject := make(map[string][]*ld.Quad)
	for _, q := range quads {
		key := nodeKey(q.Subject)
		if _, ok := bySubject[key]; !ok {
			order = append(order, key)
		}
		bySubject[key] = append(bySubject[key], q)
	}

	for _, key := range order {
		group := bySubject[key]
		w.sb.WriteString("\n" + indent + w.term(group[0].Subject) + "\n")
		for i, q := range group {
			pred := w.term(q.Predicate)
			if iri, ok := q.Predicate.(ld.IRI); ok && iri.Value == vocab.RdfType {
				pred = "a"
			}
			end := " ;"
			if i == len(group)-1 {
				end = " ."
			}
			w.sb.WriteString(indent + "    " + pred + " " + w.term(q.Object) + end + "\n")
		}
	}
}

func (w *turtleWriter) term(n ld.Node) string {
	switch t := n.(type) {
	case ld.IRI:
		return w.iri(t.Value)
	case ld.BlankNode:
		return t.Attribute
	case ld.Literal:
		lex := `"` + escapeString(t.Value) + `"`
		switch {
		case t.Language != "":
			return lex + "@" + t.Language
		case t.Datatype == "" || t.Datatype == vocab.XsdString:
			return lex
		}
		return lex + "^^" + w.iri(t.Datatype)
	}
	return ""
}

// iri writes a prefixed name when a bound namespace covers the IRI and the
// rest is a valid local name, and <iri> otherwise.
func (w *turtleWriter) iri(iri string) string {
	best := ""
	for p, uri := range w.prefixes {
		if p == "" || !strings.HasPrefix(iri, uri) {
			continue
		}
		if best == "" || len(uri) > len(w.prefixes[best]) || (len(uri) == len(w.prefixes[best]) && p < best) {
			best = p
		}
	}
	if best != "" {
		local := strings.TrimPrefix(iri, w.prefixes[best])
		if turtleLocal.MatchString(local) && !strings.HasSuffix(local, ".") {
			return best + ":" + local
		}
	}
	return "<" + iri + ">"
}

// escapeString escapes special characters in strings for RDF serialization.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
