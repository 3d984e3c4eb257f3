package provrdf

import (
	"log/slog"

	"github.com/piprate/json-gold/ld"

	"github.com/roach88/provkit/internal/prov"
	"github.com/roach88/provkit/internal/vocab"
)

// DefaultGraph is the dataset key of the document's top-level records.
const DefaultGraph = "@default"

// Encode converts a document to an RDF dataset. Top-level records go to the
// default graph; each sub-bundle becomes a named graph keyed by the bundle
// identifier. The document is not modified.
//
// Records without identifier become blank nodes labelled by a namespace
// manager scoped to this call, so labels are unique across the dataset's
// graphs and the same document always encodes to the same labels.
func Encode(doc *prov.Document) *ld.RDFDataset {
	e := &encoder{
		ds:    ld.NewRDFDataset(),
		seen:  make(map[string]bool),
		blank: prov.NewNamespaceManager(nil),
		anon:  make(map[*prov.Record]ld.Node),
	}
	e.encodeBundle(&doc.Bundle, DefaultGraph)
	for _, b := range doc.Bundles() {
		e.encodeBundle(b, b.Identifier().URI())
	}
	return e.ds
}

type encoder struct {
	ds    *ld.RDFDataset
	graph string
	seen  map[string]bool
	blank *prov.NamespaceManager
	// anon caches the blank node minted for a record without identifier.
	anon map[*prov.Record]ld.Node
}

func (e *encoder) encodeBundle(b *prov.Bundle, graph string) {
	e.graph = graph
	if _, ok := e.ds.Graphs[graph]; !ok {
		e.ds.Graphs[graph] = []*ld.Quad{}
	}
	for _, r := range b.Records() {
		if r.IsElement() {
			e.encodeElement(r)
		} else {
			e.encodeRelation(r)
		}
	}
}

func (e *encoder) add(s, p, o ld.Node) {
	if s == nil || p == nil || o == nil {
		return
	}
	key := e.graph + " " + nodeKey(s) + " " + nodeKey(p) + " " + nodeKey(o)
	if e.seen[key] {
		return
	}
	e.seen[key] = true
	e.ds.Graphs[e.graph] = append(e.ds.Graphs[e.graph], ld.NewQuad(s, p, o, e.graph))
}

func (e *encoder) recordNode(r *prov.Record) ld.Node {
	if r.HasIdentifier() {
		return ld.NewIRI(r.Identifier().URI())
	}
	if n, ok := e.anon[r]; ok {
		return n
	}
	n := ld.NewBlankNode(string(e.blank.AnonymousIdentifier("b")))
	e.anon[r] = n
	return n
}

func (e *encoder) encodeElement(r *prov.Record) {
	subj := e.recordNode(r)
	e.add(subj, ld.NewIRI(vocab.RdfType), ld.NewIRI(r.Kind().ClassURI()))
	for _, a := range r.Attributes() {
		e.add(subj, ld.NewIRI(elementPredicate(a.Key)), valueNode(a.Value))
	}
}

func (e *encoder) encodeRelation(r *prov.Record) {
	kind := r.Kind()
	formal := kind.FormalAttributes()
	pred := ld.NewIRI(vocab.Prov(kind.ProvN()))

	var subj ld.Node
	if q, ok := r.Value(formal[0]).(prov.QualifiedName); ok {
		subj = ld.NewIRI(q.URI())
	}
	objects := r.Get(formal[1])
	extras := r.ExtraAttributes()

	qualifiers := len(extras) > 0
	for _, key := range formal[2:] {
		if r.Value(key) != nil {
			qualifiers = true
		}
	}

	switch kind {
	case prov.KindAlternate:
		if r.HasIdentifier() || qualifiers {
			slog.Warn("alternateOf is never qualified, identifier and attributes dropped", "record", r.String())
		}
		for _, o := range objects {
			if q, ok := o.(prov.QualifiedName); ok && subj != nil {
				e.add(ld.NewIRI(q.URI()), pred, subj)
			}
		}
		return
	case prov.KindMention:
		if r.HasIdentifier() || len(extras) > 0 {
			slog.Warn("mentionOf is never qualified, identifier and attributes dropped", "record", r.String())
		}
		if subj == nil || len(objects) == 0 {
			slog.Warn("mentionOf without both entities dropped", "record", r.String())
			return
		}
		e.add(subj, pred, valueNode(objects[0]))
		if b := r.Value(prov.AttrBundle); b != nil {
			e.add(subj, ld.NewIRI(vocab.ProvAsInBundle), valueNode(b))
		}
		return
	}

	direct := subj != nil && len(objects) > 0
	if direct && (!r.HasIdentifier() || qualifiers) {
		for _, o := range objects {
			e.add(subj, pred, valueNode(o))
		}
	}
	if direct && !r.HasIdentifier() && !qualifiers {
		return
	}

	class, local := kind.ClassURI(), kind.String()
	if kind == prov.KindDerivation {
		for _, t := range r.AssertedTypes() {
			if q, ok := t.(prov.QualifiedName); ok && prov.IsDerivationSubtype(q) {
				class, local = q.URI(), q.LocalPart()
				break
			}
		}
	}

	node := e.recordNode(r)
	e.add(node, ld.NewIRI(vocab.RdfType), ld.NewIRI(class))

	// Without a subject the qualified node carries every formal attribute.
	first := 0
	if subj != nil {
		e.add(subj, ld.NewIRI(vocab.ProvQualifiedPrefix+local), node)
		first = 1
	}
	for _, a := range r.Attributes() {
		if idx := kind.FormalIndex(a.Key); idx >= 0 && idx < first {
			continue
		}
		e.add(node, ld.NewIRI(relationPredicate(kind, a.Key)), valueNode(a.Value))
	}
}

// elementPredicate maps an element attribute key to its PROV-O predicate.
func elementPredicate(key prov.QualifiedName) string {
	switch key.URI() {
	case prov.AttrType.URI():
		return vocab.RdfType
	case prov.AttrLabel.URI():
		return vocab.RdfsLabel
	case prov.AttrLocation.URI():
		return vocab.ProvAtLocation
	case prov.AttrStartTime.URI():
		return vocab.ProvStartedAtTime
	case prov.AttrEndTime.URI():
		return vocab.ProvEndedAtTime
	}
	return key.URI()
}

// relationPredicate maps an attribute of a qualified relation node to its
// PROV-O predicate.
func relationPredicate(kind prov.Kind, key prov.QualifiedName) string {
	switch key.URI() {
	case prov.AttrType.URI():
		return vocab.RdfType
	case prov.AttrLabel.URI():
		return vocab.RdfsLabel
	case prov.AttrLocation.URI():
		return vocab.ProvAtLocation
	case prov.AttrRole.URI():
		return vocab.ProvHadRole
	case prov.AttrPlan.URI():
		return vocab.ProvHadPlan
	case prov.AttrTime.URI():
		return vocab.ProvAtTime
	case prov.AttrInformant.URI():
		return vocab.Prov("activity")
	case prov.AttrResponsible.URI():
		return vocab.Prov("agent")
	case prov.AttrStarter.URI(), prov.AttrEnder.URI():
		return vocab.ProvHadActivity
	case prov.AttrGeneration.URI():
		return vocab.ProvHadGeneration
	case prov.AttrUsage.URI():
		return vocab.ProvHadUsage
	case prov.AttrUsedEntity.URI(), prov.AttrTrigger.URI():
		return vocab.Prov("entity")
	case prov.AttrActivity.URI():
		if kind == prov.KindDelegation || kind == prov.KindDerivation {
			return vocab.ProvHadActivity
		}
	}
	return key.URI()
}
