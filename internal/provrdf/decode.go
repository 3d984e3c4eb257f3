package provrdf

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/piprate/json-gold/ld"

	"github.com/roach88/provkit/internal/prov"
	"github.com/roach88/provkit/internal/vocab"
)

// Diagnostic records a piece of RDF the decoder could not represent.
type Diagnostic struct {
	Code      prov.ErrorCode `json:"code"`
	Graph     string         `json:"graph,omitempty"`
	Subject   string         `json:"subject,omitempty"`
	Predicate string         `json:"predicate,omitempty"`
	Message   string         `json:"message"`
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	sb.WriteString(string(d.Code))
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	if d.Subject != "" {
		sb.WriteString(" subject=" + d.Subject)
	}
	if d.Predicate != "" {
		sb.WriteString(" predicate=" + d.Predicate)
	}
	if d.Graph != "" && d.Graph != DefaultGraph {
		sb.WriteString(" graph=" + d.Graph)
	}
	return sb.String()
}

// DecodeOptions controls Decode.
type DecodeOptions struct {
	// Strict fails on the first construct that cannot be represented
	// instead of reporting it and carrying on.
	Strict bool

	// Namespaces seeds prefix bindings (prefix to URI) so decoded names
	// print with familiar prefixes. IRIs outside every known namespace get
	// generated prefixes ns1, ns2, ...
	Namespaces map[string]string

	// Logger receives a warning per diagnostic. Defaults to slog.Default().
	Logger *slog.Logger
}

// DecodeResult is the outcome of Decode.
type DecodeResult struct {
	Document    *prov.Document
	Diagnostics []Diagnostic
}

// directPredicate describes an unqualified PROV-O relation property.
type directPredicate struct {
	kind    prov.Kind
	subtype prov.QualifiedName
}

var directPredicates = map[string]directPredicate{}

func init() {
	for _, k := range prov.Kinds() {
		if k.IsRelation() {
			directPredicates[vocab.Prov(k.ProvN())] = directPredicate{kind: k}
		}
	}
	directPredicates[vocab.Prov("wasRevisionOf")] = directPredicate{kind: prov.KindDerivation, subtype: prov.TypeRevision}
	directPredicates[vocab.Prov("wasQuotedFrom")] = directPredicate{kind: prov.KindDerivation, subtype: prov.TypeQuotation}
	directPredicates[vocab.Prov("hadPrimarySource")] = directPredicate{kind: prov.KindDerivation, subtype: prov.TypePrimarySource}
}

// Decode rebuilds a document from an RDF dataset. The default graph holds
// the top-level records and every named graph becomes a bundle.
//
// Triples that cannot be mapped onto the model are reported as diagnostics
// and skipped, or abort decoding with an UNSUPPORTED_WIRE_CONSTRUCT error
// when opts.Strict is set.
func Decode(ds *ld.RDFDataset, opts DecodeOptions) (*DecodeResult, error) {
	d := &decoder{
		opts:   opts,
		log:    opts.Logger,
		result: &DecodeResult{Document: prov.NewDocument()},
	}
	if d.log == nil {
		d.log = slog.Default()
	}

	prefixes := make([]string, 0, len(opts.Namespaces))
	for p := range opts.Namespaces {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	for _, p := range prefixes {
		if p == "" {
			d.result.Document.SetDefaultNamespace(opts.Namespaces[p])
			continue
		}
		d.result.Document.AddNamespacePrefix(p, opts.Namespaces[p])
	}

	names := make([]string, 0, len(ds.Graphs))
	for name := range ds.Graphs {
		if name != DefaultGraph {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := ds.Graphs[DefaultGraph]; ok {
		names = append([]string{DefaultGraph}, names...)
	}

	for _, name := range names {
		if err := d.decodeGraph(name, ds.Graphs[name]); err != nil {
			return nil, err
		}
	}
	return d.result, nil
}

type decoder struct {
	opts    DecodeOptions
	log     *slog.Logger
	result  *DecodeResult
	nsCount int
}

func (d *decoder) report(diag Diagnostic) error {
	d.result.Diagnostics = append(d.result.Diagnostics, diag)
	d.log.Warn("rdf construct not representable",
		"code", diag.Code,
		"graph", diag.Graph,
		"subject", diag.Subject,
		"predicate", diag.Predicate,
		"message", diag.Message,
	)
	if d.opts.Strict {
		return fmt.Errorf("decode: %w", prov.NewUnsupportedWireError(diag.Message, diag.Subject))
	}
	return nil
}

// resolveIRI maps an IRI to a qualified name in b, registering a generated
// prefix for IRIs outside every known namespace.
func (d *decoder) resolveIRI(b *prov.Bundle, iri string) prov.QualifiedName {
	if q, ok := b.ValidQualifiedName(prov.Identifier(iri)); ok {
		return q
	}
	uri, local := splitIRI(iri)
	ns := b.NamespaceManager()
	for {
		d.nsCount++
		prefix := fmt.Sprintf("ns%d", d.nsCount)
		if _, taken := ns.Lookup(prefix); !taken {
			return b.AddNamespacePrefix(prefix, uri).Q(local)
		}
	}
}

func (d *decoder) decodeGraph(name string, quads []*ld.Quad) error {
	doc := d.result.Document
	b := &doc.Bundle
	if name != DefaultGraph {
		if strings.HasPrefix(name, "_:") {
			d.log.Warn("blank graph name, decoding into the top level", "graph", name)
		} else {
			nb, err := doc.CreateBundle(d.resolveIRI(b, name))
			if err != nil {
				return fmt.Errorf("decode graph %s: %w", name, err)
			}
			b = nb
		}
	}

	g := &graphDecoder{
		decoder:  d,
		name:     name,
		b:        b,
		subjects: make(map[string]*subject),
		links:    make(map[string][]*subject),
		inBundle: make(map[string]prov.Value),
	}
	if err := g.collectTypes(quads); err != nil {
		return err
	}
	if err := g.collectAttributes(quads); err != nil {
		return err
	}
	if err := g.matchDirect(); err != nil {
		return err
	}
	return g.build()
}

// subject gathers everything said about one RDF node before it becomes a
// record.
type subject struct {
	node       ld.Node
	kind       prov.Kind
	classified bool
	types      []string
	// slots holds the candidate values of each formal attribute, by key URI.
	slots  map[string][]prov.Value
	extras []prov.Attr
}

func (s *subject) addCandidate(key prov.QualifiedName, v prov.Value) {
	for _, existing := range s.slots[key.URI()] {
		if prov.ValuesEqual(existing, v) {
			return
		}
	}
	s.slots[key.URI()] = append(s.slots[key.URI()], v)
}

func (s *subject) addExtra(key prov.QualifiedName, v prov.Value) {
	s.extras = append(s.extras, prov.Attr{Key: key, Value: v})
}

type directTriple struct {
	directPredicate
	s, o ld.Node
}

type graphDecoder struct {
	*decoder
	name     string
	b        *prov.Bundle
	subjects map[string]*subject
	order    []*subject
	// links maps a subject key to the qualified relation nodes hanging off it.
	links    map[string][]*subject
	inBundle map[string]prov.Value
	direct   []directTriple
}

func (g *graphDecoder) diag(s, p ld.Node, format string, args ...any) Diagnostic {
	diag := Diagnostic{
		Code:    prov.ErrCodeUnsupportedWireConstruct,
		Graph:   g.name,
		Message: fmt.Sprintf(format, args...),
	}
	if s != nil {
		diag.Subject = nodeKey(s)
	}
	if p != nil {
		diag.Predicate = nodeKey(p)
	}
	return diag
}

func (g *graphDecoder) subject(n ld.Node) *subject {
	key := nodeKey(n)
	if s, ok := g.subjects[key]; ok {
		return s
	}
	s := &subject{node: n, slots: make(map[string][]prov.Value)}
	g.subjects[key] = s
	g.order = append(g.order, s)
	return s
}

// collectTypes classifies every typed subject. Qualified relation nodes
// without a usable rdf:type take their kind from the qualifiedX property
// pointing at them.
func (g *graphDecoder) collectTypes(quads []*ld.Quad) error {
	for _, q := range quads {
		if nodeKey(q.Predicate) != "<"+vocab.RdfType+">" {
			continue
		}
		s := g.subject(q.Subject)
		iri, ok := q.Object.(ld.IRI)
		if !ok {
			v, err := g.objectValue(q.Subject, q.Predicate, q.Object)
			if err != nil {
				return err
			}
			if v != nil {
				s.addExtra(prov.AttrType, v)
			}
			continue
		}
		if !contains(s.types, iri.Value) {
			s.types = append(s.types, iri.Value)
		}
	}

	for _, s := range g.order {
		g.classify(s)
	}

	for _, q := range quads {
		kind, subtype, ok := qualifiedKind(q.Predicate)
		if !ok {
			continue
		}
		target := g.subject(q.Object)
		if target.classified {
			continue
		}
		target.kind, target.classified = kind, true
		if !subtype.IsZero() {
			target.addExtra(prov.AttrType, subtype)
		}
	}
	return nil
}

// classify picks the record kind of s from its rdf:type values: a PROV base
// class wins over a derivation subtype, which wins over any other subclass.
// Every type not used to pick the kind is kept as a prov:type value.
func (g *graphDecoder) classify(s *subject) {
	chosen := ""
	pick := func(accept func(iri string, base bool) bool) {
		if chosen != "" {
			return
		}
		for _, t := range s.types {
			if k, base, ok := prov.KindForClass(t); ok && accept(t, base) {
				s.kind, s.classified, chosen = k, true, t
				return
			}
		}
	}
	pick(func(_ string, base bool) bool { return base })
	pick(func(iri string, _ bool) bool {
		return iri == vocab.ProvRevision || iri == vocab.ProvQuotation || iri == vocab.ProvPrimarySource
	})
	pick(func(string, bool) bool { return true })

	for _, t := range s.types {
		if t == chosen {
			if _, base, _ := prov.KindForClass(t); base {
				continue
			}
		}
		s.addExtra(prov.AttrType, g.resolveIRI(g.b, t))
	}
}

// qualifiedKind recognises prov:qualifiedX properties.
func qualifiedKind(p ld.Node) (prov.Kind, prov.QualifiedName, bool) {
	iri, ok := p.(ld.IRI)
	if !ok || !strings.HasPrefix(iri.Value, vocab.ProvQualifiedPrefix) {
		return 0, prov.QualifiedName{}, false
	}
	class := vocab.Prov(strings.TrimPrefix(iri.Value, vocab.ProvQualifiedPrefix))
	kind, base, ok := prov.KindForClass(class)
	if !ok || !kind.IsRelation() {
		return 0, prov.QualifiedName{}, false
	}
	if base {
		return kind, prov.QualifiedName{}, true
	}
	local, _ := provLocal(class)
	subtype := prov.PROV.Q(local)
	if !prov.IsDerivationSubtype(subtype) {
		return 0, prov.QualifiedName{}, false
	}
	return kind, subtype, true
}

func (g *graphDecoder) collectAttributes(quads []*ld.Quad) error {
	for _, q := range quads {
		pred := nodeKey(q.Predicate)
		if pred == "<"+vocab.RdfType+">" {
			continue
		}
		sKey := nodeKey(q.Subject)

		if kind, _, ok := qualifiedKind(q.Predicate); ok {
			target := g.subject(q.Object)
			if target.kind != kind {
				if err := g.report(g.diag(q.Subject, q.Predicate, "qualified node is a %s", target.kind)); err != nil {
					return err
				}
				continue
			}
			g.links[sKey] = append(g.links[sKey], target)
			v, err := g.objectValue(nil, q.Predicate, q.Subject)
			if err != nil {
				return err
			}
			if v != nil {
				target.addCandidate(target.kind.FormalAttributes()[0], v)
			}
			continue
		}

		predIRI, ok := q.Predicate.(ld.IRI)
		if !ok {
			if err := g.report(g.diag(q.Subject, q.Predicate, "predicate is not an IRI")); err != nil {
				return err
			}
			continue
		}
		iri := predIRI.Value
		if iri == vocab.ProvAsInBundle {
			v, err := g.objectValue(q.Subject, q.Predicate, q.Object)
			if err != nil {
				return err
			}
			if v == nil {
				continue
			}
			// asInBundle hangs off the specific entity, so a second bundle
			// cannot be paired with its mentionOf triple.
			if prev, ok := g.inBundle[sKey]; ok && !prov.ValuesEqual(prev, v) {
				if err := g.report(g.diag(q.Subject, q.Predicate, "entity is mentioned in more than one bundle, keeping %v", prev)); err != nil {
					return err
				}
				continue
			}
			g.inBundle[sKey] = v
			continue
		}
		if dp, ok := directPredicates[iri]; ok {
			g.direct = append(g.direct, directTriple{directPredicate: dp, s: q.Subject, o: q.Object})
			continue
		}

		s := g.subject(q.Subject)
		if !s.classified {
			// Reported once per subject when records are built.
			continue
		}
		v, err := g.objectValue(q.Subject, q.Predicate, q.Object)
		if err != nil {
			return err
		}
		if v == nil {
			continue
		}
		key := g.attributeKey(s.kind, iri)
		if s.kind.IsFormal(key) {
			s.addCandidate(key, v)
		} else {
			s.addExtra(key, v)
		}
	}
	return nil
}

// attributeKey maps a PROV-O property on a node of the given kind back to a
// record attribute key.
func (g *graphDecoder) attributeKey(kind prov.Kind, iri string) prov.QualifiedName {
	switch iri {
	case vocab.RdfsLabel:
		return prov.AttrLabel
	case vocab.ProvAtLocation:
		return prov.AttrLocation
	case vocab.ProvAtTime:
		return prov.AttrTime
	case vocab.ProvStartedAtTime:
		return prov.AttrStartTime
	case vocab.ProvEndedAtTime:
		return prov.AttrEndTime
	case vocab.ProvHadRole:
		return prov.AttrRole
	case vocab.ProvHadPlan:
		return prov.AttrPlan
	case vocab.ProvHadGeneration:
		return prov.AttrGeneration
	case vocab.ProvHadUsage:
		return prov.AttrUsage
	case vocab.ProvHadActivity:
		switch kind {
		case prov.KindStart:
			return prov.AttrStarter
		case prov.KindEnd:
			return prov.AttrEnder
		}
		return prov.AttrActivity
	case vocab.Prov("activity"):
		if kind == prov.KindCommunication {
			return prov.AttrInformant
		}
		return prov.AttrActivity
	case vocab.Prov("agent"):
		if kind == prov.KindDelegation {
			return prov.AttrResponsible
		}
		return prov.AttrAgent
	case vocab.Prov("entity"):
		switch kind {
		case prov.KindStart, prov.KindEnd:
			return prov.AttrTrigger
		case prov.KindDerivation:
			return prov.AttrUsedEntity
		}
		return prov.AttrEntity
	}
	if local, ok := provLocal(iri); ok {
		return prov.PROV.Q(local)
	}
	return g.resolveIRI(g.b, iri)
}

// objectValue converts an RDF term to an attribute value. A nil value with
// a nil error means the term was reported and skipped.
func (g *graphDecoder) objectValue(s, p, o ld.Node) (prov.Value, error) {
	switch t := o.(type) {
	case ld.IRI:
		return g.resolveIRI(g.b, t.Value), nil
	case ld.BlankNode:
		return nil, g.report(g.diag(s, p, "blank node %s cannot be an attribute value", t.Attribute))
	case ld.Literal:
		switch {
		case t.Language != "":
			return prov.NewLiteral(t.Value, prov.QualifiedName{}, t.Language), nil
		case t.Datatype == vocab.XsdDateTime:
			if tm, err := prov.ParseTime(t.Value); err == nil {
				return prov.NewTime(tm), nil
			}
		case t.Datatype == vocab.XsdQName:
			if q, ok := g.b.ValidQualifiedName(t.Value); ok {
				return q, nil
			}
			return prov.NewLiteral(t.Value, prov.XSDQName, ""), nil
		case t.Datatype == "" || t.Datatype == vocab.XsdString:
			return prov.String(t.Value), nil
		}
		return prov.NewLiteral(t.Value, g.resolveIRI(g.b, t.Datatype), ""), nil
	}
	return nil, g.report(g.diag(s, p, "unsupported RDF term"))
}

// matchDirect pairs every unqualified relation triple with the qualified
// node describing the same relation, or queues a new relation for it.
func (g *graphDecoder) matchDirect() error {
	var pending []directTriple
	for _, dt := range g.direct {
		if dt.kind == prov.KindAlternate || dt.kind == prov.KindMention {
			pending = append(pending, dt)
			continue
		}
		o, err := g.objectValue(dt.s, nil, dt.o)
		if err != nil {
			return err
		}
		if o == nil {
			continue
		}
		matched := false
		for _, n := range g.links[nodeKey(dt.s)] {
			if n.kind != dt.kind {
				continue
			}
			key := n.kind.FormalAttributes()[1]
			cands := n.slots[key.URI()]
			if len(cands) == 0 || containsValue(cands, o) {
				n.addCandidate(key, o)
				matched = true
				break
			}
		}
		if !matched {
			pending = append(pending, dt)
		}
	}
	g.direct = pending
	return nil
}

// build creates the records: typed nodes in first-seen order, then the
// unqualified relations.
func (g *graphDecoder) build() error {
	for _, s := range g.order {
		if !s.classified {
			if err := g.report(g.diag(s.node, nil, "subject has no PROV class")); err != nil {
				return err
			}
			continue
		}
		var attrs []prov.Attr
		for _, key := range s.kind.FormalAttributes() {
			cands := s.slots[key.URI()]
			if len(cands) > 1 && !s.kind.AllowsMultiple(key) {
				if err := g.report(g.diag(s.node, nil, "%d values for single-valued %s", len(cands), key)); err != nil {
					return err
				}
				continue
			}
			for _, v := range cands {
				attrs = append(attrs, prov.Attr{Key: key, Value: v})
			}
		}
		attrs = append(attrs, s.extras...)

		var id any
		if iri, ok := s.node.(ld.IRI); ok {
			id = g.resolveIRI(g.b, iri.Value)
		}
		if _, err := g.b.NewRecord(s.kind, id, attrs...); err != nil {
			if err := g.reportModelError(s.node, err); err != nil {
				return err
			}
		}
	}

	for _, dt := range g.direct {
		s, err := g.objectValue(nil, nil, dt.s)
		if err != nil {
			return err
		}
		o, err := g.objectValue(dt.s, nil, dt.o)
		if err != nil {
			return err
		}
		if s == nil || o == nil {
			continue
		}

		var attrs []prov.Attr
		switch dt.kind {
		case prov.KindAlternate:
			attrs = []prov.Attr{{Key: prov.AttrAlternate1, Value: o}, {Key: prov.AttrAlternate2, Value: s}}
		case prov.KindMention:
			attrs = []prov.Attr{
				{Key: prov.AttrSpecificEntity, Value: s},
				{Key: prov.AttrGeneralEntity, Value: o},
				{Key: prov.AttrBundle, Value: g.inBundle[nodeKey(dt.s)]},
			}
		default:
			formal := dt.kind.FormalAttributes()
			attrs = []prov.Attr{{Key: formal[0], Value: s}, {Key: formal[1], Value: o}}
			if !dt.subtype.IsZero() {
				attrs = append(attrs, prov.Attr{Key: prov.AttrType, Value: dt.subtype})
			}
		}
		if _, err := g.b.NewRecord(dt.kind, nil, attrs...); err != nil {
			if err := g.reportModelError(dt.s, err); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *graphDecoder) reportModelError(n ld.Node, err error) error {
	diag := g.diag(n, nil, "%s", err.Error())
	var me *prov.ModelError
	if errors.As(err, &me) {
		diag.Code = me.Code
		diag.Message = me.Message
	}
	return g.report(diag)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsValue(list []prov.Value, v prov.Value) bool {
	for _, existing := range list {
		if prov.ValuesEqual(existing, v) {
			return true
		}
	}
	return false
}
