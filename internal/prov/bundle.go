package prov

import (
	"fmt"
	"sort"
)

// Bundle is an ordered collection of records with an identifier index and
// its own namespace scope.
//
// A Bundle is the sole mutator of its records, index and namespaces. Records
// are created only through NewRecord and the typed constructors built on it.
type Bundle struct {
	id      QualifiedName
	ns      *NamespaceManager
	records []*Record
	index   map[string][]*Record
	// copies maps a record from another bundle to the copy made by AddRecord.
	copies map[*Record]*Record

	// top is set when this bundle is the top level of a Document.
	top *Document
	// parent is the document holding this bundle as a sub-bundle.
	parent *Document
}

func newBundle(id QualifiedName, parentNS *NamespaceManager) *Bundle {
	b := &Bundle{}
	b.init(id, parentNS)
	return b
}

func (b *Bundle) init(id QualifiedName, parentNS *NamespaceManager) {
	b.id = id
	b.ns = NewNamespaceManager(parentNS)
	b.index = make(map[string][]*Record)
	b.copies = make(map[*Record]*Record)
}

// NewBundle creates an empty bundle that belongs to no document. Add it to
// a document with Document.AddBundle.
func NewBundle() *Bundle {
	return newBundle(QualifiedName{}, nil)
}

// Identifier returns the bundle identifier. The top level of a document has
// none.
func (b *Bundle) Identifier() QualifiedName { return b.id }

// Document returns the document holding this bundle as a sub-bundle, or nil.
func (b *Bundle) Document() *Document { return b.parent }

// NamespaceManager returns the bundle's namespace scope.
func (b *Bundle) NamespaceManager() *NamespaceManager { return b.ns }

// Namespaces returns the namespaces registered in this bundle.
func (b *Bundle) Namespaces() []*Namespace { return b.ns.Registered() }

// DefaultNamespace returns the default namespace, or nil.
func (b *Bundle) DefaultNamespace() *Namespace { return b.ns.Default() }

// SetDefaultNamespace sets the default namespace.
func (b *Bundle) SetDefaultNamespace(uri string) *Namespace { return b.ns.SetDefault(uri) }

// AddNamespace registers a namespace and returns the one actually in use.
func (b *Bundle) AddNamespace(ns *Namespace) *Namespace { return b.ns.Add(ns) }

// AddNamespacePrefix registers prefix for uri.
func (b *Bundle) AddNamespacePrefix(prefix, uri string) *Namespace {
	return b.ns.AddPrefix(prefix, uri)
}

// ValidQualifiedName resolves value in this bundle's namespace scope.
func (b *Bundle) ValidQualifiedName(value any) (QualifiedName, bool) {
	return b.ns.ValidQualifiedName(value)
}

// AnonymousIdentifier returns a fresh "_:<prefix><n>" identifier.
func (b *Bundle) AnonymousIdentifier(localPrefix string) Identifier {
	return b.ns.AnonymousIdentifier(localPrefix)
}

// Records returns the records in insertion order.
func (b *Bundle) Records() []*Record {
	out := make([]*Record, len(b.records))
	copy(out, b.records)
	return out
}

// Len returns the number of records.
func (b *Bundle) Len() int { return len(b.records) }

// GetRecords returns the records of one kind in insertion order.
func (b *Bundle) GetRecords(kind Kind) []*Record {
	out := []*Record{}
	for _, r := range b.records {
		if r.kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// GetRecord returns every record with the given identifier. Several records
// may share one identifier until the bundle is unified.
func (b *Bundle) GetRecord(id any) []*Record {
	q, ok := b.ValidQualifiedName(id)
	if !ok {
		return nil
	}
	found := b.index[q.URI()]
	out := make([]*Record, len(found))
	copy(out, found)
	return out
}

func isAbsentID(id any) bool {
	switch v := id.(type) {
	case nil:
		return true
	case QualifiedName:
		return v.IsZero()
	case string:
		return v == ""
	}
	return false
}

// NewRecord creates a record of the given kind, validates its attributes and
// appends it to the bundle. On error nothing is added.
func (b *Bundle) NewRecord(kind Kind, id any, attrs ...Attr) (*Record, error) {
	if !kind.Valid() {
		return nil, NewStructuralError(fmt.Sprintf("unknown record kind %d", int(kind)))
	}
	var qn QualifiedName
	if !isAbsentID(id) {
		q, ok := b.ValidQualifiedName(id)
		if !ok {
			return nil, NewInvalidQualifiedNameError(id)
		}
		qn = q
	}
	if kind.IsElement() && qn.IsZero() {
		return nil, NewMissingIdentifierError(kind)
	}

	r := &Record{kind: kind, id: qn, bundle: b}
	if err := r.AddAttributes(attrs...); err != nil {
		return nil, err
	}
	b.append(r)
	return r, nil
}

func (b *Bundle) append(r *Record) {
	b.records = append(b.records, r)
	if !r.id.IsZero() {
		key := r.id.URI()
		b.index[key] = append(b.index[key], r)
	}
}

// AddRecord adds a copy of a record owned by another bundle. Adding a record
// this bundle already owns, or one it has already copied, returns the
// existing record.
func (b *Bundle) AddRecord(r *Record) (*Record, error) {
	if r.bundle == b {
		return r, nil
	}
	if c, ok := b.copies[r]; ok {
		return c, nil
	}
	c, err := b.NewRecord(r.kind, r.id, r.attrList()...)
	if err != nil {
		return nil, err
	}
	b.copies[r] = c
	return c, nil
}

// Update adds the records of other to b. A document that has sub-bundles
// cannot be merged into a bundle.
func (b *Bundle) Update(other *Bundle) error {
	if other.top != nil && other.top.HasBundles() {
		return NewStructuralError("cannot merge a document with bundles into a bundle")
	}
	return b.mergeRecords(other)
}

func (b *Bundle) mergeRecords(other *Bundle) error {
	b.adoptNamespaces(other)
	for _, r := range other.records {
		if _, err := b.AddRecord(r); err != nil {
			return fmt.Errorf("update: %w", err)
		}
	}
	return nil
}

func (b *Bundle) adoptNamespaces(other *Bundle) {
	if d := other.ns.Default(); d != nil && b.ns.Default() == nil {
		b.ns.SetDefault(d.URI())
	}
	for _, ns := range other.ns.Registered() {
		b.ns.Add(ns)
	}
}

// Equal reports whether two bundles hold the same set of records.
// Record order and duplicates do not matter.
func (b *Bundle) Equal(other *Bundle) bool {
	if b == nil || other == nil {
		return b == other
	}
	left, right := b.recordKeys(), other.recordKeys()
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}

func (b *Bundle) recordKeys() []string {
	seen := make(map[string]bool, len(b.records))
	keys := make([]string, 0, len(b.records))
	for _, r := range b.records {
		k := r.key()
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Unified returns a new bundle in which all records sharing an identifier
// are merged into one. The bundle itself is not modified.
func (b *Bundle) Unified() (*Bundle, error) {
	out := newBundle(b.id, b.ns.Parent())
	out.ns = b.ns.clone()
	if err := b.unifyInto(out); err != nil {
		return nil, err
	}
	return out, nil
}

// unifyInto appends the unified records of b to target in first-seen order.
func (b *Bundle) unifyInto(target *Bundle) error {
	merged := make(map[string]*Record)
	for _, r := range b.records {
		if r.id.IsZero() {
			if _, err := target.NewRecord(r.kind, nil, r.attrList()...); err != nil {
				return err
			}
			continue
		}
		key := r.id.URI()
		if m, ok := merged[key]; ok {
			if err := m.AddAttributes(r.attrList()...); err != nil {
				return fmt.Errorf("unify %s: %w", r.id, err)
			}
			continue
		}
		m, err := target.NewRecord(r.kind, r.id, r.attrList()...)
		if err != nil {
			return fmt.Errorf("unify %s: %w", r.id, err)
		}
		merged[key] = m
	}
	return nil
}

// Option configures a record built by one of the typed constructors.
type Option func(*recordOptions)

type recordOptions struct {
	id    any
	attrs []Attr
}

// WithID sets the record identifier.
func WithID(id any) Option {
	return func(o *recordOptions) { o.id = id }
}

// With adds one extra attribute.
func With(key, value any) Option {
	return func(o *recordOptions) { o.attrs = append(o.attrs, Attr{Key: key, Value: value}) }
}

// WithAttrs adds several extra attributes.
func WithAttrs(attrs ...Attr) Option {
	return func(o *recordOptions) { o.attrs = append(o.attrs, attrs...) }
}

func (b *Bundle) build(kind Kind, id any, formal []any, opts []Option) (*Record, error) {
	o := recordOptions{id: id}
	for _, opt := range opts {
		opt(&o)
	}
	keys := kind.FormalAttributes()
	attrs := make([]Attr, 0, len(keys)+len(o.attrs))
	for i, v := range formal {
		attrs = append(attrs, Attr{Key: keys[i], Value: v})
	}
	attrs = append(attrs, o.attrs...)
	return b.NewRecord(kind, o.id, attrs...)
}

// Entity creates an entity.
func (b *Bundle) Entity(id any, opts ...Option) (*Record, error) {
	return b.build(KindEntity, id, nil, opts)
}

// Collection creates an entity typed prov:Collection.
func (b *Bundle) Collection(id any, opts ...Option) (*Record, error) {
	return b.build(KindEntity, id, nil, append([]Option{With(AttrType, TypeCollection)}, opts...))
}

// Activity creates an activity. startTime and endTime may be nil.
func (b *Bundle) Activity(id, startTime, endTime any, opts ...Option) (*Record, error) {
	return b.build(KindActivity, id, []any{startTime, endTime}, opts)
}

// Agent creates an agent.
func (b *Bundle) Agent(id any, opts ...Option) (*Record, error) {
	return b.build(KindAgent, id, nil, opts)
}

// Generation creates wasGeneratedBy(entity, activity, time).
func (b *Bundle) Generation(entity, activity, t any, opts ...Option) (*Record, error) {
	return b.build(KindGeneration, nil, []any{entity, activity, t}, opts)
}

// Usage creates used(activity, entity, time).
func (b *Bundle) Usage(activity, entity, t any, opts ...Option) (*Record, error) {
	return b.build(KindUsage, nil, []any{activity, entity, t}, opts)
}

// Start creates wasStartedBy(activity, trigger, starter, time).
func (b *Bundle) Start(activity, trigger, starter, t any, opts ...Option) (*Record, error) {
	return b.build(KindStart, nil, []any{activity, trigger, starter, t}, opts)
}

// End creates wasEndedBy(activity, trigger, ender, time).
func (b *Bundle) End(activity, trigger, ender, t any, opts ...Option) (*Record, error) {
	return b.build(KindEnd, nil, []any{activity, trigger, ender, t}, opts)
}

// Invalidation creates wasInvalidatedBy(entity, activity, time).
func (b *Bundle) Invalidation(entity, activity, t any, opts ...Option) (*Record, error) {
	return b.build(KindInvalidation, nil, []any{entity, activity, t}, opts)
}

// Communication creates wasInformedBy(informed, informant).
func (b *Bundle) Communication(informed, informant any, opts ...Option) (*Record, error) {
	return b.build(KindCommunication, nil, []any{informed, informant}, opts)
}

// Derivation creates wasDerivedFrom. activity, generation and usage may be nil.
func (b *Bundle) Derivation(generatedEntity, usedEntity, activity, generation, usage any, opts ...Option) (*Record, error) {
	return b.build(KindDerivation, nil, []any{generatedEntity, usedEntity, activity, generation, usage}, opts)
}

func (b *Bundle) typedDerivation(t QualifiedName, generated, used, activity, generation, usage any, opts []Option) (*Record, error) {
	return b.Derivation(generated, used, activity, generation, usage, append([]Option{With(AttrType, t)}, opts...)...)
}

// Revision creates a derivation typed prov:Revision.
func (b *Bundle) Revision(generatedEntity, usedEntity, activity, generation, usage any, opts ...Option) (*Record, error) {
	return b.typedDerivation(TypeRevision, generatedEntity, usedEntity, activity, generation, usage, opts)
}

// Quotation creates a derivation typed prov:Quotation.
func (b *Bundle) Quotation(generatedEntity, usedEntity, activity, generation, usage any, opts ...Option) (*Record, error) {
	return b.typedDerivation(TypeQuotation, generatedEntity, usedEntity, activity, generation, usage, opts)
}

// PrimarySource creates a derivation typed prov:PrimarySource.
func (b *Bundle) PrimarySource(generatedEntity, usedEntity, activity, generation, usage any, opts ...Option) (*Record, error) {
	return b.typedDerivation(TypePrimarySource, generatedEntity, usedEntity, activity, generation, usage, opts)
}

// Attribution creates wasAttributedTo(entity, agent).
func (b *Bundle) Attribution(entity, agent any, opts ...Option) (*Record, error) {
	return b.build(KindAttribution, nil, []any{entity, agent}, opts)
}

// Association creates wasAssociatedWith(activity, agent, plan).
func (b *Bundle) Association(activity, agent, plan any, opts ...Option) (*Record, error) {
	return b.build(KindAssociation, nil, []any{activity, agent, plan}, opts)
}

// Delegation creates actedOnBehalfOf(delegate, responsible, activity).
func (b *Bundle) Delegation(delegate, responsible, activity any, opts ...Option) (*Record, error) {
	return b.build(KindDelegation, nil, []any{delegate, responsible, activity}, opts)
}

// Influence creates wasInfluencedBy(influencee, influencer).
func (b *Bundle) Influence(influencee, influencer any, opts ...Option) (*Record, error) {
	return b.build(KindInfluence, nil, []any{influencee, influencer}, opts)
}

// Specialization creates specializationOf(specificEntity, generalEntity).
func (b *Bundle) Specialization(specificEntity, generalEntity any, opts ...Option) (*Record, error) {
	return b.build(KindSpecialization, nil, []any{specificEntity, generalEntity}, opts)
}

// Alternate creates alternateOf(alternate1, alternate2).
func (b *Bundle) Alternate(alternate1, alternate2 any, opts ...Option) (*Record, error) {
	return b.build(KindAlternate, nil, []any{alternate1, alternate2}, opts)
}

// Mention creates mentionOf(specificEntity, generalEntity, bundle).
func (b *Bundle) Mention(specificEntity, generalEntity, bundle any, opts ...Option) (*Record, error) {
	return b.build(KindMention, nil, []any{specificEntity, generalEntity, bundle}, opts)
}

// Membership creates hadMember(collection, entity).
func (b *Bundle) Membership(collection, entity any, opts ...Option) (*Record, error) {
	return b.build(KindMembership, nil, []any{collection, entity}, opts)
}
