package prov

import (
	"fmt"
	"strings"

	"github.com/roach88/provkit/internal/vocab"
)

// Namespace is a (prefix, URI) pair used to mint qualified names.
// A namespace with an empty prefix is a default namespace.
type Namespace struct {
	prefix string
	uri    string
}

// Built-in namespaces every manager starts with.
var (
	PROV = NewNamespace("prov", vocab.ProvNS)
	XSD  = NewNamespace("xsd", vocab.XsdNS)
	XSI  = NewNamespace("xsi", vocab.XsiNS)
)

// NewNamespace creates a namespace.
func NewNamespace(prefix, uri string) *Namespace {
	return &Namespace{prefix: prefix, uri: uri}
}

// Prefix returns the namespace prefix ("" for a default namespace).
func (n *Namespace) Prefix() string { return n.prefix }

// URI returns the namespace URI.
func (n *Namespace) URI() string { return n.uri }

// Q mints the qualified name for a local part in this namespace.
func (n *Namespace) Q(local string) QualifiedName {
	return QualifiedName{ns: n, local: local}
}

// Contains reports whether uri starts with the namespace URI.
func (n *Namespace) Contains(uri string) bool {
	return n.uri != "" && strings.HasPrefix(uri, n.uri)
}

// Equal reports whether two namespaces have the same prefix and URI.
func (n *Namespace) Equal(other *Namespace) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.prefix == other.prefix && n.uri == other.uri
}

func (n *Namespace) String() string {
	return fmt.Sprintf("%s: <%s>", n.prefix, n.uri)
}

func (n *Namespace) key() string {
	return n.prefix + "\x00" + n.uri
}

// QualifiedName is a namespace plus a local part.
// Two qualified names denote the same thing iff their URIs are equal; use
// Equal rather than == when the names may come from different managers.
type QualifiedName struct {
	ns    *Namespace
	local string
}

func (QualifiedName) provValue() {}

// Namespace returns the namespace the name was minted from.
func (q QualifiedName) Namespace() *Namespace { return q.ns }

// LocalPart returns the local part.
func (q QualifiedName) LocalPart() string { return q.local }

// URI returns the full URI: namespace URI followed by the local part.
func (q QualifiedName) URI() string {
	if q.ns == nil {
		return ""
	}
	return q.ns.uri + q.local
}

// IsZero reports whether q is the absent name.
func (q QualifiedName) IsZero() bool {
	return q.ns == nil
}

// Equal reports whether q and other have the same URI.
func (q QualifiedName) Equal(other QualifiedName) bool {
	if q.IsZero() || other.IsZero() {
		return q.IsZero() && other.IsZero()
	}
	return q.URI() == other.URI()
}

// String returns the display form prefix:local (or local for a default namespace).
func (q QualifiedName) String() string {
	if q.ns == nil {
		return ""
	}
	if q.ns.prefix == "" {
		return q.local
	}
	return q.ns.prefix + ":" + q.local
}

// Identifier is an opaque absolute URI, the value type of xsd:anyURI literals.
type Identifier string

func (Identifier) provValue() {}

// URI returns the identifier as a string.
func (i Identifier) URI() string { return string(i) }

// NamespaceManager maps prefixes and URIs to namespaces for one bundle.
//
// Conflicting prefixes are renamed (prefix_1, prefix_2, ...) and both the
// renamed namespace and its original prefix are remembered so later lookups
// by either resolve to the same namespace. Resolution failing locally is
// retried in the parent manager.
type NamespaceManager struct {
	byPrefix      map[string]*Namespace
	order         []string
	registered    []*Namespace
	defaultNS     *Namespace
	parent        *NamespaceManager
	uriMap        map[string]*Namespace
	renameMap     map[string]*Namespace
	prefixRenamed map[string]*Namespace
	anonCount     int
}

// NewNamespaceManager creates a manager preloaded with prov, xsd and xsi.
func NewNamespaceManager(parent *NamespaceManager) *NamespaceManager {
	m := &NamespaceManager{
		byPrefix:      make(map[string]*Namespace),
		parent:        parent,
		uriMap:        make(map[string]*Namespace),
		renameMap:     make(map[string]*Namespace),
		prefixRenamed: make(map[string]*Namespace),
	}
	for _, ns := range []*Namespace{PROV, XSD, XSI} {
		m.put(ns.prefix, ns)
	}
	return m
}

func (m *NamespaceManager) put(prefix string, ns *Namespace) {
	if _, ok := m.byPrefix[prefix]; !ok {
		m.order = append(m.order, prefix)
	}
	m.byPrefix[prefix] = ns
}

// values iterates namespaces in insertion order, default namespace included.
func (m *NamespaceManager) values() []*Namespace {
	out := make([]*Namespace, 0, len(m.order))
	for _, p := range m.order {
		out = append(out, m.byPrefix[p])
	}
	return out
}

func (m *NamespaceManager) containsValue(ns *Namespace) bool {
	for _, v := range m.byPrefix {
		if v.Equal(ns) {
			return true
		}
	}
	return false
}

// Parent returns the parent manager, or nil.
func (m *NamespaceManager) Parent() *NamespaceManager { return m.parent }

// SetParent links this manager to a parent.
func (m *NamespaceManager) SetParent(p *NamespaceManager) { m.parent = p }

// Registered returns the user-registered namespaces in registration order.
// Built-in namespaces and the default namespace are not included.
func (m *NamespaceManager) Registered() []*Namespace {
	out := make([]*Namespace, len(m.registered))
	copy(out, m.registered)
	return out
}

// Default returns the default namespace, or nil.
func (m *NamespaceManager) Default() *Namespace { return m.defaultNS }

// SetDefault sets the default (unprefixed) namespace.
func (m *NamespaceManager) SetDefault(uri string) *Namespace {
	m.defaultNS = NewNamespace("", uri)
	m.put("", m.defaultNS)
	return m.defaultNS
}

// Lookup returns the namespace bound to prefix, following renamed prefixes.
func (m *NamespaceManager) Lookup(prefix string) (*Namespace, bool) {
	if ns, ok := m.byPrefix[prefix]; ok {
		return ns, true
	}
	ns, ok := m.prefixRenamed[prefix]
	return ns, ok
}

// NamespaceForURI returns the namespace whose URI is exactly uri.
func (m *NamespaceManager) NamespaceForURI(uri string) (*Namespace, bool) {
	for _, ns := range m.values() {
		if ns.uri == uri {
			return ns, true
		}
	}
	return nil, false
}

// Add registers a namespace unless it is already present.
// It returns the namespace actually in use, which differs from ns when the
// URI was already bound or the prefix had to be renamed.
func (m *NamespaceManager) Add(ns *Namespace) *Namespace {
	if m.containsValue(ns) {
		return ns
	}
	if renamed, ok := m.renameMap[ns.key()]; ok {
		return renamed
	}

	if existing, ok := m.uriMap[ns.uri]; ok {
		m.renameMap[ns.key()] = existing
		m.prefixRenamed[ns.prefix] = existing
		return existing
	}

	prefix := ns.prefix
	if _, taken := m.byPrefix[prefix]; taken {
		newPrefix := m.unusedPrefix(prefix)
		renamed := NewNamespace(newPrefix, ns.uri)
		m.renameMap[ns.key()] = renamed
		m.prefixRenamed[prefix] = renamed
		prefix = newPrefix
		ns = renamed
	}

	m.registered = append(m.registered, ns)
	m.put(prefix, ns)
	m.uriMap[ns.uri] = ns
	return ns
}

// AddPrefix is shorthand for Add(NewNamespace(prefix, uri)).
func (m *NamespaceManager) AddPrefix(prefix, uri string) *Namespace {
	return m.Add(NewNamespace(prefix, uri))
}

func (m *NamespaceManager) unusedPrefix(original string) string {
	if _, ok := m.byPrefix[original]; !ok {
		return original
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", original, i)
		if _, ok := m.byPrefix[candidate]; !ok {
			return candidate
		}
	}
}

// ValidQualifiedName resolves a QualifiedName, Identifier or string to a
// qualified name registered in this manager (or its parents).
// It returns false when the value cannot be resolved, including for blank
// node identifiers ("_:...").
func (m *NamespaceManager) ValidQualifiedName(value any) (QualifiedName, bool) {
	switch v := value.(type) {
	case nil:
		return QualifiedName{}, false
	case QualifiedName:
		if v.IsZero() {
			return QualifiedName{}, false
		}
		return m.adoptQualifiedName(v), true
	case Identifier:
		return m.resolveString(string(v), false)
	case string:
		return m.resolveString(v, true)
	default:
		return QualifiedName{}, false
	}
}

func (m *NamespaceManager) adoptQualifiedName(q QualifiedName) QualifiedName {
	ns := q.ns
	if ns.prefix == "" {
		switch {
		case m.defaultNS.Equal(ns):
			return m.defaultNS.Q(q.local)
		case m.defaultNS == nil:
			m.defaultNS = ns
			m.put("", ns)
			return q
		default:
			dn := m.Add(NewNamespace("dn", ns.uri))
			return dn.Q(q.local)
		}
	}
	if existing, ok := m.byPrefix[ns.prefix]; ok && existing.Equal(ns) {
		if existing == ns {
			return q
		}
		return existing.Q(q.local)
	}
	added := m.Add(NewNamespace(ns.prefix, ns.uri))
	return added.Q(q.local)
}

func (m *NamespaceManager) resolveString(s string, bare bool) (QualifiedName, bool) {
	if s == "" || strings.HasPrefix(s, "_:") {
		return QualifiedName{}, false
	}
	if prefix, local, ok := strings.Cut(s, ":"); ok {
		if ns, found := m.byPrefix[prefix]; found {
			return ns.Q(local), true
		}
		if ns, found := m.prefixRenamed[prefix]; found {
			return ns.Q(local), true
		}
		if ns := m.longestURIMatch(s); ns != nil {
			return ns.Q(strings.TrimPrefix(s, ns.uri)), true
		}
	} else if bare && m.defaultNS != nil {
		return m.defaultNS.Q(s), true
	}

	if m.parent != nil {
		return m.parent.resolveString(s, bare)
	}
	return QualifiedName{}, false
}

func (m *NamespaceManager) longestURIMatch(uri string) *Namespace {
	var best *Namespace
	for _, ns := range m.values() {
		if ns.Contains(uri) && (best == nil || len(ns.uri) > len(best.uri)) {
			best = ns
		}
	}
	return best
}

// AnonymousIdentifier returns a fresh blank-node style identifier
// "_:<localPrefix><n>". The counter belongs to this manager only.
func (m *NamespaceManager) AnonymousIdentifier(localPrefix string) Identifier {
	if localPrefix == "" {
		localPrefix = "id"
	}
	m.anonCount++
	return Identifier(fmt.Sprintf("_:%s%d", localPrefix, m.anonCount))
}

// clone copies the registrations of m into a new manager with the same parent.
func (m *NamespaceManager) clone() *NamespaceManager {
	c := NewNamespaceManager(m.parent)
	if m.defaultNS != nil {
		c.SetDefault(m.defaultNS.uri)
	}
	for _, ns := range m.registered {
		c.Add(ns)
	}
	return c
}
