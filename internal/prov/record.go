package prov

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Attr is an attribute as supplied by a caller: a key (QualifiedName or
// string) and a value to be validated against the key's attribute class.
type Attr struct {
	Key   any
	Value any
}

// Attribute is a resolved (key, value) pair held by a record.
type Attribute struct {
	Key   QualifiedName
	Value Value
}

type attrSlot struct {
	key    QualifiedName
	values []Value
}

// Record is a typed provenance statement owned by a Bundle.
//
// Records reference other records only through qualified names, never
// through pointers, so walking a document never follows a cycle.
type Record struct {
	kind   Kind
	id     QualifiedName
	attrs  []attrSlot
	bundle *Bundle
}

// Kind returns the record's PROV type.
func (r *Record) Kind() Kind { return r.kind }

// Identifier returns the record identifier, or the zero name when absent.
func (r *Record) Identifier() QualifiedName { return r.id }

// HasIdentifier reports whether the record has an identifier.
func (r *Record) HasIdentifier() bool { return !r.id.IsZero() }

// Bundle returns the owning bundle.
func (r *Record) Bundle() *Bundle { return r.bundle }

// IsElement reports whether the record is an Entity, Activity or Agent.
func (r *Record) IsElement() bool { return r.kind.IsElement() }

// IsRelation reports whether the record is a relation.
func (r *Record) IsRelation() bool { return r.kind.IsRelation() }

func (r *Record) slot(key QualifiedName) *attrSlot {
	for i := range r.attrs {
		if r.attrs[i].key.Equal(key) {
			return &r.attrs[i]
		}
	}
	return nil
}

// Attributes returns every (key, value) pair in insertion order.
func (r *Record) Attributes() []Attribute {
	var out []Attribute
	for _, s := range r.attrs {
		for _, v := range s.values {
			out = append(out, Attribute{Key: s.key, Value: v})
		}
	}
	return out
}

// FormalAttributes returns one pair per formal attribute of the record's
// kind, in declaration order. Absent values are nil. For a multi-valued
// formal slot the first value is returned; use Get for all of them.
func (r *Record) FormalAttributes() []Attribute {
	formal := r.kind.FormalAttributes()
	out := make([]Attribute, len(formal))
	for i, key := range formal {
		out[i] = Attribute{Key: key, Value: r.Value(key)}
	}
	return out
}

// ExtraAttributes returns the pairs whose key is not a formal attribute of
// the record's kind.
func (r *Record) ExtraAttributes() []Attribute {
	var out []Attribute
	for _, s := range r.attrs {
		if r.kind.IsFormal(s.key) {
			continue
		}
		for _, v := range s.values {
			out = append(out, Attribute{Key: s.key, Value: v})
		}
	}
	return out
}

// Get returns all values of an attribute. The key may be a QualifiedName
// or a string resolvable by the owning bundle.
func (r *Record) Get(key any) []Value {
	q, ok := r.resolveKey(key)
	if !ok {
		return nil
	}
	s := r.slot(q)
	if s == nil {
		return nil
	}
	out := make([]Value, len(s.values))
	copy(out, s.values)
	return out
}

// Value returns the first value of an attribute, or nil.
func (r *Record) Value(key QualifiedName) Value {
	s := r.slot(key)
	if s == nil || len(s.values) == 0 {
		return nil
	}
	return s.values[0]
}

// Label returns the first prov:label, falling back to the identifier.
func (r *Record) Label() string {
	if v := r.Value(AttrLabel); v != nil {
		switch x := v.(type) {
		case String:
			return string(x)
		case Literal:
			return x.Value()
		default:
			return FormatValue(v)
		}
	}
	return r.id.String()
}

// AssertedTypes returns the record's prov:type values.
func (r *Record) AssertedTypes() []Value {
	return r.Get(AttrType)
}

// AddAssertedType adds a prov:type value.
func (r *Record) AddAssertedType(t any) error {
	return r.AddAttributes(Attr{Key: AttrType, Value: t})
}

func (r *Record) resolveKey(key any) (QualifiedName, bool) {
	if q, ok := key.(QualifiedName); ok && r.bundle == nil {
		return q, !q.IsZero()
	}
	if r.bundle == nil {
		return QualifiedName{}, false
	}
	return r.bundle.ValidQualifiedName(key)
}

// AddAttributes validates and adds attributes.
//
// Nil values are skipped. A formal attribute that already holds a different
// value is an AttributeConflict, unless the record kind allows several
// values for it; adding the same value again is a no-op. Attributes added
// before a failing one are kept.
func (r *Record) AddAttributes(attrs ...Attr) error {
	for _, a := range attrs {
		if a.Value == nil {
			continue
		}
		key, ok := r.resolveKey(a.Key)
		if !ok {
			return NewInvalidQualifiedNameError(a.Key)
		}
		value, err := r.coerce(key, a.Value)
		if err != nil {
			return err
		}
		if value == nil {
			continue
		}
		if err := r.addValue(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (r *Record) addValue(key QualifiedName, value Value) error {
	s := r.slot(key)
	if s == nil {
		r.attrs = append(r.attrs, attrSlot{key: key, values: []Value{value}})
		return nil
	}
	for _, existing := range s.values {
		if ValuesEqual(existing, value) {
			return nil
		}
	}
	if isFormalKey(key) && len(s.values) > 0 && !r.kind.AllowsMultiple(key) {
		return NewAttributeConflictError(key, s.values[0], value)
	}
	s.values = append(s.values, value)
	return nil
}

// coerce converts a caller-supplied value to the class implied by its key.
func (r *Record) coerce(key QualifiedName, in any) (Value, error) {
	switch {
	case IsQualifiedNameAttribute(key):
		ref := in
		switch v := in.(type) {
		case *Record:
			ref = v.id
		case String:
			ref = string(v)
		}
		if lit, ok := in.(Literal); ok && lit.datatype.Equal(XSDQName) {
			ref = lit.value
		}
		q, ok := r.resolveValue(ref)
		if !ok {
			return nil, NewInvalidAttributeValueError(key, in)
		}
		return q, nil

	case IsTimeAttribute(key):
		switch v := in.(type) {
		case time.Time:
			return NewTime(v), nil
		case Time:
			return v, nil
		case string:
			t, err := ParseTime(v)
			if err != nil {
				return nil, NewInvalidAttributeValueError(key, in)
			}
			return NewTime(t), nil
		case String:
			t, err := ParseTime(string(v))
			if err != nil {
				return nil, NewInvalidAttributeValueError(key, in)
			}
			return NewTime(t), nil
		case Literal:
			t, err := ParseTime(v.value)
			if err != nil {
				return nil, NewInvalidAttributeValueError(key, in)
			}
			return NewTime(t), nil
		}
		return nil, NewInvalidAttributeValueError(key, in)
	}

	v, err := r.autoLiteral(in)
	if err != nil {
		return nil, NewInvalidAttributeValueError(key, in)
	}
	return v, nil
}

func (r *Record) resolveValue(v any) (QualifiedName, bool) {
	if r.bundle == nil {
		q, ok := v.(QualifiedName)
		return q, ok && !q.IsZero()
	}
	return r.bundle.ValidQualifiedName(v)
}

// autoLiteral normalises an extra attribute value.
func (r *Record) autoLiteral(in any) (Value, error) {
	switch v := in.(type) {
	case *Record:
		if v.id.IsZero() {
			return nil, fmt.Errorf("record reference without identifier")
		}
		return r.autoLiteral(v.id)
	case string:
		return String(v), nil
	case String, Int, Float, Bool, Identifier, Time:
		return v.(Value), nil
	case QualifiedName:
		q, ok := r.resolveValue(v)
		if !ok {
			return nil, fmt.Errorf("unresolvable qualified name %s", v)
		}
		return q, nil
	case Literal:
		if v.lang != "" {
			return v, nil
		}
		if v.datatype.IsZero() {
			return String(v.value), nil
		}
		if v.datatype.Equal(XSDQName) {
			if q, ok := r.resolveValue(v.value); ok {
				return q, nil
			}
			return v, nil
		}
		if native, ok := ParseXSD(v.value, v.datatype); ok {
			return native, nil
		}
		if r.bundle != nil {
			if dt, ok := r.bundle.ValidQualifiedName(v.datatype); ok {
				v.datatype = dt
			}
		}
		return v, nil
	case time.Time:
		return NewTime(v), nil
	case int:
		return Int(v), nil
	case int32:
		return Int(v), nil
	case int64:
		return Int(v), nil
	case float32:
		return Float(v), nil
	case float64:
		return Float(v), nil
	case bool:
		return Bool(v), nil
	}
	return nil, fmt.Errorf("unsupported value type %T", in)
}

// Copy returns a detached copy of the record bound to the same bundle.
// The copy is not added to the bundle.
func (r *Record) Copy() *Record {
	c := &Record{kind: r.kind, id: r.id, bundle: r.bundle}
	c.attrs = make([]attrSlot, len(r.attrs))
	for i, s := range r.attrs {
		vals := make([]Value, len(s.values))
		copy(vals, s.values)
		c.attrs[i] = attrSlot{key: s.key, values: vals}
	}
	return c
}

// attrList converts the record's attributes to caller form for re-adding
// through another bundle.
func (r *Record) attrList() []Attr {
	var out []Attr
	for _, s := range r.attrs {
		for _, v := range s.values {
			out = append(out, Attr{Key: s.key, Value: v})
		}
	}
	return out
}

// Equal reports whether two records have the same kind, the same identifier
// (or both none) and the same attribute set.
func (r *Record) Equal(other *Record) bool {
	if r == other {
		return true
	}
	if r == nil || other == nil {
		return false
	}
	return r.key() == other.key()
}

// key is a canonical text form of the record used for equality and
// deduplication. Attribute order does not matter.
func (r *Record) key() string {
	pairs := make([]string, 0, len(r.attrs))
	for _, s := range r.attrs {
		for _, v := range s.values {
			pairs = append(pairs, s.key.URI()+"="+valueKey(v))
		}
	}
	sort.Strings(pairs)
	return fmt.Sprintf("%d|%s|%s", r.kind, r.id.URI(), strings.Join(pairs, "\x1f"))
}

// String renders the record in PROV-N.
func (r *Record) String() string {
	var items []string
	relationID := ""
	if !r.id.IsZero() {
		if r.IsElement() {
			items = append(items, r.id.String())
		} else {
			relationID = r.id.String() + "; "
		}
	}
	for _, key := range r.kind.FormalAttributes() {
		items = append(items, formatFormal(r.Value(key)))
	}
	var extra []string
	for _, a := range r.ExtraAttributes() {
		extra = append(extra, fmt.Sprintf("%s=%s", a.Key, FormatValue(a.Value)))
	}
	if s := r.slot(AttrEntity); r.kind == KindMembership && s != nil && len(s.values) > 1 {
		// hadMember lists every member, not only the first.
		for _, v := range s.values[1:] {
			extra = append(extra, fmt.Sprintf("%s=%s", AttrEntity, FormatValue(v)))
		}
	}
	if len(extra) > 0 {
		items = append(items, "["+strings.Join(extra, ", ")+"]")
	}
	return fmt.Sprintf("%s(%s%s)", r.kind.ProvN(), relationID, strings.Join(items, ", "))
}
