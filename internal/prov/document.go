package prov

import (
	"fmt"
)

// Document is the unnamed top-level bundle. It may hold named sub-bundles,
// whose namespace scopes fall back to the document's.
type Document struct {
	Bundle
	bundles []*Bundle
	byID    map[string]*Bundle
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	d := &Document{byID: make(map[string]*Bundle)}
	d.Bundle.init(QualifiedName{}, nil)
	d.Bundle.top = d
	return d
}

// HasBundles reports whether the document has sub-bundles.
func (d *Document) HasBundles() bool { return len(d.bundles) > 0 }

// Bundles returns the sub-bundles in insertion order.
func (d *Document) Bundles() []*Bundle {
	out := make([]*Bundle, len(d.bundles))
	copy(out, d.bundles)
	return out
}

// GetBundle returns the sub-bundle with the given identifier.
func (d *Document) GetBundle(id any) (*Bundle, bool) {
	q, ok := d.ValidQualifiedName(id)
	if !ok {
		return nil, false
	}
	b, ok := d.byID[q.URI()]
	return b, ok
}

// CreateBundle creates an empty sub-bundle. The identifier is required and
// must not collide with an existing sub-bundle.
func (d *Document) CreateBundle(id any) (*Bundle, error) {
	if isAbsentID(id) {
		return nil, NewStructuralError("a bundle requires an identifier")
	}
	q, ok := d.ValidQualifiedName(id)
	if !ok {
		return nil, NewInvalidQualifiedNameError(id)
	}
	if _, exists := d.byID[q.URI()]; exists {
		return nil, NewStructuralError(fmt.Sprintf("bundle %s already exists", q))
	}
	b := newBundle(q, d.ns)
	b.parent = d
	d.bundles = append(d.bundles, b)
	d.byID[q.URI()] = b
	return b, nil
}

// AddBundle copies bundle into the document as a sub-bundle. When id is nil
// the bundle's own identifier is used. A document that has sub-bundles of
// its own cannot be nested.
func (d *Document) AddBundle(bundle *Bundle, id any) (*Bundle, error) {
	if bundle.top != nil && bundle.top.HasBundles() {
		return nil, NewStructuralError("cannot add a document with bundles as a bundle")
	}
	if isAbsentID(id) {
		id = bundle.id
	}
	b, err := d.CreateBundle(id)
	if err != nil {
		return nil, err
	}
	if err := b.Update(bundle); err != nil {
		return nil, err
	}
	return b, nil
}

// Update merges the records and sub-bundles of other into d. Sub-bundles
// with the same identifier are merged.
func (d *Document) Update(other *Document) error {
	if err := d.mergeRecords(&other.Bundle); err != nil {
		return err
	}
	for _, ob := range other.bundles {
		if existing, ok := d.GetBundle(ob.id); ok {
			if err := existing.Update(ob); err != nil {
				return fmt.Errorf("update bundle %s: %w", ob.id, err)
			}
			continue
		}
		if _, err := d.AddBundle(ob, ob.id); err != nil {
			return err
		}
	}
	return nil
}

// Unified returns a new document in which the top level and every sub-bundle
// are unified independently.
func (d *Document) Unified() (*Document, error) {
	out := NewDocument()
	out.ns = d.ns.clone()
	if err := d.Bundle.unifyInto(&out.Bundle); err != nil {
		return nil, err
	}
	for _, b := range d.bundles {
		nb, err := out.CreateBundle(b.id)
		if err != nil {
			return nil, err
		}
		nb.ns = b.ns.clone()
		nb.ns.SetParent(out.ns)
		if err := b.unifyInto(nb); err != nil {
			return nil, fmt.Errorf("bundle %s: %w", b.id, err)
		}
	}
	return out, nil
}

// Flattened returns a new document holding the top-level records followed
// by the records of every sub-bundle, in bundle order, with no sub-bundles.
func (d *Document) Flattened() (*Document, error) {
	out := NewDocument()
	out.ns = d.ns.clone()
	if err := out.mergeRecords(&d.Bundle); err != nil {
		return nil, err
	}
	for _, b := range d.bundles {
		if err := out.mergeRecords(b); err != nil {
			return nil, fmt.Errorf("flatten bundle %s: %w", b.id, err)
		}
	}
	return out, nil
}

// Equal reports whether two documents hold the same top-level records and
// the same sub-bundles.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	if !d.Bundle.Equal(&other.Bundle) {
		return false
	}
	if len(d.bundles) != len(other.bundles) {
		return false
	}
	for key, b := range d.byID {
		ob, ok := other.byID[key]
		if !ok || !b.Equal(ob) {
			return false
		}
	}
	return true
}
