package prov

// inferredKinds maps a formal attribute to the element kind a referenced
// identifier must have. Starters, enders and bundles are read as entities.
var inferredKinds = map[string]Kind{
	AttrEntity.URI():          KindEntity,
	AttrTrigger.URI():         KindEntity,
	AttrGeneratedEntity.URI(): KindEntity,
	AttrUsedEntity.URI():      KindEntity,
	AttrSpecificEntity.URI():  KindEntity,
	AttrGeneralEntity.URI():   KindEntity,
	AttrAlternate1.URI():      KindEntity,
	AttrAlternate2.URI():      KindEntity,
	AttrCollection.URI():      KindEntity,
	AttrPlan.URI():            KindEntity,
	AttrBundle.URI():          KindEntity,
	AttrStarter.URI():         KindEntity,
	AttrEnder.URI():           KindEntity,
	AttrActivity.URI():        KindActivity,
	AttrInformed.URI():        KindActivity,
	AttrInformant.URI():       KindActivity,
	AttrAgent.URI():           KindAgent,
	AttrDelegate.URI():        KindAgent,
	AttrResponsible.URI():     KindAgent,
}

// InferredElementKind returns the element kind implied by a formal
// attribute when the referenced element is not declared.
func InferredElementKind(attr QualifiedName) (Kind, bool) {
	k, ok := inferredKinds[attr.URI()]
	return k, ok
}

// InferredElement is an element referenced by a relation but never declared
// in the bundle.
type InferredElement struct {
	ID   QualifiedName
	Kind Kind
	// Via is the formal attribute through which the element was first seen.
	Via QualifiedName
}

// InferredElements lists the identifiers that relations reference through
// element-typed formal attributes but that no record in the bundle declares.
// Results are in first-reference order.
func (b *Bundle) InferredElements() []InferredElement {
	out := []InferredElement{}
	seen := make(map[string]bool)
	for _, r := range b.records {
		if !r.IsRelation() {
			continue
		}
		for _, key := range r.kind.FormalAttributes() {
			kind, ok := InferredElementKind(key)
			if !ok {
				continue
			}
			for _, v := range r.Get(key) {
				q, isName := v.(QualifiedName)
				if !isName {
					continue
				}
				uri := q.URI()
				if seen[uri] || b.declares(uri) {
					continue
				}
				seen[uri] = true
				out = append(out, InferredElement{ID: q, Kind: kind, Via: key})
			}
		}
	}
	return out
}

func (b *Bundle) declares(uri string) bool {
	for _, r := range b.index[uri] {
		if r.IsElement() {
			return true
		}
	}
	return false
}
