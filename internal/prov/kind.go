package prov

import "github.com/roach88/provkit/internal/vocab"

// Kind identifies a PROV record type. The set is closed: every switch over
// Kind in this module is exhaustive.
type Kind int

const (
	KindEntity Kind = iota + 1
	KindActivity
	KindAgent
	KindGeneration
	KindUsage
	KindCommunication
	KindStart
	KindEnd
	KindInvalidation
	KindDerivation
	KindAttribution
	KindAssociation
	KindDelegation
	KindInfluence
	KindSpecialization
	KindAlternate
	KindMention
	KindMembership
)

// Formal and common attribute keys.
var (
	AttrEntity          = PROV.Q("entity")
	AttrActivity        = PROV.Q("activity")
	AttrTrigger         = PROV.Q("trigger")
	AttrInformed        = PROV.Q("informed")
	AttrInformant       = PROV.Q("informant")
	AttrStarter         = PROV.Q("starter")
	AttrEnder           = PROV.Q("ender")
	AttrAgent           = PROV.Q("agent")
	AttrPlan            = PROV.Q("plan")
	AttrDelegate        = PROV.Q("delegate")
	AttrResponsible     = PROV.Q("responsible")
	AttrGeneratedEntity = PROV.Q("generatedEntity")
	AttrUsedEntity      = PROV.Q("usedEntity")
	AttrGeneration      = PROV.Q("generation")
	AttrUsage           = PROV.Q("usage")
	AttrSpecificEntity  = PROV.Q("specificEntity")
	AttrGeneralEntity   = PROV.Q("generalEntity")
	AttrAlternate1      = PROV.Q("alternate1")
	AttrAlternate2      = PROV.Q("alternate2")
	AttrBundle          = PROV.Q("bundle")
	AttrInfluencee      = PROV.Q("influencee")
	AttrInfluencer      = PROV.Q("influencer")
	AttrCollection      = PROV.Q("collection")

	AttrTime      = PROV.Q("time")
	AttrStartTime = PROV.Q("startTime")
	AttrEndTime   = PROV.Q("endTime")

	AttrType     = PROV.Q("type")
	AttrLabel    = PROV.Q("label")
	AttrValue    = PROV.Q("value")
	AttrLocation = PROV.Q("location")
	AttrRole     = PROV.Q("role")
)

// Asserted prov:type values with special meaning.
var (
	TypeRevision      = PROV.Q("Revision")
	TypeQuotation     = PROV.Q("Quotation")
	TypePrimarySource = PROV.Q("PrimarySource")
	TypeCollection    = PROV.Q("Collection")
	TypePlan          = PROV.Q("Plan")
	TypeBundle        = PROV.Q("Bundle")
)

type kindInfo struct {
	class   string
	provN   string
	element bool
	formal  []QualifiedName
	// multi is the formal slot allowed to hold several values, or the zero name.
	multi QualifiedName
}

var kindTable = map[Kind]kindInfo{
	KindEntity:   {class: "Entity", provN: "entity", element: true},
	KindActivity: {class: "Activity", provN: "activity", element: true, formal: []QualifiedName{AttrStartTime, AttrEndTime}},
	KindAgent:    {class: "Agent", provN: "agent", element: true},

	KindGeneration:    {class: "Generation", provN: "wasGeneratedBy", formal: []QualifiedName{AttrEntity, AttrActivity, AttrTime}},
	KindUsage:         {class: "Usage", provN: "used", formal: []QualifiedName{AttrActivity, AttrEntity, AttrTime}},
	KindCommunication: {class: "Communication", provN: "wasInformedBy", formal: []QualifiedName{AttrInformed, AttrInformant}},
	KindStart:         {class: "Start", provN: "wasStartedBy", formal: []QualifiedName{AttrActivity, AttrTrigger, AttrStarter, AttrTime}},
	KindEnd:           {class: "End", provN: "wasEndedBy", formal: []QualifiedName{AttrActivity, AttrTrigger, AttrEnder, AttrTime}},
	KindInvalidation:  {class: "Invalidation", provN: "wasInvalidatedBy", formal: []QualifiedName{AttrEntity, AttrActivity, AttrTime}},
	KindDerivation: {class: "Derivation", provN: "wasDerivedFrom", formal: []QualifiedName{
		AttrGeneratedEntity, AttrUsedEntity, AttrActivity, AttrGeneration, AttrUsage,
	}},
	KindAttribution:    {class: "Attribution", provN: "wasAttributedTo", formal: []QualifiedName{AttrEntity, AttrAgent}},
	KindAssociation:    {class: "Association", provN: "wasAssociatedWith", formal: []QualifiedName{AttrActivity, AttrAgent, AttrPlan}},
	KindDelegation:     {class: "Delegation", provN: "actedOnBehalfOf", formal: []QualifiedName{AttrDelegate, AttrResponsible, AttrActivity}},
	KindInfluence:      {class: "Influence", provN: "wasInfluencedBy", formal: []QualifiedName{AttrInfluencee, AttrInfluencer}},
	KindSpecialization: {class: "Specialization", provN: "specializationOf", formal: []QualifiedName{AttrSpecificEntity, AttrGeneralEntity}},
	KindAlternate:      {class: "Alternate", provN: "alternateOf", formal: []QualifiedName{AttrAlternate1, AttrAlternate2}},
	KindMention:        {class: "Mention", provN: "mentionOf", formal: []QualifiedName{AttrSpecificEntity, AttrGeneralEntity, AttrBundle}},
	KindMembership:     {class: "Membership", provN: "hadMember", formal: []QualifiedName{AttrCollection, AttrEntity}, multi: AttrEntity},
}

// Kinds lists every record kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindTable))
	for k := KindEntity; k <= KindMembership; k++ {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k is a declared kind.
func (k Kind) Valid() bool {
	_, ok := kindTable[k]
	return ok
}

// String returns the PROV class local name, e.g. "Generation".
func (k Kind) String() string {
	if info, ok := kindTable[k]; ok {
		return info.class
	}
	return "Unknown"
}

// ProvN returns the PROV-N keyword, which is also the PROV-O property name
// for relations (e.g. "wasGeneratedBy").
func (k Kind) ProvN() string {
	return kindTable[k].provN
}

// ClassURI returns the PROV-O class IRI.
func (k Kind) ClassURI() string {
	return vocab.Prov(k.String())
}

// QualifiedName returns the PROV class as a qualified name.
func (k Kind) QualifiedName() QualifiedName {
	return PROV.Q(k.String())
}

// IsElement reports whether k is Entity, Activity or Agent.
func (k Kind) IsElement() bool { return kindTable[k].element }

// IsRelation reports whether k is one of the relation kinds.
func (k Kind) IsRelation() bool { return k.Valid() && !kindTable[k].element }

// FormalAttributes returns the ordered formal attribute keys of k.
func (k Kind) FormalAttributes() []QualifiedName {
	f := kindTable[k].formal
	out := make([]QualifiedName, len(f))
	copy(out, f)
	return out
}

// IsFormal reports whether attr is one of k's formal attributes.
func (k Kind) IsFormal(attr QualifiedName) bool {
	for _, f := range kindTable[k].formal {
		if f.Equal(attr) {
			return true
		}
	}
	return false
}

// FormalIndex returns the position of attr in k's formal tuple, or -1.
func (k Kind) FormalIndex(attr QualifiedName) int {
	for i, f := range kindTable[k].formal {
		if f.Equal(attr) {
			return i
		}
	}
	return -1
}

// AllowsMultiple reports whether the formal attribute attr of k may hold
// several values. Only Membership's entity slot does.
func (k Kind) AllowsMultiple(attr QualifiedName) bool {
	m := kindTable[k].multi
	return !m.IsZero() && m.Equal(attr)
}

// KindByProvN finds a kind from its PROV-N keyword.
func KindByProvN(name string) (Kind, bool) {
	for k, info := range kindTable {
		if info.provN == name {
			return k, true
		}
	}
	return 0, false
}

// KindByName finds a kind from its class name, case-sensitive ("Usage").
func KindByName(name string) (Kind, bool) {
	for k, info := range kindTable {
		if info.class == name {
			return k, true
		}
	}
	return 0, false
}

// subclassKinds maps PROV-O subclasses onto the record kind they specialise.
var subclassKinds = map[string]Kind{
	vocab.ProvRevision:        KindDerivation,
	vocab.ProvQuotation:       KindDerivation,
	vocab.ProvPrimarySource:   KindDerivation,
	vocab.ProvCollection:      KindEntity,
	vocab.ProvPlan:            KindEntity,
	vocab.ProvBundle:          KindEntity,
	vocab.ProvPerson:          KindAgent,
	vocab.ProvOrganization:    KindAgent,
	vocab.ProvSoftwareAgent:   KindAgent,
	vocab.ProvEmptyCollection: KindEntity,
}

// KindForClass maps a PROV class IRI to its record kind. The second result
// is true when the IRI is the kind's own class rather than a subclass.
func KindForClass(uri string) (kind Kind, base bool, ok bool) {
	for k := range kindTable {
		if k.ClassURI() == uri {
			return k, true, true
		}
	}
	if k, found := subclassKinds[uri]; found {
		return k, false, true
	}
	return 0, false, false
}

// IsDerivationSubtype reports whether q is prov:Revision, prov:Quotation or
// prov:PrimarySource.
func IsDerivationSubtype(q QualifiedName) bool {
	return q.Equal(TypeRevision) || q.Equal(TypeQuotation) || q.Equal(TypePrimarySource)
}

var (
	qnameAttrs = map[string]bool{}
	timeAttrs  = map[string]bool{
		AttrTime.URI():      true,
		AttrStartTime.URI(): true,
		AttrEndTime.URI():   true,
	}
)

func init() {
	for _, q := range []QualifiedName{
		AttrEntity, AttrActivity, AttrTrigger, AttrInformed, AttrInformant,
		AttrStarter, AttrEnder, AttrAgent, AttrPlan, AttrDelegate, AttrResponsible,
		AttrGeneratedEntity, AttrUsedEntity, AttrGeneration, AttrUsage,
		AttrSpecificEntity, AttrGeneralEntity, AttrAlternate1, AttrAlternate2,
		AttrBundle, AttrInfluencee, AttrInfluencer, AttrCollection,
	} {
		qnameAttrs[q.URI()] = true
	}
}

// IsQualifiedNameAttribute reports whether attr takes qualified name values.
func IsQualifiedNameAttribute(attr QualifiedName) bool {
	return qnameAttrs[attr.URI()]
}

// IsTimeAttribute reports whether attr takes timestamp values.
func IsTimeAttribute(attr QualifiedName) bool {
	return timeAttrs[attr.URI()]
}

// isFormalKey reports whether attr is a formal attribute of any kind.
func isFormalKey(attr QualifiedName) bool {
	return IsQualifiedNameAttribute(attr) || IsTimeAttribute(attr)
}
