// Package vocab holds the IRIs of the W3C vocabularies used on the wire.
//
// PROV-O terms are built from ProvNS so the class and property tables stay
// in one place. Other packages should never spell out a PROV IRI by hand.
//
// References:
//   - PROV-O: https://www.w3.org/TR/prov-o/
//   - RDF 1.1 Concepts: https://www.w3.org/TR/rdf11-concepts/
//   - XML Schema Datatypes: https://www.w3.org/TR/xmlschema11-2/
package vocab

// Namespace URIs
const (
	ProvNS = "http://www.w3.org/ns/prov#"
	RdfNS  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RdfsNS = "http://www.w3.org/2000/01/rdf-schema#"
	XsdNS  = "http://www.w3.org/2001/XMLSchema#"
	XsiNS  = "http://www.w3.org/2001/XMLSchema-instance"
)

// RDF and RDFS Standard IRIs
const (
	// RdfType links a resource to its class.
	RdfType = RdfNS + "type"

	// RdfLangString is the datatype of language-tagged literals.
	RdfLangString = RdfNS + "langString"

	// RdfsLabel provides a human-readable name for a resource.
	RdfsLabel = RdfsNS + "label"
)

// XSD datatype IRIs
const (
	XsdString   = XsdNS + "string"
	XsdDouble   = XsdNS + "double"
	XsdFloat    = XsdNS + "float"
	XsdLong     = XsdNS + "long"
	XsdInt      = XsdNS + "int"
	XsdInteger  = XsdNS + "integer"
	XsdBoolean  = XsdNS + "boolean"
	XsdDateTime = XsdNS + "dateTime"
	XsdAnyURI   = XsdNS + "anyURI"
	XsdQName    = XsdNS + "QName"
)

// PROV-O properties that carry no record type of their own.
const (
	// ProvAtTime is the instant of a qualified Generation, Usage, Start, End or Invalidation.
	ProvAtTime = ProvNS + "atTime"

	// ProvStartedAtTime is an Activity's start time.
	ProvStartedAtTime = ProvNS + "startedAtTime"

	// ProvEndedAtTime is an Activity's end time.
	ProvEndedAtTime = ProvNS + "endedAtTime"

	// ProvAtLocation is the location of an element or qualified relation.
	ProvAtLocation = ProvNS + "atLocation"

	ProvHadRole       = ProvNS + "hadRole"
	ProvHadPlan       = ProvNS + "hadPlan"
	ProvHadActivity   = ProvNS + "hadActivity"
	ProvHadUsage      = ProvNS + "hadUsage"
	ProvHadGeneration = ProvNS + "hadGeneration"

	// ProvAsInBundle ties a Mention's specific entity to the bundle it is described in.
	ProvAsInBundle = ProvNS + "asInBundle"

	// ProvQualifiedPrefix is the common prefix of every qualifiedX property.
	ProvQualifiedPrefix = ProvNS + "qualified"

	// ProvInternationalizedString is the datatype of language-tagged PROV literals.
	ProvInternationalizedString = ProvNS + "InternationalizedString"
)

// PROV-O classes that specialise another record class.
const (
	ProvRevision        = ProvNS + "Revision"
	ProvQuotation       = ProvNS + "Quotation"
	ProvPrimarySource   = ProvNS + "PrimarySource"
	ProvCollection      = ProvNS + "Collection"
	ProvEmptyCollection = ProvNS + "EmptyCollection"
	ProvPlan            = ProvNS + "Plan"
	ProvBundle          = ProvNS + "Bundle"
	ProvPerson          = ProvNS + "Person"
	ProvOrganization    = ProvNS + "Organization"
	ProvSoftwareAgent   = ProvNS + "SoftwareAgent"
)

// Prov returns the full IRI of a term in the PROV namespace.
func Prov(local string) string {
	return ProvNS + local
}
