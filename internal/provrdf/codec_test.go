package provrdf

import (
	"io"
	"log/slog"
	"testing"

	"github.com/piprate/json-gold/ld"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provkit/internal/prov"
	"github.com/roach88/provkit/internal/vocab"
)

const ex = "http://example.org/"

func newTestDocument(t *testing.T) *prov.Document {
	t.Helper()
	d := prov.NewDocument()
	d.AddNamespacePrefix("ex", ex)
	return d
}

func quietOptions() DecodeOptions {
	return DecodeOptions{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func must(t *testing.T, _ *prov.Record, err error) {
	t.Helper()
	require.NoError(t, err)
}

// roundTripCases builds the documents every decodable format must survive.
var roundTripCases = map[string]func(t *testing.T) *prov.Document{
	"unqualified usage": func(t *testing.T) *prov.Document {
		d := newTestDocument(t)
		r, err := d.Usage("ex:a1", "ex:e1", nil)
		must(t, r, err)
		return d
	},
	"qualified association with plan and label": func(t *testing.T) *prov.Document {
		d := newTestDocument(t)
		r, err := d.Activity("ex:a1", "2024-01-01T09:00:00Z", nil)
		must(t, r, err)
		r, err = d.Association("ex:a1", "ex:ag1", "ex:plan", prov.With(prov.AttrLabel, "helper"))
		must(t, r, err)
		return d
	},
	"revision": func(t *testing.T) *prov.Document {
		d := newTestDocument(t)
		r, err := d.Revision("ex:e2", "ex:e1", nil, nil, nil)
		must(t, r, err)
		return d
	},
	"mention": func(t *testing.T) *prov.Document {
		d := newTestDocument(t)
		r, err := d.Mention("ex:e1", "ex:e0", "ex:b1")
		must(t, r, err)
		return d
	},
	"identified generation with typed attributes": func(t *testing.T) *prov.Document {
		d := newTestDocument(t)
		r, err := d.Entity("ex:e1",
			prov.With("ex:count", 3),
			prov.With("ex:ratio", 0.25),
			prov.With("ex:ok", true),
			prov.With("ex:title", prov.NewLiteral("bonjour", prov.QualifiedName{}, "fr")),
			prov.With(prov.AttrType, prov.NewNamespace("ex", ex).Q("Report")),
		)
		must(t, r, err)
		r, err = d.Generation("ex:e1", "ex:a1", "2024-01-01T10:00:00Z", prov.WithID("ex:g1"))
		must(t, r, err)
		return d
	},
	"start and end with trigger and starter": func(t *testing.T) *prov.Document {
		d := newTestDocument(t)
		r, err := d.Start("ex:a1", "ex:e1", "ex:a0", "2024-01-01T09:00:00Z")
		must(t, r, err)
		r, err = d.End("ex:a1", "ex:e2", "ex:a2", nil)
		must(t, r, err)
		return d
	},
	"delegation with activity": func(t *testing.T) *prov.Document {
		d := newTestDocument(t)
		r, err := d.Delegation("ex:ag2", "ex:ag1", "ex:a1")
		must(t, r, err)
		return d
	},
	"derivation with every formal attribute": func(t *testing.T) *prov.Document {
		d := newTestDocument(t)
		r, err := d.Derivation("ex:e2", "ex:e1", "ex:a1", "ex:g1", "ex:u1")
		must(t, r, err)
		return d
	},
	"usage without activity": func(t *testing.T) *prov.Document {
		d := newTestDocument(t)
		r, err := d.Usage(nil, "ex:e1", "2024-01-01T09:00:00Z")
		must(t, r, err)
		return d
	},
	"memberships": func(t *testing.T) *prov.Document {
		d := newTestDocument(t)
		r, err := d.Collection("ex:c")
		must(t, r, err)
		for _, e := range []string{"ex:e1", "ex:e2", "ex:e3"} {
			r, err = d.Membership("ex:c", e)
			must(t, r, err)
		}
		return d
	},
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatNQuads, FormatNTriples, FormatJSONLD} {
		for name, build := range roundTripCases {
			t.Run(string(format)+"/"+name, func(t *testing.T) {
				doc := build(t)
				data, err := Marshal(doc, format)
				require.NoError(t, err)

				res, err := Unmarshal(data, format, quietOptions())
				require.NoError(t, err)
				assert.Empty(t, res.Diagnostics)
				assert.True(t, doc.Equal(res.Document), "round trip changed the document:\n%s\n---\n%s", doc, res.Document)
			})
		}
	}
}

func TestRoundTrip_BundlesWithCollidingLocalIdentifiers(t *testing.T) {
	build := func(t *testing.T) *prov.Document {
		d := prov.NewDocument()
		bn := prov.NewNamespace("bn", "http://bundles.example/")
		b1, err := d.CreateBundle(bn.Q("b1"))
		require.NoError(t, err)
		b2, err := d.CreateBundle(bn.Q("b2"))
		require.NoError(t, err)
		b1.AddNamespacePrefix("ex", "http://one.example/")
		b2.AddNamespacePrefix("ex", "http://two.example/")
		r, err := b1.Entity("ex:e")
		must(t, r, err)
		r, err = b2.Entity("ex:e")
		must(t, r, err)
		return d
	}

	for _, format := range []Format{FormatNQuads, FormatJSONLD} {
		t.Run(string(format), func(t *testing.T) {
			doc := build(t)
			data, err := Marshal(doc, format)
			require.NoError(t, err)

			res, err := Unmarshal(data, format, quietOptions())
			require.NoError(t, err)
			require.Len(t, res.Document.Bundles(), 2)
			assert.True(t, doc.Equal(res.Document))
		})
	}
}

func TestEncode_UnqualifiedUsageIsOneTriple(t *testing.T) {
	d := newTestDocument(t)
	r, err := d.Usage("ex:a1", "ex:e1", nil)
	must(t, r, err)

	quads := Encode(d).Graphs[DefaultGraph]
	require.Len(t, quads, 1)
	assert.Equal(t, "<"+ex+"a1>", nodeKey(quads[0].Subject))
	assert.Equal(t, "<"+vocab.Prov("used")+">", nodeKey(quads[0].Predicate))
	assert.Equal(t, "<"+ex+"e1>", nodeKey(quads[0].Object))
}

func TestEncode_UsageWithRoleIsQualified(t *testing.T) {
	d := newTestDocument(t)
	r, err := d.Usage("ex:a1", "ex:e1", nil, prov.With(prov.AttrRole, "input"))
	must(t, r, err)

	var got []string
	for _, q := range Encode(d).Graphs[DefaultGraph] {
		got = append(got, nodeKey(q.Subject)+" "+nodeKey(q.Predicate)+" "+nodeKey(q.Object))
	}
	assert.ElementsMatch(t, []string{
		"<" + ex + "a1> <" + vocab.Prov("used") + "> <" + ex + "e1>",
		"<" + ex + "a1> <" + vocab.Prov("qualifiedUsage") + "> _:b1",
		"_:b1 <" + vocab.RdfType + "> <" + vocab.Prov("Usage") + ">",
		"_:b1 <" + vocab.Prov("entity") + "> <" + ex + "e1>",
		"_:b1 <" + vocab.ProvHadRole + `> "input"^^` + vocab.XsdString + "@",
	}, got)
}

func TestNodeKey(t *testing.T) {
	assert.Equal(t, "<"+ex+"e1>", nodeKey(ld.NewIRI(ex+"e1")))
	assert.Equal(t, "_:x", nodeKey(ld.NewBlankNode("_:x")))
	assert.Equal(t, `"v"^^`+vocab.XsdString+"@", nodeKey(ld.NewLiteral("v", "", "")))
	assert.Equal(t, `"chat"^^`+vocab.XsdString+"@fr", nodeKey(ld.NewLiteral("chat", "", "fr")))
}

func TestEncode_EmitsEveryTriple(t *testing.T) {
	d := newTestDocument(t)
	r, err := d.Entity("ex:e1", prov.With(prov.AttrLabel, "report"))
	must(t, r, err)
	r, err = d.Usage("ex:a1", "ex:e1", nil, prov.With(prov.AttrRole, "input"))
	must(t, r, err)

	quads := Encode(d).Graphs[DefaultGraph]
	require.Len(t, quads, 7)
	seen := make(map[string]bool)
	for _, q := range quads {
		key := nodeKey(q.Subject) + " " + nodeKey(q.Predicate) + " " + nodeKey(q.Object)
		assert.False(t, seen[key], "duplicate triple %s", key)
		seen[key] = true
	}
}

func TestEncode_BlankNodesAreUniqueAcrossGraphs(t *testing.T) {
	d := newTestDocument(t)
	r, err := d.Usage("ex:a1", "ex:e1", nil, prov.With(prov.AttrRole, "input"))
	must(t, r, err)
	b, err := d.CreateBundle("ex:b1")
	require.NoError(t, err)
	r, err = b.Usage("ex:a2", "ex:e2", nil, prov.With(prov.AttrRole, "input"))
	must(t, r, err)

	blank := func(ds *ld.RDFDataset, graph string) string {
		for _, q := range ds.Graphs[graph] {
			if ld.IsBlankNode(q.Subject) {
				return nodeKey(q.Subject)
			}
		}
		return ""
	}
	for i := 0; i < 2; i++ {
		ds := Encode(d)
		assert.Equal(t, "_:b1", blank(ds, DefaultGraph))
		assert.Equal(t, "_:b2", blank(ds, ex+"b1"))
	}
}

func TestEncode_IdentifiedRelationHasNoDirectTriple(t *testing.T) {
	d := newTestDocument(t)
	r, err := d.Usage("ex:a1", "ex:e1", nil, prov.WithID("ex:u1"))
	must(t, r, err)

	for _, q := range Encode(d).Graphs[DefaultGraph] {
		assert.NotEqual(t, "<"+vocab.Prov("used")+">", nodeKey(q.Predicate))
	}
}

func TestEncode_AlternateIsNeverQualified(t *testing.T) {
	d := newTestDocument(t)
	r, err := d.Alternate("ex:e1", "ex:e2", prov.WithID("ex:alt"))
	must(t, r, err)

	quads := Encode(d).Graphs[DefaultGraph]
	require.Len(t, quads, 1)
	assert.Equal(t, "<"+ex+"e2>", nodeKey(quads[0].Subject))
	assert.Equal(t, "<"+ex+"e1>", nodeKey(quads[0].Object))
}

func TestEncode_DoesNotModifyDocument(t *testing.T) {
	d := newTestDocument(t)
	r, err := d.Usage("ex:a1", "ex:e1", nil, prov.With(prov.AttrRole, "input"))
	must(t, r, err)
	before := d.String()

	Encode(d)
	Encode(d)

	assert.Equal(t, before, d.String())
}

const ambiguousUsage = `<http://example.org/a> <http://www.w3.org/ns/prov#qualifiedUsage> _:q .
_:q <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/prov#Usage> .
_:q <http://www.w3.org/ns/prov#entity> <http://example.org/e1> .
_:q <http://www.w3.org/ns/prov#entity> <http://example.org/e2> .
`

func TestDecode_AmbiguousSlotIsReported(t *testing.T) {
	res, err := Unmarshal([]byte(ambiguousUsage), FormatNQuads, quietOptions())
	require.NoError(t, err)

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, prov.ErrCodeUnsupportedWireConstruct, res.Diagnostics[0].Code)

	usages := res.Document.GetRecords(prov.KindUsage)
	require.Len(t, usages, 1)
	assert.Nil(t, usages[0].Value(prov.AttrEntity), "the ambiguous slot is left absent")
	assert.Equal(t, ex+"a", usages[0].Value(prov.AttrActivity).(prov.QualifiedName).URI())
}

func TestDecode_StrictFailsOnAmbiguousSlot(t *testing.T) {
	opts := quietOptions()
	opts.Strict = true

	_, err := Unmarshal([]byte(ambiguousUsage), FormatNQuads, opts)
	require.Error(t, err)
	assert.True(t, prov.IsUnsupportedWireConstruct(err))
}

func TestDecode_NamespacePrefixes(t *testing.T) {
	data := []byte(`<http://example.org/e1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/prov#Entity> .
`)

	res, err := Unmarshal(data, FormatNQuads, quietOptions())
	require.NoError(t, err)
	e := res.Document.Records()[0]
	assert.Equal(t, "ns1:e1", e.Identifier().String())

	opts := quietOptions()
	opts.Namespaces = map[string]string{"ex": ex}
	res, err = Unmarshal(data, FormatNQuads, opts)
	require.NoError(t, err)
	assert.Equal(t, "ex:e1", res.Document.Records()[0].Identifier().String())
}

func TestDecode_Diagnostics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  prov.ErrorCode
	}{
		{
			name:  "subject without PROV class",
			input: `<http://example.org/x> <http://example.org/p> "v" .` + "\n",
			code:  prov.ErrCodeUnsupportedWireConstruct,
		},
		{
			name:  "blank node element",
			input: `_:e <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/prov#Entity> .` + "\n",
			code:  prov.ErrCodeMissingIdentifier,
		},
		{
			name: "blank node attribute value",
			input: `<http://example.org/e> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/prov#Entity> .
<http://example.org/e> <http://example.org/p> _:v .
`,
			code: prov.ErrCodeUnsupportedWireConstruct,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Unmarshal([]byte(tt.input), FormatNQuads, quietOptions())
			require.NoError(t, err)
			require.NotEmpty(t, res.Diagnostics)
			assert.Equal(t, tt.code, res.Diagnostics[0].Code)
		})
	}
}

func TestDecode_DirectPropertiesWithoutQualifiedNode(t *testing.T) {
	ds := ld.NewRDFDataset()
	ds.Graphs[DefaultGraph] = []*ld.Quad{
		ld.NewQuad(ld.NewIRI(ex+"e2"), ld.NewIRI(vocab.Prov("wasRevisionOf")), ld.NewIRI(ex+"e1"), DefaultGraph),
		ld.NewQuad(ld.NewIRI(ex+"e1"), ld.NewIRI(vocab.Prov("alternateOf")), ld.NewIRI(ex+"e0"), DefaultGraph),
	}

	res, err := Decode(ds, quietOptions())
	require.NoError(t, err)

	derivations := res.Document.GetRecords(prov.KindDerivation)
	require.Len(t, derivations, 1)
	types := derivations[0].AssertedTypes()
	require.Len(t, types, 1)
	assert.True(t, types[0].(prov.QualifiedName).Equal(prov.TypeRevision))

	alternates := res.Document.GetRecords(prov.KindAlternate)
	require.Len(t, alternates, 1)
	assert.Equal(t, ex+"e0", alternates[0].Value(prov.AttrAlternate1).(prov.QualifiedName).URI())
	assert.Equal(t, ex+"e1", alternates[0].Value(prov.AttrAlternate2).(prov.QualifiedName).URI())
}

func TestDecode_NonIRIPredicateIsReported(t *testing.T) {
	ds := ld.NewRDFDataset()
	ds.Graphs[DefaultGraph] = []*ld.Quad{
		ld.NewQuad(ld.NewIRI(ex+"e"), ld.NewIRI(vocab.RdfType), ld.NewIRI(vocab.Prov("Entity")), DefaultGraph),
		ld.NewQuad(ld.NewIRI(ex+"e"), ld.NewBlankNode("_:p"), ld.NewLiteral("v", "", ""), DefaultGraph),
	}

	res, err := Decode(ds, quietOptions())
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "_:p", res.Diagnostics[0].Predicate)
	assert.Len(t, res.Document.GetRecords(prov.KindEntity), 1)

	opts := quietOptions()
	opts.Strict = true
	_, err = Decode(ds, opts)
	assert.True(t, prov.IsUnsupportedWireConstruct(err))
}

func TestDecode_EntityMentionedInTwoBundlesIsReported(t *testing.T) {
	d := newTestDocument(t)
	r, err := d.Mention("ex:e1", "ex:e0", "ex:b1")
	must(t, r, err)
	r, err = d.Mention("ex:e1", "ex:e2", "ex:b2")
	must(t, r, err)

	data, err := Marshal(d, FormatNQuads)
	require.NoError(t, err)

	res, err := Unmarshal(data, FormatNQuads, quietOptions())
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "<"+vocab.ProvAsInBundle+">", res.Diagnostics[0].Predicate)
	assert.Len(t, res.Document.GetRecords(prov.KindMention), 2)

	opts := quietOptions()
	opts.Strict = true
	_, err = Unmarshal(data, FormatNQuads, opts)
	assert.True(t, prov.IsUnsupportedWireConstruct(err))
}

func TestDecode_BareUsageMergesWithQualifiedUsage(t *testing.T) {
	d := newTestDocument(t)
	r, err := d.Usage("ex:a1", "ex:e1", nil)
	must(t, r, err)
	r, err = d.Usage("ex:a1", "ex:e1", nil, prov.With(prov.AttrRole, "input"))
	must(t, r, err)

	data, err := Marshal(d, FormatNQuads)
	require.NoError(t, err)

	res, err := Unmarshal(data, FormatNQuads, quietOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
	usages := res.Document.GetRecords(prov.KindUsage)
	require.Len(t, usages, 1, "the direct triple is shared by both records")
	assert.NotNil(t, usages[0].Value(prov.AttrRole))
}
