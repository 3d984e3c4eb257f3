package canonical

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provkit/internal/prov"
)

func TestMarshalJSONBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"min int64", int64(-9223372036854775808), "-9223372036854775808"},
		{"bool", true, "true"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"string slice", []string{"b", "a"}, `["b","a"]`},
		{"sorted keys", map[string]any{"zebra": 1, "alpha": 2}, `{"alpha":2,"zebra":1}`},
		{"string map", map[string]string{"xsd": "x", "ex": "e"}, `{"ex":"e","xsd":"x"}`},
		{"no html escape", "<a&b>", `"<a&b>"`},
		{"control characters", "a\nb\u0001", `"a\nb\u0001"`},
		{"line separator kept", "a\u2028b", "\"a\u2028b\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalJSON(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalJSONForbidden(t *testing.T) {
	for _, v := range []any{nil, 1.5, float32(2), struct{}{}, []any{nil}} {
		_, err := MarshalJSON(v)
		assert.Error(t, err, "%#v", v)
	}
}

func TestMarshalJSONUTF16Ordering(t *testing.T) {
	// U+10000 encodes as the surrogate pair 0xD800 0xDC00, which sorts
	// before 0xE000 in UTF-16 but after it in UTF-8.
	obj := map[string]any{
		"\uE000":     1,
		"\U00010000": 2,
	}
	result, err := MarshalJSON(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalJSONNormalizesNFC(t *testing.T) {
	decomposed, err := MarshalJSON("e\u0301")
	require.NoError(t, err)
	composed, err := MarshalJSON("\u00e9")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func buildDocument(t *testing.T, order []string) *prov.Document {
	t.Helper()
	d := prov.NewDocument()
	d.AddNamespacePrefix("ex", "http://example.org/")
	for _, id := range order {
		_, err := d.Entity(id)
		require.NoError(t, err)
		_, err = d.Usage("ex:a1", id, nil, prov.With(prov.AttrRole, id))
		require.NoError(t, err)
	}
	return d
}

func TestNQuads_IndependentOfRecordOrder(t *testing.T) {
	a, err := NQuads(buildDocument(t, []string{"ex:e1", "ex:e2"}))
	require.NoError(t, err)
	b, err := NQuads(buildDocument(t, []string{"ex:e2", "ex:e1"}))
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
	assert.True(t, strings.HasSuffix(string(a), "\n"))
	assert.Contains(t, string(a), "_:c14n", "blank nodes are relabelled")
}

func TestDocumentHash(t *testing.T) {
	h1 := MustDocumentHash(buildDocument(t, []string{"ex:e1", "ex:e2"}))
	h2 := MustDocumentHash(buildDocument(t, []string{"ex:e2", "ex:e1"}))
	h3 := MustDocumentHash(buildDocument(t, []string{"ex:e1"}))

	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestDocumentHash_IgnoresPrefixes(t *testing.T) {
	a := prov.NewDocument()
	a.AddNamespacePrefix("ex", "http://example.org/")
	_, err := a.Entity("ex:e1")
	require.NoError(t, err)

	b := prov.NewDocument()
	b.AddNamespacePrefix("other", "http://example.org/")
	_, err = b.Entity("other:e1")
	require.NoError(t, err)

	assert.Equal(t, MustDocumentHash(a), MustDocumentHash(b))

	na, err := NamespacesHash(a)
	require.NoError(t, err)
	nb, err := NamespacesHash(b)
	require.NoError(t, err)
	assert.NotEqual(t, na, nb)
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte("same")
	assert.NotEqual(t, hashWithDomain(DomainDocument, data), hashWithDomain(DomainNamespaces, data))
	assert.Equal(t, NQuadsHash(data), hashWithDomain(DomainDocument, data))
}
