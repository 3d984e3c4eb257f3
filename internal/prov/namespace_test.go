package prov

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespaceManager_PrefixConflictIsRenamed(t *testing.T) {
	m := NewNamespaceManager(nil)

	first := m.AddPrefix("ex", "http://a.example/")
	second := m.AddPrefix("ex", "http://b.example/")

	assert.Equal(t, "ex", first.Prefix())
	assert.Regexp(t, `^ex(_\d+)?$`, second.Prefix())
	assert.NotEqual(t, first.Prefix(), second.Prefix())
	assert.Len(t, m.Registered(), 2)

	// The original prefix string resolves to the first binding.
	q, ok := m.ValidQualifiedName("ex:thing")
	require.True(t, ok)
	assert.Equal(t, "http://a.example/thing", q.URI())

	// The live namespace object resolves to its renamed binding.
	q2, ok := m.ValidQualifiedName(NewNamespace("ex", "http://b.example/").Q("thing"))
	require.True(t, ok)
	assert.Equal(t, "http://b.example/thing", q2.URI())
	assert.Equal(t, second.Prefix()+":thing", q2.String())

	// Adding the same namespace again is a no-op.
	again := m.AddPrefix("ex", "http://b.example/")
	assert.Equal(t, second.Prefix(), again.Prefix())
	assert.Len(t, m.Registered(), 2)
}

func TestNamespaceManager_SameURIReusesNamespace(t *testing.T) {
	m := NewNamespaceManager(nil)
	ex := m.AddPrefix("ex", "http://example.org/")
	alias := m.AddPrefix("other", "http://example.org/")

	assert.Same(t, ex, alias)
	q, ok := m.ValidQualifiedName("other:x")
	require.True(t, ok)
	assert.Equal(t, "ex:x", q.String())
}

func TestNamespaceManager_ValidQualifiedName(t *testing.T) {
	parent := NewNamespaceManager(nil)
	parent.AddPrefix("up", "http://parent.example/")

	m := NewNamespaceManager(parent)
	m.AddPrefix("ex", "http://example.org/")
	m.AddPrefix("exns", "http://example.org/ns/")
	m.SetDefault("http://default.example/")

	tests := []struct {
		name  string
		input any
		uri   string
		ok    bool
	}{
		{"prefixed", "ex:e1", "http://example.org/e1", true},
		{"full URI", "http://example.org/e1", "http://example.org/e1", true},
		{"longest URI match", "http://example.org/ns/e1", "http://example.org/ns/e1", true},
		{"bare string uses default", "e1", "http://default.example/e1", true},
		{"parent prefix", "up:x", "http://parent.example/x", true},
		{"blank node", "_:b0", "", false},
		{"unknown prefix", "nope:x", "", false},
		{"empty", "", "", false},
		{"nil", nil, "", false},
		{"unsupported type", 42, "", false},
		{"identifier", Identifier("http://example.org/e2"), "http://example.org/e2", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, ok := m.ValidQualifiedName(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.uri, q.URI())
			}
		})
	}
}

func TestNamespaceManager_DefaultNamespaceConflictUsesDN(t *testing.T) {
	m := NewNamespaceManager(nil)
	m.SetDefault("http://one.example/")

	q, ok := m.ValidQualifiedName(NewNamespace("", "http://two.example/").Q("x"))
	require.True(t, ok)
	assert.Equal(t, "dn:x", q.String())
	assert.Equal(t, "http://two.example/x", q.URI())

	same, ok := m.ValidQualifiedName(NewNamespace("", "http://one.example/").Q("y"))
	require.True(t, ok)
	assert.Equal(t, "y", same.String())
}

func TestNamespaceManager_AdoptsDefaultWhenUnset(t *testing.T) {
	m := NewNamespaceManager(nil)
	q, ok := m.ValidQualifiedName(NewNamespace("", "http://one.example/").Q("x"))
	require.True(t, ok)
	require.NotNil(t, m.Default())
	assert.Equal(t, "http://one.example/", m.Default().URI())
	assert.Equal(t, "x", q.String())
}

func TestNamespaceManager_AnonymousIdentifiersArePerManager(t *testing.T) {
	a := NewNamespaceManager(nil)
	b := NewNamespaceManager(nil)

	assert.Equal(t, Identifier("_:id1"), a.AnonymousIdentifier(""))
	assert.Equal(t, Identifier("_:id2"), a.AnonymousIdentifier(""))
	assert.Equal(t, Identifier("_:id1"), b.AnonymousIdentifier(""))
	assert.Equal(t, Identifier("_:n3"), a.AnonymousIdentifier("n"))
}

func TestQualifiedName_EqualityIsByURI(t *testing.T) {
	a := NewNamespace("a", "http://example.org/").Q("x")
	b := NewNamespace("b", "http://example.org/").Q("x")

	assert.True(t, a.Equal(b))
	assert.NotEqual(t, a.String(), b.String())
	assert.True(t, QualifiedName{}.Equal(QualifiedName{}))
	assert.False(t, a.Equal(QualifiedName{}))
}
