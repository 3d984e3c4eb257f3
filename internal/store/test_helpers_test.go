package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/provkit/internal/prov"
	"github.com/roach88/provkit/internal/testutil"
)

const ex = "http://example.org/"

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestStore opens a store in a temp dir with deterministic IDs,
// seq and timestamps.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithClock(testutil.NewDeterministicClock()),
		WithIDGenerator(testutil.NewFixedIDGenerator()),
		WithNow(func() time.Time { return fixedNow }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestDocument builds a small document with one bundle. Entities
// named in extra are added to the top level.
func createTestDocument(t *testing.T, extra ...string) *prov.Document {
	t.Helper()
	d := prov.NewDocument()
	d.AddNamespacePrefix("ex", ex)

	_, err := d.Entity("ex:report", prov.With(prov.AttrLabel, "Quarterly report"))
	require.NoError(t, err)
	_, err = d.Activity("ex:compile", nil, nil)
	require.NoError(t, err)
	_, err = d.Generation("ex:report", "ex:compile", nil, prov.With(prov.AttrRole, "ex:output"))
	require.NoError(t, err)
	for _, id := range extra {
		_, err = d.Entity(id)
		require.NoError(t, err)
	}

	b, err := d.CreateBundle("ex:bundle1")
	require.NoError(t, err)
	_, err = b.Agent("ex:alice")
	require.NoError(t, err)
	_, err = b.Attribution("ex:report", "ex:alice")
	require.NoError(t, err)
	return d
}
