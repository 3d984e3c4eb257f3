package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const usageNQuads = `<http://example.org/a1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/prov#Activity> .
<http://example.org/e1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/prov#Entity> .
<http://example.org/a1> <http://www.w3.org/ns/prov#used> <http://example.org/e1> .
`

const bundledNQuads = `<http://example.org/a1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/prov#Activity> <http://example.org/b1> .
<http://example.org/e1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/prov#Entity> <http://example.org/b1> .
<http://example.org/a1> <http://www.w3.org/ns/prov#used> <http://example.org/e1> <http://example.org/b1> .
`

const ambiguousNQuads = `<http://example.org/a1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/prov#Activity> .
<http://example.org/a1> <http://www.w3.org/ns/prov#qualifiedUsage> _:u1 .
_:u1 <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/prov#Usage> .
_:u1 <http://www.w3.org/ns/prov#entity> <http://example.org/e1> .
_:u1 <http://www.w3.org/ns/prov#entity> <http://example.org/e2> .
`

// writeInput writes content to name in a fresh temp dir.
func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns its standard output.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func textOpts() *RootOptions {
	return &RootOptions{Format: "text"}
}

func jsonOpts() *RootOptions {
	return &RootOptions{Format: "json"}
}
