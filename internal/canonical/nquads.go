package canonical

import (
	"fmt"
	"sort"
	"strings"

	"github.com/piprate/json-gold/ld"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/provkit/internal/prov"
	"github.com/roach88/provkit/internal/provrdf"
)

// NQuads renders doc as canonical N-Quads: NFC-normalised, blank nodes
// relabelled with URDNA2015 and lines sorted. Documents that are equal as
// record sets produce the same bytes whatever their record order.
func NQuads(doc *prov.Document) ([]byte, error) {
	raw, err := provrdf.Marshal(doc, provrdf.FormatNQuads)
	if err != nil {
		return nil, err
	}
	return NormalizeNQuads(raw)
}

// NormalizeNQuads canonicalises an N-Quads document.
func NormalizeNQuads(data []byte) ([]byte, error) {
	opts := ld.NewJsonLdOptions("")
	opts.Algorithm = "URDNA2015"
	opts.InputFormat = "application/n-quads"
	opts.Format = "application/n-quads"

	out, err := ld.NewJsonLdProcessor().Normalize(norm.NFC.String(string(data)), opts)
	if err != nil {
		return nil, fmt.Errorf("normalize n-quads: %w", err)
	}
	s, ok := out.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected normalize result %T", out)
	}

	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	lines = sortUnique(lines)
	if len(lines) == 0 {
		return nil, nil
	}
	return []byte(strings.Join(lines, "\n") + "\n"), nil
}

func sortUnique(lines []string) []string {
	out := lines[:0]
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
