package harness

import (
	"sort"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/provkit/internal/canonical"
	"github.com/roach88/provkit/internal/prov"
)

// topLevelGraph keys the document's own records in a Snapshot.
const topLevelGraph = "document"

// Snapshot is the golden-file view of a scenario result: PROV-N lines per
// graph, sorted, plus the decoder's diagnostics in order.
type Snapshot struct {
	ScenarioName string              `json:"scenario_name"`
	Records      map[string][]string `json:"records"`
	Diagnostics  []string            `json:"diagnostics"`
}

// NewSnapshot builds the snapshot of result. Bundles are keyed by URI.
func NewSnapshot(name string, result *Result) *Snapshot {
	s := &Snapshot{
		ScenarioName: name,
		Records:      map[string][]string{},
		Diagnostics:  []string{},
	}
	if doc := result.Document; doc != nil {
		s.Records[topLevelGraph] = recordLines(&doc.Bundle)
		for _, b := range doc.Bundles() {
			s.Records[b.Identifier().URI()] = recordLines(b)
		}
	}
	for _, d := range result.Diagnostics {
		s.Diagnostics = append(s.Diagnostics, d.String())
	}
	return s
}

func recordLines(b *prov.Bundle) []string {
	lines := make([]string, 0, b.Len())
	for _, r := range b.Records() {
		lines = append(lines, r.String())
	}
	sort.Strings(lines)
	return lines
}

// toCanonicalMap converts a Snapshot for canonical JSON serialization,
// which only handles plain maps, slices and scalars.
func (s *Snapshot) toCanonicalMap() map[string]any {
	records := make(map[string]any, len(s.Records))
	for graph, lines := range s.Records {
		records[graph] = lines
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"records":       records,
		"diagnostics":   s.Diagnostics,
	}
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s *Snapshot) MarshalCanonical() ([]byte, error) {
	return canonical.MarshalJSON(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can assert on it further, or an error if
// the scenario could not be executed.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
