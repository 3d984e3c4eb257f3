package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/provkit/internal/prov"
	"github.com/roach88/provkit/internal/provrdf"
)

// Scenario defines a round-trip test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Namespaces seeds prefix bindings for decoding.
	Namespaces map[string]string `yaml:"namespaces,omitempty"`

	// Strict makes any decode diagnostic fatal.
	Strict bool `yaml:"strict,omitempty"`

	Input Input `yaml:"input"`

	// Transform is applied after decoding: "", "unified" or "flattened".
	Transform string `yaml:"transform,omitempty"`

	// RoundTrip lists decodable formats (or "store") the document must
	// survive unchanged.
	RoundTrip []string `yaml:"roundtrip,omitempty"`

	Assertions []Assertion `yaml:"assertions"`

	// dir is the scenario file's directory, for resolving Input.File.
	dir string
}

// Input is the RDF a scenario decodes.
type Input struct {
	// Format is a wire format name; defaults to nquads.
	Format string `yaml:"format,omitempty"`

	// Data is inline RDF. Exactly one of Data and File is set.
	Data string `yaml:"data,omitempty"`

	// File is a path relative to the scenario file.
	File string `yaml:"file,omitempty"`
}

// Assertion validates the decoded document.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Kind is a PROV-N keyword such as "entity" or "wasDerivedFrom".
	Kind string `yaml:"kind,omitempty"`

	// Bundle restricts record assertions to a bundle (prefixed name or
	// URI). Empty means the top level.
	Bundle string `yaml:"bundle,omitempty"`

	// ID is the expected record identifier (has_record).
	ID string `yaml:"id,omitempty"`

	// Attributes are expected attribute values (has_record). Subset match.
	Attributes map[string]string `yaml:"attributes,omitempty"`

	// Count is the expected number (record_count, bundle_count, diagnostics).
	Count int `yaml:"count,omitempty"`

	// Code filters diagnostics by error code.
	Code string `yaml:"code,omitempty"`

	// Contains is the expected decode error substring (decode_error).
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertRecordCount = "record_count"
	AssertHasRecord   = "has_record"
	AssertBundleCount = "bundle_count"
	AssertDiagnostics = "diagnostics"
	AssertDecodeError = "decode_error"
)

// Transform names.
const (
	TransformUnified   = "unified"
	TransformFlattened = "flattened"
)

// RoundTripStore is the pseudo-format that round-trips through the store.
const RoundTripStore = "store"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	s.dir = filepath.Dir(path)
	if s.Input.File != "" {
		if _, err := os.Stat(s.inputPath()); err != nil {
			return nil, fmt.Errorf("invalid scenario: input file: %w", err)
		}
	}
	return s, nil
}

// ParseScenario parses scenario YAML. Input files resolve against the
// working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict fields catch typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func (s *Scenario) inputPath() string {
	if filepath.IsAbs(s.Input.File) || s.dir == "" {
		return s.Input.File
	}
	return filepath.Join(s.dir, s.Input.File)
}

// inputFormat returns the parsed input format.
func (s *Scenario) inputFormat() (provrdf.Format, error) {
	return provrdf.ParseFormat(s.Input.Format)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if (s.Input.Data == "") == (s.Input.File == "") {
		return fmt.Errorf("input: exactly one of data and file is required")
	}
	f, err := s.inputFormat()
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if info, _ := provrdf.GetFormatInfo(f); !info.Decodable {
		return fmt.Errorf("input: format %s is write-only", f)
	}

	switch s.Transform {
	case "", TransformUnified, TransformFlattened:
	default:
		return fmt.Errorf("unknown transform %q", s.Transform)
	}

	for i, name := range s.RoundTrip {
		if name == RoundTripStore {
			continue
		}
		f, err := provrdf.ParseFormat(name)
		if err != nil {
			return fmt.Errorf("roundtrip[%d]: %w", i, err)
		}
		if info, _ := provrdf.GetFormatInfo(f); !info.Decodable {
			return fmt.Errorf("roundtrip[%d]: format %s is write-only", i, f)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Kind != "" {
		if _, ok := prov.KindByProvN(a.Kind); !ok {
			return fmt.Errorf("assertions[%d]: unknown record kind %q", index, a.Kind)
		}
	}

	switch a.Type {
	case AssertRecordCount, AssertBundleCount, AssertDiagnostics:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertHasRecord:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for has_record", index)
		}
	case AssertDecodeError:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for decode_error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
