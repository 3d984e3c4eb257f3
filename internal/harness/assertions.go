package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/provkit/internal/prov"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Context  string // Optional PROV-N of the inspected bundle
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Context != "" {
		fmt.Fprintf(&buf, "\n%s\n", e.Context)
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion against result and returns the
// failure messages. Assertions about the document fail when decoding did.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRecordCount:
			err = withBundle(result, assertion, assertRecordCount)
		case AssertHasRecord:
			err = withBundle(result, assertion, assertHasRecord)
		case AssertBundleCount:
			err = assertBundleCount(result, assertion)
		case AssertDiagnostics:
			err = assertDiagnostics(result, assertion)
		case AssertDecodeError:
			err = assertDecodeError(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

// withBundle resolves the bundle an assertion targets and runs check on it.
func withBundle(result *Result, a Assertion, check func(*prov.Bundle, Assertion) error) error {
	if result.Document == nil {
		return &AssertionError{Type: a.Type, Expected: "a decoded document", Actual: "decoding failed: " + result.DecodeError}
	}
	b := &result.Document.Bundle
	if a.Bundle != "" {
		found, ok := result.Document.GetBundle(a.Bundle)
		if !ok {
			found, ok = bundleByURI(result.Document, a.Bundle)
		}
		if !ok {
			return &AssertionError{Type: a.Type, Expected: "bundle " + a.Bundle, Actual: "no such bundle"}
		}
		b = found
	}
	return check(b, a)
}

func bundleByURI(doc *prov.Document, uri string) (*prov.Bundle, bool) {
	for _, b := range doc.Bundles() {
		if b.Identifier().URI() == uri {
			return b, true
		}
	}
	return nil, false
}

// recordsOfKind returns the records of the named kind, or all records.
func recordsOfKind(b *prov.Bundle, kind string) []*prov.Record {
	if kind == "" {
		return b.Records()
	}
	k, ok := prov.KindByProvN(kind)
	if !ok {
		return nil
	}
	return b.GetRecords(k)
}

func assertRecordCount(b *prov.Bundle, a Assertion) error {
	got := len(recordsOfKind(b, a.Kind))
	if got == a.Count {
		return nil
	}
	what := "records"
	if a.Kind != "" {
		what = a.Kind + " records"
	}
	return &AssertionError{
		Type:     AssertRecordCount,
		Expected: fmt.Sprintf("%d %s", a.Count, what),
		Actual:   fmt.Sprintf("%d %s", got, what),
		Context:  b.String(),
	}
}

func assertHasRecord(b *prov.Bundle, a Assertion) error {
	for _, r := range recordsOfKind(b, a.Kind) {
		if a.ID != "" && !idMatches(r, a.ID) {
			continue
		}
		if attributesMatch(r, a.Attributes) {
			return nil
		}
	}
	expected := a.Kind
	if a.ID != "" {
		expected += " " + a.ID
	}
	if len(a.Attributes) > 0 {
		expected += " with " + formatAttributes(a.Attributes)
	}
	return &AssertionError{
		Type:     AssertHasRecord,
		Expected: expected,
		Actual:   "no matching record",
		Context:  b.String(),
	}
}

func idMatches(r *prov.Record, want string) bool {
	id := r.Identifier()
	return id.String() == want || id.URI() == want
}

// attributesMatch is a subset match: every expected key must have at least
// one value that renders as the expected string.
func attributesMatch(r *prov.Record, want map[string]string) bool {
	for key, expected := range want {
		found := false
		for _, v := range r.Get(key) {
			if valueMatches(v, expected) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// valueMatches compares a value with its PROV-N rendering. Plain strings
// also match without quotes, and qualified names by full URI.
func valueMatches(v prov.Value, want string) bool {
	if prov.FormatValue(v) == want {
		return true
	}
	switch x := v.(type) {
	case prov.String:
		return string(x) == want
	case prov.QualifiedName:
		return x.URI() == want
	case prov.Time:
		return prov.FormatTime(x.Time) == want
	}
	return false
}

func formatAttributes(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + attrs[k]
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func assertBundleCount(result *Result, a Assertion) error {
	got := 0
	if result.Document != nil {
		got = len(result.Document.Bundles())
	}
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertBundleCount,
		Expected: fmt.Sprintf("%d bundles", a.Count),
		Actual:   fmt.Sprintf("%d bundles", got),
	}
}

func assertDiagnostics(result *Result, a Assertion) error {
	var matched []string
	for _, d := range result.Diagnostics {
		if a.Code == "" || string(d.Code) == a.Code {
			matched = append(matched, d.String())
		}
	}
	if len(matched) == a.Count {
		return nil
	}
	what := "diagnostics"
	if a.Code != "" {
		what = a.Code + " diagnostics"
	}
	return &AssertionError{
		Type:     AssertDiagnostics,
		Expected: fmt.Sprintf("%d %s", a.Count, what),
		Actual:   fmt.Sprintf("%d %s", len(matched), what),
		Context:  strings.Join(matched, "\n"),
	}
}

func assertDecodeError(result *Result, a Assertion) error {
	if result.DecodeError != "" && strings.Contains(result.DecodeError, a.Contains) {
		return nil
	}
	actual := "decoding succeeded"
	if result.DecodeError != "" {
		actual = result.DecodeError
	}
	return &AssertionError{
		Type:     AssertDecodeError,
		Expected: fmt.Sprintf("decode error containing %q", a.Contains),
		Actual:   actual,
	}
}
