package prov

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/provkit/internal/vocab"
)

// Value is a sealed interface for attribute values.
// Only QualifiedName, Identifier, Literal, Time, String, Int, Float and Bool
// implement it.
type Value interface {
	provValue()
}

// String is a plain text value (xsd:string).
type String string

func (String) provValue() {}

// Int is an integer value (xsd:int / xsd:long).
type Int int64

func (Int) provValue() {}

// Float is a floating point value (xsd:double).
type Float float64

func (Float) provValue() {}

// Bool is a boolean value (xsd:boolean).
type Bool bool

func (Bool) provValue() {}

// Time is a timestamp value (xsd:dateTime).
type Time struct {
	time.Time
}

func (Time) provValue() {}

// NewTime wraps t as a Value.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// Well-known datatypes and attribute keys.
var (
	XSDString   = XSD.Q("string")
	XSDDouble   = XSD.Q("double")
	XSDLong     = XSD.Q("long")
	XSDInt      = XSD.Q("int")
	XSDBoolean  = XSD.Q("boolean")
	XSDDateTime = XSD.Q("dateTime")
	XSDAnyURI   = XSD.Q("anyURI")
	XSDQName    = XSD.Q("QName")

	ProvInternationalizedString = PROV.Q("InternationalizedString")
)

// Literal is a string value with an optional datatype and language tag.
type Literal struct {
	value    string
	datatype QualifiedName
	lang     string
}

func (Literal) provValue() {}

// NewLiteral creates a literal. A language tag without a datatype defaults
// the datatype to prov:InternationalizedString; a language tag with any other
// datatype overrides it to the same, with a warning.
func NewLiteral(value string, datatype QualifiedName, lang string) Literal {
	if lang != "" {
		if datatype.IsZero() {
			datatype = ProvInternationalizedString
		} else if !datatype.Equal(ProvInternationalizedString) {
			slog.Warn("literal with a language tag must be prov:InternationalizedString, overriding datatype",
				"value", value,
				"datatype", datatype.String(),
				"lang", lang,
			)
			datatype = ProvInternationalizedString
		}
	}
	return Literal{value: value, datatype: datatype, lang: lang}
}

// Value returns the lexical form.
func (l Literal) Value() string { return l.value }

// Datatype returns the datatype, or the zero QualifiedName.
func (l Literal) Datatype() QualifiedName { return l.datatype }

// Lang returns the language tag, or "".
func (l Literal) Lang() string { return l.lang }

// ProvN renders the literal in PROV-N notation.
func (l Literal) ProvN() string {
	if l.lang != "" {
		return fmt.Sprintf("%s@%s", quoteProvN(l.value), l.lang)
	}
	return fmt.Sprintf("%s %%%% %s", quoteProvN(l.value), l.datatype)
}

func (l Literal) String() string {
	return l.ProvN()
}

// ParseTime parses an xsd:dateTime lexical value.
// Zone-less values are read as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05Z0700",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid xsd:dateTime %q", s)
}

// FormatTime renders a time as an xsd:dateTime lexical value.
func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseBoolean(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// ParseXSD converts a lexical value to the native Value of a standard XSD
// datatype: string, double, long, int, boolean, dateTime and anyURI.
// It returns false when the datatype is not one of these or the value does
// not parse.
func ParseXSD(value string, datatype QualifiedName) (Value, bool) {
	switch datatype.URI() {
	case vocab.XsdString:
		return String(value), true
	case vocab.XsdDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, false
		}
		return Float(f), true
	case vocab.XsdLong, vocab.XsdInt:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, false
		}
		return Int(n), true
	case vocab.XsdBoolean:
		b, ok := parseBoolean(value)
		if !ok {
			return nil, false
		}
		return Bool(b), true
	case vocab.XsdDateTime:
		t, err := ParseTime(value)
		if err != nil {
			return nil, false
		}
		return NewTime(t), true
	case vocab.XsdAnyURI:
		return Identifier(value), true
	}
	return nil, false
}

// ValuesEqual reports whether two values are equal. Qualified names compare
// by URI and times by instant.
func ValuesEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return valueKey(a) == valueKey(b)
}

// valueKey is a canonical text form used for set membership.
func valueKey(v Value) string {
	switch x := v.(type) {
	case QualifiedName:
		return "q:" + x.URI()
	case Identifier:
		return "i:" + string(x)
	case Literal:
		return "l:" + x.value + "\x00" + x.datatype.URI() + "\x00" + x.lang
	case Time:
		return "t:" + x.UTC().Format(time.RFC3339Nano)
	case String:
		return "s:" + string(x)
	case Int:
		return "n:" + strconv.FormatInt(int64(x), 10)
	case Float:
		return "f:" + strconv.FormatFloat(float64(x), 'g', -1, 64)
	case Bool:
		return "b:" + strconv.FormatBool(bool(x))
	}
	return fmt.Sprintf("?:%v", v)
}

// FormatValue renders a value in PROV-N notation.
func FormatValue(v Value) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case QualifiedName:
		return x.String()
	case Identifier:
		return fmt.Sprintf("%s %%%% xsd:anyURI", quoteProvN(string(x)))
	case Literal:
		return x.ProvN()
	case Time:
		return fmt.Sprintf("%s %%%% xsd:dateTime", quoteProvN(FormatTime(x.Time)))
	case String:
		return quoteProvN(string(x))
	case Int:
		return strconv.FormatInt(int64(x), 10)
	case Float:
		return fmt.Sprintf("\"%s\" %%%% xsd:double", strconv.FormatFloat(float64(x), 'g', -1, 64))
	case Bool:
		if x {
			return "\"true\" %% xsd:boolean"
		}
		return "\"false\" %% xsd:boolean"
	}
	return fmt.Sprint(v)
}

// formatFormal renders a formal attribute value in a PROV-N argument list.
func formatFormal(v Value) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case Time:
		return FormatTime(x.Time)
	case QualifiedName:
		return x.String()
	}
	return FormatValue(v)
}

func quoteProvN(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	if strings.Contains(s, "\n") {
		return `"""` + s + `"""`
	}
	return `"` + s + `"`
}
