package provrdf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/piprate/json-gold/ld"

	"github.com/roach88/provkit/internal/prov"
	"github.com/roach88/provkit/internal/vocab"
)

// Format names a wire serialization.
type Format string

const (
	// FormatNQuads writes bundles as named graphs. It is the default.
	FormatNQuads Format = "nquads"

	// FormatNTriples writes the flattened document as plain triples.
	FormatNTriples Format = "ntriples"

	// FormatJSONLD writes compacted JSON-LD with a @context of the
	// document's prefixes.
	FormatJSONLD Format = "jsonld"

	// FormatTurtle writes the flattened document as prefixed Turtle.
	FormatTurtle Format = "turtle"

	// FormatTriG writes Turtle with one block per named graph.
	FormatTriG Format = "trig"
)

// FormatInfo provides metadata about a wire format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string

	// Decodable is false for write-only formats.
	Decodable bool
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatNQuads: {
		Name:        FormatNQuads,
		MIMEType:    "application/n-quads",
		Extension:   ".nq",
		Description: "N-Quads - line-based RDF with named graphs",
		Decodable:   true,
	},
	FormatNTriples: {
		Name:        FormatNTriples,
		MIMEType:    "application/n-triples",
		Extension:   ".nt",
		Description: "N-Triples - line-based RDF, bundles flattened",
		Decodable:   true,
	},
	FormatJSONLD: {
		Name:        FormatJSONLD,
		MIMEType:    "application/ld+json",
		Extension:   ".jsonld",
		Description: "JSON-LD - JSON for Linked Data",
		Decodable:   true,
	},
	FormatTurtle: {
		Name:        FormatTurtle,
		MIMEType:    "text/turtle",
		Extension:   ".ttl",
		Description: "Turtle - Terse RDF Triple Language, bundles flattened",
	},
	FormatTriG: {
		Name:        FormatTriG,
		MIMEType:    "application/trig",
		Extension:   ".trig",
		Description: "TriG - Turtle with named graphs",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// Formats lists the supported formats by name.
func Formats() []Format {
	out := make([]Format, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseFormat accepts a format name, a file extension or a MIME type.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatNQuads, nil
	}
	for _, info := range FormatRegistry {
		if s == string(info.Name) || s == info.MIMEType || s == info.Extension || "."+s == info.Extension {
			return info.Name, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// FormatForPath picks a format from a file extension.
func FormatForPath(path string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	for _, info := range FormatRegistry {
		if info.Extension == ext {
			return info.Name, true
		}
	}
	return "", false
}

// Serialize writes doc to w in the given format.
func Serialize(w io.Writer, doc *prov.Document, format Format) error {
	var out []byte
	var err error
	switch format {
	case FormatNQuads, "":
		out, err = nquads(Encode(doc))
	case FormatNTriples:
		var flat *prov.Document
		if flat, err = doc.Flattened(); err == nil {
			out, err = nquads(Encode(flat))
		}
	case FormatJSONLD:
		out, err = jsonld(doc)
	case FormatTurtle:
		var flat *prov.Document
		if flat, err = doc.Flattened(); err == nil {
			out = writeTurtle(flat, false)
		}
	case FormatTriG:
		out = writeTurtle(doc, true)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return fmt.Errorf("serialize %s: %w", format, err)
	}
	_, err = w.Write(out)
	return err
}

// Marshal is Serialize into a byte slice.
func Marshal(doc *prov.Document, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Serialize(&buf, doc, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize reads a document in the given format.
func Deserialize(r io.Reader, format Format, opts DecodeOptions) (*DecodeResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var ds *ld.RDFDataset
	switch format {
	case FormatNQuads, FormatNTriples, "":
		ds, err = ld.ParseNQuads(string(data))
	case FormatJSONLD:
		ds, opts, err = parseJSONLD(data, opts)
	default:
		if info, ok := FormatRegistry[format]; ok && !info.Decodable {
			return nil, fmt.Errorf("format %q is write-only", format)
		}
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("deserialize %s: %w", format, err)
	}
	return Decode(ds, opts)
}

// Unmarshal is Deserialize from a byte slice.
func Unmarshal(data []byte, format Format, opts DecodeOptions) (*DecodeResult, error) {
	return Deserialize(bytes.NewReader(data), format, opts)
}

func nquads(ds *ld.RDFDataset) ([]byte, error) {
	out, err := (&ld.NQuadRDFSerializer{}).Serialize(ds)
	if err != nil {
		return nil, err
	}
	s, ok := out.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected n-quads serializer result %T", out)
	}
	return []byte(s), nil
}

// Prefixes collects every namespace binding of the document and its bundles.
// A prefix bound to two URIs keeps its first binding.
func Prefixes(doc *prov.Document) map[string]string {
	out := map[string]string{
		"prov": vocab.ProvNS,
		"xsd":  vocab.XsdNS,
		"rdfs": vocab.RdfsNS,
	}
	add := func(b *prov.Bundle) {
		for _, ns := range b.Namespaces() {
			if _, taken := out[ns.Prefix()]; !taken {
				out[ns.Prefix()] = ns.URI()
			}
		}
	}
	add(&doc.Bundle)
	for _, b := range doc.Bundles() {
		add(b)
	}
	return out
}

func jsonld(doc *prov.Document) ([]byte, error) {
	nq, err := nquads(Encode(doc))
	if err != nil {
		return nil, err
	}
	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	opts.Format = "application/n-quads"
	expanded, err := proc.FromRDF(string(nq), opts)
	if err != nil {
		return nil, fmt.Errorf("from rdf: %w", err)
	}

	ctx := make(map[string]interface{})
	for p, uri := range Prefixes(doc) {
		ctx[p] = uri
	}
	compacted, err := proc.Compact(expanded, map[string]interface{}{"@context": ctx}, ld.NewJsonLdOptions(""))
	if err != nil {
		return nil, fmt.Errorf("compact: %w", err)
	}
	out, err := json.MarshalIndent(compacted, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// parseJSONLD converts JSON-LD to a dataset. String entries of a top-level
// @context are added to the namespace seeds unless opts already binds them.
func parseJSONLD(data []byte, opts DecodeOptions) (*ld.RDFDataset, DecodeOptions, error) {
	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, opts, fmt.Errorf("parse json: %w", err)
	}

	if m, ok := input.(map[string]interface{}); ok {
		if ctx, ok := m["@context"].(map[string]interface{}); ok {
			seeds := make(map[string]string, len(ctx)+len(opts.Namespaces))
			for p, v := range ctx {
				uri, ok := v.(string)
				if !ok || strings.HasPrefix(p, "@") || !(strings.HasSuffix(uri, "/") || strings.HasSuffix(uri, "#")) {
					continue
				}
				seeds[p] = uri
			}
			for p, uri := range opts.Namespaces {
				seeds[p] = uri
			}
			opts.Namespaces = seeds
		}
	}

	proc := ld.NewJsonLdProcessor()
	out, err := proc.ToRDF(input, ld.NewJsonLdOptions(""))
	if err != nil {
		return nil, opts, fmt.Errorf("to rdf: %w", err)
	}
	ds, ok := out.(*ld.RDFDataset)
	if !ok {
		return nil, opts, fmt.Errorf("unexpected to rdf result %T", out)
	}
	return ds, opts, nil
}
