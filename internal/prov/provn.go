package prov

import (
	"fmt"
	"strings"
)

// PROV-N rendering for diagnostics and snapshots. It is a pretty-printer
// only; nothing in this module parses PROV-N.

// String renders the bundle as a PROV-N bundle block.
func (b *Bundle) String() string {
	return b.provN(0)
}

// String renders the document as a PROV-N document block.
func (d *Document) String() string {
	return d.provN(0)
}

func (b *Bundle) provN(level int) string {
	indent := strings.Repeat("  ", level)
	header, footer := "bundle "+b.id.String(), "endBundle"
	if b.top != nil {
		header, footer = "document", "endDocument"
	}

	var decls []string
	if d := b.ns.Default(); d != nil {
		decls = append(decls, fmt.Sprintf("default <%s>", d.URI()))
	}
	for _, ns := range b.ns.Registered() {
		decls = append(decls, fmt.Sprintf("prefix %s <%s>", ns.Prefix(), ns.URI()))
	}
	if len(decls) > 0 {
		decls = append(decls, "")
	}

	body := append([]string{}, decls...)
	for _, r := range b.records {
		body = append(body, r.String())
	}
	if b.top != nil {
		for _, sub := range b.top.bundles {
			body = append(body, sub.provN(level+1))
		}
	}

	inner := indent + "  "
	var sb strings.Builder
	sb.WriteString(indent)
	sb.WriteString(header)
	for _, line := range body {
		sb.WriteString("\n")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, inner) {
			// Nested bundle blocks carry their own indentation.
			sb.WriteString(line)
			continue
		}
		sb.WriteString(inner)
		sb.WriteString(line)
	}
	sb.WriteString("\n")
	sb.WriteString(indent)
	sb.WriteString(footer)
	return sb.String()
}
