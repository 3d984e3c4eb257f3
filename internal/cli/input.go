package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/provkit/internal/prov"
	"github.com/roach88/provkit/internal/provrdf"
)

// stdinPath names standard input/output in place of a file path.
const stdinPath = "-"

// decodeOptions builds decode options from the loaded config.
func (o *RootOptions) decodeOptions() provrdf.DecodeOptions {
	cfg := o.config()
	return provrdf.DecodeOptions{
		Strict:     cfg.Decode.Strict,
		Namespaces: cfg.NamespaceMap(),
		Logger:     o.logger(),
	}
}

// inputFormat picks the decode format: the flag, then the file
// extension, then N-Quads.
func inputFormat(flag, path string) (provrdf.Format, error) {
	if flag != "" {
		return provrdf.ParseFormat(flag)
	}
	if f, ok := provrdf.FormatForPath(path); ok {
		return f, nil
	}
	return provrdf.FormatNQuads, nil
}

// outputFormat picks the encode format: the flag, then the output file
// extension, then encode.format from config.
func (o *RootOptions) outputFormat(flag, path string) (provrdf.Format, error) {
	if flag != "" {
		return provrdf.ParseFormat(flag)
	}
	if path != "" && path != stdinPath {
		if f, ok := provrdf.FormatForPath(path); ok {
			return f, nil
		}
	}
	return provrdf.ParseFormat(o.config().Encode.Format)
}

// readInput reads a file, or standard input for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == stdinPath {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// loadDocument reads and decodes one input. Failures are reported
// through the formatter and returned as ExitErrors.
func (o *RootOptions) loadDocument(cmd *cobra.Command, f *OutputFormatter, path, from string) (*provrdf.DecodeResult, error) {
	format, err := inputFormat(from, path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeFormat, "input format", err)
	}
	if info, _ := provrdf.GetFormatInfo(format); !info.Decodable {
		return nil, f.Fail(ExitCommandError, ErrCodeFormat, fmt.Sprintf("format %q is write-only", format), nil)
	}

	data, err := readInput(cmd, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("input not found: %s", path), nil)
		}
		return nil, f.Fail(ExitCommandError, ErrCodeGeneric, "read input", err)
	}

	f.VerboseLog("Decoding %s as %s", path, format)
	result, err := provrdf.Unmarshal(data, format, o.decodeOptions())
	if err != nil {
		return nil, f.Fail(ExitFailure, ErrCodeDecode, fmt.Sprintf("decode %s", path), err)
	}
	return result, nil
}

// writeDocument encodes doc to path, or to the command's output for ""
// and "-".
func writeDocument(cmd *cobra.Command, f *OutputFormatter, doc *prov.Document, format provrdf.Format, path string) error {
	var buf bytes.Buffer
	if err := provrdf.Serialize(&buf, doc, format); err != nil {
		return f.Fail(ExitFailure, ErrCodeEncode, fmt.Sprintf("encode %s", format), err)
	}

	if path == "" || path == stdinPath {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("write %s", path), err)
	}
	f.VerboseLog("Wrote %s (%d bytes)", path, buf.Len())
	return nil
}

// DocumentSummary describes a decoded or written document.
type DocumentSummary struct {
	Input       string   `json:"input" yaml:"input"`
	Output      string   `json:"output,omitempty" yaml:"output,omitempty"`
	Format      string   `json:"format" yaml:"format"`
	Records     int      `json:"records" yaml:"records"`
	Bundles     int      `json:"bundles" yaml:"bundles"`
	Diagnostics []string `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

func summarize(input string, doc *prov.Document, diags []provrdf.Diagnostic) DocumentSummary {
	s := DocumentSummary{
		Input:   input,
		Records: doc.Len(),
		Bundles: len(doc.Bundles()),
	}
	for _, b := range doc.Bundles() {
		s.Records += b.Len()
	}
	for _, d := range diags {
		s.Diagnostics = append(s.Diagnostics, d.String())
	}
	return s
}
