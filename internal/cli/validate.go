package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/provkit/internal/prov"
	"github.com/roach88/provkit/internal/provrdf"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	From      string
	RoundTrip bool
}

// FileReport is the validation outcome for one input.
type FileReport struct {
	Path        string               `json:"path" yaml:"path"`
	Valid       bool                 `json:"valid" yaml:"valid"`
	Format      string               `json:"format,omitempty" yaml:"format,omitempty"`
	Records     int                  `json:"records" yaml:"records"`
	Bundles     int                  `json:"bundles" yaml:"bundles"`
	Diagnostics []provrdf.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Error       string               `json:"error,omitempty" yaml:"error,omitempty"`
	Code        string               `json:"code,omitempty" yaml:"code,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool         `json:"valid"`
	Files []FileReport `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <input>...",
		Short: "Check that documents decode cleanly",
		Long: `Decode each input and report every wire construct the PROV model could
not represent (unclassified subjects, ambiguous formal slots, unknown
qualification nodes).

A file is valid when it decodes without diagnostics. With --roundtrip the
decoded document is also re-encoded as N-Quads, decoded again and compared.

Exit codes:
  0 - All inputs valid
  1 - One or more inputs invalid
  2 - Command error (bad flag, etc.)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "input format (default from extension)")
	cmd.Flags().BoolVar(&opts.RoundTrip, "roundtrip", false, "also check the N-Quads round trip")

	return cmd
}

func runValidate(opts *ValidateOptions, inputs []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	result := ValidationResult{Valid: true, Files: make([]FileReport, 0, len(inputs))}
	for _, input := range inputs {
		formatter.VerboseLog("Validating %s", input)
		report := validateFile(opts, input, cmd)
		result.Files = append(result.Files, report)
		if !report.Valid {
			result.Valid = false
		}
	}

	if result.Valid {
		return outputValidateSuccess(formatter, result)
	}
	return outputValidationErrors(formatter, result)
}

// validateFile never fails the command; problems land in the report.
func validateFile(opts *ValidateOptions, path string, cmd *cobra.Command) FileReport {
	report := FileReport{Path: path}
	fail := func(code string, err error) FileReport {
		report.Code = code
		report.Error = err.Error()
		return report
	}

	format, err := inputFormat(opts.From, path)
	if err != nil {
		return fail(ErrCodeFormat, err)
	}
	report.Format = string(format)

	data, err := readInput(cmd, path)
	if err != nil {
		return fail(ErrCodeNotFound, err)
	}

	decodeOpts := opts.decodeOptions()
	// Collect every diagnostic rather than stopping at the first.
	decodeOpts.Strict = false
	decoded, err := provrdf.Unmarshal(data, format, decodeOpts)
	if err != nil {
		return fail(ErrCodeDecode, err)
	}

	summary := summarize(path, decoded.Document, nil)
	report.Records = summary.Records
	report.Bundles = summary.Bundles
	report.Diagnostics = decoded.Diagnostics
	if len(decoded.Diagnostics) > 0 {
		report.Code = ErrCodeDiagnostics
		report.Error = fmt.Sprintf("%d diagnostic(s)", len(decoded.Diagnostics))
		return report
	}

	if opts.RoundTrip {
		if err := checkRoundTrip(decoded.Document, decodeOpts); err != nil {
			return fail(ErrCodeRoundTrip, err)
		}
	}

	report.Valid = true
	return report
}

// checkRoundTrip re-encodes doc as N-Quads and decodes it again with the
// document's own prefixes.
func checkRoundTrip(doc *prov.Document, decodeOpts provrdf.DecodeOptions) error {
	data, err := provrdf.Marshal(doc, provrdf.FormatNQuads)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	decodeOpts.Namespaces = provrdf.Prefixes(doc)
	again, err := provrdf.Unmarshal(data, provrdf.FormatNQuads, decodeOpts)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if !doc.Equal(again.Document) {
		return fmt.Errorf("round trip changed the document")
	}
	return nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, f := range result.Files {
		fmt.Fprintf(formatter.Writer, "✓ %s (%d records, %d bundles)\n", f.Path, f.Records, f.Bundles)
	}
	return nil
}

// outputValidationErrors outputs the reports when any input is invalid.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	invalid := 0
	var first *FileReport
	for i := range result.Files {
		if !result.Files[i].Valid {
			invalid++
			if first == nil {
				first = &result.Files[i]
			}
		}
	}
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d input(s)", invalid))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    first.Code,
				Message: fmt.Sprintf("%s: %s", first.Path, first.Error),
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return exitErr
	}

	// Text format
	for _, f := range result.Files {
		if f.Valid {
			fmt.Fprintf(formatter.Writer, "✓ %s (%d records, %d bundles)\n", f.Path, f.Records, f.Bundles)
			continue
		}
		fmt.Fprintf(formatter.Writer, "✗ %s\n", f.Path)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", f.Code, f.Error)
		for _, d := range f.Diagnostics {
			fmt.Fprintf(formatter.Writer, "    %s\n", d.String())
		}
	}
	return exitErr
}
