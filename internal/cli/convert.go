package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/provkit/internal/prov"
)

// ConvertOptions holds flags for convert, unify and flatten.
type ConvertOptions struct {
	*RootOptions
	From   string // input format; defaults to the input extension
	To     string // output format; defaults to the output extension, then encode.format
	Output string // output path; stdout when empty
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	return newDocumentCommand(rootOpts, documentCommand{
		use:   "convert <input>",
		short: "Convert a PROV document between RDF formats",
		long: `Decode a PROV document and encode it in another RDF format.

Use "-" to read standard input. When --output is empty the document is
written to standard output; otherwise a summary is printed.

Examples:
  provkit convert doc.nq --to jsonld
  provkit convert doc.jsonld -o doc.ttl
  cat doc.nq | provkit convert - --from nquads --to trig`,
	})
}

// NewUnifyCommand creates the unify command.
func NewUnifyCommand(rootOpts *RootOptions) *cobra.Command {
	return newDocumentCommand(rootOpts, documentCommand{
		use:   "unify <input>",
		short: "Merge records that share an identifier",
		long: `Decode a PROV document and merge the records of each bundle that
share an identifier into one record carrying every attribute.

Examples:
  provkit unify doc.nq
  provkit unify doc.nq -o unified.jsonld`,
		transform: (*prov.Document).Unified,
	})
}

// NewFlattenCommand creates the flatten command.
func NewFlattenCommand(rootOpts *RootOptions) *cobra.Command {
	return newDocumentCommand(rootOpts, documentCommand{
		use:   "flatten <input>",
		short: "Move bundle records into the top level",
		long: `Decode a PROV document, move the records of every bundle into the
top-level document and drop the bundles.

Examples:
  provkit flatten doc.nq --to ntriples`,
		transform: (*prov.Document).Flattened,
	})
}

type documentCommand struct {
	use, short, long string
	transform        func(*prov.Document) (*prov.Document, error)
}

func newDocumentCommand(rootOpts *RootOptions, dc documentCommand) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           dc.use,
		Short:         dc.short,
		Long:          dc.long,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocumentCommand(opts, dc.transform, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "input format (nquads|ntriples|jsonld)")
	cmd.Flags().StringVar(&opts.To, "to", "", "output format (nquads|ntriples|jsonld|turtle|trig)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func runDocumentCommand(opts *ConvertOptions, transform func(*prov.Document) (*prov.Document, error), input string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	// Resolve the output format first so a bad --to fails before decoding.
	to, err := opts.outputFormat(opts.To, opts.Output)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeFormat, "output format", err)
	}

	decoded, err := opts.loadDocument(cmd, formatter, input, opts.From)
	if err != nil {
		return err
	}

	doc := decoded.Document
	if transform != nil {
		if doc, err = transform(doc); err != nil {
			return formatter.Fail(ExitFailure, ErrCodeTransform, cmd.Name(), err)
		}
	}

	if err := writeDocument(cmd, formatter, doc, to, opts.Output); err != nil {
		return err
	}
	if opts.Output == "" || opts.Output == stdinPath {
		return nil
	}

	summary := summarize(input, doc, decoded.Diagnostics)
	summary.Output = opts.Output
	summary.Format = string(to)
	return formatter.Success(summary)
}
