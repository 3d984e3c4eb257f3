package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/provkit/internal/canonical"
)

// HashOptions holds flags for the hash command.
type HashOptions struct {
	*RootOptions
	From string
}

// HashResult is the content address of one input.
type HashResult struct {
	Path           string `json:"path"`
	Hash           string `json:"hash"`
	NamespacesHash string `json:"namespaces_hash"`
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HashOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hash <input>...",
		Short: "Print the content hash of documents",
		Long: `Print the SHA-256 content hash of each document's canonical N-Quads.

Documents with the same records hash the same regardless of record order,
blank node labels or prefix choice. The namespaces hash covers the prefix
bindings alone.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "input format (default from extension)")

	return cmd
}

func runHash(opts *HashOptions, inputs []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	results := make([]HashResult, 0, len(inputs))
	for _, input := range inputs {
		decoded, err := opts.loadDocument(cmd, formatter, input, opts.From)
		if err != nil {
			return err
		}
		h, err := canonical.DocumentHash(decoded.Document)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeEncode, "hash "+input, err)
		}
		nh, err := canonical.NamespacesHash(decoded.Document)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeEncode, "hash namespaces of "+input, err)
		}
		results = append(results, HashResult{Path: input, Hash: h, NamespacesHash: nh})
	}

	if formatter.Format == "json" {
		return formatter.Success(results)
	}
	// sha256sum layout
	for _, r := range results {
		fmt.Fprintf(formatter.Writer, "%s  %s\n", r.Hash, r.Path)
	}
	return nil
}
