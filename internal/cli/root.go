package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/provkit/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config and Logger are set before any subcommand runs.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the provkit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "provkit",
		Short: "provkit - W3C PROV documents as RDF",
		Long: `Read, write and transform W3C PROV provenance documents.

Documents are exchanged as RDF (N-Quads, N-Triples, JSON-LD; Turtle and
TriG for output only). Bundles travel as named graphs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./provkit.yaml)")

	cmd.AddCommand(NewConvertCommand(opts))
	cmd.AddCommand(NewUnifyCommand(opts))
	cmd.AddCommand(NewFlattenCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewHashCommand(opts))
	cmd.AddCommand(NewStoreCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup loads configuration and builds the logger. An explicit --format
// wins over the configured one.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats)
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		formatter := o.formatter(cmd)
		_ = formatter.Error(ErrCodeConfig, "invalid configuration", configDetails(err))
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if !cmd.Flags().Changed("format") {
		o.Format = cfg.Format
	}
	o.Config = cfg
	o.Logger = newLogger(cfg.Logging, o.Verbose, cmd.ErrOrStderr())
	return nil
}

// config returns the loaded configuration, or defaults when a subcommand
// runs without the root command.
func (o *RootOptions) config() *config.Config {
	if o.Config == nil {
		o.Config = config.Default()
	}
	return o.Config
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// configDetails lists per-field config errors for the error payload.
func configDetails(err error) any {
	var errs config.Errors
	if !errors.As(err, &errs) {
		return nil
	}
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field] = e.Message
	}
	return out
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
