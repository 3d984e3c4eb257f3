package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/provkit/internal/store"
)

// StoreOptions holds flags shared by the store subcommands.
type StoreOptions struct {
	*RootOptions
	DBPath string
}

// PutResult is the outcome of storing one document.
type PutResult struct {
	store.DocumentInfo `yaml:",inline"`
	Created            bool `json:"created" yaml:"created"`
}

// NewStoreCommand creates the store command and its subcommands.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the document store",
		Long: `Store documents in a SQLite database as canonical N-Quads.

Documents are content addressed: putting a document whose records equal a
stored one returns the existing entry.`,
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "database path (default store.path from config)")

	cmd.AddCommand(newStorePutCommand(opts))
	cmd.AddCommand(newStoreGetCommand(opts))
	cmd.AddCommand(newStoreListCommand(opts))
	cmd.AddCommand(newStoreDeleteCommand(opts))
	cmd.AddCommand(newStoreFindCommand(opts))

	return cmd
}

func (o *StoreOptions) dbPath() string {
	if o.DBPath != "" {
		return o.DBPath
	}
	return o.config().Store.Path
}

// open opens the store. Commands that only read require the file to
// exist; put creates it.
func (o *StoreOptions) open(f *OutputFormatter, create bool) (*store.Store, error) {
	path := o.dbPath()
	if !create {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", path), nil)
		}
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeStore, "create database directory", err)
		}
	}

	f.VerboseLog("Opening database %s", path)
	st, err := store.Open(path, store.WithLogger(o.logger()))
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, "open store", err)
	}
	return st, nil
}

func storeCommand(use, short string, args cobra.PositionalArgs, run func(*cobra.Command, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          args,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
}

func newStorePutCommand(opts *StoreOptions) *cobra.Command {
	var name, from string
	cmd := storeCommand("put <input>", "Store a document", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			decoded, err := opts.loadDocument(cmd, formatter, args[0], from)
			if err != nil {
				return err
			}

			st, err := opts.open(formatter, true)
			if err != nil {
				return err
			}
			defer st.Close()

			if name == "" {
				name = filepath.Base(args[0])
			}
			info, created, err := st.Put(cmd.Context(), name, decoded.Document)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, "put", err)
			}
			return formatter.Success(PutResult{DocumentInfo: info, Created: created})
		})
	cmd.Flags().StringVar(&name, "name", "", "document name (default input file name)")
	cmd.Flags().StringVar(&from, "from", "", "input format (default from extension)")
	return cmd
}

func newStoreGetCommand(opts *StoreOptions) *cobra.Command {
	var to, output string
	cmd := storeCommand("get <id>", "Write a stored document", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			format, err := opts.outputFormat(to, output)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeFormat, "output format", err)
			}

			st, err := opts.open(formatter, false)
			if err != nil {
				return err
			}
			defer st.Close()

			stored, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return failLookup(formatter, args[0], err)
			}
			return writeDocument(cmd, formatter, stored.Document, format, output)
		})
	cmd.Flags().StringVar(&to, "to", "", "output format")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newStoreListCommand(opts *StoreOptions) *cobra.Command {
	return storeCommand("list", "List stored documents", cobra.NoArgs,
		func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			st, err := opts.open(formatter, false)
			if err != nil {
				return err
			}
			defer st.Close()

			infos, err := st.List(cmd.Context())
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, "list", err)
			}
			return outputInfos(formatter, infos)
		})
}

func newStoreDeleteCommand(opts *StoreOptions) *cobra.Command {
	return storeCommand("delete <id>", "Delete a stored document", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			st, err := opts.open(formatter, false)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return failLookup(formatter, args[0], err)
			}
			return formatter.Success(fmt.Sprintf("deleted %s", args[0]))
		})
}

func newStoreFindCommand(opts *StoreOptions) *cobra.Command {
	var hash, bundle string
	cmd := storeCommand("find", "Find documents by content hash or bundle URI", cobra.NoArgs,
		func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			if (hash == "") == (bundle == "") {
				return formatter.Fail(ExitCommandError, ErrCodeGeneric, "exactly one of --hash or --bundle is required", nil)
			}

			st, err := opts.open(formatter, false)
			if err != nil {
				return err
			}
			defer st.Close()

			if hash != "" {
				info, err := st.FindByHash(cmd.Context(), hash)
				if err != nil {
					return failLookup(formatter, hash, err)
				}
				return outputInfos(formatter, []store.DocumentInfo{info})
			}
			infos, err := st.FindByBundle(cmd.Context(), bundle)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, "find", err)
			}
			return outputInfos(formatter, infos)
		})
	cmd.Flags().StringVar(&hash, "hash", "", "content hash")
	cmd.Flags().StringVar(&bundle, "bundle", "", "bundle URI")
	return cmd
}

func failLookup(f *OutputFormatter, key string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return f.Fail(ExitFailure, ErrCodeNoDocument, fmt.Sprintf("no stored document %s", key), nil)
	}
	return f.Fail(ExitCommandError, ErrCodeStore, key, err)
}

func outputInfos(f *OutputFormatter, infos []store.DocumentInfo) error {
	if f.Format == "json" {
		return f.Success(infos)
	}
	if len(infos) == 0 {
		fmt.Fprintln(f.Writer, "No documents.")
		return nil
	}
	for _, info := range infos {
		fmt.Fprintf(f.Writer, "%s  %s  %d records  %d bundles  %s\n",
			info.ID, info.Hash[:12], info.RecordCount, info.BundleCount, info.Name)
	}
	return nil
}
