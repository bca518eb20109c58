package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/roomledger/internal/engine"
	"github.com/roach88/roomledger/internal/ledger"
	"github.com/roach88/roomledger/internal/store"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a room's state to a JSON document",
		Long: `Export a room snapshot's state to a versioned JSON document.

Only the domain state travels; the processed-op and conflict logs are
operational history and stay behind. Use "-" to write to stdout.

Example:
  roomledger export --db ./rooms.db --room lobby lobby.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, args[0], cmd.OutOrStdout())
		},
	}

	return cmd
}

func runExport(opts *RootOptions, path string, stdout io.Writer) error {
	if err := requireRoom(opts); err != nil {
		return err
	}

	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	snap, _, err := st.Get(context.Background(), opts.Room, opts.Key)
	if errors.Is(err, store.ErrNotFound) {
		return NewExitError(ExitFailure, fmt.Sprintf("room %s has no snapshot", opts.Room))
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read snapshot", err)
	}

	doc := engine.New().Export(snap)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return WrapExitError(ExitFailure, "failed to marshal export", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return WrapExitError(ExitCommandError, "failed to write export file", err)
	}
	return nil
}

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Overwrite bool
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON state document into a room",
		Long: `Import an exported JSON document into a room snapshot.

Importing into a room that already holds data fails unless --overwrite
is given. The import resets the processed-op and conflict logs: the
imported state starts a fresh history. Use "-" to read from stdin.

Example:
  roomledger import --db ./rooms.db --room lobby lobby.json
  roomledger import --db ./rooms.db --room lobby --overwrite lobby.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd.OutOrStdout(), cmd.InOrStdin())
		},
	}

	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace existing room state")

	return cmd
}

func runImport(opts *ImportOptions, path string, out io.Writer, stdin io.Reader) error {
	if err := requireRoom(opts.RootOptions); err != nil {
		return err
	}

	raw, err := readInput(path, stdin)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read import file", err)
	}

	var doc engine.ExportDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return WrapExitError(ExitFailure, "failed to parse import file", err)
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	eng := engine.New()
	snap, err := st.Apply(context.Background(), opts.Room, opts.Key, 0,
		func(snap *ledger.Snapshot) (*ledger.Snapshot, error) {
			return eng.Import(snap, &doc, opts.Overwrite)
		})
	if err != nil {
		return WrapExitError(ExitFailure, "import failed", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: out}
	return f.Success(fmt.Sprintf("room %s: imported %d user(s)", opts.Room, len(snap.State.Users)))
}
