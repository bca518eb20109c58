package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/roomledger/internal/engine"
	"github.com/roach88/roomledger/internal/ledger"
)

// MergeOptions holds flags for the merge command.
type MergeOptions struct {
	*RootOptions
	TTL time.Duration
}

// MergeSummary is the merge command's output payload.
type MergeSummary struct {
	Room       string `json:"room"`
	Key        string `json:"key"`
	Submitted  int    `json:"submitted"`
	Conflicts  int    `json:"conflicts"`
	NewTxs     int    `json:"newTxs"`
	VTick      int64  `json:"vTick"`
	LastUpdate int64  `json:"lastUpdate"`
}

func (s MergeSummary) String() string {
	return fmt.Sprintf("room %s: merged %d operation(s), %d conflict(s), vTick %d",
		s.Room, s.Submitted, s.Conflicts, s.VTick)
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "merge <batch.json>",
		Short: "Merge an operation batch into a room snapshot",
		Long: `Merge a JSON operation batch into a room snapshot.

The batch envelope is validated before any state is touched; a
malformed envelope rejects the whole batch. The write runs through the
store's compare-and-swap loop, so concurrent merges against the same
room serialize safely.

Use "-" to read the batch from stdin.

Example:
  roomledger merge --db ./rooms.db --room lobby batch.json
  cat batch.json | roomledger merge --db ./rooms.db --room lobby -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(opts, args[0], cmd.OutOrStdout(), cmd.InOrStdin())
		},
	}

	cmd.Flags().DurationVar(&opts.TTL, "ttl", 0, "snapshot TTL (0 = keep forever)")

	return cmd
}

func runMerge(opts *MergeOptions, batchPath string, out io.Writer, stdin io.Reader) error {
	if err := requireRoom(opts.RootOptions); err != nil {
		return err
	}

	raw, err := readInput(batchPath, stdin)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read batch", err)
	}

	ops, err := engine.DecodeBatch(raw)
	if err != nil {
		return WrapExitError(ExitFailure, "batch rejected", err)
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	eng := engine.New()
	ctx := context.Background()

	var lastDiff *ledger.Diff
	snap, err := st.Apply(ctx, opts.Room, opts.Key, opts.TTL, func(snap *ledger.Snapshot) (*ledger.Snapshot, error) {
		next, diff, err := eng.Merge(snap, ops)
		if err != nil {
			return nil, err
		}
		lastDiff = diff
		return next, nil
	})
	if err != nil {
		return WrapExitError(ExitFailure, "merge failed", err)
	}

	slog.Info("batch merged",
		"room", opts.Room,
		"ops", len(ops),
		"conflicts", len(lastDiff.Conflicts),
		"vTick", snap.State.VTick,
	)

	f := &OutputFormatter{Format: opts.Format, Writer: out}
	return f.Success(MergeSummary{
		Room:       opts.Room,
		Key:        opts.Key,
		Submitted:  len(ops),
		Conflicts:  len(lastDiff.Conflicts),
		NewTxs:     len(lastDiff.NewTxs),
		VTick:      snap.State.VTick,
		LastUpdate: snap.LastUpdate,
	})
}

// readInput reads a file path or stdin when the path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
