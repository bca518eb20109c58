package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/roomledger/internal/engine"
	"github.com/roach88/roomledger/internal/store"
)

// ReadOptions holds flags for the read command.
type ReadOptions struct {
	*RootOptions
	Since int64
}

// NewReadCommand creates the read command.
func NewReadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read a room snapshot",
		Long: `Read the current state of a room snapshot.

With --since, behaves like a poll: nothing is printed when the
snapshot's version has not advanced past the given value, mirroring the
empty response a polling client would receive.

Example:
  roomledger read --db ./rooms.db --room lobby
  roomledger read --db ./rooms.db --room lobby --since 41`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Int64Var(&opts.Since, "since", 0, "last seen vTick; only newer state is printed")

	return cmd
}

func runRead(opts *ReadOptions, out io.Writer) error {
	if err := requireRoom(opts.RootOptions); err != nil {
		return err
	}

	st, err := openStore(opts.RootOptions)
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

	result := engine.New().Read(snap, opts.Since)
	if result == nil {
		fmt.Fprintln(out, "up to date")
		return nil
	}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: out}
		return f.Success(result)
	}

	// Text mode prints the state document directly.
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return WrapExitError(ExitFailure, "failed to render snapshot", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
