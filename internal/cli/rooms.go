package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// NewRoomsCommand creates the rooms command.
func NewRoomsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List rooms with live snapshots",
		Long: `List every room that currently holds at least one live snapshot.

Expired snapshots are excluded.

Example:
  roomledger rooms --db ./rooms.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRooms(rootOpts, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runRooms(opts *RootOptions, out io.Writer) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	infos, err := st.Rooms(context.Background())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list rooms", err)
	}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: out}
		return f.Success(infos)
	}

	if len(infos) == 0 {
		fmt.Fprintln(out, "no rooms")
		return nil
	}
	for _, info := range infos {
		fmt.Fprintf(out, "%s\t%d key(s)\tupdated %s\n",
			info.Room, info.Keys,
			time.UnixMilli(info.LastUpdated).UTC().Format(time.RFC3339))
	}
	return nil
}
