package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleBatch registers two users and moves funds between them.
const sampleBatch = `{
  "operations": [
    {"id": "op-1", "type": "register_user", "userId": "a", "timestamp": 1717243200000,
     "payload": {"name": "Alice"}},
    {"id": "op-2", "type": "register_user", "userId": "b", "timestamp": 1717243201000,
     "payload": {"name": "Bob"}},
    {"id": "op-3", "type": "transfer", "userId": "a", "timestamp": 1717243202000,
     "payload": {"to": "b", "amount": 500}}
  ]
}`

func testRootOpts(t *testing.T, room string) *RootOptions {
	t.Helper()
	return &RootOptions{
		Format:   "text",
		Database: filepath.Join(t.TempDir(), "rooms.db"),
		Room:     room,
		Key:      DefaultKey,
	}
}

func writeBatchFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runMergeBatch(t *testing.T, opts *RootOptions, batch string) string {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewMergeCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{writeBatchFile(t, batch)})
	require.NoError(t, cmd.Execute())
	return buf.String()
}

func TestMergeCommand(t *testing.T) {
	opts := testRootOpts(t, "lobby")

	out := runMergeBatch(t, opts, sampleBatch)
	assert.Contains(t, out, "room lobby: merged 3 operation(s), 0 conflict(s), vTick 3")
}

func TestMergeCommand_Replay(t *testing.T) {
	opts := testRootOpts(t, "lobby")
	runMergeBatch(t, opts, sampleBatch)

	// Replaying the same batch dedups every op: no conflicts, no tick.
	out := runMergeBatch(t, opts, sampleBatch)
	assert.Contains(t, out, "0 conflict(s), vTick 3")
}

func TestMergeCommand_RequiresRoom(t *testing.T) {
	opts := testRootOpts(t, "")

	cmd := NewMergeCommand(opts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{writeBatchFile(t, sampleBatch)})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMergeCommand_RejectsMalformedBatch(t *testing.T) {
	opts := testRootOpts(t, "lobby")

	cmd := NewMergeCommand(opts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{writeBatchFile(t, `{"operations": "nope"}`)})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "batch rejected")
}

func TestReadCommand(t *testing.T) {
	opts := testRootOpts(t, "lobby")
	runMergeBatch(t, opts, sampleBatch)

	buf := &bytes.Buffer{}
	cmd := NewReadCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, `"vTick": 3`)
	assert.Contains(t, out, `"balance": 9500`)
	assert.Contains(t, out, `"balance": 10500`)
}

func TestReadCommand_SinceCaughtUp(t *testing.T) {
	opts := testRootOpts(t, "lobby")
	runMergeBatch(t, opts, sampleBatch)

	buf := &bytes.Buffer{}
	cmd := NewReadCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--since", "3"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "up to date\n", buf.String())
}

func TestReadCommand_MissingRoom(t *testing.T) {
	opts := testRootOpts(t, "ghost")

	cmd := NewReadCommand(opts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "no snapshot")
}

func TestExportImportRoundTrip(t *testing.T) {
	opts := testRootOpts(t, "lobby")
	runMergeBatch(t, opts, sampleBatch)

	exportPath := filepath.Join(t.TempDir(), "lobby.json")
	exportCmd := NewExportCommand(opts)
	exportCmd.SetOut(&bytes.Buffer{})
	exportCmd.SetArgs([]string{exportPath})
	require.NoError(t, exportCmd.Execute())

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"formatVersion"`)

	// Import the exported document into a second room in the same db.
	importOpts := &RootOptions{
		Format:   "text",
		Database: opts.Database,
		Room:     "archive",
		Key:      DefaultKey,
	}
	buf := &bytes.Buffer{}
	importCmd := NewImportCommand(importOpts)
	importCmd.SetOut(buf)
	importCmd.SetArgs([]string{exportPath})
	require.NoError(t, importCmd.Execute())
	// Alice, Bob, and the house.
	assert.Contains(t, buf.String(), "room archive: imported 3 user(s)")

	readBuf := &bytes.Buffer{}
	readCmd := NewReadCommand(importOpts)
	readCmd.SetOut(readBuf)
	readCmd.SetArgs([]string{})
	require.NoError(t, readCmd.Execute())
	assert.Contains(t, readBuf.String(), `"balance": 9500`)
}

func TestImportCommand_RefusesExistingData(t *testing.T) {
	opts := testRootOpts(t, "lobby")
	runMergeBatch(t, opts, sampleBatch)

	exportPath := filepath.Join(t.TempDir(), "lobby.json")
	exportCmd := NewExportCommand(opts)
	exportCmd.SetOut(&bytes.Buffer{})
	exportCmd.SetArgs([]string{exportPath})
	require.NoError(t, exportCmd.Execute())

	importCmd := NewImportCommand(opts)
	importCmd.SetOut(&bytes.Buffer{})
	importCmd.SetArgs([]string{exportPath})
	err := importCmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	// With --overwrite the same import succeeds.
	overwriteCmd := NewImportCommand(opts)
	overwriteCmd.SetOut(&bytes.Buffer{})
	overwriteCmd.SetArgs([]string{exportPath, "--overwrite"})
	require.NoError(t, overwriteCmd.Execute())
}

func TestRoomsCommand(t *testing.T) {
	opts := testRootOpts(t, "lobby")
	runMergeBatch(t, opts, sampleBatch)

	other := &RootOptions{Format: "text", Database: opts.Database, Room: "annex", Key: DefaultKey}
	runMergeBatch(t, other, sampleBatch)

	buf := &bytes.Buffer{}
	cmd := NewRoomsCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "lobby")
	assert.Contains(t, out, "annex")
}

func TestRoomsCommand_EmptyStore(t *testing.T) {
	opts := testRootOpts(t, "")

	buf := &bytes.Buffer{}
	cmd := NewRoomsCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "no rooms\n", buf.String())
}
