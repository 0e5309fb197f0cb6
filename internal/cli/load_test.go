package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/controllog/internal/sdk"
)

// writeJournal populates a temp journal with one balanced state_move and
// returns its root.
func writeJournal(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	s, err := sdk.New(sdk.Config{ProjectID: "p1", Root: root})
	require.NoError(t, err)

	_, err = s.StateMove(context.Background(), sdk.StateMoveParams{
		TaskID: "T1", From: "WIP", To: "DONE",
	})
	require.NoError(t, err)

	return root
}

func TestLoadCommand_Text(t *testing.T) {
	logDir := writeJournal(t)
	db := filepath.Join(t.TempDir(), "ledger.db")

	buf := &bytes.Buffer{}
	cmd := NewLoadCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--log-dir", logDir, "--db", db})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "1 events inserted (0 skipped)")
	assert.Contains(t, buf.String(), "2 postings inserted (0 skipped)")
}

func TestLoadCommand_JSON(t *testing.T) {
	logDir := writeJournal(t)
	db := filepath.Join(t.TempDir(), "ledger.db")

	buf := &bytes.Buffer{}
	cmd := NewLoadCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--log-dir", logDir, "--db", db})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), data["events_inserted"])
	assert.Equal(t, float64(2), data["postings_inserted"])
}

func TestLoadCommand_Rerun(t *testing.T) {
	logDir := writeJournal(t)
	db := filepath.Join(t.TempDir(), "ledger.db")

	for i := 0; i < 2; i++ {
		cmd := NewLoadCommand(&RootOptions{Format: "text"})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--log-dir", logDir, "--db", db})
		require.NoError(t, cmd.Execute())
	}

	buf := &bytes.Buffer{}
	cmd := NewStatsCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db})
	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), data["events"])
	assert.Equal(t, float64(2), data["postings"])
}

func TestLoadCommand_MissingFlags(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewLoadCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E001]")
}

func TestLoadCommand_ConfigFile(t *testing.T) {
	logDir := writeJournal(t)
	tmp := t.TempDir()
	db := filepath.Join(tmp, "ledger.db")

	cfgPath := filepath.Join(tmp, "controllog.yaml")
	cfg := "log_dir: " + logDir + "\ndb: " + db + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	buf := &bytes.Buffer{}
	cmd := NewLoadCommand(&RootOptions{Format: "text", Config: cfgPath})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "1 events inserted")
}

func TestVerifyCommand_Clean(t *testing.T) {
	logDir := writeJournal(t)
	db := filepath.Join(t.TempDir(), "ledger.db")

	load := NewLoadCommand(&RootOptions{Format: "text"})
	load.SetOut(&bytes.Buffer{})
	load.SetArgs([]string{"--log-dir", logDir, "--db", db})
	require.NoError(t, load.Execute())

	buf := &bytes.Buffer{}
	cmd := NewVerifyCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "clean")
}

func TestVerifyCommand_EmptyStoreIsClean(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	buf := &bytes.Buffer{}
	cmd := NewVerifyCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRootCommand_RejectsInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"stats", "--format", "xml", "--db", "ignored.db"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
