package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/foldr/internal/store"
)

// recordSession runs the cart program into dbPath: one success and one
// failure under session.
func recordSession(t *testing.T, dbPath, session string) {
	t.Helper()
	dir := t.TempDir()
	program := writeFile(t, dir, "cart.yaml", cartProgram)
	input := writeFile(t, dir, "in.json", cartInput)

	_, err := execute(t, NewRunCommand(textOpts()), program, "--input", input, "--db", dbPath, "--session", session)
	require.NoError(t, err)
	_, err = execute(t, NewRunCommand(textOpts()), program, "--db", dbPath, "--session", session)
	require.Error(t, err)
}

func TestReplayDeterministic(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	recordSession(t, dbPath, "alpha")
	recordSession(t, dbPath, "beta")

	out, err := execute(t, NewReplayCommand(textOpts()), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out.stdout, "Replay Summary: 2 session(s), 4 run(s)")
	assert.Contains(t, out.stdout, "✓ Session: alpha\n  Runs: 2, mismatches: 0")
	assert.Contains(t, out.stdout, "✓ Session: beta")
	assert.Contains(t, out.stdout, "✓ All runs verified deterministic")
}

func TestReplaySingleSessionJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	recordSession(t, dbPath, "alpha")
	recordSession(t, dbPath, "beta")

	out, err := execute(t, NewReplayCommand(jsonOpts()), "--db", dbPath, "--session", "beta")
	require.NoError(t, err)

	resp, data := decodeResponse(t, out.stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1.0, data["total_sessions"])
	assert.Equal(t, 2.0, data["total_runs"])
	assert.Equal(t, 0.0, data["mismatches"])

	sessions := data["sessions"].([]any)
	require.Len(t, sessions, 1)
	assert.Equal(t, "beta", sessions[0].(map[string]any)["session"])
}

func TestReplayDetectsMismatch(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	recordSession(t, dbPath, "alpha")

	// Tamper with the recorded output of the successful run.
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	_, err = st.DB().Exec(`UPDATE runs SET output = '{"total":16}' WHERE seq = 1`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, NewReplayCommand(textOpts()), "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.stdout, "✗ Session: alpha")
	assert.Contains(t, out.stdout, `✗ seq 1`)
	assert.Contains(t, out.stdout, `output: recorded {"total":16}, replay {"total":15}`)
	assert.Contains(t, out.stdout, "✗ Determinism verification failed")
}

func TestReplayEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, NewReplayCommand(textOpts()), "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "No sessions found in database.\n", out.stdout)
}

func TestReplayCommandErrors(t *testing.T) {
	tests := map[string][]string{
		"no database":      {},
		"database missing": {"--db", filepath.Join(t.TempDir(), "nope.db")},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			out, err := execute(t, NewReplayCommand(jsonOpts()), args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp, _ := decodeResponse(t, out.stdout)
			require.NotNil(t, resp.Error)
			assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
		})
	}
}
