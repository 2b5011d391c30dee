package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contestedFrameJSON = `{
	"stream_id": "s1",
	"t_logical": 1,
	"gauge": "sym",
	"units": "steps",
	"nodes": [
		{"id": "c1", "type": "Claim", "weight": 1.0},
		{"id": "e1", "type": "Evidence", "weight": 0.9},
		{"id": "x1", "type": "Counter", "weight": 0.3}
	],
	"edges": [
		{"src": "e1", "dst": "c1", "rel": "supports", "weight": 0.9},
		{"src": "x1", "dst": "c1", "rel": "contradicts", "weight": 0.3}
	]
}`

// writeTempFile drops content into a temp file and returns its path.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDigestCommand_Text(t *testing.T) {
	path := writeTempFile(t, "frame.json", contestedFrameJSON)

	buf := &bytes.Buffer{}
	cmd := NewDigestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "b0=1")
	assert.Contains(t, out, "x_frontier=1")
	assert.Contains(t, out, "s_over_c=3")
	assert.Contains(t, out, "cycle_plus=0")
}

func TestDigestCommand_JSON(t *testing.T) {
	path := writeTempFile(t, "frame.json", contestedFrameJSON)

	buf := &bytes.Buffer{}
	cmd := NewDigestCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.0, data["b0"])
	assert.Equal(t, 1.0, data["x_frontier"])
	assert.Equal(t, 3.0, data["s_over_c"])
}

func TestDigestCommand_MissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewDigestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.json")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDigestCommand_InvalidFrame(t *testing.T) {
	path := writeTempFile(t, "bad.json", `{"stream_id": "s1", "gauge": "sym", "units": "steps",
		"nodes": [{"id": "a", "type": "Claim", "weight": 0.5}],
		"edges": [{"src": "a", "dst": "ghost", "rel": "supports", "weight": 0.5}]}`)

	buf := &bytes.Buffer{}
	cmd := NewDigestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "E_FRAME")
}
