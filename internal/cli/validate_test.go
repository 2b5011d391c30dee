package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_Conforming(t *testing.T) {
	path := writeTempFile(t, "frame.json", contestedFrameJSON)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "conforms")
}

func TestValidateCommand_ShapeViolation(t *testing.T) {
	path := writeTempFile(t, "bad.json", `{"stream_id": "s1", "t_logical": 0, "gauge": "polar",
		"units": "steps", "nodes": [], "edges": []}`)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_INVALID", resp.Error.Code)
}

func TestValidateCommand_ReferentialViolation(t *testing.T) {
	// Shape conforms, but an edge endpoint dangles.
	path := writeTempFile(t, "dangling.json", `{"stream_id": "s1", "t_logical": 0, "gauge": "sym",
		"units": "steps",
		"nodes": [{"id": "a", "type": "Claim", "weight": 0.5}],
		"edges": [{"src": "a", "dst": "ghost", "rel": "supports", "weight": 0.5}]}`)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
