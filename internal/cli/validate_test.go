package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_Valid(t *testing.T) {
	input := writeInput(t, "doc.nq", bundledNQuads)

	out, err := execute(NewValidateCommand(textOpts()), input, "--roundtrip")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+input+" (3 records, 1 bundles)")
}

func TestValidateCommand_Diagnostics(t *testing.T) {
	good := writeInput(t, "good.nq", usageNQuads)
	ambiguous := writeInput(t, "ambiguous.nq", ambiguousNQuads)

	out, err := execute(NewValidateCommand(textOpts()), good, ambiguous)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ "+good)
	assert.Contains(t, out, "✗ "+ambiguous)
	assert.Contains(t, out, "E102: 1 diagnostic(s)")
	assert.Contains(t, out, "UNSUPPORTED_WIRE_CONSTRUCT")
}

func TestValidateCommand_StrictConfigStillCollects(t *testing.T) {
	opts := textOpts()
	opts.config().Decode.Strict = true
	ambiguous := writeInput(t, "ambiguous.nq", ambiguousNQuads)

	out, err := execute(NewValidateCommand(opts), ambiguous)
	require.Error(t, err)
	assert.Contains(t, out, "E102", "strict mode does not turn diagnostics into a decode error here")
}

func TestValidateCommand_JSON(t *testing.T) {
	good := writeInput(t, "good.nq", usageNQuads)
	bad := writeInput(t, "bad.nq", "not rdf\n")

	out, err := execute(NewValidateCommand(jsonOpts()), good, bad, "/nonexistent/doc.nq")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Files, 3)

	assert.True(t, resp.Data.Files[0].Valid)
	assert.Equal(t, 3, resp.Data.Files[0].Records)
	assert.Equal(t, ErrCodeDecode, resp.Data.Files[1].Code)
	assert.Equal(t, ErrCodeNotFound, resp.Data.Files[2].Code)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDecode, resp.Error.Code, "the first invalid input is reported")
}

func TestValidateCommand_JSONSuccess(t *testing.T) {
	input := writeInput(t, "doc.nq", usageNQuads)

	out, err := execute(NewValidateCommand(jsonOpts()), input)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
}

func TestValidateCommand_RequiresInput(t *testing.T) {
	_, err := execute(NewValidateCommand(textOpts()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}
