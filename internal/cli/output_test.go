package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gamesheet/internal/sheet"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONFail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Fail(sheet.NewCycleError("b", "a"), nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CYCLIC_DEPENDENCY", resp.Error.Code)
	// The code lives in its own field; the message does not repeat it.
	assert.Equal(t, `dependency cycle through "a" (entry=b)`, resp.Error.Message)
}

func TestOutputFormatter_FailUnwrapsExitError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	wrapped := WrapExitError(ExitFailure, "evaluating ghost", sheet.NewMissingError("ghost"))
	require.NoError(t, formatter.Fail(wrapped, nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_DEPENDENCY", resp.Error.Code)
	assert.Equal(t, `no entry named "ghost" (entry=ghost)`, resp.Error.Message)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("3 sheets valid")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "3 sheets valid")
}

func TestOutputFormatter_TextFail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Fail(sheet.NewBadScriptError("x", errors.New("got +, want primary expression")), nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [BAD_SCRIPT]: script does not compile (entry=x): got +")

	buf.Reset()
	require.NoError(t, formatter.Fail(errors.New("disk full"), nil))
	assert.Contains(t, buf.String(), "Error [INTERNAL]: disk full")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "json",
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   true,
	}

	formatter.VerboseLog("loading %s", "base.yaml")
	assert.Empty(t, out.String(), "verbose logs must not corrupt JSON output")
	assert.Contains(t, errOut.String(), "loading base.yaml")
}

func TestOutputFormatter_VerboseLogDisabled(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	formatter.VerboseLog("should not appear")
	assert.Empty(t, buf.String())
}

func TestExitError(t *testing.T) {
	err := NewExitError(ExitCommandError, "bad path")
	assert.Equal(t, "bad path", err.Error())
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	wrapped := WrapExitError(ExitFailure, "evaluating x", errors.New("boom"))
	assert.Equal(t, "evaluating x: boom", wrapped.Error())
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))

	// Non-ExitErrors default to failure.
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "MISSING_DEPENDENCY", errorCode(sheet.NewMissingError("ghost")))
	assert.Equal(t, "INTERNAL", errorCode(errors.New("plain")))

	// Codes survive ExitError wrapping.
	wrapped := WrapExitError(ExitFailure, "evaluating ghost", sheet.NewMissingError("ghost"))
	assert.Equal(t, "MISSING_DEPENDENCY", errorCode(wrapped))
}
