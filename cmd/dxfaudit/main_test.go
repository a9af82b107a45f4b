package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dxfaudit/internal/diag"
	"dxfaudit/internal/diagfmt"
)

const drawing = `version: AC1009
entities:
  - {handle: "1", type: TABLE, name: LAYER}
  - {handle: "2", type: LAYER, name: "0"}
  - {handle: "3", type: TABLE, name: LTYPE}
  - {handle: "4", type: LTYPE, name: Continuous}
  - {handle: "10", type: LINE, layer: "0", color: 300}
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestAuditCommand(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "drawing.yaml")
	require.NoError(t, os.WriteFile(file, []byte(drawing), 0o600))
	cfg := filepath.Join(dir, "dxfaudit.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[report]\nformat = \"text\"\n"), 0o600))

	out, _, err := execute(t, "audit", "--config", cfg, "--color", "off", "--format", "short", file)
	var exit *exitError
	require.True(t, errors.As(err, &exit), "expected exit error, got %v", err)
	assert.Equal(t, exitIssues, exit.code)
	assert.Equal(t, file+": AUD0006 LINE#10 Invalid color index: 300\n", out)

	out, _, err = execute(t, "audit", "--config", cfg, "--color", "off", "--format", "json",
		"--only", "AUD0008", "--exit-zero", file)
	require.NoError(t, err)
	var batch diagfmt.BatchJSON
	require.NoError(t, json.Unmarshal([]byte(out), &batch))
	require.Len(t, batch.Files, 1)
	assert.Equal(t, "AC1009", batch.Files[0].Version)
	assert.Equal(t, 0, batch.Files[0].Count)
	assert.Equal(t, 0, batch.Summary.Issues)
	assert.NotEmpty(t, batch.RunID)
}

func TestCodesCommand(t *testing.T) {
	out, _, err := execute(t, "codes", "--color", "off")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, len(diag.Codes))
	assert.True(t, strings.HasPrefix(lines[0], "AUD0001  MISSING_REQUIRED_ROOT_DICT_ENTRY"))
}

func TestFilterCodes(t *testing.T) {
	s := diag.NewSink()
	s.Add(diag.InvalidColorIndex, "a", diag.EntityRef{}, nil)
	s.Add(diag.UndefinedLinetype, "b", diag.EntityRef{}, nil)
	s.Add(diag.InvalidColorIndex, "c", diag.EntityRef{}, nil)
	items := s.Items()

	assert.Len(t, filterCodes(items, nil), 3)
	got := filterCodes(items, []diag.Code{diag.InvalidColorIndex})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Message)
	assert.Equal(t, "c", got[1].Message)
	assert.Len(t, items, 3, "input is not modified")
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "drawing.yaml")
	mp := filepath.Join(dir, "drawing.dxfmp")
	require.NoError(t, os.WriteFile(in, []byte(drawing), 0o600))

	_, _, err := execute(t, "convert", in, mp)
	require.NoError(t, err)
	info, err := os.Stat(mp)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, _, err = execute(t, "convert", in, filepath.Join(dir, "drawing.dxf"))
	assert.Error(t, err)
}
