package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-worksheets/internal/activity"
	"github.com/mind-engage/mindengage-worksheets/internal/config"
)

func run(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{cmd.Name()}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

const set = `topic: Fractions
questions:
  - id: q1
    type: mcq
    text: "What is $\\frac{1}{2}$ of 8?"
    options: ["2", "4", "6"]
    correct_answer: 1
    marks: 1
  - id: q2
    type: short
    text: Name the top number of a fraction.
    correct_answer: numerator
    marks: 2
`

func TestExportText(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "set.yaml")
	require.NoError(t, os.WriteFile(in, []byte(set), 0o644))
	outPath := filepath.Join(dir, "out", "fractions.txt")

	msg, err := run(t, exportCmd, "", "--in", in, "--format", "txt", "--answers", "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, msg, "2 questions, 3 marks")

	body, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "Fractions\n"))
	assert.Contains(t, string(body), "Answer: B. 4")
	assert.Contains(t, string(body), "Answer: numerator")
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	in := filepath.Join(t.TempDir(), "set.yaml")
	require.NoError(t, os.WriteFile(in, []byte(set), 0o644))
	_, err := run(t, exportCmd, "", "--in", in, "--format", "docx")
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	out, err := run(t, renderCmd, `x \leq 3\nand $\frac{1}{2}$`)
	require.NoError(t, err)
	assert.Contains(t, out, "≤")
	assert.Contains(t, out, "<br")
	assert.Contains(t, out, "<math")

	out, err = run(t, renderCmd, `x \leq 3`, "--plain")
	require.NoError(t, err)
	assert.Equal(t, "x ≤ 3\n", out)
}

func TestBuildServesHealth(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.BlobDriver = "fs"
	cfg.BlobBasePath = t.TempDir()
	cfg.WorkspaceDriver = "sqlite"
	cfg.WorkspaceDSN = "file:" + filepath.Join(t.TempDir(), "ws.db")
	cfg.PDFConverter = filepath.Join(t.TempDir(), "no-such-wkhtmltopdf")

	a, err := build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.close()
	assert.False(t, a.exporter.CanConvert())
	assert.IsType(t, &activity.SQLLog{}, a.activity)

	for _, p := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, 200, rr.Code, p)
	}
}
