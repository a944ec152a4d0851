package executor_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tobsdb/tobsdb/internal/executor"
	"gotest.tools/assert"
)

func writeInputFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "commands.txt")
	assert.NilError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))
	return path
}

func TestInputMissingFileIsIOError(t *testing.T) {
	e, _ := newExecutor(t)
	err := e.Execute("INPUT " + filepath.Join(t.TempDir(), "does-not-exist.txt"))
	var execErr *executor.Error
	assert.Assert(t, errors.As(err, &execErr))
	assert.Equal(t, execErr.Kind, executor.KindIO)
}

func TestInputSkipsBlankLinesAndLogsEachCommand(t *testing.T) {
	e, out := newExecutor(t)
	path := writeInputFile(t,
		"CREATE DATABASE d",
		"",
		"   ",
		"USE d",
		"CREATE TABLE t ( id INTEGER PRIMARY KEY )",
	)

	out.Reset()
	assert.NilError(t, e.Execute("INPUT "+path))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, len(lines), 3)
	assert.Equal(t, lines[0], "CREATE DATABASE d -> OK")
	assert.Equal(t, lines[1], "USE d -> OK")
	assert.Equal(t, lines[2], "CREATE TABLE t ( id INTEGER PRIMARY KEY ) -> OK")
}

func TestInputLogsErrorStatusPerLine(t *testing.T) {
	e, out := newExecutor(t)
	path := writeInputFile(t, "FROBNICATE t")

	out.Reset()
	assert.NilError(t, e.Execute("INPUT "+path))
	assert.Assert(t, strings.Contains(out.String(), "FROBNICATE t -> ERROR:"))
}

func TestInputWithOutputRedirectsLogToFile(t *testing.T) {
	e, out := newExecutor(t)
	inPath := writeInputFile(t, "CREATE DATABASE d", "USE d")
	outPath := filepath.Join(t.TempDir(), "result.log")

	out.Reset()
	assert.NilError(t, e.Execute("INPUT "+inPath+" OUTPUT "+outPath))
	assert.Equal(t, out.String(), "")

	logged, err := os.ReadFile(outPath)
	assert.NilError(t, err)
	lines := strings.Split(strings.TrimSpace(string(logged)), "\n")
	assert.Equal(t, lines[0], "CREATE DATABASE d -> OK")
	assert.Equal(t, lines[1], "USE d -> OK")
}

func TestInputExitStopsProcessingAndPropagatesErrExit(t *testing.T) {
	e, out := newExecutor(t)
	path := writeInputFile(t,
		"CREATE DATABASE d",
		"EXIT",
		"USE d",
	)

	out.Reset()
	err := e.Execute("INPUT " + path)
	assert.Assert(t, errors.Is(err, executor.ErrExit))

	text := out.String()
	assert.Assert(t, strings.Contains(text, "Goodbye"))
	assert.Assert(t, strings.Contains(text, "EXIT -> OK"))
	assert.Assert(t, !strings.Contains(text, "USE d"))
}

func TestDescribeAllPrintsEveryTable(t *testing.T) {
	e, out := newExecutor(t)
	assert.NilError(t, run(t, e, "CREATE DATABASE d", "USE d",
		"CREATE TABLE a ( x INTEGER PRIMARY KEY )",
		"CREATE TABLE b ( y TEXT )",
	))

	out.Reset()
	assert.NilError(t, e.Execute("DESCRIBE ALL"))
	text := out.String()
	assert.Assert(t, strings.Contains(text, "Table a"))
	assert.Assert(t, strings.Contains(text, "Table b"))
	assert.Assert(t, strings.Contains(text, "x\tINTEGER PRIMARY KEY"))
	assert.Assert(t, strings.Contains(text, "y\tTEXT"))
}
