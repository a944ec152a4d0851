package executor

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tobsdb/tobsdb/pkg"
)

// execInput implements "INPUT file [OUTPUT file]" (§4.4): one command
// per non-empty line of path, executed in turn, with a per-command
// status line appended to a log. With OUTPUT given, the log (and the
// sub-commands' own output) is written to outputPath instead of this
// executor's own Out; without it, everything interleaves into Out as
// it runs.
func (e *Executor) execInput(rest string) error {
	pathPart, outPart, hasOutput := splitOnKeyword(rest, "OUTPUT")
	path := strings.TrimSpace(pathPart)

	f, err := os.Open(path)
	if err != nil {
		return newErr(KindIO, "cannot read input file %s: %s", path, err)
	}
	defer f.Close()

	var rawLines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		rawLines = append(rawLines, strings.TrimSpace(scanner.Text()))
	}
	lines := pkg.Filter(rawLines, func(l string) bool { return l != "" })

	dest := e.Out
	var log strings.Builder
	if hasOutput {
		dest = &log
	}
	sub := &Executor{Catalog: e.Catalog, Out: dest, StatePath: e.StatePath}

	exited := false
	for _, line := range lines {
		status := "OK"
		if err := sub.Execute(line); err != nil {
			if errors.Is(err, ErrExit) {
				exited = true
			} else {
				status = "ERROR: " + err.Error()
			}
		}
		fmt.Fprintf(dest, "%s -> %s\n", line, status)
		if exited {
			break
		}
	}

	if hasOutput {
		outPath := strings.TrimSpace(outPart)
		if err := os.WriteFile(outPath, []byte(log.String()), 0o644); err != nil {
			return newErr(KindIO, "cannot write output file %s: %s", outPath, err)
		}
	}

	if exited {
		return ErrExit
	}
	return nil
}
