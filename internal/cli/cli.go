// Package cli frames raw command text read from stdin into
// individual commands for the executor. The engine's grammar itself
// has no notion of a terminator or a REPL; that framing is ambient
// tooling the way the ancestor's cmd/tdb wraps its websocket handler
// in a process entrypoint.
package cli

import (
	"bufio"
	"io"
	"strings"
)

// Frame reads r and yields one command per semicolon, honoring quoted
// strings (a semicolon inside a TEXT literal does not terminate the
// command) and skipping anything blank between terminators. It
// returns the accumulated commands rather than a lazy iterator: the
// ancestor's own line-based readers (internal/conn's JSON framing)
// also buffer a full message before handing it to a dispatcher, and a
// REPL's input is small enough that buffering it costs nothing.
func Frame(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var cmds []string
	var cur strings.Builder
	inQuote := false
	for _, b := range string(data) {
		switch {
		case b == '"':
			inQuote = !inQuote
			cur.WriteRune(b)
		case b == ';' && !inQuote:
			if s := strings.TrimSpace(cur.String()); s != "" {
				cmds = append(cmds, s)
			}
			cur.Reset()
		default:
			cur.WriteRune(b)
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		cmds = append(cmds, s)
	}
	return cmds, nil
}

// Scanner wraps Frame for incremental reading: it buffers lines from
// r until it has seen a terminating semicolon outside quotes, then
// yields one framed command at a time. This is what an interactive
// REPL uses instead of Frame, since Frame needs the entire stream up
// front.
type Scanner struct {
	lines   *bufio.Scanner
	pending []string
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{lines: bufio.NewScanner(r)}
}

// Next returns the next framed command and true, or ("", false) once
// the underlying reader is exhausted and no partial command remains.
func (s *Scanner) Next() (string, bool) {
	for {
		if len(s.pending) > 0 {
			cmd := s.pending[0]
			s.pending = s.pending[1:]
			return cmd, true
		}

		var buf strings.Builder
		for s.lines.Scan() {
			buf.WriteString(s.lines.Text())
			buf.WriteByte('\n')
			if hasTopLevelSemicolon(s.lines.Text()) {
				break
			}
		}
		if buf.Len() == 0 {
			return "", false
		}

		cmds, _ := Frame(strings.NewReader(buf.String()))
		if len(cmds) == 0 {
			continue
		}
		s.pending = cmds
	}
}

func hasTopLevelSemicolon(line string) bool {
	inQuote := false
	for _, b := range line {
		if b == '"' {
			inQuote = !inQuote
		}
		if b == ';' && !inQuote {
			return true
		}
	}
	return false
}
