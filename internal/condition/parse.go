package condition

import (
	"fmt"
	"strings"

	"github.com/tobsdb/tobsdb/internal/schema"
)

// Parse parses a WHERE clause body (without the "WHERE" keyword) into
// a Condition tree. raw must be non-blank; callers treat an absent or
// blank condition as "match everything" before calling Parse (§4.1).
func Parse(s schema.Schema, raw string) (*Condition, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("condition: empty expression")
	}
	return parseOr(s, raw)
}

func parseOr(s schema.Schema, raw string) (*Condition, error) {
	parts, err := splitTopLevel(raw, "OR")
	if err != nil {
		return nil, err
	}
	if len(parts) == 1 {
		return parseAnd(s, parts[0])
	}
	var out *Condition
	for _, part := range parts {
		c, err := parseAnd(s, part)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = c
		} else {
			out = or(out, c)
		}
	}
	return out, nil
}

func parseAnd(s schema.Schema, raw string) (*Condition, error) {
	parts, err := splitTopLevel(raw, "AND")
	if err != nil {
		return nil, err
	}
	if len(parts) == 1 {
		return parseAtom(s, parts[0])
	}
	var out *Condition
	for _, part := range parts {
		c, err := parseAtom(s, part)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = c
		} else {
			out = and(out, c)
		}
	}
	return out, nil
}

func parseAtom(s schema.Schema, raw string) (*Condition, error) {
	raw = strings.TrimSpace(raw)
	if inner, ok := stripEnclosingParens(raw); ok {
		return parseOr(s, inner)
	}
	return parseComparison(s, raw)
}

func parseComparison(s schema.Schema, raw string) (*Condition, error) {
	left, op, rightRaw, err := splitOperator(raw)
	if err != nil {
		return nil, err
	}

	right := Operand{Raw: rightRaw}
	if strings.HasPrefix(rightRaw, `"`) && strings.HasSuffix(rightRaw, `"`) && len(rightRaw) >= 2 {
		right.Raw = rightRaw[1 : len(rightRaw)-1]
	} else if _, ok := s.IndexOf(rightRaw); ok {
		right.IsAttr = true
		right.Attr = rightRaw
	}

	return cmp(left, op, right), nil
}

// stripEnclosingParens removes exactly one fully-enclosing parenthesis
// pair, i.e. the first '(' matches the last ')' with balanced depth in
// between (§4.3: "Strip a single fully-enclosing parenthesis pair").
func stripEnclosingParens(s string) (string, bool) {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return "", false
	}
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				depth++
			}
		case ')':
			if !inQuote {
				depth--
				if depth == 0 && i != len(s)-1 {
					return "", false
				}
			}
		}
	}
	return strings.TrimSpace(s[1 : len(s)-1]), true
}

// splitTopLevel splits raw on every occurrence of keyword that sits at
// parenthesis depth 0, outside a quoted literal, and on a word
// boundary (so it never matches inside an identifier or literal).
func splitTopLevel(raw, keyword string) ([]string, error) {
	depth := 0
	inQuote := false
	var parts []string
	start := 0
	upper := strings.ToUpper(raw)
	kw := strings.ToUpper(keyword)

	i := 0
	for i < len(raw) {
		c := raw[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			i++
		case inQuote:
			i++
		case c == '(':
			depth++
			i++
		case c == ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("condition: unbalanced parentheses")
			}
			i++
		case depth == 0 && isWordAt(upper, i, kw):
			parts = append(parts, raw[start:i])
			i += len(kw)
			start = i
		default:
			i++
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("condition: unbalanced parentheses")
	}
	parts = append(parts, raw[start:])
	if len(parts) == 1 {
		return parts, nil
	}
	trimmed := make([]string, len(parts))
	for i, p := range parts {
		trimmed[i] = strings.TrimSpace(p)
		if trimmed[i] == "" {
			return nil, fmt.Errorf("condition: empty operand around %s", keyword)
		}
	}
	return trimmed, nil
}

func isWordAt(upper string, i int, kw string) bool {
	if !strings.HasPrefix(upper[i:], kw) {
		return false
	}
	if i > 0 && isIdentChar(upper[i-1]) {
		return false
	}
	end := i + len(kw)
	if end < len(upper) && isIdentChar(upper[end]) {
		return false
	}
	return true
}

func isIdentChar(b byte) bool {
	return b == '_' ||
		(b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// splitOperator locates the relational operator per §4.3's RelOp rule,
// normalizing surrounding whitespace so "x>=3" and "x >= 3" parse
// identically.
func splitOperator(raw string) (left string, op Op, right string, err error) {
	inQuote := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == '"' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		var two string
		if i+1 < len(raw) {
			two = raw[i : i+2]
		}
		switch two {
		case "==":
			return finishSplit(raw, i, 2, Eq)
		case "!=":
			return finishSplit(raw, i, 2, Ne)
		case "<=":
			return finishSplit(raw, i, 2, Le)
		case ">=":
			return finishSplit(raw, i, 2, Ge)
		}
		switch c {
		case '=':
			return finishSplit(raw, i, 1, Eq)
		case '<':
			return finishSplit(raw, i, 1, Lt)
		case '>':
			return finishSplit(raw, i, 1, Gt)
		}
	}
	return "", 0, "", fmt.Errorf("condition: no relational operator found in %q", raw)
}

func finishSplit(raw string, start, width int, op Op) (string, Op, string, error) {
	left := strings.TrimSpace(raw[:start])
	right := strings.TrimSpace(raw[start+width:])
	if left == "" || right == "" {
		return "", 0, "", fmt.Errorf("condition: malformed comparison %q", raw)
	}
	return left, op, right, nil
}
