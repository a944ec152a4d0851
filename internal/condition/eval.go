package condition

import (
	"fmt"

	"github.com/tobsdb/tobsdb/internal/schema"
	"github.com/tobsdb/tobsdb/internal/value"
)

// Eval evaluates cond against the positional values of a tuple under
// schema s. values[i] must correspond to s.Attrs[i]. A nil cond
// matches everything, covering §4.1's "condition absent/blank" case
// for callers that parse once and reuse the *Condition across tuples.
func Eval(s schema.Schema, values []value.Value, cond *Condition) (bool, []string) {
	if cond == nil {
		return true, nil
	}
	switch cond.Kind {
	case KindAnd:
		l, ld := Eval(s, values, cond.L)
		r, rd := Eval(s, values, cond.R)
		return l && r, append(ld, rd...)
	case KindOr:
		l, ld := Eval(s, values, cond.L)
		r, rd := Eval(s, values, cond.R)
		return l || r, append(ld, rd...)
	default:
		return evalCmp(s, values, cond)
	}
}

func evalCmp(s schema.Schema, values []value.Value, cond *Condition) (bool, []string) {
	li, ok := s.IndexOf(cond.Attr)
	if !ok {
		return false, []string{fmt.Sprintf("unknown attribute %q in condition", cond.Attr)}
	}
	domain := s.Attrs[li].Domain
	left := values[li]

	var rightRaw string
	if cond.Right.IsAttr {
		ri, ok := s.IndexOf(cond.Right.Attr)
		if !ok {
			return false, []string{fmt.Sprintf("unknown attribute %q in condition", cond.Right.Attr)}
		}
		rightRaw = values[ri].String()
	} else {
		rightRaw = cond.Right.Raw
	}

	right, err := value.ParseLiteral(domain, rightRaw)
	if err != nil {
		return false, []string{fmt.Sprintf("cannot compare %q against %s: %s", rightRaw, domain, err)}
	}

	c := value.Compare(domain, left, right)
	switch cond.Op {
	case Eq:
		return c == 0, nil
	case Ne:
		return c != 0, nil
	case Lt:
		return c < 0, nil
	case Le:
		return c <= 0, nil
	case Gt:
		return c > 0, nil
	case Ge:
		return c >= 0, nil
	default:
		return false, []string{fmt.Sprintf("unknown operator %v", cond.Op)}
	}
}
