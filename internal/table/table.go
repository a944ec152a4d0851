// Package table implements the tuple store: schema-validated storage
// for one table's rows, driven by a primary-key index when the schema
// declares one (spec.md §4.1).
package table

import (
	"fmt"
	"strings"

	"github.com/tobsdb/tobsdb/internal/condition"
	"github.com/tobsdb/tobsdb/internal/index"
	"github.com/tobsdb/tobsdb/internal/schema"
	"github.com/tobsdb/tobsdb/internal/value"
)

// Tuple is one row: a positionally-aligned value per schema attribute.
// The Index holds a reference to the same Tuple a Table.Tuples entry
// points to, so a mutation through either view is visible through the
// other (§5).
type Tuple struct {
	Values []value.Value
}

// Table owns a schema, its tuples in insertion order, and — when the
// schema declares a primary key — the ordered index over it.
type Table struct {
	Name   string
	Schema schema.Schema
	Tuples []*Tuple
	Index  *index.Index[*Tuple]
}

// New builds an empty table for schema s, allocating the primary-key
// index when s declares one.
func New(name string, s schema.Schema) *Table {
	t := &Table{Name: name, Schema: s}
	if ki, ok := s.KeyIndex(); ok {
		t.Index = index.New[*Tuple](s.Attrs[ki].Domain)
	}
	return t
}

func (t *Table) hasKey() (int, bool) { return t.Schema.KeyIndex() }

// orderedTuples returns tuples in the order search policy requires:
// ascending key order when keyed, insertion order otherwise (§4.1).
func (t *Table) orderedTuples() []*Tuple {
	if t.Index != nil {
		return t.Index.InOrder()
	}
	return t.Tuples
}

// Insert validates raws positionally against the schema and, on
// success, appends the resulting tuple and indexes it when keyed.
// raws holds one literal per attribute, already stripped of quoting
// by the caller. Validation stops at the first failing position
// (§4.1's "first failure terminates validation") and that single
// reason is returned as diag.
func (t *Table) Insert(raws []string) (ok bool, diag string) {
	if len(raws) != len(t.Schema.Attrs) {
		return false, fmt.Sprintf(
			"schema mismatch: table %s expects %d values, got %d",
			t.Name, len(t.Schema.Attrs), len(raws))
	}

	values := make([]value.Value, len(raws))
	for i, attr := range t.Schema.Attrs {
		raw := strings.TrimSpace(raws[i])
		if attr.PrimaryKey && raw == "" {
			return false, fmt.Sprintf("null primary key for table %s, attribute %s", t.Name, attr.Name)
		}

		v, err := value.ParseLiteral(attr.Domain, raw)
		if err != nil {
			return false, fmt.Sprintf("domain violation in table %s, attribute %s: %s", t.Name, attr.Name, err)
		}
		values[i] = v
	}

	keyIdx, keyed := t.hasKey()
	if keyed {
		if t.Index.Has(values[keyIdx]) {
			return false, fmt.Sprintf("duplicate key %s in table %s", values[keyIdx], t.Name)
		}
	}

	tup := &Tuple{Values: values}
	t.Tuples = append(t.Tuples, tup)
	if keyed {
		t.Index.Insert(values[keyIdx], tup)
	}
	return true, ""
}

// Select returns tuples matching cond (or every tuple when cond is
// nil), in the table's search-policy order.
func (t *Table) Select(cond *condition.Condition) []*Tuple {
	ordered := t.orderedTuples()
	if cond == nil {
		out := make([]*Tuple, len(ordered))
		copy(out, ordered)
		return out
	}
	out := []*Tuple{}
	for _, tup := range ordered {
		if ok, _ := condition.Eval(t.Schema, tup.Values, cond); ok {
			out = append(out, tup)
		}
	}
	return out
}

// MatchesCondition evaluates cond against a single tuple using this
// table's schema.
func (t *Table) MatchesCondition(tup *Tuple, cond *condition.Condition) bool {
	if cond == nil {
		return true
	}
	ok, _ := condition.Eval(t.Schema, tup.Values, cond)
	return ok
}

// Update applies patch (attribute position -> raw literal) to every
// tuple matching cond (or all tuples when cond is nil). A position
// that fails its per-position check is skipped with a diagnostic; the
// tuple still counts as matched. When the primary-key position is
// among patch and the key actually changes, the index entry is fully
// re-keyed (this module's resolution of spec.md §9's Open Question 1).
func (t *Table) Update(cond *condition.Condition, patch map[int]string) (matched int, diags []string) {
	keyIdx, keyed := t.hasKey()

	for _, tup := range t.orderedTuples() {
		if cond != nil {
			ok, _ := condition.Eval(t.Schema, tup.Values, cond)
			if !ok {
				continue
			}
		}
		matched++

		var oldKey value.Value
		keyTouched := false
		if keyed {
			oldKey = tup.Values[keyIdx]
		}

		for pos, raw := range patch {
			attr := t.Schema.Attrs[pos]
			trimmed := strings.TrimSpace(raw)

			if attr.PrimaryKey && trimmed == "" {
				diags = append(diags, fmt.Sprintf(
					"skipped null primary key on update to table %s", t.Name))
				continue
			}

			v, err := value.ParseLiteral(attr.Domain, trimmed)
			if err != nil {
				diags = append(diags, fmt.Sprintf(
					"skipped invalid value for %s.%s: %s", t.Name, attr.Name, err))
				continue
			}

			if attr.PrimaryKey {
				if other, ok := t.Index.Get(v); ok && other != tup {
					diags = append(diags, fmt.Sprintf(
						"skipped duplicate key update on table %s", t.Name))
					continue
				}
				keyTouched = true
			}

			tup.Values[pos] = v
		}

		if keyed && keyTouched {
			newKey := tup.Values[keyIdx]
			if value.Compare(t.Schema.Attrs[keyIdx].Domain, oldKey, newKey) != 0 {
				t.Index.Delete(oldKey)
				t.Index.Insert(newKey, tup)
			}
		}
	}
	return matched, diags
}

// Delete removes every tuple matching cond (or clears the table when
// cond is nil, replacing the index with a fresh empty one per §4.1)
// and returns the count removed. Index entries for removed tuples are
// fully cleaned up (this module's resolution of Open Question 2).
func (t *Table) Delete(cond *condition.Condition) int {
	keyIdx, keyed := t.hasKey()

	if cond == nil {
		n := len(t.Tuples)
		t.Tuples = nil
		if keyed {
			t.Index = index.New[*Tuple](t.Schema.Attrs[keyIdx].Domain)
		}
		return n
	}

	kept := make([]*Tuple, 0, len(t.Tuples))
	removed := 0
	for _, tup := range t.Tuples {
		ok, _ := condition.Eval(t.Schema, tup.Values, cond)
		if ok {
			removed++
			if keyed {
				t.Index.Delete(tup.Values[keyIdx])
			}
			continue
		}
		kept = append(kept, tup)
	}
	t.Tuples = kept
	return removed
}

// RenameAttributes forwards to Schema.Rename.
func (t *Table) RenameAttributes(names []string) error {
	return t.Schema.Rename(names)
}

// LoadTuple appends an already-validated tuple without re-running
// Insert's checks, indexing it when the schema is keyed. It exists
// for the persistence loader, which restores tuples that were valid
// when they were saved.
func (t *Table) LoadTuple(values []value.Value) {
	tup := &Tuple{Values: values}
	t.Tuples = append(t.Tuples, tup)
	if keyIdx, keyed := t.hasKey(); keyed {
		t.Index.Insert(values[keyIdx], tup)
	}
}
