package executor

import (
	"fmt"
	"strings"

	"github.com/tobsdb/tobsdb/internal/condition"
	"github.com/tobsdb/tobsdb/internal/schema"
	"github.com/tobsdb/tobsdb/internal/table"
	"github.com/tobsdb/tobsdb/internal/value"
)

func (e *Executor) execSelect(rest string) error {
	cols, tables, whereClause, err := e.parseSelectClauses(rest)
	if err != nil {
		return err
	}

	rows, joined, err := e.crossProductSelect(tables, whereClause)
	if err != nil {
		return err
	}
	return e.printProjection(joined, rows, cols)
}

// parseSelectClauses splits "cols FROM t1, t2 [WHERE cond]" into its
// projection list and resolved table handles.
func (e *Executor) parseSelectClauses(rest string) (cols []string, tables []*table.Table, whereClause string, err error) {
	colsPart, afterFrom, ok := splitOnKeyword(rest, "FROM")
	if !ok {
		return nil, nil, "", newErr(KindSyntax, "SELECT requires FROM")
	}
	tablesPart, where := splitWhere(afterFrom)

	cols = splitTopLevelCommas(colsPart)
	tableNames := splitTopLevelCommas(tablesPart)

	db, derr := e.Catalog.CurrentDatabase()
	if derr != nil {
		return nil, nil, "", newErr(KindSemantic, "%s", derr)
	}

	tables = make([]*table.Table, len(tableNames))
	for i, n := range tableNames {
		t, ok := db.GetTable(n)
		if !ok {
			return nil, nil, "", newErr(KindSemantic, "table %s does not exist", n)
		}
		tables[i] = t
	}
	return cols, tables, where, nil
}

// joinSchema concatenates every table's attributes, qualified as
// "table.attr", so a multi-table condition or projection can name a
// column unambiguously (§4.4's cross-product join).
func joinSchema(tables []*table.Table) schema.Schema {
	var attrs []schema.Attribute
	for _, t := range tables {
		for _, a := range t.Schema.Attrs {
			attrs = append(attrs, schema.Attribute{Name: t.Name + "." + a.Name, Domain: a.Domain})
		}
	}
	return schema.New(attrs)
}

// resolveColumn looks a projection/SET column up first by exact match
// against s (handles both a plain single-table schema and a qualified
// joined one), then by unqualified suffix match against a joined
// schema's "table.attr" names.
func resolveColumn(s schema.Schema, col string) (int, bool) {
	if idx, ok := s.IndexOf(col); ok {
		return idx, true
	}
	for i, a := range s.Attrs {
		parts := strings.SplitN(a.Name, ".", 2)
		if len(parts) == 2 && strings.EqualFold(parts[1], col) {
			return i, true
		}
	}
	return 0, false
}

// crossProductSelect evaluates a (possibly multi-table) FROM list: a
// single table is just Table.Select; two or more are joined by nested
// iteration in FROM-list order, matching the order spec.md's §4.4
// cross-product scenario expects, with cond (if any) evaluated once
// per combined row against the joined schema.
func (e *Executor) crossProductSelect(tables []*table.Table, whereClause string) ([][]value.Value, schema.Schema, error) {
	if len(tables) == 1 {
		t := tables[0]
		var cond *condition.Condition
		if whereClause != "" {
			c, err := condition.Parse(t.Schema, whereClause)
			if err != nil {
				return nil, schema.Schema{}, newErr(KindSyntax, "%s", err)
			}
			cond = c
		}
		tuples := t.Select(cond)
		rows := make([][]value.Value, len(tuples))
		for i, tup := range tuples {
			rows[i] = tup.Values
		}
		return rows, t.Schema, nil
	}

	joined := joinSchema(tables)
	var cond *condition.Condition
	if whereClause != "" {
		c, err := condition.Parse(joined, whereClause)
		if err != nil {
			return nil, schema.Schema{}, newErr(KindSyntax, "%s", err)
		}
		cond = c
	}

	var rows [][]value.Value
	var build func(idx int, acc []value.Value)
	build = func(idx int, acc []value.Value) {
		if idx == len(tables) {
			if cond != nil {
				if ok, _ := condition.Eval(joined, acc, cond); !ok {
					return
				}
			}
			rows = append(rows, append([]value.Value(nil), acc...))
			return
		}
		for _, tup := range tables[idx].Select(nil) {
			build(idx+1, append(acc, tup.Values...))
		}
	}
	build(0, []value.Value{})
	return rows, joined, nil
}

// printProjection writes a tab-separated header followed by one
// numbered row per tuple (§4.4/§6: "the N. prefix precedes each row
// and starts at 1").
func (e *Executor) printProjection(s schema.Schema, rows [][]value.Value, cols []string) error {
	colIdx := make([]int, len(cols))
	for i, c := range cols {
		idx, ok := resolveColumn(s, c)
		if !ok {
			return newErr(KindSemantic, "unknown column %q in projection", c)
		}
		colIdx[i] = idx
	}

	fmt.Fprintln(e.Out, strings.Join(cols, "\t"))
	if len(rows) == 0 {
		fmt.Fprintln(e.Out, "Nothing found.")
		return nil
	}
	for i, row := range rows {
		parts := make([]string, len(colIdx))
		for j, idx := range colIdx {
			parts[j] = row[idx].String()
		}
		fmt.Fprintf(e.Out, "%d.\t%s\n", i+1, strings.Join(parts, "\t"))
	}
	return nil
}
