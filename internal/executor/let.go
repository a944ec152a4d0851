package executor

import (
	"fmt"
	"strings"

	"github.com/tobsdb/tobsdb/internal/schema"
	"github.com/tobsdb/tobsdb/internal/table"
	"github.com/tobsdb/tobsdb/internal/value"
)

// execLet materializes a SELECT into a new keyed table: "LET t KEY k
// <SELECT cols FROM ... [WHERE ...]>". spec.md §9.4 documents two
// candidate syntaxes for this; DESIGN.md's Open Question decision
// keeps only the angle-bracket form and rejects the free-form one
// outright, so there is exactly one way to write this command.
func (e *Executor) execLet(rest string) error {
	newTableName, r2 := splitKeyword(rest)
	if !value.ValidIdentifier(newTableName) {
		return newErr(KindSyntax, "invalid table name %q", newTableName)
	}

	kw, r3 := splitKeyword(r2)
	if !strings.EqualFold(kw, "KEY") {
		return newErr(KindSyntax, "LET requires KEY attr <SELECT ...>")
	}

	keyAttrRaw, r4 := splitKeyword(r3)
	r4 = strings.TrimSpace(r4)
	if !strings.HasPrefix(r4, "<") || !strings.HasSuffix(r4, ">") {
		return newErr(KindSyntax, "LET's inner SELECT must be delimited by < >")
	}
	inner := strings.TrimSpace(r4[1 : len(r4)-1])

	selKw, selRest := splitKeyword(inner)
	if !strings.EqualFold(selKw, "SELECT") {
		return newErr(KindSyntax, "LET's inner statement must be a SELECT")
	}

	cols, tables, whereClause, err := e.parseSelectClauses(selRest)
	if err != nil {
		return err
	}

	rows, joined, err := e.crossProductSelect(tables, whereClause)
	if err != nil {
		return err
	}

	keyAttr := strings.TrimSpace(keyAttrRaw)
	if dot := strings.IndexByte(keyAttr, '.'); dot >= 0 {
		keyAttr = keyAttr[dot+1:]
	}

	colIdx := make([]int, len(cols))
	attrs := make([]schema.Attribute, len(cols))
	keyPos := -1
	for i, c := range cols {
		idx, ok := resolveColumn(joined, c)
		if !ok {
			return newErr(KindSemantic, "unknown column %q in LET projection", c)
		}
		colIdx[i] = idx

		attrName := c
		if dot := strings.IndexByte(attrName, '.'); dot >= 0 {
			attrName = attrName[dot+1:]
		}
		attrs[i] = schema.Attribute{Name: attrName, Domain: joined.Attrs[idx].Domain}
		if strings.EqualFold(attrName, keyAttr) {
			attrs[i].PrimaryKey = true
			keyPos = i
		}
	}
	if keyPos == -1 {
		return newErr(KindSemantic, "LET key attribute %s must appear in the projection", keyAttr)
	}

	db, err := e.Catalog.CurrentDatabase()
	if err != nil {
		return newErr(KindSemantic, "%s", err)
	}

	newTable := table.New(newTableName, schema.New(attrs))
	for _, row := range rows {
		raws := make([]string, len(cols))
		for i, idx := range colIdx {
			raws[i] = row[idx].String()
		}
		if ok, diag := newTable.Insert(raws); !ok {
			fmt.Fprintln(e.Out, "WARN:", diag)
		}
	}

	if err := db.CreateTable(newTable); err != nil {
		return newErr(KindSemantic, "%s", err)
	}
	fmt.Fprintf(e.Out, "Table %s created with %d row(s).\n", newTableName, len(newTable.Tuples))
	return nil
}
