// Package executor dispatches parsed commands against a catalog. It
// is the only package that writes to the process's output stream —
// every other package stays pure and testable on its return values.
package executor

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tobsdb/tobsdb/internal/catalog"
	"github.com/tobsdb/tobsdb/internal/condition"
	"github.com/tobsdb/tobsdb/internal/schema"
	"github.com/tobsdb/tobsdb/internal/table"
	"github.com/tobsdb/tobsdb/internal/value"
)

// Executor runs commands against Catalog, writing query output and
// diagnostics to Out. StatePath is where EXIT persists the snapshot.
type Executor struct {
	Catalog   *catalog.Catalog
	Out       io.Writer
	StatePath string
}

func New(c *catalog.Catalog, out io.Writer, statePath string) *Executor {
	return &Executor{Catalog: c, Out: out, StatePath: statePath}
}

// Execute runs a single command (without its terminating semicolon,
// though a trailing one is tolerated). It returns ErrExit once an
// EXIT command has run; any other non-nil error is a diagnosed
// failure that has already been written to Out.
func (e *Executor) Execute(raw string) error {
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), ";"))
	if raw == "" {
		return nil
	}

	keyword, rest := splitKeyword(raw)
	var err error
	switch strings.ToUpper(keyword) {
	case "CREATE":
		err = e.execCreate(rest)
	case "USE":
		err = e.execUse(rest)
	case "DESCRIBE":
		err = e.execDescribe(rest)
	case "SELECT":
		err = e.execSelect(rest)
	case "LET":
		err = e.execLet(rest)
	case "RENAME":
		err = e.execRename(rest)
	case "INSERT":
		err = e.execInsert(rest)
	case "UPDATE":
		err = e.execUpdate(rest)
	case "DELETE":
		err = e.execDelete(rest)
	case "SHOW":
		err = e.execShow(rest)
	case "INPUT":
		err = e.execInput(rest)
	case "EXIT":
		err = e.execExit(rest)
	default:
		err = newErr(KindSyntax, "unknown command %q", keyword)
	}

	if err != nil && !errors.Is(err, ErrExit) {
		fmt.Fprintln(e.Out, "ERROR:", err)
	}
	return err
}

func (e *Executor) execCreate(rest string) error {
	kw, r2 := splitKeyword(rest)
	switch strings.ToUpper(kw) {
	case "DATABASE":
		name := strings.TrimSpace(r2)
		if !value.ValidIdentifier(name) {
			return newErr(KindSyntax, "invalid database name %q", name)
		}
		if err := e.Catalog.CreateDatabase(name); err != nil {
			return newErr(KindSemantic, "%s", err)
		}
		return nil
	case "TABLE":
		return e.createTable(r2)
	default:
		return newErr(KindSyntax, "expected DATABASE or TABLE after CREATE")
	}
}

func (e *Executor) createTable(rest string) error {
	name, body, err := splitNameAndParens(rest)
	if err != nil {
		return newErr(KindSyntax, "%s", err)
	}
	if !value.ValidIdentifier(name) {
		return newErr(KindSyntax, "invalid table name %q", name)
	}

	db, err := e.Catalog.CurrentDatabase()
	if err != nil {
		return newErr(KindSemantic, "%s", err)
	}

	defs := splitTopLevelCommas(body)
	attrs := make([]schema.Attribute, 0, len(defs))
	for _, def := range defs {
		attr, err := parseAttrDef(def)
		if err != nil {
			return newErr(KindSyntax, "%s", err)
		}
		attrs = append(attrs, attr)
	}

	sc := schema.New(attrs)
	if err := sc.Validate(); err != nil {
		return newErr(KindSemantic, "%s", err)
	}
	if err := db.CreateTable(table.New(name, sc)); err != nil {
		return newErr(KindSemantic, "%s", err)
	}
	return nil
}

// parseAttrDef reads "name domain [PRIMARY [KEY]]". Only the third
// whitespace-delimited token is checked against PRIMARY; anything
// after that (including a missing or misspelled KEY) is ignored, per
// DESIGN.md's Open Question decision on how strict this check is.
func parseAttrDef(def string) (schema.Attribute, error) {
	tokens := strings.Fields(def)
	if len(tokens) < 2 {
		return schema.Attribute{}, fmt.Errorf("malformed attribute definition %q", def)
	}
	name := tokens[0]
	if !value.ValidIdentifier(name) {
		return schema.Attribute{}, fmt.Errorf("invalid attribute name %q", name)
	}
	domain, ok := value.ParseDomain(tokens[1])
	if !ok {
		return schema.Attribute{}, fmt.Errorf("invalid domain %q", tokens[1])
	}
	primary := len(tokens) >= 3 && strings.EqualFold(tokens[2], "PRIMARY")
	return schema.Attribute{Name: name, Domain: domain, PrimaryKey: primary}, nil
}

func (e *Executor) execUse(rest string) error {
	name := strings.TrimSpace(rest)
	if err := e.Catalog.UseDatabase(name); err != nil {
		return newErr(KindSemantic, "%s", err)
	}
	return nil
}

func (e *Executor) execDescribe(rest string) error {
	name := strings.TrimSpace(rest)
	db, err := e.Catalog.CurrentDatabase()
	if err != nil {
		return newErr(KindSemantic, "%s", err)
	}

	if strings.EqualFold(name, "ALL") {
		for _, tname := range db.ListTables() {
			t, _ := db.GetTable(tname)
			e.printSchema(t)
		}
		return nil
	}

	t, ok := db.GetTable(name)
	if !ok {
		return newErr(KindSemantic, "table %s does not exist", name)
	}
	e.printSchema(t)
	return nil
}

func (e *Executor) printSchema(t *table.Table) {
	fmt.Fprintf(e.Out, "Table %s\n", t.Name)
	for _, a := range t.Schema.Attrs {
		marker := ""
		if a.PrimaryKey {
			marker = " PRIMARY KEY"
		}
		fmt.Fprintf(e.Out, "\t%s\t%s%s\n", a.Name, a.Domain, marker)
	}
}

func (e *Executor) execInsert(rest string) error {
	rest = strings.TrimSpace(rest)
	firstTok, _ := splitKeyword(rest)
	if strings.EqualFold(firstTok, "INTO") {
		return newErr(KindSyntax, "INSERT INTO is not supported; use INSERT table VALUES (...)")
	}

	tableName, r2 := splitKeyword(rest)
	kw, body := splitKeyword(r2)
	if !strings.EqualFold(kw, "VALUES") {
		return newErr(KindSyntax, "expected VALUES after table name")
	}

	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "(") || !strings.HasSuffix(body, ")") {
		return newErr(KindSyntax, "expected ( ... ) after VALUES")
	}
	raws := splitTopLevelCommas(body[1 : len(body)-1])
	for i := range raws {
		raws[i] = stripQuotes(raws[i])
	}

	db, err := e.Catalog.CurrentDatabase()
	if err != nil {
		return newErr(KindSemantic, "%s", err)
	}
	t, ok := db.GetTable(tableName)
	if !ok {
		return newErr(KindSemantic, "table %s does not exist", tableName)
	}

	if ok, diag := t.Insert(raws); !ok {
		return newErr(KindConstraint, "%s", diag)
	}
	return nil
}

func (e *Executor) execUpdate(rest string) error {
	tableName, r2 := splitKeyword(rest)
	kw, r3 := splitKeyword(r2)
	if !strings.EqualFold(kw, "SET") {
		return newErr(KindSyntax, "expected SET after table name")
	}

	db, err := e.Catalog.CurrentDatabase()
	if err != nil {
		return newErr(KindSemantic, "%s", err)
	}
	t, ok := db.GetTable(tableName)
	if !ok {
		return newErr(KindSemantic, "table %s does not exist", tableName)
	}

	setClause, whereClause := splitWhere(r3)
	patch := map[int]string{}
	for _, a := range splitTopLevelCommas(setClause) {
		name, raw, err := splitAssign(a)
		if err != nil {
			return newErr(KindSyntax, "%s", err)
		}
		idx, ok := t.Schema.IndexOf(name)
		if !ok {
			return newErr(KindSemantic, "table %s has no attribute %s", tableName, name)
		}
		patch[idx] = raw
	}

	var cond *condition.Condition
	if whereClause != "" {
		cond, err = condition.Parse(t.Schema, whereClause)
		if err != nil {
			return newErr(KindSyntax, "%s", err)
		}
	}

	matched, diags := t.Update(cond, patch)
	for _, d := range diags {
		fmt.Fprintln(e.Out, "WARN:", d)
	}
	fmt.Fprintf(e.Out, "%d row(s) updated.\n", matched)
	return nil
}

func (e *Executor) execDelete(rest string) error {
	tableName, whereClause := splitWhere(rest)
	tableName = strings.TrimSpace(tableName)

	db, err := e.Catalog.CurrentDatabase()
	if err != nil {
		return newErr(KindSemantic, "%s", err)
	}
	t, ok := db.GetTable(tableName)
	if !ok {
		return newErr(KindSemantic, "table %s does not exist", tableName)
	}

	if whereClause == "" {
		db.DropTable(tableName)
		fmt.Fprintf(e.Out, "Table %s dropped.\n", tableName)
		return nil
	}

	cond, err := condition.Parse(t.Schema, whereClause)
	if err != nil {
		return newErr(KindSyntax, "%s", err)
	}
	n := t.Delete(cond)
	fmt.Fprintf(e.Out, "%d row(s) deleted.\n", n)
	return nil
}

func (e *Executor) execRename(rest string) error {
	name, body, err := splitNameAndParens(rest)
	if err != nil {
		return newErr(KindSyntax, "%s", err)
	}

	db, err := e.Catalog.CurrentDatabase()
	if err != nil {
		return newErr(KindSemantic, "%s", err)
	}
	t, ok := db.GetTable(name)
	if !ok {
		return newErr(KindSemantic, "table %s does not exist", name)
	}

	if err := t.RenameAttributes(splitTopLevelCommas(body)); err != nil {
		return newErr(KindSemantic, "%s", err)
	}
	return nil
}

func (e *Executor) execShow(rest string) error {
	kw, r2 := splitKeyword(rest)
	switch strings.ToUpper(kw) {
	case "DATABASES":
		for _, n := range e.Catalog.ListDatabases() {
			fmt.Fprintln(e.Out, n)
		}
		return nil
	case "TABLES":
		db, err := e.Catalog.CurrentDatabase()
		if err != nil {
			return newErr(KindSemantic, "%s", err)
		}
		for _, n := range db.ListTables() {
			fmt.Fprintln(e.Out, n)
		}
		return nil
	case "RECORDS":
		name := strings.TrimSpace(r2)
		db, err := e.Catalog.CurrentDatabase()
		if err != nil {
			return newErr(KindSemantic, "%s", err)
		}
		t, ok := db.GetTable(name)
		if !ok {
			return newErr(KindSemantic, "table %s does not exist", name)
		}
		cols := make([]string, len(t.Schema.Attrs))
		for i, a := range t.Schema.Attrs {
			cols[i] = a.Name
		}
		rows := make([][]value.Value, 0, len(t.Tuples))
		for _, tup := range t.Select(nil) {
			rows = append(rows, tup.Values)
		}
		return e.printProjection(t.Schema, rows, cols)
	default:
		return newErr(KindSyntax, "unknown SHOW target %q", kw)
	}
}

func (e *Executor) execExit(rest string) error {
	if e.StatePath != "" {
		if err := catalog.Save(e.Catalog, e.StatePath); err != nil {
			return newErr(KindIO, "failed to save snapshot: %s", err)
		}
	}
	fmt.Fprintln(e.Out, "Goodbye.")
	return ErrExit
}
