// Package catalog holds the process-wide set of databases plus the
// current-database selection, and the snapshot persistence that
// carries that state across runs (spec.md §3, §4.5).
package catalog

import (
	"fmt"
	"sort"

	"github.com/tobsdb/tobsdb/internal/table"
	"github.com/tobsdb/tobsdb/pkg"
	sorted "github.com/tobshub/go-sortedmap"
)

// Database is a case-sensitive mapping from table name to Table. It
// uses the ancestor's pkg.Map wrapper rather than a bare Go map so
// table lookup/insert/delete read the same way catalog-level code
// does elsewhere in this module.
type Database struct {
	Name   string
	Tables pkg.Map[string, *table.Table]
}

func newDatabase(name string) *Database {
	return &Database{Name: name, Tables: pkg.Map[string, *table.Table]{}}
}

func (d *Database) CreateTable(t *table.Table) error {
	if d.Tables.Has(t.Name) {
		return fmt.Errorf("table %s already exists in database %s", t.Name, d.Name)
	}
	d.Tables.Set(t.Name, t)
	return nil
}

func (d *Database) GetTable(name string) (*table.Table, bool) {
	if !d.Tables.Has(name) {
		return nil, false
	}
	return d.Tables.Get(name), true
}

// DropTable removes a table's schema and data from the database,
// which is the observable behavior of DELETE without WHERE at the
// executor level (spec.md §9.3) — distinct from Table.Delete(nil),
// which only empties a table's tuples.
func (d *Database) DropTable(name string) bool {
	if !d.Tables.Has(name) {
		return false
	}
	d.Tables.Delete(name)
	return true
}

// ListTables returns every table name in the database, sorted for a
// deterministic SHOW TABLES / DESCRIBE ALL ordering.
func (d *Database) ListTables() []string {
	names := d.Tables.Keys()
	sort.Strings(names)
	return names
}

func databaseLess(a, b *Database) bool { return a.Name < b.Name }

// Catalog is the root of the serialized snapshot: every database plus
// which one, if any, is current.
type Catalog struct {
	Databases *sorted.SortedMap[string, *Database]
	Current   string
}

// New returns an empty catalog with no current database selected.
func New() *Catalog {
	return &Catalog{Databases: sorted.New[string, *Database](0, databaseLess)}
}

// CreateDatabase adds name to the catalog. It does not switch the
// current database (spec.md §4.4).
func (c *Catalog) CreateDatabase(name string) error {
	if !c.Databases.Insert(name, newDatabase(name)) {
		return fmt.Errorf("database %s already exists", name)
	}
	return nil
}

// UseDatabase sets the current-database pointer, erroring if name is
// unknown.
func (c *Catalog) UseDatabase(name string) error {
	if _, ok := c.Databases.Get(name); !ok {
		return fmt.Errorf("database %s does not exist", name)
	}
	c.Current = name
	return nil
}

// CurrentDatabase returns the selected database, erroring when none is
// selected (spec.md §4.4's "refuse if no current database").
func (c *Catalog) CurrentDatabase() (*Database, error) {
	if c.Current == "" {
		return nil, fmt.Errorf("no current database selected")
	}
	db, ok := c.Databases.Get(c.Current)
	if !ok {
		return nil, fmt.Errorf("current database %s no longer exists", c.Current)
	}
	return db, nil
}

func (c *Catalog) GetDatabase(name string) (*Database, bool) {
	return c.Databases.Get(name)
}

// ListDatabases returns every database name in ascending order, as
// maintained by the underlying sorted map.
func (c *Catalog) ListDatabases() []string {
	iter, err := c.Databases.IterCh()
	if err != nil {
		return nil
	}

	var names []string
	for rec := range iter.Records() {
		names = append(names, rec.Val.Name)
	}
	return names
}
