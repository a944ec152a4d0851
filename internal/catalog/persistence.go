package catalog

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tobsdb/tobsdb/internal/schema"
	"github.com/tobsdb/tobsdb/internal/table"
	"github.com/tobsdb/tobsdb/internal/value"
	"github.com/tobsdb/tobsdb/pkg"
)

// DefaultPath is the fixed persistence file name spec.md §6 names.
const DefaultPath = "dbms_state.ser"

// tableSnapshot, databaseSnapshot and snapshot are the gob-encoded
// wire form of a Catalog. The primary-key index is deliberately not
// part of this shape: it is a derived structure rebuilt from a
// table's tuples on load, the same way the ancestor's GobRegisterTypes
// + ReadFromFile/WriteToFile pair (internal/conn/tdb.go) treats the
// in-memory row store as the thing worth persisting, not whatever
// secondary lookup structure sits on top of it.
type tableSnapshot struct {
	Name   string
	Attrs  []schema.Attribute
	Tuples [][]value.Value
}

type databaseSnapshot struct {
	Name   string
	Tables []tableSnapshot
}

type snapshot struct {
	ID        uuid.UUID
	SavedAt   time.Time
	Current   string
	Databases []databaseSnapshot
}

func toSnapshot(c *Catalog) snapshot {
	s := snapshot{ID: uuid.New(), SavedAt: time.Now(), Current: c.Current}
	for _, name := range c.ListDatabases() {
		db, ok := c.GetDatabase(name)
		if !ok {
			continue
		}
		ds := databaseSnapshot{Name: db.Name}
		for _, tname := range db.ListTables() {
			t, ok := db.GetTable(tname)
			if !ok {
				continue
			}
			ts := tableSnapshot{
				Name:  t.Name,
				Attrs: append([]schema.Attribute(nil), t.Schema.Attrs...),
			}
			for _, tup := range t.Tuples {
				ts.Tuples = append(ts.Tuples, tup.Values)
			}
			ds.Tables = append(ds.Tables, ts)
		}
		s.Databases = append(s.Databases, ds)
	}
	return s
}

func fromSnapshot(s snapshot) *Catalog {
	c := New()
	c.Current = s.Current
	for _, ds := range s.Databases {
		db := newDatabase(ds.Name)
		for _, ts := range ds.Tables {
			t := table.New(ts.Name, schema.New(ts.Attrs))
			for _, values := range ts.Tuples {
				t.LoadTuple(values)
			}
			db.Tables.Set(t.Name, t)
		}
		c.Databases.Insert(db.Name, db)
	}
	return c
}

// Save atomically writes every database, table, schema, tuple and the
// current-database selection to path (spec.md §4.5). It encodes to a
// temp file in path's directory and renames it into place, so a crash
// mid-write cannot corrupt the previous snapshot.
func Save(c *Catalog, path string) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(toSnapshot(c)); err != nil {
		return fmt.Errorf("encoding catalog snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".dbms-state-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming snapshot into place: %w", err)
	}
	return nil
}

// Load reads path and reconstructs the catalog it describes. A
// missing file yields a fresh empty catalog; an unreadable or corrupt
// one yields a fresh empty catalog plus a logged warning rather than a
// fatal error (§7's I/O error policy).
func Load(path string) *Catalog {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			pkg.WarnLog("failed to read persistence file, starting empty:", err)
		}
		return New()
	}

	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		pkg.WarnLog("failed to decode persistence file, starting empty:", err)
		return New()
	}

	pkg.InfoLog("loaded database snapshot", s.ID, "saved at", s.SavedAt)
	return fromSnapshot(s)
}
