// Package schema defines the ordered attribute list that gives a
// table's tuples their shape.
package schema

import (
	"fmt"
	"strings"

	"github.com/tobsdb/tobsdb/internal/value"
)

// Attribute is one column: a display name, a declared domain and
// whether it carries the table's primary key.
type Attribute struct {
	Name       string
	Domain     value.Domain
	PrimaryKey bool
}

// Schema is the ordered attribute list shared by every tuple in a table.
type Schema struct {
	Attrs []Attribute
}

func New(attrs []Attribute) Schema { return Schema{Attrs: attrs} }

func (s Schema) Len() int { return len(s.Attrs) }

// Validate enforces that at most one attribute carries the primary key.
func (s Schema) Validate() error {
	seen := false
	for _, a := range s.Attrs {
		if a.PrimaryKey {
			if seen {
				return fmt.Errorf("schema: at most one attribute may be PRIMARY KEY")
			}
			seen = true
		}
	}
	return nil
}

// KeyIndex returns the position of the primary key attribute, if any.
func (s Schema) KeyIndex() (int, bool) {
	for i, a := range s.Attrs {
		if a.PrimaryKey {
			return i, true
		}
	}
	return 0, false
}

// HasKey reports whether the schema declares a primary key.
func (s Schema) HasKey() bool {
	_, ok := s.KeyIndex()
	return ok
}

// IndexOf resolves an attribute name case-insensitively.
func (s Schema) IndexOf(name string) (int, bool) {
	for i, a := range s.Attrs {
		if strings.EqualFold(a.Name, name) {
			return i, true
		}
	}
	return 0, false
}

// Rename replaces attribute names positionally, leaving domains and
// the primary-key flag untouched. Renaming to the current names, or
// renaming twice, composes as spec.md §8.5 requires because this only
// ever overwrites the Name field.
func (s *Schema) Rename(names []string) error {
	if len(names) != len(s.Attrs) {
		return fmt.Errorf("schema: rename expects %d names, got %d", len(s.Attrs), len(names))
	}
	for i, n := range names {
		s.Attrs[i].Name = n
	}
	return nil
}

// Clone returns an independent copy, so a derived Schema built from it
// does not alias the original's backing array.
func (s Schema) Clone() Schema {
	out := make([]Attribute, len(s.Attrs))
	copy(out, s.Attrs)
	return Schema{Attrs: out}
}
