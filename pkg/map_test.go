package pkg_test

import (
	"testing"

	"github.com/tobsdb/tobsdb/pkg"
	"gotest.tools/assert"
)

func TestMapSetGetHasDelete(t *testing.T) {
	m := pkg.Map[string, int]{}
	m.Set("a", 1)
	assert.Assert(t, m.Has("a"))
	assert.Equal(t, m.Get("a"), 1)

	m.Delete("a")
	assert.Assert(t, !m.Has("a"))
}

func TestMapKeys(t *testing.T) {
	m := pkg.Map[string, int]{"a": 1, "b": 2}
	keys := m.Keys()
	assert.Equal(t, len(keys), 2)
}
