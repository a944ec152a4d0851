package table_test

import (
	"testing"

	"github.com/tobsdb/tobsdb/internal/condition"
	"github.com/tobsdb/tobsdb/internal/schema"
	"github.com/tobsdb/tobsdb/internal/table"
	"github.com/tobsdb/tobsdb/internal/value"
	"gotest.tools/assert"
)

func newTestTable() *table.Table {
	s := schema.New([]schema.Attribute{
		{Name: "id", Domain: value.Integer, PrimaryKey: true},
		{Name: "n", Domain: value.Text},
	})
	return table.New("t", s)
}

func selectValues(t *testing.T, tbl *table.Table, cond *condition.Condition) []int32 {
	rows := tbl.Select(cond)
	out := make([]int32, len(rows))
	for i, r := range rows {
		out[i] = r.Values[0].Int
	}
	return out
}

func TestInsertKeyedOrderedSelect(t *testing.T) {
	tbl := newTestTable()
	ok, diag := tbl.Insert([]string{"3", "c"})
	assert.Assert(t, ok, diag)
	ok, diag = tbl.Insert([]string{"1", "a"})
	assert.Assert(t, ok, diag)
	ok, diag = tbl.Insert([]string{"2", "b"})
	assert.Assert(t, ok, diag)

	assert.DeepEqual(t, selectValues(t, tbl, nil), []int32{1, 2, 3})
}

func TestInsertDuplicateKeyRejected(t *testing.T) {
	tbl := newTestTable()
	ok, _ := tbl.Insert([]string{"1", "a"})
	assert.Assert(t, ok)

	ok, diag := tbl.Insert([]string{"1", "x"})
	assert.Assert(t, !ok)
	assert.Assert(t, diag != "")
	assert.Equal(t, len(tbl.Tuples), 1)
}

func TestInsertArityMismatch(t *testing.T) {
	tbl := newTestTable()
	ok, diag := tbl.Insert([]string{"1"})
	assert.Assert(t, !ok)
	assert.Assert(t, diag != "")
}

func TestInsertNullPrimaryKeyRejected(t *testing.T) {
	tbl := newTestTable()
	ok, diag := tbl.Insert([]string{"  ", "a"})
	assert.Assert(t, !ok)
	assert.Assert(t, diag != "")
}

func TestSelectWithCondition(t *testing.T) {
	tbl := newTestTable()
	tbl.Insert([]string{"3", "c"})
	tbl.Insert([]string{"1", "a"})
	tbl.Insert([]string{"2", "b"})

	cond, err := condition.Parse(tbl.Schema, `id >= 2 AND n != "c"`)
	assert.NilError(t, err)

	assert.DeepEqual(t, selectValues(t, tbl, cond), []int32{2})
}

func TestUpdateWithoutConditionCountsEveryRow(t *testing.T) {
	tbl := newTestTable()
	tbl.Insert([]string{"1", "a"})
	tbl.Insert([]string{"2", "b"})

	matched, diags := tbl.Update(nil, map[int]string{1: "updated"})
	assert.Equal(t, matched, 2)
	assert.Equal(t, len(diags), 0)

	rows := tbl.Select(nil)
	assert.Equal(t, rows[0].Values[1].Text, "updated")
}

func TestUpdateRekeysIndexOnPrimaryKeyChange(t *testing.T) {
	tbl := newTestTable()
	tbl.Insert([]string{"1", "a"})

	matched, diags := tbl.Update(nil, map[int]string{0: "5"})
	assert.Equal(t, matched, 1)
	assert.Equal(t, len(diags), 0)

	assert.Assert(t, !tbl.Index.Has(value.NewInt(1)))
	assert.Assert(t, tbl.Index.Has(value.NewInt(5)))
}

func TestUpdateRejectsDuplicateKey(t *testing.T) {
	tbl := newTestTable()
	tbl.Insert([]string{"1", "a"})
	tbl.Insert([]string{"2", "b"})

	cond, err := condition.Parse(tbl.Schema, `id = 2`)
	assert.NilError(t, err)
	matched, diags := tbl.Update(cond, map[int]string{0: "1"})
	assert.Equal(t, matched, 1)
	assert.Equal(t, len(diags), 1)
}

func TestDeleteWithoutConditionClearsIndex(t *testing.T) {
	tbl := newTestTable()
	tbl.Insert([]string{"1", "a"})
	tbl.Insert([]string{"2", "b"})

	n := tbl.Delete(nil)
	assert.Equal(t, n, 2)
	assert.Equal(t, len(tbl.Tuples), 0)
	assert.Equal(t, tbl.Index.Len(), 0)
}

func TestDeleteWithConditionRemovesFromIndex(t *testing.T) {
	tbl := newTestTable()
	tbl.Insert([]string{"1", "a"})
	tbl.Insert([]string{"2", "b"})

	cond, err := condition.Parse(tbl.Schema, `id = 1`)
	assert.NilError(t, err)

	n := tbl.Delete(cond)
	assert.Equal(t, n, 1)
	assert.Assert(t, !tbl.Index.Has(value.NewInt(1)))
	assert.DeepEqual(t, selectValues(t, tbl, nil), []int32{2})
}

func TestRenameAttributesIdempotent(t *testing.T) {
	tbl := newTestTable()
	names := []string{"id", "name"}
	assert.NilError(t, tbl.RenameAttributes(names))
	assert.NilError(t, tbl.RenameAttributes(names))
	assert.Equal(t, tbl.Schema.Attrs[1].Name, "name")
}
