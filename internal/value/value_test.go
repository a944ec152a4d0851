package value_test

import (
	"testing"

	"github.com/tobsdb/tobsdb/internal/value"
	"gotest.tools/assert"
)

func TestParseLiteral(t *testing.T) {
	t.Run("integer", func(t *testing.T) {
		v, err := value.ParseLiteral(value.Integer, " 42 ")
		assert.NilError(t, err)
		assert.Equal(t, v.Int, int32(42))
	})

	t.Run("integer overflow", func(t *testing.T) {
		_, err := value.ParseLiteral(value.Integer, "99999999999999")
		assert.Error(t, err, `"99999999999999" is not a valid 32-bit integer`)
	})

	t.Run("float", func(t *testing.T) {
		v, err := value.ParseLiteral(value.Float, "3.5")
		assert.NilError(t, err)
		assert.Equal(t, v.Float, 3.5)
	})

	t.Run("text overflow", func(t *testing.T) {
		long := make([]byte, 101)
		for i := range long {
			long[i] = 'a'
		}
		_, err := value.ParseLiteral(value.Text, string(long))
		assert.Error(t, err, value.ErrTextOverflow.Error())
	})
}

func TestCompare(t *testing.T) {
	assert.Equal(t, value.Compare(value.Integer, value.NewInt(1), value.NewInt(2)), -1)
	assert.Equal(t, value.Compare(value.Float, value.NewFloat(2), value.NewFloat(2)), 0)
	assert.Equal(t, value.Compare(value.Text, value.NewText("b"), value.NewText("a")), 1)
}

func TestIsBlank(t *testing.T) {
	assert.Assert(t, value.IsBlank(value.Null()))
	assert.Assert(t, value.IsBlank(value.NewText("   ")))
	assert.Assert(t, !value.IsBlank(value.NewInt(0)))
}

func TestValidIdentifier(t *testing.T) {
	assert.Assert(t, value.ValidIdentifier("id"))
	assert.Assert(t, value.ValidIdentifier("a123456789012345678"))
	assert.Assert(t, !value.ValidIdentifier("1id"))
	assert.Assert(t, !value.ValidIdentifier("a12345678901234567890"))
}
