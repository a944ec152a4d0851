package pkg_test

import (
	"testing"

	"github.com/tobsdb/tobsdb/pkg"
	"gotest.tools/assert"
)

func TestFilter(t *testing.T) {
	res := pkg.Filter([]int{1, 2, 3, 4, 5, 6}, func(i int) bool {
		return i%2 == 0
	})
	assert.DeepEqual(t, res, []int{2, 4, 6})
}
