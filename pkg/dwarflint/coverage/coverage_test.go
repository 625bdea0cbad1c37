package coverage_test

import (
	"testing"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/coverage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCoalescesTouchingRanges(t *testing.T) {
	var c coverage.Coverage
	c.Add(0, 4)
	c.Add(4, 4)

	require.Len(t, c.Ranges(), 1)
	assert.Equal(t, coverage.Range{Start: 0, Length: 8}, c.Ranges()[0])
}

func TestAddCoalescesOverlappingRanges(t *testing.T) {
	var c coverage.Coverage
	c.Add(0, 10)
	c.Add(5, 10)

	require.Len(t, c.Ranges(), 1)
	assert.Equal(t, coverage.Range{Start: 0, Length: 15}, c.Ranges()[0])
}

func TestAddKeepsDisjointRangesSeparate(t *testing.T) {
	var c coverage.Coverage
	c.Add(0, 4)
	c.Add(10, 4)

	require.Len(t, c.Ranges(), 2)
}

func TestAddThenRemoveLeavesNoCoverage(t *testing.T) {
	var c coverage.Coverage
	c.Add(0, 10)
	c.Remove(0, 10)

	assert.False(t, c.Overlaps(0, 10))
	assert.Empty(t, c.Ranges())
}

func TestRemoveSplitsRange(t *testing.T) {
	var c coverage.Coverage
	c.Add(0, 10)
	c.Remove(4, 2)

	require.Len(t, c.Ranges(), 2)
	assert.Equal(t, coverage.Range{Start: 0, Length: 4}, c.Ranges()[0])
	assert.Equal(t, coverage.Range{Start: 6, Length: 4}, c.Ranges()[1])
}

func TestEmptyRangeNeverOverlaps(t *testing.T) {
	var c coverage.Coverage
	c.Add(0, 10)

	assert.False(t, c.Overlaps(5, 0))
}

func TestContains(t *testing.T) {
	var c coverage.Coverage
	c.Add(10, 5)

	assert.True(t, c.Contains(10))
	assert.True(t, c.Contains(14))
	assert.False(t, c.Contains(15))
	assert.False(t, c.Contains(9))
}

func TestHoles(t *testing.T) {
	var c coverage.Coverage
	c.Add(0, 4)
	c.Add(8, 4)

	holes := c.Holes(0, 16)
	require.Len(t, holes, 2)
	assert.Equal(t, coverage.Range{Start: 4, Length: 4}, holes[0])
	assert.Equal(t, coverage.Range{Start: 12, Length: 4}, holes[1])
}

func TestDifference(t *testing.T) {
	var a, b coverage.Coverage
	a.Add(0, 10)
	b.Add(4, 2)

	diff := a.Difference(&b)
	require.Len(t, diff.Ranges(), 2)
	assert.Equal(t, coverage.Range{Start: 0, Length: 4}, diff.Ranges()[0])
	assert.Equal(t, coverage.Range{Start: 6, Length: 4}, diff.Ranges()[1])
}

func TestUnion(t *testing.T) {
	var a, b coverage.Coverage
	a.Add(0, 4)
	b.Add(4, 4)

	u := a.Union(&b)
	require.Len(t, u.Ranges(), 1)
	assert.Equal(t, coverage.Range{Start: 0, Length: 8}, u.Ranges()[0])
}
