// Package coverage implements the ordered, non-overlapping interval set
// used throughout dwarflint to track PC coverage and consumed section
// bytes.
package coverage

import (
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// cmpOrdered is the three-way comparison slices.BinarySearchFunc wants,
// for any ordered key type the callers here search on.
func cmpOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// firstEndAfter returns the index of the first range in ranges whose End
// exceeds point, or len(ranges) if none does.
func firstEndAfter(ranges []Range, point int64) int {
	i, _ := slices.BinarySearchFunc(ranges, point, func(r Range, target int64) int {
		if r.End() <= target {
			return -1
		}
		return 1
	})
	return i
}

// Range is a half-open interval [Start, Start+Length). A zero-length
// Range is legal and represents "touch without cover" — a marker that a
// point was visited without claiming any extent.
type Range struct {
	Start  int64
	Length int64
}

// End returns the exclusive end of the range.
func (r Range) End() int64 {
	return r.Start + r.Length
}

// Empty reports whether the range covers no extent.
func (r Range) Empty() bool {
	return r.Length == 0
}

// Coverage is a sorted, disjoint set of Ranges. The zero value is an
// empty Coverage, ready to use.
type Coverage struct {
	ranges []Range
}

// Ranges returns the coverage's ranges in ascending order of Start. The
// returned slice must not be mutated by the caller.
func (c *Coverage) Ranges() []Range {
	return c.ranges
}

// Add inserts [start, start+length) into the coverage, coalescing any
// ranges it touches or overlaps.
func (c *Coverage) Add(start, length int64) {
	c.insert(Range{Start: start, Length: length})
}

func (c *Coverage) insert(r Range) {
	i, _ := slices.BinarySearchFunc(c.ranges, r.Start, func(a Range, target int64) int {
		return cmpOrdered(a.Start, target)
	})

	merged := r
	// Merge with the range immediately before, if it touches or overlaps.
	if i > 0 && touches(c.ranges[i-1], merged) {
		i--
		merged = union(c.ranges[i], merged)
	}

	// Absorb and remove every following range that now touches or
	// overlaps the merged range.
	j := i
	for j < len(c.ranges) && touches(merged, c.ranges[j]) {
		merged = union(merged, c.ranges[j])
		j++
	}

	tail := append([]Range{}, c.ranges[j:]...)
	c.ranges = append(c.ranges[:i], append([]Range{merged}, tail...)...)
}

// touches reports whether a and b overlap or share an endpoint, i.e.
// whether adding both would coalesce into one range. Two empty ranges at
// the same point are considered touching so repeated zero-length Adds
// remain idempotent.
func touches(a, b Range) bool {
	return a.Start <= b.End() && b.Start <= a.End()
}

func union(a, b Range) Range {
	start := a.Start
	if b.Start < start {
		start = b.Start
	}
	end := a.End()
	if b.End() > end {
		end = b.End()
	}
	return Range{Start: start, Length: end - start}
}

// Remove deletes [start, start+length) from the coverage, producing the
// set difference.
func (c *Coverage) Remove(start, length int64) {
	if length == 0 {
		return
	}
	removed := Range{Start: start, Length: length}
	var result []Range
	for _, r := range c.ranges {
		if r.End() <= removed.Start || r.Start >= removed.End() {
			result = append(result, r)
			continue
		}
		if r.Start < removed.Start {
			result = append(result, Range{Start: r.Start, Length: removed.Start - r.Start})
		}
		if r.End() > removed.End() {
			result = append(result, Range{Start: removed.End(), Length: r.End() - removed.End()})
		}
	}
	c.ranges = result
}

// Contains reports whether point falls within some non-empty range.
func (c *Coverage) Contains(point int64) bool {
	i := firstEndAfter(c.ranges, point)
	return i < len(c.ranges) && c.ranges[i].Start <= point && !c.ranges[i].Empty()
}

// Overlaps reports whether [start, start+length) intersects any
// non-empty range. An empty query range never overlaps anything.
func (c *Coverage) Overlaps(start, length int64) bool {
	if length == 0 {
		return false
	}
	q := Range{Start: start, Length: length}
	i := firstEndAfter(c.ranges, start)
	for ; i < len(c.ranges) && c.ranges[i].Start < q.End(); i++ {
		if !c.ranges[i].Empty() {
			return true
		}
	}
	return false
}

// Holes returns the gaps within [boundStart, boundEnd) not covered by
// any range in c.
func (c *Coverage) Holes(boundStart, boundEnd int64) []Range {
	var holes []Range
	cursor := boundStart
	for _, r := range c.ranges {
		if r.Empty() {
			continue
		}
		start := r.Start
		end := r.End()
		if end <= boundStart || start >= boundEnd {
			continue
		}
		if end > boundEnd {
			end = boundEnd
		}
		if start > cursor {
			holes = append(holes, Range{Start: cursor, Length: start - cursor})
		}
		if end > cursor {
			cursor = end
		}
	}
	if cursor < boundEnd {
		holes = append(holes, Range{Start: cursor, Length: boundEnd - cursor})
	}
	return holes
}

// Difference returns a new Coverage containing every part of c not
// covered by other.
func (c *Coverage) Difference(other *Coverage) Coverage {
	var result Coverage
	for _, r := range c.ranges {
		if r.Empty() {
			continue
		}
		cursor := r.Start
		for _, o := range other.ranges {
			if o.Empty() || o.End() <= cursor || o.Start >= r.End() {
				continue
			}
			if o.Start > cursor {
				result.Add(cursor, o.Start-cursor)
			}
			if o.End() > cursor {
				cursor = o.End()
			}
		}
		if cursor < r.End() {
			result.Add(cursor, r.End()-cursor)
		}
	}
	return result
}

// Union returns a new Coverage containing every range in c or other.
func (c *Coverage) Union(other *Coverage) Coverage {
	var result Coverage
	for _, r := range c.ranges {
		result.insert(r)
	}
	for _, r := range other.ranges {
		result.insert(r)
	}
	return result
}
