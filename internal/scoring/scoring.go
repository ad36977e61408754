// Package scoring maps finishing positions to season points.
package scoring

import "sort"

// Table is a position → points lookup. Positions that are not listed score 0.
type Table map[int]int

// Default awards points to the top ten finishers.
func Default() Table {
	return Table{1: 25, 2: 18, 3: 15, 4: 12, 5: 10, 6: 8, 7: 6, 8: 4, 9: 2, 10: 1}
}

// Points returns the points awarded for position.
func (t Table) Points(position int) int {
	if position < 1 {
		return 0
	}
	return t[position]
}

// Positions returns the scored positions in ascending order.
func (t Table) Positions() []int {
	positions := make([]int, 0, len(t))
	for p := range t {
		positions = append(positions, p)
	}
	sort.Ints(positions)
	return positions
}

// Validate returns the first position or points value that is out of range, if any.
func (t Table) Validate() (position int, ok bool) {
	for _, p := range t.Positions() {
		if p < 1 || t[p] < 0 {
			return p, false
		}
	}
	return 0, true
}
