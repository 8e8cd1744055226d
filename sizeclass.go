package pktmem

import (
	"math"
	"slices"
)

// SizeClassConfig shapes the block backend's free lists. Free runs are
// bucketed Step bytes apart from Min up to Linear, then Ratio apart up to
// Limit. Larger runs share one list.
type SizeClassConfig struct {
	Name string

	Min    int // smallest run, header included
	Linear int
	Step   int

	Limit int
	Ratio float64
}

var (
	// ClassesFine has many narrow buckets; best fit at the cost of more lists.
	ClassesFine = SizeClassConfig{Name: "fine", Min: 16, Linear: 256, Step: 8, Limit: 16384, Ratio: 1.5}

	// ClassesBalanced suits the mixed small-object traffic of a dissector.
	ClassesBalanced = SizeClassConfig{Name: "balanced", Min: 16, Linear: 512, Step: 16, Limit: 16384, Ratio: 1.5}

	// ClassesCoarse has few buckets and more slack per run.
	ClassesCoarse = SizeClassConfig{Name: "coarse", Min: 16, Linear: 512, Step: 32, Limit: 16384, Ratio: 2}

	DefaultSizeClasses = ClassesBalanced
)

// classBounds holds the inclusive upper run size of each free list, in
// increasing order. The list past the last bound takes everything larger.
type classBounds []int

func newClassBounds(c SizeClassConfig) classBounds {
	step, ratio := c.Step, c.Ratio
	if step <= 0 {
		step = alignment
	}
	if ratio <= 1 {
		ratio = 2
	}
	var b classBounds
	for edge := c.Min; edge < c.Linear; {
		edge += step
		b = append(b, edge-1)
	}
	for edge := max(c.Linear, c.Min); edge < c.Limit; {
		edge = max(edge+1, int(math.Ceil(float64(edge)*ratio)))
		b = append(b, edge-1)
	}
	return b
}

// of returns the list a run of size bytes belongs on; len(b) is the list
// of oversized runs.
func (b classBounds) of(size int) int {
	i, _ := slices.BinarySearch(b, size)
	return i
}
