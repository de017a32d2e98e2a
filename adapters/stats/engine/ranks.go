package engine

import (
	"sort"
)

// rankDirection controls which end of the ordering gets rank 1
type rankDirection int

const (
	// rankAscending: rank 1 = smallest value (adjusted p-values; most
	// significant first)
	rankAscending rankDirection = iota
	// rankDescendingAbs: rank 1 = largest absolute value (base means and
	// fold changes; strongest magnitude first)
	rankDescendingAbs
)

// stableRanks assigns dense ranks 1..N to values. Ties keep their original
// input order (stable sort), deliberately NOT midrank averaging: the result
// is always a bijection onto {1..N}.
//
// Callers must pass NaN-free input; keyFor on NaN has no defined ordering.
func stableRanks(values []float64, dir rankDirection) []float64 {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	key := func(i int) float64 {
		if dir == rankDescendingAbs {
			v := values[i]
			if v < 0 {
				v = -v
			}
			return -v
		}
		return values[i]
	}

	sort.SliceStable(order, func(a, b int) bool {
		return key(order[a]) < key(order[b])
	})

	ranks := make([]float64, n)
	for pos, idx := range order {
		ranks[idx] = float64(pos + 1)
	}
	return ranks
}
