package solver

// Combination is one subset of station indices, tagged with a stable id so a
// candidate position can be traced back to the stations that produced it.
// Ids are 1-based lexicographic; 0 stays reserved for "unspecified".
type Combination struct {
	ID      int
	Indices []int
}

// Enumerate returns every k-element subset of n stations in lexicographic
// order. For n < k or k <= 0 it returns an empty sequence; the caller treats
// that as insufficient data for the signal rather than an error.
func Enumerate(n, k int) []Combination {
	if k <= 0 || n < k {
		return nil
	}

	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}

	var combos []Combination
	id := 1
	for {
		indices := make([]int, k)
		copy(indices, idx)
		combos = append(combos, Combination{ID: id, Indices: indices})
		id++

		// Advance to the next subset in lexicographic order.
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return combos
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// Count returns C(n,k), the number of subsets Enumerate would produce.
func Count(n, k int) int {
	if k < 0 || n < k {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	c := 1
	for i := 0; i < k; i++ {
		c = c * (n - i) / (i + 1)
	}
	return c
}
