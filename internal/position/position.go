// Package position computes sibling display positions. Renumbering after a
// removal is never done here: the authoritative store renumbers inside the
// delete transaction and the next reload picks it up.
package position

// Next returns the position for a new sibling: one past the highest
// position currently in use, or 1 for an empty group. The result is
// strictly greater than every current position even when the input has
// gaps from a possibly-inconsistent read.
func Next[T any](siblings []T, pos func(T) int) int {
	next := 1
	for _, s := range siblings {
		if p := pos(s); p >= next {
			next = p + 1
		}
	}
	return next
}

// IsDense reports whether positions form the run 1..n with no gaps or
// duplicates. Order of the input does not matter.
func IsDense(positions []int) bool {
	seen := make(map[int]bool, len(positions))
	for _, p := range positions {
		if p < 1 || p > len(positions) || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}

// Duplicates returns the position values that appear more than once, in
// first-seen order. An empty result means the group satisfies the
// uniqueness half of the density invariant.
func Duplicates(positions []int) []int {
	counts := make(map[int]int, len(positions))
	for _, p := range positions {
		counts[p]++
	}
	var dups []int
	seen := make(map[int]bool, len(counts))
	for _, p := range positions {
		if counts[p] > 1 && !seen[p] {
			dups = append(dups, p)
			seen[p] = true
		}
	}
	return dups
}
