package term

import (
	"cmp"
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/errors"
)

// Lexicographic is Compare as a comparator for slices.SortFunc and
// slices.BinarySearchFunc. Both arguments must be non-nil.
func Lexicographic(a, b *Term) int {
	return compareQueries(a.query, b.query, -1)
}

// ReverseWeight is CompareByReverseWeight as a comparator. Both arguments
// must be non-nil.
func ReverseWeight(a, b *Term) int {
	return -cmp.Compare(a.weight, b.weight)
}

// PrefixOrder returns CompareByPrefix bound to r as a comparator. It is only
// a total order over the first r characters, which makes it suitable for
// locating the range of terms sharing a prefix in a lexicographically sorted
// slice.
func PrefixOrder(r int) (func(a, b *Term) int, error) {
	if r < 0 {
		return nil, fmt.Errorf("%w: prefix length %d is negative", apperrors.ErrInvalidArgument, r)
	}
	return func(a, b *Term) int {
		return compareQueries(a.query, b.query, r)
	}, nil
}
