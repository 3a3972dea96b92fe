// Package term implements the weighted query term consumed by autocomplete
// collaborators: an immutable (query, weight) pair with three orderings.
//
// Characters are Unicode code points. Every ordering only promises its sign;
// callers must not depend on the magnitude of a result.
package term

import (
	"cmp"
	"fmt"
	"unicode/utf8"

	apperrors "github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/errors"
)

// Term is a query string paired with a non-negative weight. A Term never
// changes after construction and is safe for concurrent use.
type Term struct {
	query  string
	weight int64
}

// New validates its arguments and returns a Term. It fails with
// ErrInvalidArgument when weight is negative or query is not valid UTF-8.
func New(query string, weight int64) (*Term, error) {
	if weight < 0 {
		return nil, fmt.Errorf("%w: weight %d is negative", apperrors.ErrInvalidArgument, weight)
	}
	if !utf8.ValidString(query) {
		return nil, fmt.Errorf("%w: query is not valid utf-8", apperrors.ErrInvalidArgument)
	}
	return &Term{query: query, weight: weight}, nil
}

// NewFromPtr is New for sources where the query may be absent, such as a
// decoded JSON null. A nil query fails with ErrInvalidArgument.
func NewFromPtr(query *string, weight int64) (*Term, error) {
	if query == nil {
		return nil, fmt.Errorf("%w: query is absent", apperrors.ErrInvalidArgument)
	}
	return New(*query, weight)
}

// Query returns the stored query unmodified.
func (t *Term) Query() string {
	return t.query
}

// Weight returns the term's weight.
func (t *Term) Weight() int64 {
	return t.weight
}

// QueryPrefix returns the first r characters of the query, or the whole
// query when r exceeds its length.
func (t *Term) QueryPrefix(r int) (string, error) {
	if r < 0 {
		return "", fmt.Errorf("%w: prefix length %d is negative", apperrors.ErrInvalidArgument, r)
	}
	return prefix(t.query, r), nil
}

// Compare orders terms lexicographically by query. A nil partner fails with
// ErrNilReference.
func (t *Term) Compare(that *Term) (int, error) {
	if that == nil {
		return 0, fmt.Errorf("%w: lexicographic compare partner is nil", apperrors.ErrNilReference)
	}
	return compareQueries(t.query, that.query, -1), nil
}

// CompareByReverseWeight orders terms by descending weight. Equal weights
// compare as 0. A nil partner fails with ErrInvalidArgument.
func (t *Term) CompareByReverseWeight(that *Term) (int, error) {
	if that == nil {
		return 0, fmt.Errorf("%w: weight compare partner is nil", apperrors.ErrInvalidArgument)
	}
	return -cmp.Compare(t.weight, that.weight), nil
}

// CompareByPrefix orders terms lexicographically using only the first r
// characters of each query. A query shorter than r takes part in full.
func (t *Term) CompareByPrefix(that *Term, r int) (int, error) {
	if that == nil {
		return 0, fmt.Errorf("%w: prefix compare partner is nil", apperrors.ErrInvalidArgument)
	}
	if r < 0 {
		return 0, fmt.Errorf("%w: prefix length %d is negative", apperrors.ErrInvalidArgument, r)
	}
	return compareQueries(t.query, that.query, r), nil
}

func (t *Term) String() string {
	return fmt.Sprintf("%d\t%s", t.weight, t.query)
}

// compareQueries compares a and b rune by rune. With limit >= 0 each side is
// first clamped to min(limit, runeCount) runes; limit < 0 compares in full.
func compareQueries(a, b string, limit int) int {
	n := 0
	for a != "" && b != "" && (limit < 0 || n < limit) {
		ra, sizeA := utf8.DecodeRuneInString(a)
		rb, sizeB := utf8.DecodeRuneInString(b)
		if ra != rb {
			return int(ra) - int(rb)
		}
		a, b = a[sizeA:], b[sizeB:]
		n++
	}
	if limit < 0 {
		return utf8.RuneCountInString(a) - utf8.RuneCountInString(b)
	}
	remaining := limit - n
	return min(utf8.RuneCountInString(a), remaining) - min(utf8.RuneCountInString(b), remaining)
}

// prefix slices s at the byte offset of its r-th rune, clamped to len(s).
func prefix(s string, r int) string {
	offset := 0
	for i := 0; i < r && offset < len(s); i++ {
		_, size := utf8.DecodeRuneInString(s[offset:])
		offset += size
	}
	return s[:offset]
}
