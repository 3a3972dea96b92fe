package term

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/errors"
)

func mustNew(t *testing.T, query string, weight int64) *Term {
	t.Helper()
	tm, err := New(query, weight)
	if err != nil {
		t.Fatalf("New(%q, %d): %v", query, weight, err)
	}
	return tm
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func TestNew(t *testing.T) {
	tm, err := New("abc", 5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tm.Query() != "abc" || tm.Weight() != 5 {
		t.Errorf("got (%q, %d), want (abc, 5)", tm.Query(), tm.Weight())
	}

	if _, err := New("abc", -1); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("negative weight: err = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewFromPtr(nil, 5); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("absent query: err = %v, want ErrInvalidArgument", err)
	}
	if _, err := New("ab\xffc", 1); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("invalid utf-8: err = %v, want ErrInvalidArgument", err)
	}

	q := "app"
	tm, err = NewFromPtr(&q, 0)
	if err != nil {
		t.Fatalf("NewFromPtr: %v", err)
	}
	q = "mutated"
	if tm.Query() != "app" {
		t.Errorf("term changed after source mutation: %q", tm.Query())
	}
}

func TestQueryPrefix(t *testing.T) {
	tests := []struct {
		query string
		r     int
		want  string
	}{
		{"apple", 3, "app"},
		{"apple", 0, ""},
		{"apple", 5, "apple"},
		{"hi", 10, "hi"},
		{"", 4, ""},
		{"héllo", 2, "hé"},
		{"日本語", 2, "日本"},
	}
	for _, tt := range tests {
		got, err := mustNew(t, tt.query, 1).QueryPrefix(tt.r)
		if err != nil {
			t.Errorf("QueryPrefix(%q, %d): %v", tt.query, tt.r, err)
			continue
		}
		if got != tt.want {
			t.Errorf("QueryPrefix(%q, %d) = %q, want %q", tt.query, tt.r, got, tt.want)
		}
	}

	if _, err := mustNew(t, "apple", 1).QueryPrefix(-1); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("negative r: err = %v, want ErrInvalidArgument", err)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"app", "apple", -1},
		{"apple", "app", 1},
		{"apple", "apple", 0},
		{"", "", 0},
		{"", "a", -1},
		{"apple", "apricot", -1},
		{"b", "abc", 1},
		{"Apple", "apple", -1},
		{"é", "z", 1},
	}
	for _, tt := range tests {
		got, err := mustNew(t, tt.a, 1).Compare(mustNew(t, tt.b, 1))
		if err != nil {
			t.Fatalf("Compare(%q, %q): %v", tt.a, tt.b, err)
		}
		if sign(got) != tt.want {
			t.Errorf("sign(Compare(%q, %q)) = %d, want %d", tt.a, tt.b, sign(got), tt.want)
		}
	}

	got, _ := mustNew(t, "apple", 1).Compare(mustNew(t, "apricot", 1))
	if want := int('p') - int('r'); got != want {
		t.Errorf("Compare(apple, apricot) = %d, want code point difference %d", got, want)
	}
	got, _ = mustNew(t, "app", 1).Compare(mustNew(t, "apple", 1))
	if got != -2 {
		t.Errorf("Compare(app, apple) = %d, want length difference -2", got)
	}
}

func TestCompareNilPartner(t *testing.T) {
	tm := mustNew(t, "apple", 1)
	if _, err := tm.Compare(nil); !errors.Is(err, apperrors.ErrNilReference) {
		t.Errorf("Compare(nil): err = %v, want ErrNilReference", err)
	}
	if _, err := tm.CompareByReverseWeight(nil); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("CompareByReverseWeight(nil): err = %v, want ErrInvalidArgument", err)
	}
	if _, err := tm.CompareByPrefix(nil, 3); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("CompareByPrefix(nil): err = %v, want ErrInvalidArgument", err)
	}
}

func TestCompareIsTotalOrder(t *testing.T) {
	queries := []string{"", "a", "ab", "abc", "abd", "b", "ba", "app", "apple", "application", "apricot", "Z", "é", "日本"}
	terms := make([]*Term, len(queries))
	for i, q := range queries {
		terms[i] = mustNew(t, q, int64(i))
	}

	for _, a := range terms {
		self, _ := a.Compare(a)
		if self != 0 {
			t.Errorf("Compare(%q, itself) = %d, want 0", a.Query(), self)
		}
		for _, b := range terms {
			ab, _ := a.Compare(b)
			ba, _ := b.Compare(a)
			if sign(ab) != -sign(ba) {
				t.Errorf("antisymmetry broken for %q, %q: %d vs %d", a.Query(), b.Query(), ab, ba)
			}
			if (ab == 0) != (a.Query() == b.Query()) {
				t.Errorf("Compare(%q, %q) = %d disagrees with equality", a.Query(), b.Query(), ab)
			}
			for _, c := range terms {
				bc, _ := b.Compare(c)
				ac, _ := a.Compare(c)
				if sign(ab) <= 0 && sign(bc) <= 0 && sign(ac) > 0 {
					t.Errorf("transitivity broken for %q <= %q <= %q", a.Query(), b.Query(), c.Query())
				}
			}
		}
	}
}

func TestCompareByReverseWeight(t *testing.T) {
	heavy := mustNew(t, "a", 10)
	light := mustNew(t, "b", 5)

	got, err := heavy.CompareByReverseWeight(light)
	if err != nil {
		t.Fatalf("CompareByReverseWeight: %v", err)
	}
	if got >= 0 {
		t.Errorf("CompareByReverseWeight(10, 5) = %d, want negative", got)
	}
	if got, _ := light.CompareByReverseWeight(heavy); got <= 0 {
		t.Errorf("CompareByReverseWeight(5, 10) = %d, want positive", got)
	}
	if got, _ := heavy.CompareByReverseWeight(mustNew(t, "z", 10)); got != 0 {
		t.Errorf("equal weights compare as %d, want 0", got)
	}

	maxW := mustNew(t, "max", 1<<63-1)
	zero := mustNew(t, "zero", 0)
	if got, _ := maxW.CompareByReverseWeight(zero); got >= 0 {
		t.Errorf("CompareByReverseWeight(max, 0) = %d, want negative", got)
	}
}

func TestCompareByPrefix(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		r    int
		want int
	}{
		{"shared prefix", "apple", "application", 3, 0},
		{"differs within r", "apple", "apricot", 3, -1},
		{"r zero", "apple", "zebra", 0, 0},
		{"r beyond both", "app", "apple", 10, -1},
		{"r beyond one", "hi", "hip", 3, -1},
		{"r beyond one equal slice", "hi", "hip", 2, 0},
		{"r exactly shorter length", "app", "apple", 3, 0},
		{"r beyond, identical", "hi", "hi", 10, 0},
		{"unicode", "日本語", "日本人", 2, 0},
		{"unicode differs", "日本語", "日本人", 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mustNew(t, tt.a, 1).CompareByPrefix(mustNew(t, tt.b, 1), tt.r)
			if err != nil {
				t.Fatalf("CompareByPrefix: %v", err)
			}
			if sign(got) != tt.want {
				t.Errorf("sign(CompareByPrefix(%q, %q, %d)) = %d, want %d", tt.a, tt.b, tt.r, sign(got), tt.want)
			}
			back, _ := mustNew(t, tt.b, 1).CompareByPrefix(mustNew(t, tt.a, 1), tt.r)
			if sign(back) != -tt.want {
				t.Errorf("reverse sign = %d, want %d", sign(back), -tt.want)
			}
		})
	}

	if _, err := mustNew(t, "apple", 1).CompareByPrefix(mustNew(t, "app", 1), -1); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("negative r: err = %v, want ErrInvalidArgument", err)
	}
}

func TestCompareByPrefixMatchesPrefixSlices(t *testing.T) {
	queries := []string{"", "a", "ap", "app", "apple", "apricot", "banana", "bandana"}
	for _, a := range queries {
		for _, b := range queries {
			for r := 0; r <= 8; r++ {
				ta, tb := mustNew(t, a, 1), mustNew(t, b, 1)
				pa, _ := ta.QueryPrefix(r)
				pb, _ := tb.QueryPrefix(r)
				want, _ := mustNew(t, pa, 1).Compare(mustNew(t, pb, 1))
				got, _ := ta.CompareByPrefix(tb, r)
				if sign(got) != sign(want) {
					t.Errorf("CompareByPrefix(%q, %q, %d) sign %d, prefix Compare sign %d", a, b, r, sign(got), sign(want))
				}
			}
		}
	}
}

func TestDeterministic(t *testing.T) {
	a, b := mustNew(t, "apple", 3), mustNew(t, "apricot", 7)
	first, _ := a.Compare(b)
	firstW, _ := a.CompareByReverseWeight(b)
	firstP, _ := a.CompareByPrefix(b, 3)
	for i := 0; i < 100; i++ {
		if got, _ := a.Compare(b); got != first {
			t.Fatalf("Compare changed: %d then %d", first, got)
		}
		if got, _ := a.CompareByReverseWeight(b); got != firstW {
			t.Fatalf("CompareByReverseWeight changed: %d then %d", firstW, got)
		}
		if got, _ := a.CompareByPrefix(b, 3); got != firstP {
			t.Fatalf("CompareByPrefix changed: %d then %d", firstP, got)
		}
	}
}

func TestComparators(t *testing.T) {
	terms := []*Term{
		mustNew(t, "apricot", 4),
		mustNew(t, "app", 9),
		mustNew(t, "banana", 1),
		mustNew(t, "application", 7),
		mustNew(t, "apple", 2),
	}

	byQuery := slices.Clone(terms)
	slices.SortFunc(byQuery, Lexicographic)
	var got []string
	for _, tm := range byQuery {
		got = append(got, tm.Query())
	}
	want := []string{"app", "apple", "application", "apricot", "banana"}
	if !slices.Equal(got, want) {
		t.Errorf("lexicographic sort = %v, want %v", got, want)
	}

	byWeight := slices.Clone(terms)
	slices.SortStableFunc(byWeight, ReverseWeight)
	var weights []int64
	for _, tm := range byWeight {
		weights = append(weights, tm.Weight())
	}
	if !slices.Equal(weights, []int64{9, 7, 4, 2, 1}) {
		t.Errorf("reverse weight sort = %v", weights)
	}

	byPrefix, err := PrefixOrder(3)
	if err != nil {
		t.Fatalf("PrefixOrder: %v", err)
	}
	key := mustNew(t, "app", 0)
	first, found := slices.BinarySearchFunc(byQuery, key, byPrefix)
	if !found || first != 0 {
		t.Errorf("BinarySearchFunc(app) = (%d, %v), want (0, true)", first, found)
	}
	matches := 0
	for _, tm := range byQuery {
		if byPrefix(tm, key) == 0 {
			matches++
		}
	}
	if matches != 3 {
		t.Errorf("terms sharing prefix app = %d, want 3", matches)
	}

	if _, err := PrefixOrder(-1); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("PrefixOrder(-1): err = %v, want ErrInvalidArgument", err)
	}
}

func TestJSON(t *testing.T) {
	data, err := json.Marshal(mustNew(t, "apple", 42))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"query":"apple","weight":42}` {
		t.Errorf("Marshal = %s", data)
	}

	var decoded Term
	if err := json.Unmarshal([]byte(`{"query":"hi","weight":3}`), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Query() != "hi" || decoded.Weight() != 3 {
		t.Errorf("decoded (%q, %d)", decoded.Query(), decoded.Weight())
	}

	rejects := []string{
		`{"query":null,"weight":5}`,
		`{"weight":5}`,
		`{"query":"abc","weight":-1}`,
		`{"query":7}`,
	}
	for _, in := range rejects {
		var tm Term
		if err := json.Unmarshal([]byte(in), &tm); !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Errorf("Unmarshal(%s): err = %v, want ErrInvalidArgument", in, err)
		}
	}
}

func TestString(t *testing.T) {
	if got := mustNew(t, "apple", 7).String(); got != "7\tapple" {
		t.Errorf("String() = %q, want %q", got, "7\tapple")
	}
}
