package idfilter

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	singlePattern = regexp.MustCompile(`^\d+$`)
	rangePattern  = regexp.MustCompile(`^(\d+)\s*-\s*(\d+)$`)
)

// Range is an inclusive span of ids.
type Range struct {
	Lo int `json:"lo"`
	Hi int `json:"hi"`
}

// Filter is the parsed form of a filter expression.
// The zero value is unrestricted and allows every id.
type Filter struct {
	// ranges is sorted by Lo, non-overlapping and non-adjacent.
	// A nil slice means unrestricted.
	ranges []Range

	// Invalid lists the tokens that were skipped, in input order.
	Invalid []string

	// Degraded is true when the input was non-empty but no token was valid,
	// which turns the filter into an unrestricted one.
	Degraded bool
}

// Parse turns a raw filter expression into a Filter. It never fails:
// invalid tokens are skipped and recorded in Filter.Invalid.
func Parse(raw string) Filter {
	if strings.TrimSpace(raw) == "" {
		return Filter{}
	}

	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == ','
	})

	var f Filter
	var spans []Range
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		r, ok := parseToken(tok)
		if !ok {
			f.Invalid = append(f.Invalid, tok)
			continue
		}
		spans = append(spans, r)
	}

	if len(spans) == 0 {
		f.Degraded = true
		return f
	}

	f.ranges = merge(spans)
	return f
}

func parseToken(tok string) (Range, bool) {
	if singlePattern.MatchString(tok) {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return Range{}, false
		}
		return Range{Lo: n, Hi: n}, true
	}

	m := rangePattern.FindStringSubmatch(tok)
	if m == nil {
		return Range{}, false
	}
	lo, err := strconv.Atoi(m[1])
	if err != nil {
		return Range{}, false
	}
	hi, err := strconv.Atoi(m[2])
	if err != nil {
		return Range{}, false
	}
	if lo > hi {
		return Range{}, false
	}
	return Range{Lo: lo, Hi: hi}, true
}

func merge(spans []Range) []Range {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Lo != spans[j].Lo {
			return spans[i].Lo < spans[j].Lo
		}
		return spans[i].Hi < spans[j].Hi
	})

	out := make([]Range, 0, len(spans))
	cur := spans[0]
	for _, next := range spans[1:] {
		// Lo is never negative, so Lo-1 cannot overflow.
		if next.Lo-1 <= cur.Hi {
			if next.Hi > cur.Hi {
				cur.Hi = next.Hi
			}
			continue
		}
		out = append(out, cur)
		cur = next
	}
	return append(out, cur)
}

// IsUnrestricted reports whether the filter allows every id.
func (f Filter) IsUnrestricted() bool {
	return f.ranges == nil
}

// Allows reports whether id passes the filter.
func (f Filter) Allows(id int) bool {
	if f.ranges == nil {
		return true
	}
	i := sort.Search(len(f.ranges), func(i int) bool {
		return f.ranges[i].Hi >= id
	})
	return i < len(f.ranges) && f.ranges[i].Lo <= id
}

// Ranges returns a copy of the normalized ranges. It is nil for an
// unrestricted filter.
func (f Filter) Ranges() []Range {
	if f.ranges == nil {
		return nil
	}
	out := make([]Range, len(f.ranges))
	copy(out, f.ranges)
	return out
}

// Len returns the number of allowed ids, or -1 when unrestricted.
// It saturates at math.MaxInt.
func (f Filter) Len() int {
	if f.ranges == nil {
		return -1
	}
	n := 0
	for _, r := range f.ranges {
		span := r.Hi - r.Lo
		if span >= math.MaxInt-n {
			return math.MaxInt
		}
		n += span + 1
	}
	return n
}

const maxPrealloc = 1 << 16

// IDs enumerates the allowed ids in ascending order. Callers that accept
// user input should check Len first; ranges are not bounded.
func (f Filter) IDs() []int {
	if f.ranges == nil {
		return nil
	}
	ids := make([]int, 0, min(f.Len(), maxPrealloc))
	for _, r := range f.ranges {
		for id := r.Lo; id <= r.Hi; id++ {
			ids = append(ids, id)
			if id == r.Hi {
				break
			}
		}
	}
	return ids
}

// String renders the filter in canonical form, e.g. "200-210;229".
// An unrestricted filter renders as the empty string.
func (f Filter) String() string {
	parts := make([]string, 0, len(f.ranges))
	for _, r := range f.ranges {
		if r.Lo == r.Hi {
			parts = append(parts, strconv.Itoa(r.Lo))
			continue
		}
		parts = append(parts, strconv.Itoa(r.Lo)+"-"+strconv.Itoa(r.Hi))
	}
	return strings.Join(parts, ";")
}
