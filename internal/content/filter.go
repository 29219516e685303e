package content

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FilterKind identifies one of the five filter variants.
type FilterKind int

const (
	KindEquals FilterKind = iota
	KindNotEquals
	KindAnyFixed
	KindAny
	KindCompound
)

func (k FilterKind) String() string {
	switch k {
	case KindEquals:
		return "equals"
	case KindNotEquals:
		return "not-equals"
	case KindAnyFixed:
		return "any-fixed"
	case KindAny:
		return "any"
	case KindCompound:
		return "compound"
	default:
		return "unknown"
	}
}

var (
	errEmptyLiteral    = errors.New("literal filter must not be empty")
	errNestedCompound  = errors.New("compound filter cannot contain a compound or any filter")
	errEmptyCompound   = errors.New("compound filter needs at least one member")
	errNegativeSkipLen = errors.New("fixed skip length must not be negative")
)

// Filter is one element of a pattern's filter queue. The set of
// implementations is closed: EqualsFilter, NotEqualsFilter, AnyFixedFilter,
// AnyFilter and CompoundFilter.
//
// DeclaredLength is the number of stream bytes the filter spans; RealLength
// is the part of it that is verified against literal bytes.
type Filter interface {
	Kind() FilterKind
	DeclaredLength() int64
	RealLength() int64
	String() string

	clone() Filter
	initialize(h *Hasher, offset int64)
	keys() []*SearchKey
	test(w *Window, c *MatchContext) bool
	spans(cur int64, dst []MatchResult) []MatchResult
}

type literal struct {
	value  []byte
	offset int64
	key    *SearchKey
}

func (l *literal) DeclaredLength() int64 { return int64(len(l.value)) }
func (l *literal) RealLength() int64     { return int64(len(l.value)) }

func (l *literal) initialize(h *Hasher, offset int64) {
	l.offset = offset
	l.key = NewSearchKey(l.value, h, offset)
}

func (l *literal) keys() []*SearchKey {
	if l.key == nil {
		return nil
	}
	return []*SearchKey{l.key}
}

func (l *literal) spans(cur int64, dst []MatchResult) []MatchResult {
	end := cur - l.offset
	return append(dst, MatchResult{Begin: end - int64(len(l.value)) + 1, End: end})
}

// EqualsFilter requires the literal at its position.
type EqualsFilter struct{ literal }

// NewEquals returns a filter matching value exactly.
func NewEquals(value []byte) *EqualsFilter {
	return &EqualsFilter{literal{value: value}}
}

func (f *EqualsFilter) Kind() FilterKind { return KindEquals }
func (f *EqualsFilter) String() string   { return quoteLiteral(f.value) }
func (f *EqualsFilter) clone() Filter    { return NewEquals(f.value) }

func (f *EqualsFilter) test(w *Window, c *MatchContext) bool {
	return w.Matches(f.key, &c.collisions)
}

// NotEqualsFilter requires any bytes other than the literal at its position.
type NotEqualsFilter struct{ literal }

// NewNotEquals returns a filter rejecting value.
func NewNotEquals(value []byte) *NotEqualsFilter {
	return &NotEqualsFilter{literal{value: value}}
}

func (f *NotEqualsFilter) Kind() FilterKind { return KindNotEquals }
func (f *NotEqualsFilter) String() string   { return "!" + quoteLiteral(f.value) }
func (f *NotEqualsFilter) clone() Filter    { return NewNotEquals(f.value) }

func (f *NotEqualsFilter) test(w *Window, c *MatchContext) bool {
	return !w.Matches(f.key, &c.collisions)
}

// AnyFixedFilter skips exactly n bytes.
type AnyFixedFilter struct {
	n      int64
	offset int64
}

// NewAnyFixed returns a filter consuming n arbitrary bytes.
func NewAnyFixed(n int64) *AnyFixedFilter { return &AnyFixedFilter{n: n} }

func (f *AnyFixedFilter) Kind() FilterKind                      { return KindAnyFixed }
func (f *AnyFixedFilter) DeclaredLength() int64                 { return f.n }
func (f *AnyFixedFilter) RealLength() int64                     { return 0 }
func (f *AnyFixedFilter) String() string                        { return "<" + strconv.FormatInt(f.n, 10) + ">" }
func (f *AnyFixedFilter) clone() Filter                         { return NewAnyFixed(f.n) }
func (f *AnyFixedFilter) initialize(_ *Hasher, offset int64)    { f.offset = offset }
func (f *AnyFixedFilter) keys() []*SearchKey                    { return nil }
func (f *AnyFixedFilter) test(_ *Window, _ *MatchContext) bool { return true }

func (f *AnyFixedFilter) spans(cur int64, dst []MatchResult) []MatchResult {
	if f.n == 0 {
		return dst
	}
	end := cur - f.offset
	return append(dst, MatchResult{Begin: end - f.n + 1, End: end})
}

// AnyFilter is the unbounded wildcard. It never occupies bytes itself; it
// switches the context into scanning mode for the filter that follows it.
type AnyFilter struct{}

// NewAny returns the unbounded wildcard filter.
func NewAny() *AnyFilter { return &AnyFilter{} }

func (f *AnyFilter) Kind() FilterKind                                { return KindAny }
func (f *AnyFilter) DeclaredLength() int64                           { return 0 }
func (f *AnyFilter) RealLength() int64                               { return 0 }
func (f *AnyFilter) String() string                                  { return "*" }
func (f *AnyFilter) clone() Filter                                   { return f }
func (f *AnyFilter) initialize(*Hasher, int64)                       {}
func (f *AnyFilter) keys() []*SearchKey                              { return nil }
func (f *AnyFilter) test(*Window, *MatchContext) bool                { return true }
func (f *AnyFilter) spans(_ int64, dst []MatchResult) []MatchResult { return dst }

// CompoundFilter is a run of adjacent literal and fixed-skip filters verified
// together at one position. It reports one span per member.
type CompoundFilter struct {
	members  []Filter
	declared int64
	real     int64
	all      []*SearchKey
}

// NewCompound merges members into a single filter. Members must be literal
// or fixed-skip filters.
func NewCompound(members ...Filter) (*CompoundFilter, error) {
	if len(members) == 0 {
		return nil, errEmptyCompound
	}
	firstReal := int64(-1)
	var cur int64
	for _, m := range members {
		switch m.Kind() {
		case KindCompound, KindAny:
			return nil, errNestedCompound
		}
		if firstReal < 0 && m.RealLength() != 0 {
			firstReal = cur
		}
		cur += m.DeclaredLength()
	}
	c := &CompoundFilter{members: members, declared: cur}
	if firstReal >= 0 {
		c.real = cur - firstReal
	}
	return c, nil
}

// Members returns the merged filters in stream order.
func (f *CompoundFilter) Members() []Filter { return f.members }

func (f *CompoundFilter) Kind() FilterKind      { return KindCompound }
func (f *CompoundFilter) DeclaredLength() int64 { return f.declared }
func (f *CompoundFilter) RealLength() int64     { return f.real }

func (f *CompoundFilter) String() string {
	var sb strings.Builder
	for _, m := range f.members {
		sb.WriteString(m.String())
	}
	return sb.String()
}

func (f *CompoundFilter) clone() Filter {
	members := make([]Filter, len(f.members))
	for i, m := range f.members {
		members[i] = m.clone()
	}
	return &CompoundFilter{members: members, declared: f.declared, real: f.real}
}

// initialize assigns member offsets walking from the last member, so the
// last member ends at the compound's own offset.
func (f *CompoundFilter) initialize(h *Hasher, offset int64) {
	cur := offset
	for i := len(f.members) - 1; i >= 0; i-- {
		f.members[i].initialize(h, cur)
		cur += f.members[i].DeclaredLength()
	}
	f.all = f.all[:0]
	for _, m := range f.members {
		f.all = append(f.all, m.keys()...)
	}
}

func (f *CompoundFilter) keys() []*SearchKey { return f.all }

func (f *CompoundFilter) test(w *Window, c *MatchContext) bool {
	for _, m := range f.members {
		if !m.test(w, c) {
			return false
		}
	}
	return true
}

func (f *CompoundFilter) spans(cur int64, dst []MatchResult) []MatchResult {
	for _, m := range f.members {
		dst = m.spans(cur, dst)
	}
	return dst
}

// validateFilter rejects filters the matcher cannot evaluate.
func validateFilter(f Filter) error {
	switch v := f.(type) {
	case *EqualsFilter:
		if len(v.value) == 0 {
			return errEmptyLiteral
		}
	case *NotEqualsFilter:
		if len(v.value) == 0 {
			return errEmptyLiteral
		}
	case *AnyFixedFilter:
		if v.n < 0 {
			return errNegativeSkipLen
		}
	case *CompoundFilter:
		for _, m := range v.members {
			if m.Kind() == KindCompound || m.Kind() == KindAny {
				return errNestedCompound
			}
			if err := validateFilter(m); err != nil {
				return err
			}
		}
	case *AnyFilter:
	default:
		return fmt.Errorf("unsupported filter type %T", f)
	}
	return nil
}

func quoteLiteral(value []byte) string {
	var sb strings.Builder
	sb.Grow(len(value) + 2)
	sb.WriteByte('\'')
	for _, b := range value {
		if b == '\'' || b == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(b)
	}
	sb.WriteByte('\'')
	return sb.String()
}
