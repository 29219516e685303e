package content

import (
	"strings"
)

// Pattern is a compiled, immutable filter sequence. Every ContentSearcher
// session instantiates its own copy of the filters, so one Pattern can be
// shared by any number of concurrent file scans.
type Pattern struct {
	source  string
	filters []Filter
}

// Compile parses pattern and merges adjacent literal and fixed-skip tokens
// into compound filters.
func Compile(pattern string) (*Pattern, error) {
	tokens, err := Parse(pattern)
	if err != nil {
		return nil, err
	}
	p, err := CompileFilters(tokens...)
	if err != nil {
		return nil, err
	}
	p.source = pattern
	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// CompileFilters builds a pattern from filters already in stream order.
// Runs of non-wildcard filters between wildcards become one filter: the bare
// filter for a run of one, a CompoundFilter otherwise. Zero-length skips are
// dropped.
func CompileFilters(filters ...Filter) (*Pattern, error) {
	p := &Pattern{}
	var run []Filter
	flush := func() error {
		switch len(run) {
		case 0:
		case 1:
			p.filters = append(p.filters, run[0])
		default:
			c, err := NewCompound(run...)
			if err != nil {
				return err
			}
			p.filters = append(p.filters, c)
		}
		run = nil
		return nil
	}

	for _, f := range filters {
		if err := validateFilter(f); err != nil {
			return nil, err
		}
		switch v := f.(type) {
		case *AnyFilter:
			if err := flush(); err != nil {
				return nil, err
			}
			p.filters = append(p.filters, v)
		case *CompoundFilter:
			for _, m := range v.members {
				if m.DeclaredLength() > 0 {
					run = append(run, m.clone())
				}
			}
		default:
			if f.DeclaredLength() > 0 {
				run = append(run, f.clone())
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return p, nil
}

// String returns the source text, or a canonical rendering for patterns
// built from filters.
func (p *Pattern) String() string {
	if p.source != "" {
		return p.source
	}
	var sb strings.Builder
	for _, f := range p.filters {
		sb.WriteString(f.String())
	}
	return sb.String()
}

// Filters returns the compiled filter queue. The returned filters are
// templates and must not be evaluated directly.
func (p *Pattern) Filters() []Filter {
	return append([]Filter(nil), p.filters...)
}

// Empty reports whether the pattern has no filters and so matches any input.
func (p *Pattern) Empty() bool { return len(p.filters) == 0 }

// MaxLength is the longest declared length of any single filter.
func (p *Pattern) MaxLength() int64 {
	var max int64
	for _, f := range p.filters {
		if l := f.DeclaredLength(); l > max {
			max = l
		}
	}
	return max
}

// RequiredLiterals lists every literal the input must contain for the
// pattern to match. Negated literals are excluded.
func (p *Pattern) RequiredLiterals() [][]byte {
	var out [][]byte
	var visit func(f Filter)
	visit = func(f Filter) {
		switch v := f.(type) {
		case *EqualsFilter:
			out = append(out, v.value)
		case *CompoundFilter:
			for _, m := range v.members {
				visit(m)
			}
		}
	}
	for _, f := range p.filters {
		visit(f)
	}
	return out
}

func (p *Pattern) instantiate(h *Hasher) []Filter {
	out := make([]Filter, len(p.filters))
	for i, f := range p.filters {
		out[i] = f.clone()
		out[i].initialize(h, 0)
	}
	return out
}
