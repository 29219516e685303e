package content

import (
	"github.com/cloudflare/ahocorasick"
)

// Prefilter rejects inputs that lack any literal a pattern requires, using a
// single Aho-Corasick pass. A Prefilter is not safe for concurrent use.
type Prefilter struct {
	matcher  *ahocorasick.Matcher
	keywords []string
}

// NewPrefilter builds a prefilter from the required literals of p. Patterns
// without required literals get a prefilter that accepts everything.
func NewPrefilter(p *Pattern) *Prefilter {
	pf := &Prefilter{}
	seen := make(map[string]bool)
	for _, lit := range p.RequiredLiterals() {
		kw := string(lit)
		if seen[kw] {
			continue
		}
		seen[kw] = true
		pf.keywords = append(pf.keywords, kw)
	}
	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}
	return pf
}

// Keywords returns the distinct required literals.
func (pf *Prefilter) Keywords() []string { return pf.keywords }

// MayMatch reports whether data contains every required literal. A true
// result still needs a full scan.
func (pf *Prefilter) MayMatch(data []byte) bool {
	if pf.matcher == nil {
		return true
	}
	return len(pf.matcher.Match(data)) == len(pf.keywords)
}
