package content

// MatchResult is an inclusive byte span [Begin, End] of the input attributed
// to one filter, or to the gap consumed by a wildcard.
type MatchResult struct {
	Begin int64 `json:"begin"`
	End   int64 `json:"end"`
}

// Len returns the number of bytes covered by the span.
func (r MatchResult) Len() int64 { return r.End - r.Begin + 1 }

// MatchContext drives one pattern's filter queue over the shared window.
// The queue is consumed from the front; a context never backtracks.
type MatchContext struct {
	name    string
	pattern *Pattern
	window  *Window

	filters   []Filter
	head      int
	results   []MatchResult
	isMatch   bool
	wildcard  bool
	lastIndex int64 // index of the last byte of the previous successful filter

	collisions int64
}

func newMatchContext(name string, p *Pattern, h *Hasher) *MatchContext {
	return &MatchContext{
		name:      name,
		pattern:   p,
		filters:   p.instantiate(h),
		isMatch:   true,
		lastIndex: -1,
	}
}

// Name returns the name the pattern was registered under.
func (c *MatchContext) Name() string { return c.name }

// Pattern returns the compiled pattern driving this context.
func (c *MatchContext) Pattern() *Pattern { return c.pattern }

// MoveNextByte evaluates the front of the queue against the window after the
// byte at index cur was pushed.
func (c *MatchContext) MoveNextByte(cur int64) {
	if !c.isMatch || c.head >= len(c.filters) {
		return
	}
	for _, f := range c.filters[c.head:] {
		for _, k := range f.keys() {
			k.Advance(cur)
		}
	}

	for c.head < len(c.filters) {
		f := c.filters[c.head]
		if f.Kind() == KindAny {
			c.wildcard = true
			c.head++
			continue
		}
		length := f.DeclaredLength()
		if cur-c.lastIndex < length {
			return
		}
		if !f.test(c.window, c) {
			// a leading filter floats until it first matches
			if !c.wildcard && c.lastIndex >= 0 {
				c.isMatch = false
			}
			return
		}
		begin := cur - length + 1
		if c.wildcard && begin-1 > c.lastIndex {
			c.results = append(c.results, MatchResult{Begin: c.lastIndex + 1, End: begin - 1})
		}
		c.results = f.spans(cur, c.results)
		c.wildcard = false
		c.lastIndex = cur
		c.head++
	}
}

// IsMatch reports whether the input consumed so far satisfies the pattern.
// Wildcards still pending at the end of input are satisfied by the empty
// suffix.
func (c *MatchContext) IsMatch() bool {
	if !c.isMatch {
		return false
	}
	for _, f := range c.filters[c.head:] {
		if f.Kind() != KindAny {
			return false
		}
	}
	return true
}

// IsComplete reports whether every filter has been consumed.
func (c *MatchContext) IsComplete() bool { return c.isMatch && c.head >= len(c.filters) }

// Failed reports whether the context hit a mismatch it cannot recover from.
func (c *MatchContext) Failed() bool { return !c.isMatch }

func (c *MatchContext) resolved() bool { return !c.isMatch || c.head >= len(c.filters) }

// Results returns the spans recorded so far in input order.
func (c *MatchContext) Results() []MatchResult {
	return append([]MatchResult(nil), c.results...)
}

// Collisions returns the number of hash hits that failed byte verification.
func (c *MatchContext) Collisions() int64 { return c.collisions }
