package content

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrSessionBuilt is returned when patterns are added to, or Build is
	// called on, a searcher that was already built.
	ErrSessionBuilt = errors.New("content searcher already built")
	// ErrSessionNotBuilt is the panic value of AddByte before Build.
	ErrSessionNotBuilt = errors.New("content searcher not built")
	// ErrHashParams is returned for hash parameters that could overflow int64.
	ErrHashParams = errors.New("invalid hash parameters")
)

// ContentSearcher runs any number of patterns over one byte stream. A
// searcher is single use: register patterns, Build, then feed the stream.
type ContentSearcher struct {
	hasher   *Hasher
	window   *Window
	contexts []*MatchContext
	byName   map[string]*MatchContext
	built    bool
	read     int64
}

// NewContentSearcher returns a searcher using the default hash parameters.
func NewContentSearcher() *ContentSearcher {
	s, _ := NewContentSearcherWithHash(DefaultPrime, DefaultModulus)
	return s
}

// NewContentSearcherWithHash returns a searcher with custom hash parameters.
// The modulus must be in [2, MaxModulus] and the prime in [1, modulus) so
// that every intermediate product stays below 2^62.
func NewContentSearcherWithHash(prime, modulus int64) (*ContentSearcher, error) {
	if modulus < 2 || modulus > MaxModulus || prime < 1 || prime >= modulus {
		return nil, fmt.Errorf("%w: prime %d, modulus %d", ErrHashParams, prime, modulus)
	}
	return &ContentSearcher{
		hasher: NewHasher(prime, modulus),
		byName: make(map[string]*MatchContext),
	}, nil
}

// AddPattern compiles pattern and registers it under name.
func (s *ContentSearcher) AddPattern(name, pattern string) error {
	if s.built {
		return ErrSessionBuilt
	}
	p, err := Compile(pattern)
	if err != nil {
		return err
	}
	return s.AddCompiled(name, p)
}

// AddFilters registers a pattern built from filters in stream order.
func (s *ContentSearcher) AddFilters(name string, filters ...Filter) error {
	if s.built {
		return ErrSessionBuilt
	}
	p, err := CompileFilters(filters...)
	if err != nil {
		return fmt.Errorf("pattern %q: %w", name, err)
	}
	return s.AddCompiled(name, p)
}

// AddCompiled registers an already compiled pattern. The pattern is not
// modified and may be shared with other searchers.
func (s *ContentSearcher) AddCompiled(name string, p *Pattern) error {
	if s.built {
		return ErrSessionBuilt
	}
	if _, ok := s.byName[name]; ok {
		return fmt.Errorf("pattern %q already registered", name)
	}
	c := newMatchContext(name, p, s.hasher)
	s.contexts = append(s.contexts, c)
	s.byName[name] = c
	return nil
}

// Build sizes the shared window for the longest filter and freezes the
// pattern set.
func (s *ContentSearcher) Build() error {
	if s.built {
		return ErrSessionBuilt
	}
	var max int64
	for _, c := range s.contexts {
		if l := c.pattern.MaxLength(); l > max {
			max = l
		}
	}
	s.window = NewWindow(int(max)+1, s.hasher)
	for _, c := range s.contexts {
		c.window = s.window
	}
	s.built = true
	return nil
}

// Built reports whether Build has been called.
func (s *ContentSearcher) Built() bool { return s.built }

// AddByte consumes the next byte of the stream. It returns false once every
// pattern has either matched or failed, after which further bytes cannot
// change any outcome.
func (s *ContentSearcher) AddByte(b byte) bool {
	if !s.built {
		panic(ErrSessionNotBuilt)
	}
	s.window.Push(b)
	cur := s.hasher.Index()
	active := false
	for _, c := range s.contexts {
		if c.resolved() {
			continue
		}
		c.MoveNextByte(cur)
		if !c.resolved() {
			active = true
		}
	}
	s.hasher.Increment()
	s.read++
	return active
}

// Pending reports whether any pattern is still undecided.
func (s *ContentSearcher) Pending() bool {
	for _, c := range s.contexts {
		if !c.resolved() {
			return true
		}
	}
	return false
}

// ScanBytes feeds data until it is exhausted or every pattern is resolved.
func (s *ContentSearcher) ScanBytes(ctx context.Context, data []byte) error {
	const chunk = 64 << 10
	if !s.Pending() {
		return nil
	}
	for off := 0; off < len(data); off += chunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := off + chunk
		if end > len(data) {
			end = len(data)
		}
		for _, b := range data[off:end] {
			if !s.AddByte(b) {
				return nil
			}
		}
	}
	return nil
}

// Scan streams r through the searcher using buf as the read buffer. It stops
// early once every pattern is resolved.
func (s *ContentSearcher) Scan(ctx context.Context, r io.Reader, buf []byte) error {
	if len(buf) == 0 {
		buf = make([]byte, 32*1024)
	}
	if !s.Pending() {
		return nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if !s.AddByte(b) {
				return nil
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// BytesRead returns the number of bytes consumed.
func (s *ContentSearcher) BytesRead() int64 { return s.read }

// Matched reports whether every registered pattern matched the input.
func (s *ContentSearcher) Matched() bool {
	if len(s.contexts) == 0 {
		return false
	}
	for _, c := range s.contexts {
		if !c.IsMatch() {
			return false
		}
	}
	return true
}

// Context returns the match context of the named pattern.
func (s *ContentSearcher) Context(name string) (*MatchContext, bool) {
	c, ok := s.byName[name]
	return c, ok
}

// Contexts returns every match context in registration order.
func (s *ContentSearcher) Contexts() []*MatchContext {
	return append([]*MatchContext(nil), s.contexts...)
}

// Collisions sums hash collisions across all patterns.
func (s *ContentSearcher) Collisions() int64 {
	var n int64
	for _, c := range s.contexts {
		n += c.collisions
	}
	return n
}
