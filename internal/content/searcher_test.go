package content

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchOne(t *testing.T, pattern, data string) *MatchContext {
	t.Helper()
	s := NewContentSearcher()
	require.NoError(t, s.AddPattern("p", pattern))
	require.NoError(t, s.Build())
	require.NoError(t, s.ScanBytes(context.Background(), []byte(data)))
	c, ok := s.Context("p")
	require.True(t, ok)
	return c
}

func TestContentSearcher_Patterns(t *testing.T) {
	tests := []struct {
		pattern string
		data    string
		want    bool
	}{
		{pattern: `*'Hello'`, data: "Hello, World!", want: true},
		{pattern: `*'World'`, data: "Hello, World!", want: true},
		{pattern: `*'hello'`, data: "Hello, World!", want: false},
		{pattern: `'Hello'`, data: "Hello, World!", want: true},
		{pattern: `'World'`, data: "Hello, World!", want: true},
		{pattern: `'lo, Wor'`, data: "Hello, World!", want: true},
		{pattern: `'World!'`, data: "Hello, World", want: false},
		{pattern: `'Wor'<1>'d'*'!'`, data: "Hello, World!", want: true},
		{pattern: `*'Hello, '!'World'`, data: "Hello, World!", want: false},
		{pattern: `*'Hello, '!'World'`, data: "Hello, Worlt!", want: true},
		{pattern: `*'Hello, '<1>!'World'`, data: "Hello, 1World!", want: false},
		{pattern: `*'Hello, '<1>!'World'`, data: "Hello, 1Wxrld!", want: true},
		{pattern: `*'Hello, ''Wor'<1>'t'`, data: "Hello, Worlt!", want: true},
		{pattern: `*'Hello, '!'Wer'<1>'t'`, data: "Hello, Worlt!", want: true},
		{pattern: `'Hello'*!'s'`, data: "Hello, Worlds!", want: true},
		{pattern: `'Hello'*'s!'`, data: "Hello, Worlds!", want: true},
		{pattern: `*'ello'*'s!'`, data: "Hello, Worlds!", want: true},
		{pattern: `*'ello'*'x!'`, data: "Hello, Worlds!", want: false},
		{pattern: `*'o y'*`, data: "no you", want: true},
		{pattern: `'a'*'b'`, data: "ab", want: true},
		{pattern: `'a'*`, data: "a", want: true},
		{pattern: `*`, data: "", want: true},
		{pattern: ``, data: "", want: true},
		{pattern: `*'a'`, data: "", want: false},
		{pattern: `<3>`, data: "ab", want: false},
		{pattern: `<3>`, data: "abc", want: true},
		{pattern: `*'the quick brown fox'`, data: strings.Repeat("the quick brown fog ", 50) + "the quick brown fox", want: true},
		{pattern: `*'the quick brown fox'`, data: strings.Repeat("the quick brown fog ", 50), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.data, func(t *testing.T) {
			c := searchOne(t, tt.pattern, tt.data)
			assert.Equal(t, tt.want, c.IsMatch())
			assert.Equal(t, int64(0), c.Collisions())
		})
	}
}

func TestContentSearcher_Spans(t *testing.T) {
	tests := []struct {
		pattern string
		data    string
		want    []MatchResult
	}{
		{
			pattern: `*'o y'*`,
			data:    "no you",
			want:    []MatchResult{{Begin: 0, End: 0}, {Begin: 1, End: 3}},
		},
		{
			pattern: `*'Hello, ''Wor'<1>'t'`,
			data:    "Hello, Worlt!",
			want:    []MatchResult{{Begin: 0, End: 6}, {Begin: 7, End: 9}, {Begin: 10, End: 10}, {Begin: 11, End: 11}},
		},
		{
			pattern: `'ab'*'ef'`,
			data:    "abcdef",
			want:    []MatchResult{{Begin: 0, End: 1}, {Begin: 2, End: 3}, {Begin: 4, End: 5}},
		},
		{
			pattern: `'ab'*'cd'`,
			data:    "abcd",
			want:    []MatchResult{{Begin: 0, End: 1}, {Begin: 2, End: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			c := searchOne(t, tt.pattern, tt.data)
			require.True(t, c.IsMatch())
			assert.Equal(t, tt.want, c.Results())
		})
	}
}

func TestContentSearcher_MultiplePatterns(t *testing.T) {
	s := NewContentSearcher()
	require.NoError(t, s.AddPattern("short", `*'cat'`))
	require.NoError(t, s.AddPattern("long", `*'a considerably longer literal'`))
	require.NoError(t, s.AddPattern("missing", `*'dog'`))
	require.NoError(t, s.Build())

	data := "the cat read a considerably longer literal than expected"
	require.NoError(t, s.ScanBytes(context.Background(), []byte(data)))

	short, _ := s.Context("short")
	long, _ := s.Context("long")
	missing, _ := s.Context("missing")
	assert.True(t, short.IsMatch())
	assert.True(t, long.IsMatch())
	assert.False(t, missing.IsMatch())
	assert.False(t, s.Matched())
	assert.Len(t, s.Contexts(), 3)
}

func TestContentSearcher_ShortCircuits(t *testing.T) {
	s := NewContentSearcher()
	require.NoError(t, s.AddPattern("p", `'ab'`))
	require.NoError(t, s.Build())

	assert.True(t, s.AddByte('a'))
	assert.False(t, s.AddByte('b'))
	assert.False(t, s.Pending())
	assert.True(t, s.Matched())

	require.NoError(t, s.ScanBytes(context.Background(), []byte("more input")))
	assert.Equal(t, int64(2), s.BytesRead())
}

func TestContentSearcher_LeadingLiteralFloats(t *testing.T) {
	s := NewContentSearcher()
	require.NoError(t, s.AddPattern("p", `'xy'*'z'`))
	require.NoError(t, s.Build())

	for _, b := range []byte("xaxy") {
		assert.True(t, s.AddByte(b))
	}
	assert.False(t, s.AddByte('z'))

	c, _ := s.Context("p")
	assert.False(t, c.Failed())
	assert.True(t, c.IsMatch())
	assert.Equal(t, []MatchResult{{Begin: 2, End: 3}, {Begin: 4, End: 4}}, c.Results(),
		"bytes before the first match are not reported")
}

func TestContentSearcher_LiteralIsSubstring(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := []byte("ab c")
	randomString := func(n int) []byte {
		out := make([]byte, n)
		for i := range out {
			out[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return out
	}

	for i := 0; i < 2000; i++ {
		needle := randomString(1 + rng.Intn(8))
		haystack := randomString(rng.Intn(40))
		want := bytes.Contains(haystack, needle)

		for _, pattern := range []string{"'" + string(needle) + "'", "*'" + string(needle) + "'*"} {
			c := searchOne(t, pattern, string(haystack))
			if !assert.Equal(t, want, c.IsMatch(), "pattern %s on %q", pattern, haystack) {
				return
			}
		}
	}
}

func TestContentSearcher_SessionErrors(t *testing.T) {
	s := NewContentSearcher()
	assert.PanicsWithError(t, ErrSessionNotBuilt.Error(), func() { s.AddByte('a') })

	require.NoError(t, s.AddPattern("p", `*'a'`))
	assert.Error(t, s.AddPattern("p", `*'b'`), "duplicate names are rejected")
	assert.ErrorIs(t, s.AddPattern("bad", `'a`), ErrInvalidPattern)

	require.NoError(t, s.Build())
	assert.True(t, s.Built())
	assert.ErrorIs(t, s.Build(), ErrSessionBuilt)
	assert.ErrorIs(t, s.AddPattern("q", `*'b'`), ErrSessionBuilt)
	assert.ErrorIs(t, s.AddFilters("q", NewAny()), ErrSessionBuilt)
	assert.ErrorIs(t, s.AddCompiled("q", MustCompile(`*`)), ErrSessionBuilt)
}

func TestContentSearcher_SharedPattern(t *testing.T) {
	p := MustCompile(`*'shared literal'`)

	run := func(data string) bool {
		s := NewContentSearcher()
		require.NoError(t, s.AddCompiled("p", p))
		require.NoError(t, s.Build())
		require.NoError(t, s.ScanBytes(context.Background(), []byte(data)))
		return s.Matched()
	}

	assert.True(t, run("xx shared literal xx"))
	assert.False(t, run("xx shared literaL xx"))
	assert.True(t, run("shared literal"))
}

func TestContentSearcher_ForcedCollisions(t *testing.T) {
	s, err := NewContentSearcherWithHash(1, DefaultModulus)
	require.NoError(t, err)
	require.NoError(t, s.AddPattern("p", `*'abcdef'`))
	require.NoError(t, s.Build())
	require.NoError(t, s.ScanBytes(context.Background(), []byte("fedcba abcdef")))

	assert.True(t, s.Matched())
	assert.Equal(t, int64(1), s.Collisions())
}

func TestNewContentSearcherWithHash_RejectsOverflow(t *testing.T) {
	tests := []struct {
		prime, modulus int64
	}{
		{prime: 313, modulus: MaxModulus + 1},
		{prime: 313, modulus: 1 << 62},
		{prime: 1 << 40, modulus: DefaultModulus},
		{prime: DefaultModulus, modulus: DefaultModulus},
		{prime: 0, modulus: DefaultModulus},
		{prime: 313, modulus: 1},
	}
	for _, tt := range tests {
		_, err := NewContentSearcherWithHash(tt.prime, tt.modulus)
		assert.ErrorIs(t, err, ErrHashParams, "prime %d modulus %d", tt.prime, tt.modulus)
	}

	s, err := NewContentSearcherWithHash(MaxModulus-1, MaxModulus)
	require.NoError(t, err)
	require.NoError(t, s.AddPattern("p", `*'overflow check'`))
	require.NoError(t, s.Build())
	data := bytes.Repeat([]byte{0xff}, 4096)
	data = append(data, "overflow check"...)
	require.NoError(t, s.ScanBytes(context.Background(), data))
	assert.True(t, s.Matched())
}

func TestContentSearcher_ScanReader(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 10_000)
	data = append(data, []byte("needle at the very end")...)

	s := NewContentSearcher()
	require.NoError(t, s.AddPattern("p", `*'needle at the very end'`))
	require.NoError(t, s.Build())
	require.NoError(t, s.Scan(context.Background(), bytes.NewReader(data), make([]byte, 1000)))

	assert.True(t, s.Matched())
	assert.Equal(t, int64(len(data)), s.BytesRead())
}

func TestContentSearcher_Deterministic(t *testing.T) {
	data := []byte(strings.Repeat("abc needle def ", 20))
	var prev []MatchResult
	for i := 0; i < 3; i++ {
		c := searchOne(t, `*'needle'*'def'`, string(data))
		require.True(t, c.IsMatch())
		if prev != nil {
			assert.Equal(t, prev, c.Results())
		}
		prev = c.Results()
	}
}

func TestContentSearcher_Cancelled(t *testing.T) {
	s := NewContentSearcher()
	require.NoError(t, s.AddPattern("p", `*'x'`))
	require.NoError(t, s.Build())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Scan(ctx, strings.NewReader("abc"), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.ScanBytes(ctx, []byte("abc")), context.Canceled)
}

func TestPrefilter(t *testing.T) {
	pf := NewPrefilter(MustCompile(`*'foo'!'bar'*'baz'*'foo'`))
	assert.Equal(t, []string{"foo", "baz"}, pf.Keywords())

	assert.True(t, pf.MayMatch([]byte("xx baz yy foo")))
	assert.False(t, pf.MayMatch([]byte("only foo here")))
	assert.False(t, pf.MayMatch(nil))

	open := NewPrefilter(MustCompile(`*!'bar'`))
	assert.True(t, open.MayMatch([]byte("anything")))
}
