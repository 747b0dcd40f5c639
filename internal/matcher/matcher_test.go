package matcher

import (
	"math/rand"
	"regexp/syntax"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBuild(t *testing.T, b *Builder) *Matcher {
	t.Helper()
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestMatcherFlags(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
		input   string
		want    []Match
	}{
		{
			name:    "plain",
			builder: NewBuilder("beta"),
			input:   "alpha beta gamma beta",
			want:    []Match{{6, 10}, {17, 21}},
		},
		{
			name:    "case sensitive misses",
			builder: NewBuilder("Beta"),
			input:   "alpha beta",
			want:    nil,
		},
		{
			name:    "case insensitive",
			builder: NewBuilder("Beta").CaseInsensitive(true),
			input:   "alpha BETA beta",
			want:    []Match{{6, 10}, {11, 15}},
		},
		{
			name:    "whole word skips substrings",
			builder: NewBuilder("cat").WholeWord(true),
			input:   "concat cat cats (cat)",
			want:    []Match{{7, 10}, {17, 20}},
		},
		{
			name:    "whole word alternation",
			builder: NewBuilder("a|b").WholeWord(true),
			input:   "ab a b",
			want:    []Match{{3, 4}, {5, 6}},
		},
		{
			name:    "literal quotes metacharacters",
			builder: NewBuilder("a.c").Literal(true),
			input:   "abc a.c",
			want:    []Match{{4, 7}},
		},
		{
			name:    "regexp",
			builder: NewBuilder(`\d+`),
			input:   "x12y345",
			want:    []Match{{1, 3}, {4, 7}},
		},
		{
			name:    "empty width matches dropped",
			builder: NewBuilder(`x*`),
			input:   "axxb",
			want:    []Match{{1, 3}},
		},
		{
			name:    "pure anchor never yields a range",
			builder: NewBuilder(`^`),
			input:   "anything",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustBuild(t, tt.builder)
			got := m.FindMatches([]byte(tt.input))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want) > 0, m.IsMatch([]byte(tt.input)))
		})
	}
}

func TestBuildRejectsInvalidPattern(t *testing.T) {
	_, err := NewBuilder("(unclosed").Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(unclosed")
}

func TestNullMatcher(t *testing.T) {
	m := Null()
	assert.False(t, m.IsMatch([]byte("anything")))
	assert.Empty(t, m.FindMatches([]byte("anything")))
	assert.Empty(t, m.String())
}

func TestMatchRangeLaw(t *testing.T) {
	patterns := []*Builder{
		NewBuilder("a"),
		NewBuilder("ab|b"),
		NewBuilder("a*"),
		NewBuilder(`\w+`).WholeWord(true),
		NewBuilder("A").CaseInsensitive(true),
		NewBuilder("[^a]"),
		NewBuilder("$"),
		NewBuilder(`a|\b`),
		NewBuilder("(b){0}|ab"),
	}
	rng := rand.New(rand.NewSource(42))
	alphabet := []byte("abAB \n\xff")

	for _, pb := range patterns {
		m := mustBuild(t, pb)
		for i := 0; i < 200; i++ {
			in := make([]byte, rng.Intn(40))
			for j := range in {
				in[j] = alphabet[rng.Intn(len(alphabet))]
			}

			found := m.FindMatches(in)
			assert.Equal(t, len(found) > 0, m.IsMatch(in), "pattern %s input %q", m, in)

			prevStop := 0
			for _, f := range found {
				assert.GreaterOrEqual(t, f.Start, prevStop, "sorted and non-overlapping")
				assert.Less(t, f.Start, f.Stop)
				assert.LessOrEqual(t, f.Stop, len(in))
				prevStop = f.Stop
			}
		}
	}
}

func TestMinWidth(t *testing.T) {
	tests := []struct {
		expr string
		want int
	}{
		{"abc", 3},
		{"a|bc", 1},
		{"a*", 0},
		{"a+b", 2},
		{"(ab){2,}", 4},
		{`\bx\b`, 1},
		{`a|\b`, 0},
		{"^$", 0},
		{"[^a]", 1},
	}
	for _, tt := range tests {
		re, err := syntax.Parse(tt.expr, syntax.Perl)
		require.NoError(t, err)
		assert.Equal(t, tt.want, minWidth(re), tt.expr)
	}
}

func TestMatcherConcurrentUse(t *testing.T) {
	m := mustBuild(t, NewBuilder("needle"))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if !m.IsMatch([]byte("hay needle hay")) {
					t.Error("expected match")
				}
			}
		}()
	}
	wg.Wait()
}
