// Package matcher wraps a compiled regular expression behind the two
// questions the search pipeline asks of a line: does it match, and where.
package matcher

import (
	"fmt"
	"regexp"
	"regexp/syntax"
)

// Match is one occurrence of the pattern within a line, as byte offsets.
// Start is inclusive, Stop exclusive, and Start < Stop.
type Match struct {
	Start int
	Stop  int
}

// Len returns the number of bytes covered by the match.
func (m Match) Len() int {
	return m.Stop - m.Start
}

// Matcher tests byte slices against a pattern. It is immutable once built and
// safe for concurrent use; share the pointer freely.
type Matcher struct {
	re      *regexp.Regexp
	pattern string

	// matchesEmpty is set when the expression can match zero bytes, in which
	// case a bare regexp match does not imply a non-empty occurrence.
	matchesEmpty bool
}

// Builder configures a Matcher. Case sensitivity and whole-word matching are
// resolved once, in Build.
type Builder struct {
	pattern         string
	caseInsensitive bool
	wholeWord       bool
	literal         bool
}

// NewBuilder starts a Builder for pattern. Matching is case sensitive, not
// whole-word and treats the pattern as a regular expression by default.
func NewBuilder(pattern string) *Builder {
	return &Builder{pattern: pattern}
}

// CaseInsensitive sets whether letter case is ignored.
func (b *Builder) CaseInsensitive(enabled bool) *Builder {
	b.caseInsensitive = enabled
	return b
}

// WholeWord sets whether matches must be bounded by word boundaries.
func (b *Builder) WholeWord(enabled bool) *Builder {
	b.wholeWord = enabled
	return b
}

// Literal sets whether the pattern is a fixed string rather than a regexp.
func (b *Builder) Literal(enabled bool) *Builder {
	b.literal = enabled
	return b
}

// Build compiles the configured pattern.
func (b *Builder) Build() (*Matcher, error) {
	expr := b.pattern
	if b.literal {
		expr = regexp.QuoteMeta(expr)
	}
	if b.wholeWord {
		expr = `\b(?:` + expr + `)\b`
	}
	if b.caseInsensitive {
		expr = `(?i)` + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid search pattern %q: %w", b.pattern, err)
	}

	// Compile already accepted expr, so Parse cannot fail here.
	parsed, _ := syntax.Parse(expr, syntax.Perl)

	return &Matcher{
		re:           re,
		pattern:      b.pattern,
		matchesEmpty: minWidth(parsed) == 0,
	}, nil
}

// minWidth returns the fewest bytes any match of re can span. Assertions
// such as ^ and \b are zero-width.
func minWidth(re *syntax.Regexp) int {
	switch re.Op {
	case syntax.OpLiteral:
		return len(re.Rune)
	case syntax.OpCharClass, syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return 1
	case syntax.OpCapture, syntax.OpPlus:
		return minWidth(re.Sub[0])
	case syntax.OpRepeat:
		return re.Min * minWidth(re.Sub[0])
	case syntax.OpConcat:
		n := 0
		for _, sub := range re.Sub {
			n += minWidth(sub)
		}
		return n
	case syntax.OpAlternate:
		n := -1
		for _, sub := range re.Sub {
			if w := minWidth(sub); n < 0 || w < n {
				n = w
			}
		}
		return max(n, 0)
	default:
		// star, quest, empty match, anchors and word boundaries
		return 0
	}
}

// Null returns a Matcher that never matches anything.
func Null() *Matcher {
	return &Matcher{}
}

// IsMatch reports whether b contains at least one non-empty occurrence of the
// pattern.
func (m *Matcher) IsMatch(b []byte) bool {
	if m.re == nil {
		return false
	}
	if m.matchesEmpty {
		return len(m.FindMatches(b)) > 0
	}
	return m.re.Match(b)
}

// FindMatches returns every non-empty, non-overlapping occurrence in b, in
// ascending order.
func (m *Matcher) FindMatches(b []byte) []Match {
	if m.re == nil {
		return nil
	}
	locs := m.re.FindAllIndex(b, -1)
	if len(locs) == 0 {
		return nil
	}
	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		if loc[1] > loc[0] {
			matches = append(matches, Match{Start: loc[0], Stop: loc[1]})
		}
	}
	if len(matches) == 0 {
		return nil
	}
	return matches
}

// String returns the expression as compiled.
func (m *Matcher) String() string {
	if m.re == nil {
		return ""
	}
	return m.re.String()
}

// Pattern returns the pattern as given to NewBuilder.
func (m *Matcher) Pattern() string {
	return m.pattern
}
