package brand

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"
)

// separatorClass matches any of the separators that are interchangeable inside a brand name.
const separatorClass = `[\s._-]?`

var splitRe = regexp.MustCompile(`[\s._-]+`)

// BuildAliases returns the textual variants of a brand name used for matching.
// The set covers the raw name, lowercase, no-space, hyphenated, suffix-stripped,
// name.com / name.ai and, for two-word names, the swapped word order.
func BuildAliases(name string) []string {
	raw := strings.TrimSpace(name)
	if raw == "" {
		return nil
	}
	lower := strings.ToLower(raw)
	words := strings.Fields(lower)

	aliases := []string{
		raw,
		lower,
		strings.Join(words, ""),
		strings.Join(words, "-"),
	}

	if key := NormalizeKey(raw); key != "" {
		aliases = append(aliases, key, key+".com", key+".ai")
	}
	if len(words) == 2 {
		aliases = append(aliases, words[1]+" "+words[0])
	}

	return lo.Uniq(lo.Filter(aliases, func(a string, _ int) bool { return a != "" }))
}

// Matcher finds brand mentions in free text using the brand's alias set.
// Matches must sit on word boundaries; "-", ".", "_" and whitespace are interchangeable.
type Matcher struct {
	name     string
	patterns []*regexp.Regexp
}

// NewMatcher compiles a case-insensitive matcher for the given brand name.
// An empty name yields a matcher that never matches.
func NewMatcher(name string) *Matcher {
	m := &Matcher{name: strings.TrimSpace(name)}
	for _, p := range aliasPatterns(m.name) {
		m.patterns = append(m.patterns, regexp.MustCompile(`(?i)`+p))
	}
	return m
}

// Name returns the brand name the matcher was built for.
func (m *Matcher) Name() string {
	return m.name
}

// Match reports whether the brand appears in text.
func (m *Matcher) Match(text string) bool {
	return len(m.find(text, 1)) > 0
}

// Count returns the number of bounded matches in text.
func (m *Matcher) Count(text string) int {
	return len(m.find(text, -1))
}

// FirstIndex returns the byte offset of the first bounded match, or -1.
func (m *Matcher) FirstIndex(text string) int {
	locs := m.find(text, 1)
	if len(locs) == 0 {
		return -1
	}
	return locs[0][0]
}

// find collects bounded matches of every alias and keeps the earliest, longest,
// non-overlapping ones.
func (m *Matcher) find(text string, limit int) [][]int {
	if len(m.patterns) == 0 || text == "" {
		return nil
	}
	var locs [][]int
	for _, re := range m.patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if isBoundary(text, loc[0], loc[1]) {
				locs = append(locs, loc)
			}
		}
	}
	sort.Slice(locs, func(i, j int) bool {
		if locs[i][0] != locs[j][0] {
			return locs[i][0] < locs[j][0]
		}
		return locs[i][1] > locs[j][1]
	})

	var out [][]int
	end := -1
	for _, loc := range locs {
		if loc[0] < end {
			continue
		}
		out = append(out, loc)
		end = loc[1]
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// isBoundary reports whether text[start:end] is not glued to surrounding letters or digits.
func isBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// aliasPatterns converts every alias into a separator-tolerant regex fragment, longest first.
func aliasPatterns(name string) []string {
	aliases := BuildAliases(name)
	if len(aliases) == 0 {
		return nil
	}
	// Camel-case names ("CloudFuze") also match their spaced and hyphenated forms.
	if parts := splitCamel(name); len(parts) > 1 {
		aliases = append(aliases, strings.Join(parts, " "))
	}

	seen := make(map[string]bool)
	var patterns []string
	for _, alias := range aliases {
		alias = strings.ToLower(alias)
		tld := ""
		if LooksLikeDomain(alias) {
			idx := strings.LastIndex(alias, ".")
			alias, tld = alias[:idx], regexp.QuoteMeta(alias[idx:])
		}
		pattern := separatorPattern(alias)
		if pattern == "" {
			continue
		}
		pattern += tld
		if !seen[pattern] {
			seen[pattern] = true
			patterns = append(patterns, pattern)
		}
	}

	sort.SliceStable(patterns, func(i, j int) bool { return len(patterns[i]) > len(patterns[j]) })
	return patterns
}

// separatorPattern joins the words of s so that any separator, or none, may sit between them.
func separatorPattern(s string) string {
	parts := lo.Filter(splitRe.Split(s, -1), func(p string, _ int) bool { return p != "" })
	quoted := lo.Map(parts, func(p string, _ int) string { return regexp.QuoteMeta(p) })
	return strings.Join(quoted, separatorClass)
}

// splitCamel splits "CloudFuze" into ["Cloud", "Fuze"]. Names without internal
// lower-to-upper transitions come back as a single part.
func splitCamel(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t-_.") {
		return []string{name}
	}
	var parts []string
	start := 0
	runes := []rune(name)
	for i := 1; i < len(runes); i++ {
		if unicode.IsLower(runes[i-1]) && unicode.IsUpper(runes[i]) {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	return append(parts, string(runes[start:]))
}
