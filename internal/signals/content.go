package signals

import "strings"

// ContentStyleCounts counts, per style, how many distinct cue phrases occur in text.
func (l *Lexicon) ContentStyleCounts(text string) map[ContentStyle]int {
	l = l.orDefault()
	out := make(map[ContentStyle]int, len(l.Styles))
	lower := strings.ToLower(text)
	for _, rule := range l.Styles {
		hits := 0
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				hits++
			}
		}
		out[rule.Style] = hits
	}
	return out
}

// AttributeCounts counts attribute synonyms in text, but only when the entity's own
// name appears in the same text. Attributes with no hits are omitted.
func (l *Lexicon) AttributeCounts(text, name string) map[Attribute]int {
	l = l.orDefault()
	out := make(map[Attribute]int)
	lower := strings.ToLower(text)
	lowerName := strings.ToLower(strings.TrimSpace(name))
	if lowerName == "" || !strings.Contains(lower, lowerName) {
		return out
	}
	for _, rule := range l.Attributes {
		if n := countAll(lower, rule.Synonyms); n > 0 {
			out[rule.Attribute] += n
		}
	}
	return out
}
