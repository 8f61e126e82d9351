package signals

import (
	"strings"

	"github.com/jonathan/ai-visibility/internal/brand"
)

const (
	minMentionCount = 1
	maxMentionCount = 3
)

// Mention is the outcome of mention detection for one entity in one response.
type Mention struct {
	Detected bool `json:"detected"`
	Count    int  `json:"count"`
}

// DetectMention looks for any alias of name in text on word boundaries.
// Names on the lexicon's ambiguous list ("apple", "cloud", ...) only count when
// at least one of domainKeywords also occurs in the text. A detected mention has
// a count clamped to [1, 3].
func (l *Lexicon) DetectMention(text, name string, domainKeywords []string) Mention {
	l = l.orDefault()
	if strings.TrimSpace(text) == "" || strings.TrimSpace(name) == "" {
		return Mention{}
	}

	count := brand.NewMatcher(name).Count(text)
	if count == 0 {
		return Mention{}
	}

	if l.isAmbiguous(name) && !hasDomainKeyword(text, domainKeywords) {
		return Mention{}
	}

	return Mention{Detected: true, Count: min(max(count, minMentionCount), maxMentionCount)}
}

func (l *Lexicon) isAmbiguous(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, word := range l.AmbiguousNames {
		if lower == word {
			return true
		}
	}
	return false
}

func hasDomainKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
