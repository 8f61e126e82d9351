package discovery

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// Filters drop names that are not competitors: publishers, platforms, generic
// phrases and the like.
type Filters struct {
	// Patterns are matched against candidate names during pre-filtering.
	Patterns []*regexp.Regexp
	// Substrings are checked case-insensitively during final cleanup.
	Substrings []string
}

// DefaultFilters returns the built-in non-competitor tables.
func DefaultFilters() *Filters {
	return &Filters{
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^(wikipedia|linkedin|facebook|instagram|twitter|x|youtube|tiktok|reddit|quora|pinterest)$`),
			regexp.MustCompile(`(?i)^(forbes|bloomberg|reuters|techcrunch|business insider|cnbc|the verge|wired)$`),
			regexp.MustCompile(`(?i)^(g2|capterra|trustpilot|yelp|glassdoor|crunchbase|owler|craft|similarweb|zoominfo)$`),
			regexp.MustCompile(`(?i)^(google|bing|yahoo|duckduckgo|apple app store|google play)$`),
			regexp.MustCompile(`(?i)^(fedex|ups|usps|dhl|aws|amazon web services|azure)$`),
			regexp.MustCompile(`(?i)\b(alternatives?|competitors?|vs\.?|versus|reviews?|top \d+)\b`),
			regexp.MustCompile(`(?i)^(inc|llc|ltd|company|companies|brand|brands|other|others|n/?a|none)$`),
		},
		Substrings: []string{
			"wikipedia", "linkedin", "news", "article", "blog", "review", "forum",
			"magazine", "press release", "directory", "list of", "comparison",
		},
	}
}

// prefilter drops candidates matching any pattern. The target is always kept.
func (f *Filters) prefilter(cands []Candidate, targetKey string) []Candidate {
	return lo.Filter(cands, func(c Candidate, _ int) bool {
		if c.Key == targetKey {
			return true
		}
		for _, re := range f.Patterns {
			if re.MatchString(c.Name) {
				return false
			}
		}
		return true
	})
}

// cleanup drops candidates containing a non-competitor substring. The target is
// always kept.
func (f *Filters) cleanup(cands []Candidate, targetKey string) []Candidate {
	return lo.Filter(cands, func(c Candidate, _ int) bool {
		if c.Key == targetKey {
			return true
		}
		lower := strings.ToLower(c.Name)
		for _, s := range f.Substrings {
			if strings.Contains(lower, s) {
				return false
			}
		}
		return true
	})
}
