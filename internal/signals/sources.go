package signals

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/net/publicsuffix"
)

var (
	explicitURLRe = regexp.MustCompile(`(?i)https?://[^\s<>()"'\]\[]+`)
	bareDomainRe  = regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9-]*(?:\.[a-z0-9-]+)*\.[a-z]{2,}\b`)
)

// ClassifyDomain maps a hostname to the first source category whose keywords it contains.
// ok is false when no category matches.
func (l *Lexicon) ClassifyDomain(host string) (category SourceCategory, ok bool) {
	l = l.orDefault()
	host = normalizeHost(host)
	if host == "" {
		return "", false
	}
	for _, rule := range l.Sources {
		if containsAny(host, rule.Keywords) {
			return rule.Category, true
		}
	}
	return "", false
}

// ExtractURLs returns the distinct hostnames referenced in text, in first-seen order.
// Both explicit http(s) URLs and bare "word.tld" tokens are recognised; bare tokens
// are kept only when their suffix is a real ICANN top-level domain.
func ExtractURLs(text string) []string {
	if text == "" {
		return nil
	}

	var hosts []string
	for _, raw := range explicitURLRe.FindAllString(text, -1) {
		u, err := url.Parse(strings.TrimRight(raw, ".,;:!?"))
		if err != nil {
			continue
		}
		if h := normalizeHost(u.Hostname()); h != "" {
			hosts = append(hosts, h)
		}
	}

	remainder := explicitURLRe.ReplaceAllString(text, " ")
	for _, token := range bareDomainRe.FindAllString(remainder, -1) {
		h := normalizeHost(token)
		if h == "" {
			continue
		}
		tld := h[strings.LastIndex(h, ".")+1:]
		if _, icann := publicsuffix.PublicSuffix(tld); !icann {
			continue
		}
		hosts = append(hosts, h)
	}

	return lo.Uniq(hosts)
}

// SourceBreakdown counts the distinct hosts cited in text per source category.
func (l *Lexicon) SourceBreakdown(text string) map[SourceCategory]int {
	out := make(map[SourceCategory]int)
	for _, host := range ExtractURLs(text) {
		if category, ok := l.ClassifyDomain(host); ok {
			out[category]++
		}
	}
	return out
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}
