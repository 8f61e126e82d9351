// Package brand canonicalizes free-text brand names into comparable keys and
// builds the alias patterns used to find brands in model output.
package brand

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
)

// wrapperChars are stripped from both ends before any other processing.
const wrapperChars = "\"'`“”‘’«»()[]{}<>*"

// noiseSuffixes are trailing tokens that do not distinguish one brand from another.
var noiseSuffixes = []string{
	"online", "store", "shop", "mart", "corp", "inc", "ltd", "llc", "com", "app", "io", "ai",
}

// minCoreLength is the shortest key that noise stripping may leave behind.
const minCoreLength = 3

var (
	nonAlnumRe   = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	domainLikeRe = regexp.MustCompile(`(?i)^(?:[a-z][a-z0-9+.-]*://)?(?:www\.)?[a-z0-9-]+(?:\.[a-z0-9-]+)+(?:[/?#].*)?$`)
)

// NormalizeKey reduces a brand name, domain, or URL to its brand key.
// "Acme Inc.", "acme.com" and "https://www.acme.com/products" all map to "acme".
// The result holds only lowercase letters and digits (any script) and
// NormalizeKey(NormalizeKey(x)) == NormalizeKey(x).
func NormalizeKey(raw string) string {
	s := strings.Trim(strings.TrimSpace(raw), wrapperChars+" \t\r\n")
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s = hostOf(s)
	s = strings.TrimPrefix(s, "www.")

	if idx := strings.Index(s, "/"); idx >= 0 {
		s = s[:idx]
	}
	if idx := strings.Index(s, "."); idx >= 0 {
		s = s[:idx]
	}

	s = nonAlnumRe.ReplaceAllString(s, "")
	return stripNoiseSuffixes(s)
}

// hostOf replaces a URL with its hostname. Inputs without a scheme are returned unchanged.
func hostOf(s string) string {
	idx := strings.Index(s, "://")
	if idx < 0 {
		return s
	}
	if u, err := url.Parse(s); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return s[idx+3:]
}

func stripNoiseSuffixes(s string) string {
	for {
		stripped := false
		for _, suffix := range noiseSuffixes {
			if strings.HasSuffix(s, suffix) && utf8.RuneCountInString(s)-len(suffix) >= minCoreLength {
				s = strings.TrimSuffix(s, suffix)
				stripped = true
				break
			}
		}
		if !stripped {
			return s
		}
	}
}

// LooksLikeDomain reports whether a name reads as a hostname or URL rather than a display name.
func LooksLikeDomain(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t") {
		return false
	}
	return strings.Contains(name, "://") || domainLikeRe.MatchString(name)
}

// PrettifyDomainLabel turns a hostname or URL into a display name:
// "https://www.acme-corp.co.uk/about" becomes "Acme Corp".
func PrettifyDomainLabel(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	h = hostOf(h)
	h = strings.TrimPrefix(h, "www.")
	if idx := strings.IndexAny(h, "/?#"); idx >= 0 {
		h = h[:idx]
	}
	if h == "" {
		return ""
	}

	if etld1, err := publicsuffix.EffectiveTLDPlusOne(h); err == nil {
		h = etld1
	}
	if idx := strings.Index(h, "."); idx >= 0 {
		h = h[:idx]
	}

	words := strings.FieldsFunc(h, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
