package brand

import "strings"

// junkMarkers identify entries that are sources about a brand rather than brands.
var junkMarkers = []string{"wikipedia", "linkedin", "news", "article"}

// CleanCompetitorNames drops junk entries and merges names sharing a brand key.
// The first-seen order of surviving keys is kept. When a key was first seen as a
// domain, a later plain display name replaces the prettified domain label.
func CleanCompetitorNames(names []string) []string {
	type entry struct {
		display    string
		domainLike bool
	}

	var order []string
	byKey := make(map[string]*entry)

	for _, name := range names {
		name = strings.Trim(strings.TrimSpace(name), wrapperChars)
		if name == "" || isJunk(name) {
			continue
		}
		key := NormalizeKey(name)
		if key == "" {
			continue
		}

		domainLike := LooksLikeDomain(name)
		if existing, ok := byKey[key]; ok {
			if existing.domainLike && !domainLike {
				existing.display = name
				existing.domainLike = false
			}
			continue
		}

		display := name
		if domainLike {
			if pretty := PrettifyDomainLabel(name); pretty != "" {
				display = pretty
			}
		}
		byKey[key] = &entry{display: display, domainLike: domainLike}
		order = append(order, key)
	}

	out := make([]string, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key].display)
	}
	return out
}

func isJunk(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range junkMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
