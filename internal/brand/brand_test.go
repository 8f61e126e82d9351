package brand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"company suffix", "Acme Inc.", "acme"},
		{"bare domain", "acme.com", "acme"},
		{"full url", "https://www.acme.com/products", "acme"},
		{"quoted", `"Zara Inc."`, "zara"},
		{"bracketed", "[Globex]", "globex"},
		{"path without scheme", "acme.com/pricing", "acme"},
		{"shop suffix", "Glossier Shop", "glossier"},
		{"stacked suffixes", "Widget Store Online", "widget"},
		{"short core kept", "Box", "box"},
		{"core too short to strip", "myapp", "myapp"},
		{"punctuation", "Ben & Jerry's", "benjerrys"},
		{"www host", "www.globex.io", "globex"},
		{"accented letters kept", "ÀcmeÉ Ltd", "àcmeé"},
		{"non-latin script", "Яндекс Маркет", "яндексмаркет"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.input))
		})
	}
}

func TestNormalizeKey_Idempotent(t *testing.T) {
	inputs := []string{
		"Acme Inc.", "https://www.acme.com/products", "CloudFuze", "Shopify App Store",
		"www.example.co.uk", "  \"The North Face\" ", "mart", "storeshop", "Walmart", "openai",
		"ÀcmeÉ Ltd", "Straße Shop",
	}
	for _, in := range inputs {
		once := NormalizeKey(in)
		assert.Equal(t, once, NormalizeKey(once), "input %q", in)
	}
}

func TestNormalizeKey_AliasEquivalence(t *testing.T) {
	want := NormalizeKey("Acme Inc.")
	assert.Equal(t, "acme", want)
	assert.Equal(t, want, NormalizeKey("acme.com"))
	assert.Equal(t, want, NormalizeKey("https://www.acme.com/products"))
}

func TestBuildAliases(t *testing.T) {
	aliases := BuildAliases("Cloud Fuze")

	assert.Contains(t, aliases, "Cloud Fuze")
	assert.Contains(t, aliases, "cloud fuze")
	assert.Contains(t, aliases, "cloudfuze")
	assert.Contains(t, aliases, "cloud-fuze")
	assert.Contains(t, aliases, "cloudfuze.com")
	assert.Contains(t, aliases, "cloudfuze.ai")
	assert.Contains(t, aliases, "fuze cloud")

	seen := make(map[string]bool)
	for _, a := range aliases {
		assert.False(t, seen[a], "duplicate alias %q", a)
		seen[a] = true
	}
}

func TestBuildAliases_Empty(t *testing.T) {
	assert.Empty(t, BuildAliases("  "))
}

func TestMatcher_WordBoundaries(t *testing.T) {
	m := NewMatcher("CloudFuze")

	for _, text := range []string{
		"We migrated with CloudFuze last year.",
		"Try cloud-fuze for this.",
		"cloud fuze is popular",
		"Visit cloudfuze.com today",
		"(CloudFuze)",
	} {
		assert.True(t, m.Match(text), "expected match in %q", text)
	}

	for _, text := range []string{
		"cloudfuzexyz is not it",
		"notcloudfuze either",
		"nothing here",
		"",
	} {
		assert.False(t, m.Match(text), "unexpected match in %q", text)
	}
}

func TestMatcher_SpacedNameMatchesJoinedForms(t *testing.T) {
	m := NewMatcher("cloud fuze")

	assert.True(t, m.Match("CloudFuze"))
	assert.True(t, m.Match("cloud-fuze"))
	assert.True(t, m.Match("cloudfuze"))
}

func TestMatcher_CountAndFirstIndex(t *testing.T) {
	m := NewMatcher("Acme")
	text := "Acme leads. acme.com is great, and ACME ships fast. Acmeish does not count."

	assert.Equal(t, 3, m.Count(text))
	assert.Equal(t, 0, m.FirstIndex(text))
	assert.Equal(t, -1, m.FirstIndex("no brand"))
}

func TestMatcher_DomainAliasDoesNotHideName(t *testing.T) {
	m := NewMatcher("CloudFuze")
	assert.True(t, m.Match("CloudFuze compared to others"))
}

func TestCleanCompetitorNames(t *testing.T) {
	got := CleanCompetitorNames([]string{
		"amazon.com",
		"Wikipedia",
		"Etsy",
		"Amazon",
		"Fashion News Daily",
		"AMAZON INC",
		"LinkedIn",
		"etsy.com",
		"",
		"Best article on shoes",
	})

	assert.Equal(t, []string{"Amazon", "Etsy"}, got)
}

func TestCleanCompetitorNames_DomainOnly(t *testing.T) {
	got := CleanCompetitorNames([]string{"https://www.acme-corp.com/about"})
	assert.Equal(t, []string{"Acme Corp"}, got)
}

func TestLooksLikeDomain(t *testing.T) {
	assert.True(t, LooksLikeDomain("acme.com"))
	assert.True(t, LooksLikeDomain("https://acme.com/x"))
	assert.True(t, LooksLikeDomain("www.acme.co.uk"))
	assert.False(t, LooksLikeDomain("Acme Inc."))
	assert.False(t, LooksLikeDomain("Acme"))
	assert.False(t, LooksLikeDomain(""))
}

func TestPrettifyDomainLabel(t *testing.T) {
	assert.Equal(t, "Acme Corp", PrettifyDomainLabel("acme-corp.com"))
	assert.Equal(t, "Globex", PrettifyDomainLabel("https://shop.globex.co.uk/path"))
	assert.Equal(t, "", PrettifyDomainLabel(""))
	assert.Equal(t, "Ñandu", PrettifyDomainLabel("ñandu.com"))
	assert.Equal(t, "Éclair Bakery", PrettifyDomainLabel("www.éclair-bakery.fr"))
}
