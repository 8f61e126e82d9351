package signals

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuickSentimentScore(t *testing.T) {
	lex := DefaultLexicon()

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"empty is neutral", "", 0},
		{"no lexicon words", "The company sells shoes.", 0},
		{"all positive", "This is the best and most reliable tool", 1},
		{"all negative", "It is bad and slow", -1},
		{"balanced", "great but expensive", 0},
		{"case insensitive", "EXCELLENT service", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, lex.QuickSentimentScore(tt.text), 1e-9)
		})
	}
}

func TestQuickSentimentScore_Bounds(t *testing.T) {
	lex := DefaultLexicon()
	texts := []string{
		strings.Repeat("best great excellent ", 50),
		strings.Repeat("worst scam avoid ", 50),
		"great great bad",
		"random words without any signal",
	}
	for _, text := range texts {
		s := lex.QuickSentimentScore(text)
		assert.GreaterOrEqual(t, s, -1.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestQuickSentimentScore_NilLexiconUsesDefaults(t *testing.T) {
	var lex *Lexicon
	assert.InDelta(t, 1.0, lex.QuickSentimentScore("excellent"), 1e-9)
}

func TestSentimentWeightFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
	}{
		{1.0, 1.0},
		{0.6, 1.0},
		{0.59, 0.8},
		{0.2, 0.8},
		{0.19, 0.6},
		{0.0, 0.6},
		{-0.2, 0.6},
		{-0.21, 0.4},
		{-0.6, 0.4},
		{-0.61, 0.2},
		{-1.0, 0.2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SentimentWeightFromScore(tt.score), "score %v", tt.score)
	}
}

func TestProminenceFactor(t *testing.T) {
	lex := DefaultLexicon()

	t.Run("early mention", func(t *testing.T) {
		assert.InDelta(t, 1.15, lex.ProminenceFactor("Acme is great.", "Acme"), 1e-9)
	})

	t.Run("early mention with recommendation cue", func(t *testing.T) {
		assert.InDelta(t, 1.25, lex.ProminenceFactor("We recommend Acme for most teams.", "acme"), 1e-9)
	})

	t.Run("late mention", func(t *testing.T) {
		text := strings.Repeat("x", 250) + " Acme"
		assert.InDelta(t, 1.0, lex.ProminenceFactor(text, "Acme"), 1e-9)
	})

	t.Run("first in numbered list", func(t *testing.T) {
		assert.InDelta(t, 1.15, lex.ProminenceFactor("1. Acme\n2. Globex", "Acme"), 1e-9)
	})

	t.Run("second in numbered list", func(t *testing.T) {
		// 1/log2(3) - 1 ≈ -0.369
		assert.InDelta(t, 0.7809, lex.ProminenceFactor("1. Acme\n2. Globex", "Globex"), 1e-3)
	})

	t.Run("list rank never raises the factor", func(t *testing.T) {
		unlisted := lex.ProminenceFactor("Globex and Acme", "Acme")
		for _, text := range []string{"1. Globex and Acme", "1. Acme", "3) Acme\n4) Globex"} {
			assert.LessOrEqual(t, lex.ProminenceFactor(text, "Acme"), unlisted, text)
		}
	})

	t.Run("empty inputs are neutral", func(t *testing.T) {
		assert.Equal(t, 1.0, lex.ProminenceFactor("", "Acme"))
		assert.Equal(t, 1.0, lex.ProminenceFactor("Acme", ""))
	})

	t.Run("always within bounds", func(t *testing.T) {
		texts := []string{
			"1. Acme\n2. Acme\n3. Acme top pick",
			"9. Acme\n10. Acme",
			strings.Repeat("noise ", 100) + "\n5) Acme",
		}
		for _, text := range texts {
			f := lex.ProminenceFactor(text, "Acme")
			assert.GreaterOrEqual(t, f, 0.5)
			assert.LessOrEqual(t, f, 1.5)
		}
	})
}

func TestDetectMention(t *testing.T) {
	lex := DefaultLexicon()

	t.Run("ambiguous name without domain keyword", func(t *testing.T) {
		got := lex.DetectMention("I put my files in the cloud today", "cloud", nil)
		assert.False(t, got.Detected)
		assert.Equal(t, 0, got.Count)
	})

	t.Run("ambiguous name still needs keyword", func(t *testing.T) {
		got := lex.DetectMention("CloudFuze is a cloud migration platform", "cloud", nil)
		assert.False(t, got.Detected)
	})

	t.Run("ambiguous name with domain keyword", func(t *testing.T) {
		got := lex.DetectMention("CloudFuze is a cloud migration platform", "cloud", []string{"migration"})
		assert.True(t, got.Detected)
		assert.Equal(t, 1, got.Count)
	})

	t.Run("count clamped to three", func(t *testing.T) {
		got := lex.DetectMention("Acme acme ACME Acme acme", "Acme", nil)
		assert.True(t, got.Detected)
		assert.Equal(t, 3, got.Count)
	})

	t.Run("not present", func(t *testing.T) {
		assert.Equal(t, Mention{}, lex.DetectMention("Globex only", "Acme", nil))
	})

	t.Run("alias variants", func(t *testing.T) {
		got := lex.DetectMention("Have you tried cloud-fuze?", "CloudFuze", nil)
		assert.True(t, got.Detected)
	})

	t.Run("custom ambiguous list", func(t *testing.T) {
		custom := DefaultLexicon()
		custom.AmbiguousNames = []string{"acme"}
		assert.False(t, custom.DetectMention("Acme is great", "Acme", nil).Detected)
		assert.True(t, custom.DetectMention("Acme is great for anvils", "Acme", []string{"anvil"}).Detected)
	})
}

func TestExtractURLs(t *testing.T) {
	text := "See https://www.reddit.com/r/x and www.trustpilot.com, also amazon.com. " +
		"Built with node.js, e.g. file.txt. Again: https://reddit.com/other"

	assert.Equal(t, []string{"reddit.com", "trustpilot.com", "amazon.com"}, ExtractURLs(text))
	assert.Empty(t, ExtractURLs(""))
}

func TestClassifyDomain(t *testing.T) {
	lex := DefaultLexicon()

	tests := []struct {
		host   string
		want   SourceCategory
		wantOK bool
	}{
		{"www.reddit.com", SourceReviews, true},
		{"blog.acme.com", SourceBlogs, true},
		{"amazon.com", SourceMarketplace, true},
		{"news.ycombinator.com", SourceNews, true},
		{"crunchbase.com", SourceDirectories, true},
		{"reviewblog.com", SourceBlogs, true},
		{"example.com", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			got, ok := lex.ClassifyDomain(tt.host)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSourceBreakdown(t *testing.T) {
	lex := DefaultLexicon()
	got := lex.SourceBreakdown("Sources: reddit.com, forbes.com, example.com")

	assert.Equal(t, map[SourceCategory]int{SourceReviews: 1, SourceNews: 1}, got)
}

func TestContentStyleCounts(t *testing.T) {
	lex := DefaultLexicon()
	got := lex.ContentStyleCounts("Here are the top 10 options. Acme vs Globex: we recommend Acme.")

	assert.Equal(t, 2, got[StyleList])
	assert.Equal(t, 1, got[StyleComparison])
	assert.Equal(t, 1, got[StyleRecommendation])
	assert.Equal(t, 0, got[StyleFAQ])
	assert.Equal(t, 0, got[StyleEditorial])
	assert.Len(t, got, 5)
}

func TestAttributeCounts(t *testing.T) {
	lex := DefaultLexicon()

	t.Run("requires brand co-occurrence", func(t *testing.T) {
		assert.Empty(t, lex.AttributeCounts("premium luxury goods with free shipping", "Acme"))
	})

	t.Run("counts synonyms when brand present", func(t *testing.T) {
		got := lex.AttributeCounts("Acme offers premium and luxury goods with free shipping", "Acme")
		assert.Equal(t, map[Attribute]int{AttrLuxury: 2, AttrFastShipping: 1}, got)
	})

	t.Run("empty name", func(t *testing.T) {
		assert.Empty(t, lex.AttributeCounts("Acme luxury", ""))
	})
}
