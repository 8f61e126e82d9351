// Package signals extracts heuristic signals (mentions, sentiment, prominence,
// source mix, content style, attributes) from a single model response.
//
// Every function is pure and tolerant of empty input: degraded input produces a
// neutral value, never an error.
package signals

// SourceCategory is a coarse class of cited web source.
type SourceCategory string

// Source categories, in classification order.
const (
	SourceBlogs       SourceCategory = "Blogs/Guides"
	SourceReviews     SourceCategory = "Review Sites/Forums"
	SourceMarketplace SourceCategory = "Marketplaces"
	SourceNews        SourceCategory = "News/PR"
	SourceDirectories SourceCategory = "Directories/Comparison"
)

// ContentStyle is a coarse class of response format.
type ContentStyle string

// Content styles.
const (
	StyleList           ContentStyle = "List"
	StyleComparison     ContentStyle = "Comparison"
	StyleRecommendation ContentStyle = "Recommendation"
	StyleFAQ            ContentStyle = "FAQ"
	StyleEditorial      ContentStyle = "Editorial"
)

// Attribute is a product/brand trait that responses associate with an entity.
type Attribute string

// Attributes.
const (
	AttrLuxury       Attribute = "Luxury"
	AttrAffordable   Attribute = "Affordable"
	AttrCheapDeals   Attribute = "Cheap Deals"
	AttrFastShipping Attribute = "Fast Shipping"
	AttrOrganic      Attribute = "Organic"
	AttrSustainable  Attribute = "Sustainable"
	AttrMinimalist   Attribute = "Minimalist"
	AttrVariety      Attribute = "Variety"
)

// SourceRule maps hostname fragments to a source category.
type SourceRule struct {
	Category SourceCategory `json:"category"`
	Keywords []string       `json:"keywords"`
}

// StyleRule maps cue phrases to a content style.
type StyleRule struct {
	Style    ContentStyle `json:"style"`
	Keywords []string     `json:"keywords"`
}

// AttributeRule maps synonyms to an attribute.
type AttributeRule struct {
	Attribute Attribute `json:"attribute"`
	Synonyms  []string  `json:"synonyms"`
}

// Lexicon holds every lookup table the extractors use. All keywords are lowercase.
// Rule slices are ordered; for sources the first matching rule wins.
type Lexicon struct {
	PositiveWords      []string        `json:"positive_words"`
	NegativeWords      []string        `json:"negative_words"`
	RecommendationCues []string        `json:"recommendation_cues"`
	AmbiguousNames     []string        `json:"ambiguous_names"`
	Sources            []SourceRule    `json:"sources"`
	Styles             []StyleRule     `json:"styles"`
	Attributes         []AttributeRule `json:"attributes"`
}

// DefaultLexicon returns the built-in tables.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		PositiveWords: []string{
			"best", "excellent", "great", "leading", "top", "trusted", "reliable", "recommended",
			"popular", "innovative", "favorite", "high quality", "outstanding", "love", "strong",
		},
		NegativeWords: []string{
			"worst", "poor", "bad", "unreliable", "complaint", "expensive", "slow", "scam",
			"avoid", "issue", "problem", "lawsuit", "disappointing", "weak", "overpriced",
		},
		RecommendationCues: []string{
			"we recommend", "i recommend", "highly recommend", "top pick", "best choice",
			"best option", "go-to", "standout", "our pick",
		},
		AmbiguousNames: []string{"box", "meta", "apple", "oracle", "data", "cloud", "drive"},
		Sources: []SourceRule{
			{SourceBlogs, []string{"blog", "medium.com", "substack", "wordpress", "guide", "howto", "hubspot"}},
			{SourceReviews, []string{"reddit", "quora", "trustpilot", "yelp", "g2.com", "capterra", "review", "forum", "stackexchange", "tripadvisor"}},
			{SourceMarketplace, []string{"amazon", "ebay", "etsy", "walmart", "alibaba", "aliexpress", "target.com", "bestbuy", "shopify"}},
			{SourceNews, []string{"news", "cnn", "bbc", "reuters", "forbes", "bloomberg", "techcrunch", "prnewswire", "businesswire", "nytimes", "wsj"}},
			{SourceDirectories, []string{"directory", "yellowpages", "crunchbase", "compare", "versus", "alternativeto", "similarweb", "clutch.co", "producthunt"}},
		},
		Styles: []StyleRule{
			{StyleList, []string{"top 10", "top 5", "list of", "ranked", "here are", "the following"}},
			{StyleComparison, []string{" vs ", "versus", "compared to", "comparison", "alternative", "better than"}},
			{StyleRecommendation, []string{"recommend", "top pick", "best choice", "you should", "consider", "go with"}},
			{StyleFAQ, []string{"faq", "frequently asked", "how do", "what is", "q:", "question"}},
			{StyleEditorial, []string{"in my opinion", "we believe", "editor", "our take", "analysis", "verdict"}},
		},
		Attributes: []AttributeRule{
			{AttrLuxury, []string{"luxury", "premium", "high-end", "designer", "upscale"}},
			{AttrAffordable, []string{"affordable", "budget", "inexpensive", "reasonably priced", "value for money"}},
			{AttrCheapDeals, []string{"cheap", "deal", "discount", "coupon", "bargain", "clearance"}},
			{AttrFastShipping, []string{"fast shipping", "free shipping", "next-day", "same-day", "quick delivery", "fast delivery"}},
			{AttrOrganic, []string{"organic", "natural", "non-gmo", "chemical-free"}},
			{AttrSustainable, []string{"sustainable", "eco-friendly", "ethical", "recycled", "carbon neutral"}},
			{AttrMinimalist, []string{"minimalist", "minimal", "simple design", "clean design"}},
			{AttrVariety, []string{"variety", "wide selection", "wide range", "assortment", "many options"}},
		},
	}
}

// orDefault lets nil lexicons be used safely.
func (l *Lexicon) orDefault() *Lexicon {
	if l == nil {
		return DefaultLexicon()
	}
	return l
}
