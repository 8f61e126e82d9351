package discovery

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jonathan/ai-visibility/internal/brand"
	"github.com/jonathan/ai-visibility/internal/schemas"
)

// DefaultBucket is used when neither the industry hint nor the company name
// selects a bucket.
const DefaultBucket = "ecommerce"

// Bucket is one industry's seed brands and the keywords that select it.
type Bucket struct {
	Keywords []string `json:"keywords,omitempty"`
	Brands   []string `json:"brands"`
}

// Tables holds the industry buckets used for fallback seeding.
type Tables struct {
	DefaultBucket string            `json:"default_bucket,omitempty"`
	Buckets       map[string]Bucket `json:"buckets"`
}

// DefaultTables returns the built-in buckets.
func DefaultTables() *Tables {
	return &Tables{
		DefaultBucket: DefaultBucket,
		Buckets: map[string]Bucket{
			"ecommerce": {
				Keywords: []string{"ecommerce", "e-commerce", "marketplace", "retail", "shop", "store"},
				Brands:   []string{"Amazon", "eBay", "Walmart", "Etsy", "Target", "Shopify"},
			},
			"fashion": {
				Keywords: []string{"fashion", "apparel", "clothing", "shoes", "footwear", "wear", "boutique"},
				Brands:   []string{"Zara", "H&M", "Uniqlo", "ASOS", "Shein", "Nike"},
			},
			"beauty": {
				Keywords: []string{"beauty", "cosmetics", "skincare", "makeup"},
				Brands:   []string{"Sephora", "Ulta Beauty", "Glossier", "The Ordinary", "Fenty Beauty"},
			},
			"saas": {
				Keywords: []string{"saas", "software", "cloud", "platform", "app"},
				Brands:   []string{"Salesforce", "HubSpot", "Zoho", "Monday.com", "Asana"},
			},
			"cloud_storage": {
				Keywords: []string{"file sharing", "cloud storage", "migration", "backup", "sync"},
				Brands:   []string{"Dropbox", "Box", "Google Drive", "OneDrive", "MultCloud"},
			},
			"food_delivery": {
				Keywords: []string{"food", "delivery", "restaurant", "meal", "grocery"},
				Brands:   []string{"DoorDash", "Uber Eats", "Grubhub", "Instacart", "Postmates"},
			},
			"travel": {
				Keywords: []string{"travel", "hotel", "flight", "booking", "vacation"},
				Brands:   []string{"Expedia", "Booking.com", "Airbnb", "Kayak", "Tripadvisor"},
			},
			"fintech": {
				Keywords: []string{"fintech", "payments", "banking", "finance", "lending"},
				Brands:   []string{"PayPal", "Stripe", "Square", "Revolut", "Chime"},
			},
		},
	}
}

// LoadTables reads a tables override file. The file is validated against the
// fallback tables schema before it is decoded.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}
	if err := schemas.Validate(schemas.FallbackTables, data); err != nil {
		return nil, fmt.Errorf("invalid tables file %s: %w", path, err)
	}

	var t Tables
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse tables file: %w", err)
	}
	if t.DefaultBucket == "" {
		t.DefaultBucket = DefaultBucket
	}
	return &t, nil
}

// Industry picks the bucket for a company. An industry hint naming a bucket, or
// containing one of its keywords, wins; then the company name is matched against
// the keywords; otherwise the default bucket is returned.
func (t *Tables) Industry(hint, company string) string {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint != "" {
		normalizedHint := strings.ReplaceAll(strings.ReplaceAll(hint, "-", "_"), " ", "_")
		if _, ok := t.Buckets[normalizedHint]; ok {
			return normalizedHint
		}
		if b := t.matchKeywords(hint); b != "" {
			return b
		}
	}
	if b := t.matchKeywords(strings.ToLower(company)); b != "" {
		return b
	}
	if t.DefaultBucket != "" {
		return t.DefaultBucket
	}
	return DefaultBucket
}

func (t *Tables) matchKeywords(text string) string {
	if text == "" {
		return ""
	}
	for _, name := range t.bucketNames() {
		for _, kw := range t.Buckets[name].Keywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				return name
			}
		}
	}
	return ""
}

// bucketNames is sorted so keyword matching is deterministic.
func (t *Tables) bucketNames() []string {
	out := make([]string, 0, len(t.Buckets))
	for name := range t.Buckets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Seed appends the whole bucket to cands, skipping the target company and brands
// already present. Seeded candidates have frequency zero.
func (t *Tables) Seed(cands []Candidate, bucket, company string) []Candidate {
	b, ok := t.Buckets[bucket]
	if !ok {
		b = t.Buckets[t.DefaultBucket]
	}

	targetKey := brand.NormalizeKey(company)
	seen := make(map[string]bool, len(cands))
	for _, c := range cands {
		seen[c.Key] = true
	}

	next := len(cands)
	for _, name := range b.Brands {
		key := brand.NormalizeKey(name)
		if key == "" || key == targetKey || seen[key] {
			continue
		}
		seen[key] = true
		cands = append(cands, Candidate{Name: name, Key: key, FirstSeen: next, Score: -1})
		next++
	}
	return cands
}
