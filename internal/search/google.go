package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrMissingCredentials is returned when the API key or engine ID is empty.
var ErrMissingCredentials = errors.New("search: api key and cx are required")

// maxNum is the Custom Search API's page size limit.
const maxNum = 10

// Options configures a GoogleSearcher.
type Options struct {
	// Attempts is the total number of tries when the API answers 429.
	Attempts int
	// BaseDelay is the first backoff; each retry doubles it.
	BaseDelay time.Duration
	Logger    zerolog.Logger
	// ClientOptions are passed to the customsearch service (endpoint overrides in tests).
	ClientOptions []option.ClientOption
}

// GoogleSearcher implements Searcher with the Google Custom Search JSON API.
type GoogleSearcher struct {
	svc       *customsearch.Service
	cx        string
	attempts  int
	baseDelay time.Duration
	logger    zerolog.Logger
}

// NewGoogleSearcher creates a new searcher for the programmable search engine cx.
func NewGoogleSearcher(ctx context.Context, apiKey, cx string, opts Options) (*GoogleSearcher, error) {
	if apiKey == "" || cx == "" {
		return nil, ErrMissingCredentials
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts.ClientOptions...)
	svc, err := customsearch.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}

	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 2 * time.Second
	}

	return &GoogleSearcher{
		svc:       svc,
		cx:        cx,
		attempts:  opts.Attempts,
		baseDelay: opts.BaseDelay,
		logger:    opts.Logger,
	}, nil
}

// Search returns up to num results for query. Rate limiting (HTTP 429) is retried
// with exponential backoff; any other failure, or exhausted retries, returns nil.
func (s *GoogleSearcher) Search(ctx context.Context, query string, num int) []Result {
	if query == "" {
		return nil
	}
	num = min(max(num, 1), maxNum)

	for attempt := 0; attempt < s.attempts; attempt++ {
		resp, err := s.svc.Cse.List().Cx(s.cx).Q(query).Num(int64(num)).Context(ctx).Do()
		if err == nil {
			return toResults(resp)
		}

		var gErr *googleapi.Error
		if !errors.As(err, &gErr) || gErr.Code != http.StatusTooManyRequests {
			s.logger.Warn().Err(err).Str("query", query).Msg("search failed")
			return nil
		}
		if attempt == s.attempts-1 {
			break
		}

		delay := s.baseDelay << attempt
		s.logger.Debug().Str("query", query).Dur("backoff", delay).Int("attempt", attempt+1).Msg("search rate limited")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}

	s.logger.Warn().Str("query", query).Int("attempts", s.attempts).Msg("search rate limit retries exhausted")
	return nil
}

func toResults(resp *customsearch.Search) []Result {
	if resp == nil {
		return nil
	}
	out := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil {
			continue
		}
		out = append(out, Result{Name: item.Title, Link: item.Link, Snippet: item.Snippet})
	}
	return out
}
