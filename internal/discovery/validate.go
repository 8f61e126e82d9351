package discovery

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/ai-visibility/internal/llm"
	"github.com/jonathan/ai-visibility/internal/prompts"
	"github.com/jonathan/ai-visibility/internal/schemas"
)

// validationResponse is the rubric score returned by the validate-competitor prompt.
type validationResponse struct {
	Score         float64 `json:"score"`
	Industry      float64 `json:"industry"`
	Product       float64 `json:"product"`
	Customers     float64 `json:"customers"`
	BusinessModel float64 `json:"business_model"`
	Excluded      bool    `json:"excluded"`
	Reason        string  `json:"reason"`
}

// validate scores each candidate with the LLM and keeps those at or above the
// threshold, in their ranked order. Without a validator, or when every call
// fails, it keeps the top FailOpenTopN unchanged and reports failedOpen. The
// target is never scored and never dropped.
func (p *Pipeline) validate(ctx context.Context, req Request, cands []Candidate, targetKey string) (kept []Candidate, failedOpen bool) {
	if len(cands) == 0 {
		return cands, false
	}
	if p.llm == nil {
		return p.failOpen(cands), true
	}

	scores := make([]float64, len(cands))
	ok := make([]bool, len(cands))
	var mu sync.Mutex
	attempted := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, c := range cands {
		if c.Key == targetKey {
			continue
		}
		attempted++
		g.Go(func() error {
			score, err := p.score(gctx, req, c.Name)
			if err != nil {
				p.logger.Warn().Err(err).Str("candidate", c.Name).Msg("competitor validation failed")
				return nil
			}
			mu.Lock()
			scores[i] = score
			ok[i] = true
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, v := range ok {
		if v {
			succeeded++
		}
	}
	if attempted > 0 && succeeded == 0 {
		return p.failOpen(cands), true
	}

	for i, c := range cands {
		switch {
		case c.Key == targetKey:
			kept = append(kept, c)
		case ok[i] && scores[i] >= p.opts.ValidationThreshold:
			c.Score = scores[i]
			kept = append(kept, c)
		}
	}
	return kept, false
}

func (p *Pipeline) failOpen(cands []Candidate) []Candidate {
	if len(cands) > p.opts.FailOpenTopN {
		return cands[:p.opts.FailOpenTopN]
	}
	return cands
}

func (p *Pipeline) score(ctx context.Context, req Request, candidate string) (float64, error) {
	prompt, err := p.prompts.Render(prompts.DiscoveryFile, "validate-competitor", map[string]string{
		"Company":   req.Company,
		"Industry":  req.Industry,
		"Candidate": candidate,
	})
	if err != nil {
		return 0, err
	}

	raw, err := p.generateJSON(ctx, prompt)
	if err != nil {
		return 0, err
	}

	parsed := llm.ParseJSON[validationResponse](raw, schemas.CompetitorValidation)
	if !parsed.Ok() {
		return 0, parsed.Err
	}
	if parsed.Value.Excluded {
		return 0, nil
	}
	return parsed.Value.Score, nil
}
