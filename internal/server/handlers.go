package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/ai-visibility/internal/brand"
	"github.com/jonathan/ai-visibility/internal/db"
	"github.com/jonathan/ai-visibility/internal/discovery"
	"github.com/jonathan/ai-visibility/internal/pipeline"
	"github.com/jonathan/ai-visibility/internal/providers"
	"github.com/jonathan/ai-visibility/internal/scoring"
)

const defaultListLimit = 20

type analyzeRequest struct {
	Entity    string           `json:"entity" validate:"required"`
	Industry  string           `json:"industry,omitempty"`
	Prompts   []string         `json:"prompts,omitempty"`
	Providers []providers.Name `json:"providers,omitempty"`
}

type metricsRequest struct {
	Entities  []string         `json:"entities" validate:"min=1,dive,required"`
	Industry  string           `json:"industry,omitempty"`
	Prompts   []string         `json:"prompts,omitempty"`
	Providers []providers.Name `json:"providers,omitempty"`
}

func (r metricsRequest) queryOptions() pipeline.QueryOptions {
	return pipeline.QueryOptions{Prompts: r.Prompts, Providers: r.Providers}
}

// raviRequest either carries precomputed inputs or names an entity to run a
// report for.
type raviRequest struct {
	Inputs      *scoring.RaviInput `json:"inputs,omitempty"`
	Entity      string             `json:"entity" validate:"required_without=Inputs"`
	Industry    string             `json:"industry,omitempty"`
	Competitors []string           `json:"competitors,omitempty"`
	Providers   []providers.Name   `json:"providers,omitempty"`
}

type raviResponse struct {
	Entity string            `json:"entity,omitempty"`
	Inputs scoring.RaviInput `json:"inputs"`
	Ravi   scoring.Ravi      `json:"ravi"`
}

// decode reads a JSON body into v and validates it.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &ErrValidation{Field: "body", Message: "is empty"}
		}
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return validateRequest(v)
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	if s.discovery == nil {
		s.errorResponse(w, &ErrUnavailable{Service: "competitor discovery"})
		return
	}
	var req discovery.Request
	if err := decode(r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	result, err := s.discovery.Discover(r.Context(), req)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decode(r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	analysis, err := s.analyzer.AnalyzeEntityWith(r.Context(), req.Entity, req.Industry, pipeline.QueryOptions{
		Prompts:   req.Prompts,
		Providers: req.Providers,
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, analysis)
}

func (s *Server) handleCitations(w http.ResponseWriter, r *http.Request) {
	var req metricsRequest
	if err := decode(r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	reports, err := s.analyzer.ComputeCitationMetrics(r.Context(), req.Entities, req.Industry, req.queryOptions())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, reports)
}

func (s *Server) handleTrafficShare(w http.ResponseWriter, r *http.Request) {
	var req metricsRequest
	if err := decode(r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	shares, err := s.analyzer.ComputeAiTrafficShare(r.Context(), req.Entities, req.Industry, req.queryOptions())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, shares)
}

func (s *Server) handleRavi(w http.ResponseWriter, r *http.Request) {
	var req raviRequest
	if err := decode(r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	if req.Inputs != nil {
		s.jsonResponse(w, http.StatusOK, raviResponse{
			Entity: req.Entity,
			Inputs: *req.Inputs,
			Ravi:   s.analyzer.ComputeRavi(*req.Inputs),
		})
		return
	}

	report, err := s.analyzer.RunReport(r.Context(), pipeline.RunOptions{
		Company:     req.Entity,
		Industry:    req.Industry,
		Competitors: req.Competitors,
		Providers:   req.Providers,
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	target := report.Target()
	if target == nil {
		s.errorResponse(w, errors.New("report has no target entity"))
		return
	}
	s.jsonResponse(w, http.StatusOK, raviResponse{
		Entity: target.Name,
		Inputs: pipeline.RaviInputFor(target.Analysis, target.Citation, target.Traffic),
		Ravi:   target.Ravi,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.RunOptions
	if err := decode(r, &opts); err != nil {
		s.errorResponse(w, err)
		return
	}

	report, err := s.analyzer.RunReport(r.Context(), opts)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

// handleReportStream runs a report and streams each step as an SSE "progress"
// event, ending with a "complete" event that carries the report.
func (s *Server) handleReportStream(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.RunOptions
	if err := decode(r, &opts); err != nil {
		s.errorResponse(w, err)
		return
	}

	stream, err := newReportStream(w)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	opts.OnProgress = func(event pipeline.ProgressEvent) {
		if err := stream.progress(event); err != nil {
			s.logger.Debug().Err(err).Str("step", event.Step).Msg("failed to write progress event")
		}
	}

	report, err := s.analyzer.RunReport(r.Context(), opts)
	if err != nil {
		err = stream.fail(err)
	} else {
		err = stream.complete(report)
	}
	if err != nil {
		s.logger.Debug().Err(err).Msg("failed to write final stream event")
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.errorResponse(w, &ErrUnavailable{Service: "run store"})
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.errorResponse(w, &ErrUnavailable{Service: "run store"})
		return
	}
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return
	}

	ctx := r.Context()
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if run == nil {
		s.errorResponse(w, &ErrNotFound{Resource: "run", ID: runID.String()})
		return
	}
	metrics, err := s.runs.ListRunMetrics(ctx, runID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	runSteps, err := s.runs.ListRunSteps(ctx, runID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"run":     run,
		"metrics": nonNil(metrics),
		"steps":   nonNil(runSteps),
	})
}

// handleHistory returns the stored metrics of one entity, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.errorResponse(w, &ErrUnavailable{Service: "run store"})
		return
	}
	key := brand.NormalizeKey(r.PathValue("entity"))
	if key == "" {
		s.errorResponse(w, &ErrValidation{Field: "entity", Message: "is required"})
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	history, err := s.runs.ListEntityHistory(r.Context(), key, limit)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"entity_key": key,
		"metrics":    nonNil(history),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := map[providers.Name]bool{}
	if s.registry != nil {
		status = s.registry.Status()
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"providers": status,
		"run_store": s.runs != nil,
		"discovery": s.discovery != nil,
	})
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, &ErrValidation{Field: "limit", Message: "must be a positive integer"}
	}
	return limit, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
