// Package steps defines the steps of a visibility report, their dependencies,
// and validation of a step's dependencies against the run log.
package steps

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	dbpkg "github.com/jonathan/ai-visibility/internal/db"
)

// Step names in execution order.
const (
	DiscoverCompetitors = "discover_competitors"
	QueryProviders      = "query_providers"
	ExtractSignals      = "extract_signals"
	AggregateScores     = "aggregate_scores"
	CitationMetrics     = "citation_metrics"
	TrafficShare        = "traffic_share"
	RaviIndex           = "ravi_index"
	PersistMetrics      = "persist_metrics"
)

// StepDefinition defines metadata for a report step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
	Optional     []string
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	DiscoverCompetitors: {
		Name:     DiscoverCompetitors,
		Category: dbpkg.StepCategoryDiscovery,
	},
	QueryProviders: {
		Name:     QueryProviders,
		Category: dbpkg.StepCategoryQuerying,
		Optional: []string{DiscoverCompetitors},
	},
	ExtractSignals: {
		Name:         ExtractSignals,
		Category:     dbpkg.StepCategoryQuerying,
		Dependencies: []string{QueryProviders},
	},
	AggregateScores: {
		Name:         AggregateScores,
		Category:     dbpkg.StepCategoryScoring,
		Dependencies: []string{ExtractSignals},
	},
	CitationMetrics: {
		Name:         CitationMetrics,
		Category:     dbpkg.StepCategoryScoring,
		Dependencies: []string{QueryProviders},
	},
	TrafficShare: {
		Name:         TrafficShare,
		Category:     dbpkg.StepCategoryScoring,
		Dependencies: []string{QueryProviders},
	},
	RaviIndex: {
		Name:         RaviIndex,
		Category:     dbpkg.StepCategoryScoring,
		Dependencies: []string{AggregateScores, CitationMetrics, TrafficShare},
	},
	PersistMetrics: {
		Name:         PersistMetrics,
		Category:     dbpkg.StepCategoryPersistence,
		Dependencies: []string{RaviIndex},
	},
}

// Order lists every step in the order the report runner executes them.
var Order = []string{
	DiscoverCompetitors,
	QueryProviders,
	ExtractSignals,
	AggregateScores,
	CitationMetrics,
	TrafficShare,
	RaviIndex,
	PersistMetrics,
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("missing dependencies: %v", e.MissingDependencies)
}

// StepLookup finds the recorded state of a step. *db.DB implements it.
type StepLookup interface {
	GetRunStep(ctx context.Context, runID uuid.UUID, stepName string) (*dbpkg.RunStep, error)
}

// Definition returns the definition of a step.
func Definition(name string) (StepDefinition, error) {
	def, ok := StepRegistry[name]
	if !ok {
		return StepDefinition{}, fmt.Errorf("unknown step: %s", name)
	}
	return def, nil
}

// CheckCompleted verifies that every required dependency of step is in done.
// The report runner uses it in memory before starting each step.
func CheckCompleted(step string, done map[string]bool) error {
	def, err := Definition(step)
	if err != nil {
		return err
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !done[dep] {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Step: step, MissingDependencies: missing}
	}
	return nil
}

// ValidateDependencies checks if all required dependencies for a step are completed
// in the run log.
func ValidateDependencies(ctx context.Context, lookup StepLookup, runID uuid.UUID, stepName string) error {
	def, err := Definition(stepName)
	if err != nil {
		return err
	}

	var missing []string
	for _, dep := range def.Dependencies {
		step, err := lookup.GetRunStep(ctx, runID, dep)
		if err != nil {
			return fmt.Errorf("failed to check dependency %s: %w", dep, err)
		}
		if step == nil || step.Status != dbpkg.StepStatusCompleted {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}

	return nil
}

// ValidateOrder reports an error if any step in order appears before one of its
// required dependencies.
func ValidateOrder(order []string) error {
	done := make(map[string]bool, len(order))
	for _, name := range order {
		if err := CheckCompleted(name, done); err != nil {
			return fmt.Errorf("step %s out of order: %w", name, err)
		}
		done[name] = true
	}
	return nil
}
