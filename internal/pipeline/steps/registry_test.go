package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/jonathan/ai-visibility/internal/db"
)

func TestStepRegistry(t *testing.T) {
	require.Len(t, StepRegistry, len(Order))
	for _, stepName := range Order {
		def, ok := StepRegistry[stepName]
		require.True(t, ok, "Step %s should be in registry", stepName)
		assert.Equal(t, stepName, def.Name)
		assert.NotEmpty(t, def.Category)
	}
}

func TestStepRegistryCategories(t *testing.T) {
	categories := map[string][]string{
		dbpkg.StepCategoryDiscovery:   {DiscoverCompetitors},
		dbpkg.StepCategoryQuerying:    {QueryProviders, ExtractSignals},
		dbpkg.StepCategoryScoring:     {AggregateScores, CitationMetrics, TrafficShare, RaviIndex},
		dbpkg.StepCategoryPersistence: {PersistMetrics},
	}

	for category, stepNames := range categories {
		for _, stepName := range stepNames {
			def, ok := StepRegistry[stepName]
			require.True(t, ok)
			assert.Equal(t, category, def.Category, "Step %s should be in category %s", stepName, category)
		}
	}
}

func TestOrderIsValid(t *testing.T) {
	assert.NoError(t, ValidateOrder(Order))

	err := ValidateOrder([]string{QueryProviders, RaviIndex})
	require.Error(t, err)
	var depErr *DependencyError
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, RaviIndex, depErr.Step)
	assert.Equal(t, []string{AggregateScores, CitationMetrics, TrafficShare}, depErr.MissingDependencies)
}

func TestCheckCompleted(t *testing.T) {
	assert.NoError(t, CheckCompleted(QueryProviders, nil))
	assert.NoError(t, CheckCompleted(PersistMetrics, map[string]bool{RaviIndex: true}))
	assert.Error(t, CheckCompleted(PersistMetrics, map[string]bool{}))
	assert.Error(t, CheckCompleted("unknown_step", nil))
}

func TestDependencyError(t *testing.T) {
	err := &DependencyError{
		Step:                "test_step",
		MissingDependencies: []string{"dep1", "dep2"},
	}

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing dependencies")
	assert.Equal(t, "test_step", err.Step)
	assert.Equal(t, []string{"dep1", "dep2"}, err.MissingDependencies)
}

type fakeLookup map[string]string

func (f fakeLookup) GetRunStep(ctx context.Context, runID uuid.UUID, stepName string) (*dbpkg.RunStep, error) {
	status, ok := f[stepName]
	if !ok {
		return nil, nil
	}
	return &dbpkg.RunStep{Step: stepName, Status: status}, nil
}

func TestValidateDependencies(t *testing.T) {
	lookup := fakeLookup{
		AggregateScores: dbpkg.StepStatusCompleted,
		CitationMetrics: dbpkg.StepStatusCompleted,
		TrafficShare:    dbpkg.StepStatusFailed,
	}

	err := ValidateDependencies(context.Background(), lookup, uuid.New(), RaviIndex)
	var depErr *DependencyError
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, []string{TrafficShare}, depErr.MissingDependencies)

	assert.Error(t, ValidateDependencies(context.Background(), lookup, uuid.New(), AggregateScores))
	assert.NoError(t, ValidateDependencies(context.Background(), lookup, uuid.New(), QueryProviders))
	assert.NoError(t, ValidateDependencies(context.Background(), lookup, uuid.New(), DiscoverCompetitors))
}

func TestValidateDependencies_UnknownStep(t *testing.T) {
	err := ValidateDependencies(context.Background(), nil, uuid.Nil, "unknown_step")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step")
}
