package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"retrieval-planner/internal/domain"
	"retrieval-planner/internal/usecase/pipeline"
)

// PlanRetrievalInput defines the input parameters for PlanRetrieval.
type PlanRetrievalInput struct {
	Query     string
	Model     string
	SubjectID string
	// History and SystemPrompt are the already-committed prompt texts used
	// for budget accounting. The pipeline never stores them.
	SystemPrompt string
	History      string
}

// PlanRetrievalOutput carries the sizing and weighting decisions without
// fetching any candidates.
type PlanRetrievalOutput struct {
	Budget     pipeline.TokenBudget
	Complexity pipeline.Complexity
	Limits     pipeline.DynamicLimits
	Weights    pipeline.HybridWeights
	Variant    string
}

// PlanRetrievalUsecase computes the retrieval plan for a request: token
// budget, complexity tier, dynamic limits, and hybrid weights.
type PlanRetrievalUsecase interface {
	Execute(ctx context.Context, input PlanRetrievalInput) (*PlanRetrievalOutput, error)
}

type planRetrievalUsecase struct {
	catalog   domain.ModelCatalog
	estimator domain.TokenEstimator
	config    *ConfigSource
	logger    *slog.Logger
}

// NewPlanRetrievalUsecase creates a new PlanRetrievalUsecase.
func NewPlanRetrievalUsecase(
	catalog domain.ModelCatalog,
	estimator domain.TokenEstimator,
	config *ConfigSource,
	logger *slog.Logger,
) PlanRetrievalUsecase {
	return &planRetrievalUsecase{
		catalog:   catalog,
		estimator: estimator,
		config:    config,
		logger:    logger,
	}
}

func (u *planRetrievalUsecase) Execute(ctx context.Context, input PlanRetrievalInput) (*PlanRetrievalOutput, error) {
	if input.Query == "" {
		return nil, fmt.Errorf("query is empty")
	}
	cfg := u.config.Current()

	window := u.catalog.ContextWindow(input.Model)
	components := pipeline.PromptComponents{
		SystemPrompt: u.estimator.EstimateTokens(input.SystemPrompt),
		History:      u.estimator.EstimateTokens(input.History),
		UserMessage:  u.estimator.EstimateTokens(input.Query),
	}

	budget, err := pipeline.ComputeTokenBudget(window, components, cfg.ResponseReserve)
	if err != nil {
		// ErrOverBudget propagates; the caller decides whether to truncate
		// history or abort.
		return nil, fmt.Errorf("failed to compute token budget for model %q: %w", input.Model, err)
	}

	complexity := pipeline.ClassifyComplexity(input.Query, cfg.Complexity)
	limits := pipeline.ComputeLimits(input.Query, &budget, cfg.Limits, cfg.Complexity)
	weights, variant := pipeline.ResolveWeights(input.SubjectID, cfg.Weights)

	u.logger.Info("retrieval_planned",
		slog.String("model", input.Model),
		slog.String("complexity", complexity.String()),
		slog.Int("budget_remaining", budget.Remaining),
		slog.Int("document_chunks", limits.DocumentChunks),
		slog.Int("web_results", limits.WebResults),
		slog.String("weight_variant", variant),
		slog.String("reasoning", limits.Reasoning))

	return &PlanRetrievalOutput{
		Budget:     budget,
		Complexity: complexity,
		Limits:     limits,
		Weights:    weights,
		Variant:    variant,
	}, nil
}
