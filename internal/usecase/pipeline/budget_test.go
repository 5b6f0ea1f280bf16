package pipeline_test

import (
	"testing"

	"retrieval-planner/internal/domain"
	"retrieval-planner/internal/usecase/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTokenBudget_Remaining(t *testing.T) {
	budget, err := pipeline.ComputeTokenBudget(8192, pipeline.PromptComponents{
		SystemPrompt: 500,
		History:      1000,
		UserMessage:  200,
	}, 1024)
	require.NoError(t, err)

	assert.Equal(t, 8192, budget.Total)
	assert.Equal(t, 8192-500-1000-200-1024, budget.Remaining)
	assert.Equal(t, 1024, budget.ResponseReserve)
}

func TestComputeTokenBudget_ExactFit(t *testing.T) {
	budget, err := pipeline.ComputeTokenBudget(2000, pipeline.PromptComponents{
		SystemPrompt: 1000,
		History:      500,
		UserMessage:  300,
	}, 200)
	require.NoError(t, err)
	assert.Equal(t, 0, budget.Remaining)
}

func TestComputeTokenBudget_OverBudget(t *testing.T) {
	// Committed prompt plus reserve exceeds the window by 40 tokens.
	_, err := pipeline.ComputeTokenBudget(4000, pipeline.PromptComponents{
		SystemPrompt: 1500,
		History:      2000,
		UserMessage:  490,
	}, 50)
	assert.ErrorIs(t, err, domain.ErrOverBudget)
}

func TestComputeTokenBudget_InvalidWindow(t *testing.T) {
	_, err := pipeline.ComputeTokenBudget(0, pipeline.PromptComponents{}, 0)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrOverBudget)
}

func TestComputeTokenBudget_NegativeReserve(t *testing.T) {
	_, err := pipeline.ComputeTokenBudget(8192, pipeline.PromptComponents{}, -1)
	assert.Error(t, err)
}
