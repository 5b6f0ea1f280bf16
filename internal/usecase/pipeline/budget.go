package pipeline

import (
	"fmt"

	"retrieval-planner/internal/domain"
)

// PromptComponents holds the estimated token cost of everything already
// committed to the prompt before retrieved content is added.
type PromptComponents struct {
	SystemPrompt int
	History      int
	UserMessage  int
}

// TokenBudget is the per-request accounting of a model's context window.
// Invariant: Remaining = Total - (SystemPrompt + History + UserMessage +
// ResponseReserve) and is never negative; an over-committed prompt surfaces
// as domain.ErrOverBudget instead of a silent clamp.
type TokenBudget struct {
	Total           int
	SystemPrompt    int
	History         int
	UserMessage     int
	ResponseReserve int
	Remaining       int
}

// ComputeTokenBudget derives the remaining budget for retrieved content.
// responseReserve is the slice held back for the model's answer.
func ComputeTokenBudget(contextWindow int, components PromptComponents, responseReserve int) (TokenBudget, error) {
	if contextWindow <= 0 {
		return TokenBudget{}, fmt.Errorf("context window must be positive, got %d", contextWindow)
	}
	if responseReserve < 0 {
		return TokenBudget{}, fmt.Errorf("response reserve must be non-negative, got %d", responseReserve)
	}

	committed := components.SystemPrompt + components.History + components.UserMessage + responseReserve
	if committed > contextWindow {
		return TokenBudget{}, fmt.Errorf("%w: committed %d tokens against window of %d",
			domain.ErrOverBudget, committed, contextWindow)
	}

	return TokenBudget{
		Total:           contextWindow,
		SystemPrompt:    components.SystemPrompt,
		History:         components.History,
		UserMessage:     components.UserMessage,
		ResponseReserve: responseReserve,
		Remaining:       contextWindow - committed,
	}, nil
}
