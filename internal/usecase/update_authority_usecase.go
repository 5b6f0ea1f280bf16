package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"retrieval-planner/internal/domain"
)

// UpdateAuthorityUsecase upserts operator-provided domain authority scores.
// All scores in one call commit atomically; the background refresher picks
// them up within one interval.
type UpdateAuthorityUsecase interface {
	Execute(ctx context.Context, scores map[string]float64) error
}

type updateAuthorityUsecase struct {
	repo      domain.AuthorityRepository
	txManager domain.TransactionManager
	logger    *slog.Logger
}

// NewUpdateAuthorityUsecase creates a new UpdateAuthorityUsecase.
func NewUpdateAuthorityUsecase(
	repo domain.AuthorityRepository,
	txManager domain.TransactionManager,
	logger *slog.Logger,
) UpdateAuthorityUsecase {
	return &updateAuthorityUsecase{
		repo:      repo,
		txManager: txManager,
		logger:    logger,
	}
}

func (u *updateAuthorityUsecase) Execute(ctx context.Context, scores map[string]float64) error {
	if len(scores) == 0 {
		return fmt.Errorf("no scores provided")
	}

	err := u.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for d, score := range scores {
			if err := u.repo.UpsertDomainScore(txCtx, d, score); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update authority scores: %w", err)
	}

	u.logger.Info("authority_scores_updated", slog.Int("domain_count", len(scores)))
	return nil
}
