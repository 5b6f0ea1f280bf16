package repository

import (
	"context"
	"fmt"
	"time"

	"retrieval-planner/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type authorityRepository struct {
	pool *pgxpool.Pool
}

// NewAuthorityRepository creates an AuthorityRepository over the
// domain_authority table.
func NewAuthorityRepository(pool *pgxpool.Pool) domain.AuthorityRepository {
	return &authorityRepository{pool: pool}
}

func (r *authorityRepository) getExecutor(ctx context.Context) dbExecutor {
	tx := ExtractTx(ctx)
	if tx != nil {
		return tx
	}
	return r.pool
}

func (r *authorityRepository) ListDomainScores(ctx context.Context) (map[string]float64, error) {
	sql := `
		SELECT domain, score
		FROM domain_authority
	`
	rows, err := r.getExecutor(ctx).Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query domain authority: %w", err)
	}
	defer rows.Close()

	scores := make(map[string]float64)
	for rows.Next() {
		var d string
		var score float64
		if err := rows.Scan(&d, &score); err != nil {
			return nil, fmt.Errorf("failed to scan domain authority: %w", err)
		}
		scores[d] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return scores, nil
}

func (r *authorityRepository) UpsertDomainScore(ctx context.Context, d string, score float64) error {
	if score < 0 || score > 1 {
		return fmt.Errorf("authority score %f outside [0, 1]", score)
	}
	sql := `
		INSERT INTO domain_authority (domain, score, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (domain) DO UPDATE
		SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at
	`
	_, err := r.getExecutor(ctx).Exec(ctx, sql, d, score, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert domain authority: %w", err)
	}
	return nil
}
