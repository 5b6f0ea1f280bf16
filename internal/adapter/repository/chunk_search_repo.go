package repository

import (
	"context"
	"fmt"

	"retrieval-planner/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type chunkSearchRepository struct {
	pool    *pgxpool.Pool
	encoder domain.VectorEncoder
}

// NewChunkSearchRepository creates a DocumentRetriever backed by the
// document_chunks table and a query embedding encoder.
func NewChunkSearchRepository(pool *pgxpool.Pool, encoder domain.VectorEncoder) domain.DocumentRetriever {
	return &chunkSearchRepository{pool: pool, encoder: encoder}
}

type dbExecutor interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *chunkSearchRepository) getExecutor(ctx context.Context) dbExecutor {
	tx := ExtractTx(ctx)
	if tx != nil {
		return tx
	}
	return r.pool
}

// Retrieve runs a hybrid search: cosine similarity over the chunk embeddings
// plus a full-text rank over the chunk content. Both raw signals come back on
// the candidate so the pipeline can weight them per request.
func (r *chunkSearchRepository) Retrieve(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}

	vectors, err := r.encoder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("encoder returned no vector for query")
	}
	embedding := pgvector.NewVector(vectors[0])

	sql := `
		SELECT
			c.id,
			c.document_id,
			d.title,
			c.content,
			d.url,
			1 - (c.embedding <=> $1) AS semantic_score,
			ts_rank_cd(c.content_tsv, plainto_tsquery('english', $2)) AS keyword_score,
			c.quality_score,
			c.topical_score,
			c.freshness_score,
			length(c.content) AS content_length,
			d.published_at
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		ORDER BY c.embedding <=> $1
		LIMIT $3
	`
	rows, err := r.getExecutor(ctx).Query(ctx, sql, embedding, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	position := 0
	for rows.Next() {
		var c domain.Candidate
		var title, url pgtype.Text
		var publishedAt pgtype.Timestamptz
		if err := rows.Scan(
			&c.ID, &c.DocumentID, &title, &c.Content, &url,
			&c.Semantic, &c.Keyword,
			&c.Quality, &c.Topical, &c.Freshness,
			&c.Length, &publishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		c.Source = domain.SourceDocument
		c.Title = title.String
		c.URL = url.String
		if publishedAt.Valid {
			c.PublishedAt = publishedAt.Time
		}
		c.Position = position
		position++
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return candidates, nil
}
