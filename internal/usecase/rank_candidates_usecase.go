package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"retrieval-planner/internal/domain"
	"retrieval-planner/internal/usecase/pipeline"
)

// RankCandidatesInput defines the input for a full ranked retrieval.
type RankCandidatesInput struct {
	Query        string
	Model        string
	SubjectID    string
	SystemPrompt string
	History      string
}

// RankCandidatesOutput is the ordered, size-bounded result set plus the
// audit trail consumed by observability, never by control flow.
type RankCandidatesOutput struct {
	RetrievalID string
	Plan        PlanRetrievalOutput
	Documents   []domain.Candidate
	Web         []domain.Candidate
	Diagnostics pipeline.FilterDiagnostics
	// Empty reports that hard filtering and the diversity cap left nothing.
	// It is a valid outcome, surfaced explicitly so callers can distinguish
	// it from "no relevant content indexed".
	Empty bool
}

// RankCandidatesUsecase runs the full pipeline: plan, fetch, score, filter,
// authority-adjust, rerank, order.
type RankCandidatesUsecase interface {
	Execute(ctx context.Context, input RankCandidatesInput) (*RankCandidatesOutput, error)
}

type rankCandidatesUsecase struct {
	planner      PlanRetrievalUsecase
	docRetriever domain.DocumentRetriever
	webSearcher  domain.WebSearcher
	authority    domain.AuthorityProvider
	crossEncoder domain.CrossEncoder
	config       *ConfigSource
	logger       *slog.Logger

	cache *lru.LRU[string, *RankCandidatesOutput]
}

// RankCandidatesOption configures optional components.
type RankCandidatesOption func(*rankCandidatesUsecase)

// WithCrossEncoder wires the external cross-encoder used when the rerank
// strategy asks for one.
func WithCrossEncoder(ce domain.CrossEncoder) RankCandidatesOption {
	return func(u *rankCandidatesUsecase) {
		u.crossEncoder = ce
	}
}

// WithResponseCache enables a short-TTL cache of ranked outputs keyed by
// query, model and subject.
func WithResponseCache(size int, ttl time.Duration) RankCandidatesOption {
	return func(u *rankCandidatesUsecase) {
		if size > 0 && ttl > 0 {
			u.cache = lru.NewLRU[string, *RankCandidatesOutput](size, nil, ttl)
		}
	}
}

// NewRankCandidatesUsecase creates a new RankCandidatesUsecase.
func NewRankCandidatesUsecase(
	planner PlanRetrievalUsecase,
	docRetriever domain.DocumentRetriever,
	webSearcher domain.WebSearcher,
	authority domain.AuthorityProvider,
	config *ConfigSource,
	logger *slog.Logger,
	opts ...RankCandidatesOption,
) RankCandidatesUsecase {
	u := &rankCandidatesUsecase{
		planner:      planner,
		docRetriever: docRetriever,
		webSearcher:  webSearcher,
		authority:    authority,
		config:       config,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *rankCandidatesUsecase) Execute(ctx context.Context, input RankCandidatesInput) (*RankCandidatesOutput, error) {
	if input.Query == "" {
		return nil, fmt.Errorf("query is empty")
	}

	cacheKey := rankCacheKey(input)
	if u.cache != nil {
		if cached, ok := u.cache.Get(cacheKey); ok {
			u.logger.Info("rank_cache_hit", slog.String("retrieval_id", cached.RetrievalID))
			return cached, nil
		}
	}

	retrievalID := uuid.NewString()
	cfg := u.config.Current()

	plan, err := u.planner.Execute(ctx, PlanRetrievalInput{
		Query:        input.Query,
		Model:        input.Model,
		SubjectID:    input.SubjectID,
		SystemPrompt: input.SystemPrompt,
		History:      input.History,
	})
	if err != nil {
		return nil, err
	}

	// Fetch both collections in parallel, bounded by the computed limits.
	var docs, web []domain.Candidate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = u.docRetriever.Retrieve(gctx, input.Query, plan.Limits.DocumentChunks)
		if err != nil {
			return fmt.Errorf("document retrieval failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if u.webSearcher == nil {
			return nil
		}
		var err error
		web, err = u.webSearcher.Search(gctx, input.Query, plan.Limits.WebResults)
		if err != nil {
			// Web search is best-effort; documents alone can answer.
			u.logger.Warn("web_search_failed",
				slog.String("retrieval_id", retrievalID),
				slog.String("error", err.Error()))
			web = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]domain.Candidate, 0, len(docs)+len(web))
	candidates = append(candidates, docs...)
	candidates = append(candidates, web...)
	for i := range candidates {
		candidates[i].Position = i
		candidates[i].Score = candidates[i].Semantic*plan.Weights.Semantic +
			candidates[i].Keyword*plan.Weights.Keyword
	}

	out := &RankCandidatesOutput{RetrievalID: retrievalID, Plan: *plan}

	filtered, diag, err := pipeline.ApplyFilters(candidates, cfg.Filtering, u.logger)
	out.Diagnostics = diag
	if err != nil {
		if errors.Is(err, domain.ErrEmptyResultSet) {
			u.logger.Info("filtering_emptied_result_set",
				slog.String("retrieval_id", retrievalID),
				slog.Int("input_candidates", diag.Input),
				slog.Int("hard_filtered", diag.HardFiltered))
			out.Empty = true
			return out, nil
		}
		return nil, err
	}

	filtered = pipeline.ApplyAuthority(filtered, u.authority, cfg.Authority)
	filtered = u.rerank(ctx, retrievalID, input.Query, filtered, cfg)

	for _, cand := range filtered {
		switch cand.Source {
		case domain.SourceWeb:
			out.Web = append(out.Web, cand)
		default:
			out.Documents = append(out.Documents, cand)
		}
	}
	out.Documents = pipeline.Order(out.Documents, cfg.Ordering.Document)
	out.Web = pipeline.Order(out.Web, cfg.Ordering.Web)

	u.logger.Info("candidates_ranked",
		slog.String("retrieval_id", retrievalID),
		slog.Int("document_count", len(out.Documents)),
		slog.Int("web_count", len(out.Web)),
		slog.Int("hard_filtered", diag.HardFiltered),
		slog.Int("diversity_dropped", diag.DiversityDropped))

	if u.cache != nil {
		u.cache.Add(cacheKey, out)
	}
	return out, nil
}

// rerank applies the configured strategy. The cross-encoder path falls back
// to composite scores when the encoder is unavailable or fails.
func (u *rankCandidatesUsecase) rerank(ctx context.Context, retrievalID, query string, candidates []domain.Candidate, cfg PipelineConfig) []domain.Candidate {
	if !cfg.Rerank.Enabled {
		return candidates
	}

	if cfg.Rerank.Strategy == pipeline.RerankCrossEncoder && u.crossEncoder != nil {
		rescored, err := u.crossEncode(ctx, query, candidates)
		if err != nil {
			u.logger.Warn("cross_encoder_failed_using_composite",
				slog.String("retrieval_id", retrievalID),
				slog.String("model", u.crossEncoder.ModelName()),
				slog.String("error", err.Error()))
		} else {
			candidates = rescored
		}
	}

	return pipeline.Rerank(candidates, cfg.Rerank)
}

func (u *rankCandidatesUsecase) crossEncode(ctx context.Context, query string, candidates []domain.Candidate) ([]domain.Candidate, error) {
	in := make([]domain.CrossEncoderCandidate, len(candidates))
	for i, cand := range candidates {
		in[i] = domain.CrossEncoderCandidate{
			ID:      cand.ID.String(),
			Content: cand.Content,
			Score:   cand.Score,
		}
	}
	results, err := u.crossEncoder.Score(ctx, query, in)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(results))
	for _, r := range results {
		scores[r.ID] = r.Score
	}
	out := make([]domain.Candidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		if s, ok := scores[out[i].ID.String()]; ok {
			out[i].Semantic = s
			out[i].Score = s
		}
	}
	return out, nil
}

func rankCacheKey(input RankCandidatesInput) string {
	h := sha256.Sum256([]byte(input.Model + "\x00" + input.SubjectID + "\x00" + input.Query))
	return hex.EncodeToString(h[:])
}
