package di

import (
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"retrieval-planner/internal/adapter/embedder"
	"retrieval-planner/internal/adapter/planner_http"
	"retrieval-planner/internal/adapter/repository"
	"retrieval-planner/internal/adapter/rerank_http"
	"retrieval-planner/internal/adapter/websearch"
	"retrieval-planner/internal/domain"
	"retrieval-planner/internal/infra/config"
	"retrieval-planner/internal/usecase"
	"retrieval-planner/internal/worker"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	// Live pipeline configuration, swapped atomically on reload
	ConfigSource   *usecase.ConfigSource
	AuthorityTable *domain.AuthorityTable

	// Usecases
	PlanUsecase      usecase.PlanRetrievalUsecase
	RankUsecase      usecase.RankCandidatesUsecase
	AuthorityUsecase usecase.UpdateAuthorityUsecase

	// HTTP surface
	Handler *planner_http.Handler

	// Background components
	Refresher *worker.AuthorityRefresher
	// Watcher is nil when no overrides file is configured.
	Watcher *config.OverridesWatcher
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	// Pipeline config: built-in defaults merged with the overrides file
	pipelineCfg, err := config.BuildPipelineConfig(cfg.OverridesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline config: %w", err)
	}
	configSource, err := usecase.NewConfigSource(pipelineCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create config source: %w", err)
	}

	// Repositories
	encoder := embedder.NewOllamaEmbedder(cfg.EmbedderURL, cfg.EmbeddingModel, cfg.EmbedderTimeout)
	chunkRetriever := repository.NewChunkSearchRepository(pool, encoder)
	authorityRepo := repository.NewAuthorityRepository(pool)
	txManager := repository.NewPostgresTransactionManager(pool)

	// Authority table starts from built-in seeds; the refresher replaces it
	// once the database is reachable.
	authorityTable := domain.NewAuthorityTable(nil)

	// External clients
	var webSearcher domain.WebSearcher
	if cfg.WebSearchURL != "" {
		webSearcher = websearch.NewClient(websearch.Config{
			BaseURL:           cfg.WebSearchURL,
			Timeout:           cfg.WebSearchTimeout,
			RequestsPerSecond: cfg.WebSearchRPS,
		}, log)
	}

	// Usecases
	planUsecase := usecase.NewPlanRetrievalUsecase(
		domain.NewStaticModelCatalog(nil, 0),
		domain.NewHeuristicEstimator(),
		configSource,
		log,
	)

	var rankOpts []usecase.RankCandidatesOption
	if cfg.RerankerURL != "" {
		crossEncoder := rerank_http.NewClient(cfg.RerankerURL, cfg.RerankerModel, cfg.RerankerTimeout, log)
		rankOpts = append(rankOpts, usecase.WithCrossEncoder(crossEncoder))
		log.Info("cross_encoder_enabled",
			slog.String("url", cfg.RerankerURL),
			slog.String("model", cfg.RerankerModel))
	}
	if cfg.CacheSize > 0 {
		rankOpts = append(rankOpts, usecase.WithResponseCache(cfg.CacheSize, cfg.CacheTTL))
	}

	rankUsecase := usecase.NewRankCandidatesUsecase(
		planUsecase, chunkRetriever, webSearcher, authorityTable,
		configSource, log, rankOpts...,
	)
	authorityUsecase := usecase.NewUpdateAuthorityUsecase(authorityRepo, txManager, log)

	// HTTP handler
	handler := planner_http.NewHandler(planUsecase, rankUsecase, authorityUsecase, planner_http.ContextIdentityProvider{})

	// Background refresh of the authority table
	refresher := worker.NewAuthorityRefresher(authorityRepo, authorityTable, cfg.AuthorityRefreshInterval, log)

	// Hot reload of the overrides file
	var watcher *config.OverridesWatcher
	if cfg.OverridesPath != "" {
		watcher, err = config.NewOverridesWatcher(cfg.OverridesPath, configSource, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create overrides watcher: %w", err)
		}
	}

	return &ApplicationComponents{
		ConfigSource:     configSource,
		AuthorityTable:   authorityTable,
		PlanUsecase:      planUsecase,
		RankUsecase:      rankUsecase,
		AuthorityUsecase: authorityUsecase,
		Handler:          handler,
		Refresher:        refresher,
		Watcher:          watcher,
	}, nil
}
