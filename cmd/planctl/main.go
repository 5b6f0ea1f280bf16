package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"retrieval-planner/internal/domain"
	"retrieval-planner/internal/infra/config"
	"retrieval-planner/internal/usecase"
	"retrieval-planner/internal/usecase/pipeline"
)

var (
	version = "dev"

	// Global flags
	verbose       bool
	overridesPath string

	// Plan / rank flags
	query        string
	model        string
	subjectID    string
	systemFile   string
	historyFile  string
	candidateSet string

	// Chunks flags
	documentType string
	sampleFile   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "planctl",
	Short:   "Inspect retrieval planning decisions offline",
	Version: version,
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute a retrieval plan for a query",
	Long: `Compute the token budget, complexity tier, retrieval limits and hybrid
weights for a query without touching the database or any sidecar.

Examples:
  # Plan with defaults
  planctl plan --query "how does DNS resolution work" --model gpt-4o

  # Plan with a tuning overrides file
  planctl plan --query "why is my query slow" --model gemma3:4b \
    --overrides ./overrides.yaml`,
	RunE: runPlan,
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Run the ranking pipeline over a candidates file",
	Long: `Run filtering, authority adjustment, reranking and ordering over a JSON
candidates file, using the same pipeline the server runs. Useful for
replaying a production result set against different tuning overrides.

The candidates file holds a JSON array of objects with content, scores
and per-dimension signals; see the repository README for the format.`,
	RunE: runRank,
}

var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Show the experiment variant assigned to a subject",
	RunE:  runBucket,
}

var chunksCmd = &cobra.Command{
	Use:   "chunks",
	Short: "Show the chunking profile resolved for a document type",
	RunE:  runChunks,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&overridesPath, "overrides", "", "pipeline overrides YAML file")

	planCmd.Flags().StringVar(&query, "query", "", "user query (required)")
	planCmd.Flags().StringVar(&model, "model", "gpt-4o", "target model identifier")
	planCmd.Flags().StringVar(&subjectID, "subject", "", "subject id for experiment bucketing")
	planCmd.Flags().StringVar(&systemFile, "system", "", "file holding the system prompt")
	planCmd.Flags().StringVar(&historyFile, "history", "", "file holding the conversation history")

	rankCmd.Flags().StringVar(&query, "query", "", "user query (required)")
	rankCmd.Flags().StringVar(&model, "model", "gpt-4o", "target model identifier")
	rankCmd.Flags().StringVar(&subjectID, "subject", "", "subject id for experiment bucketing")
	rankCmd.Flags().StringVar(&candidateSet, "candidates", "", "JSON candidates file (required)")

	bucketCmd.Flags().StringVar(&subjectID, "subject", "", "subject id (required)")

	chunksCmd.Flags().StringVar(&documentType, "type", "plain", "document type (md, html, pdf, code, plain)")
	chunksCmd.Flags().StringVar(&sampleFile, "sample", "", "optional document to chunk with the resolved profile")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(bucketCmd)
	rootCmd.AddCommand(chunksCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (*usecase.ConfigSource, error) {
	cfg, err := config.BuildPipelineConfig(overridesPath)
	if err != nil {
		return nil, err
	}
	return usecase.NewConfigSource(cfg)
}

func readOptionalFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(content), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newPlanner(source *usecase.ConfigSource, log *slog.Logger) usecase.PlanRetrievalUsecase {
	return usecase.NewPlanRetrievalUsecase(
		domain.NewStaticModelCatalog(nil, 0),
		domain.NewHeuristicEstimator(),
		source,
		log,
	)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if query == "" {
		return fmt.Errorf("--query is required")
	}
	log := newLogger()

	source, err := loadConfig()
	if err != nil {
		return err
	}
	systemPrompt, err := readOptionalFile(systemFile)
	if err != nil {
		return err
	}
	history, err := readOptionalFile(historyFile)
	if err != nil {
		return err
	}

	planner := newPlanner(source, log)
	output, err := planner.Execute(context.Background(), usecase.PlanRetrievalInput{
		Query:        query,
		Model:        model,
		SubjectID:    subjectID,
		SystemPrompt: systemPrompt,
		History:      history,
	})
	if err != nil {
		return err
	}

	return printJSON(map[string]any{
		"budget":          output.Budget,
		"complexity":      output.Complexity.String(),
		"document_chunks": output.Limits.DocumentChunks,
		"web_results":     output.Limits.WebResults,
		"reasoning":       output.Limits.Reasoning,
		"semantic_weight": output.Weights.Semantic,
		"keyword_weight":  output.Weights.Keyword,
		"variant":         output.Variant,
	})
}

// fileCandidate mirrors domain.Candidate with JSON tags for the replay file.
type fileCandidate struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	DocumentID  string     `json:"document_id,omitempty"`
	Title       string     `json:"title,omitempty"`
	Content     string     `json:"content"`
	URL         string     `json:"url,omitempty"`
	Domain      string     `json:"domain,omitempty"`
	Semantic    float64    `json:"semantic"`
	Keyword     float64    `json:"keyword"`
	Quality     float64    `json:"quality"`
	Topical     float64    `json:"topical"`
	Freshness   float64    `json:"freshness"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// fileRetriever replays a recorded candidate set through the pipeline.
type fileRetriever struct {
	documents []domain.Candidate
	web       []domain.Candidate
}

func loadCandidates(path string) (*fileRetriever, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates file: %w", err)
	}
	var raw []fileCandidate
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse candidates file: %w", err)
	}

	r := &fileRetriever{}
	for _, fc := range raw {
		id, err := uuid.Parse(fc.ID)
		if err != nil {
			id = uuid.New()
		}
		c := domain.Candidate{
			ID:         id,
			Source:     domain.SourceKind(fc.Source),
			DocumentID: fc.DocumentID,
			Title:      fc.Title,
			Content:    fc.Content,
			URL:        fc.URL,
			Domain:     fc.Domain,
			Semantic:   fc.Semantic,
			Keyword:    fc.Keyword,
			Quality:    fc.Quality,
			Topical:    fc.Topical,
			Freshness:  fc.Freshness,
			Length:     len(fc.Content),
		}
		if fc.PublishedAt != nil {
			c.PublishedAt = *fc.PublishedAt
		}
		if c.Source == domain.SourceWeb {
			r.web = append(r.web, c)
		} else {
			c.Source = domain.SourceDocument
			r.documents = append(r.documents, c)
		}
	}
	return r, nil
}

func capped(candidates []domain.Candidate, limit int) []domain.Candidate {
	if limit < len(candidates) {
		return candidates[:limit]
	}
	return candidates
}

func (r *fileRetriever) Retrieve(_ context.Context, _ string, limit int) ([]domain.Candidate, error) {
	return capped(r.documents, limit), nil
}

func (r *fileRetriever) Search(_ context.Context, _ string, limit int) ([]domain.Candidate, error) {
	return capped(r.web, limit), nil
}

func runRank(cmd *cobra.Command, args []string) error {
	if query == "" {
		return fmt.Errorf("--query is required")
	}
	if candidateSet == "" {
		return fmt.Errorf("--candidates is required")
	}
	log := newLogger()

	source, err := loadConfig()
	if err != nil {
		return err
	}
	retriever, err := loadCandidates(candidateSet)
	if err != nil {
		return err
	}

	planner := newPlanner(source, log)
	ranker := usecase.NewRankCandidatesUsecase(
		planner, retriever, retriever, domain.NewAuthorityTable(nil), source, log,
	)

	output, err := ranker.Execute(context.Background(), usecase.RankCandidatesInput{
		Query:     query,
		Model:     model,
		SubjectID: subjectID,
	})
	if err != nil {
		return err
	}

	type rankedOut struct {
		ID     string  `json:"id"`
		Source string  `json:"source"`
		Title  string  `json:"title,omitempty"`
		Domain string  `json:"domain,omitempty"`
		Score  float64 `json:"score"`
	}
	toOut := func(candidates []domain.Candidate) []rankedOut {
		out := make([]rankedOut, 0, len(candidates))
		for _, c := range candidates {
			out = append(out, rankedOut{
				ID:     c.ID.String(),
				Source: string(c.Source),
				Title:  c.Title,
				Domain: c.Domain,
				Score:  c.Score,
			})
		}
		return out
	}

	return printJSON(map[string]any{
		"retrieval_id": output.RetrievalID,
		"empty":        output.Empty,
		"documents":    toOut(output.Documents),
		"web":          toOut(output.Web),
		"diagnostics":  output.Diagnostics,
	})
}

func runBucket(cmd *cobra.Command, args []string) error {
	if subjectID == "" {
		return fmt.Errorf("--subject is required")
	}
	source, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := source.Current()

	weights, variant := pipeline.ResolveWeights(subjectID, cfg.Weights)
	return printJSON(map[string]any{
		"subject_id":      subjectID,
		"variant":         variant,
		"semantic_weight": weights.Semantic,
		"keyword_weight":  weights.Keyword,
		"ab_test_enabled": cfg.Weights.ABTestEnabled,
	})
}

func runChunks(cmd *cobra.Command, args []string) error {
	source, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := source.Current()

	profile := pipeline.ResolveChunkProfile(documentType, cfg.ChunkProfile)
	out := map[string]any{
		"document_type":  documentType,
		"max_chunk_size": profile.MaxChunkSize,
		"min_chunk_size": profile.MinChunkSize,
		"overlap_size":   profile.OverlapSize,
		"strategy":       profile.Strategy,
	}

	if sampleFile != "" {
		body, err := os.ReadFile(sampleFile)
		if err != nil {
			return fmt.Errorf("failed to read sample: %w", err)
		}
		chunker, err := domain.NewChunker(profile.MinChunkSize, profile.MaxChunkSize)
		if err != nil {
			return err
		}
		chunks, err := chunker.Chunk(string(body))
		if err != nil {
			return err
		}
		sizes := make([]int, 0, len(chunks))
		for _, c := range chunks {
			sizes = append(sizes, len(c.Content))
		}
		out["sample_chunks"] = len(chunks)
		out["sample_chunk_sizes"] = sizes
	}

	return printJSON(out)
}
