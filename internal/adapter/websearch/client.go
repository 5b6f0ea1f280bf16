package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"retrieval-planner/internal/domain"
	"retrieval-planner/internal/infra/httpclient"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// searchResponse is the provider's result payload.
type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Snippet     string  `json:"snippet"`
	Score       float64 `json:"score"`
	PublishedAt string  `json:"published_at,omitempty"`
}

// Client calls the external web-search provider. Calls go through a rate
// limiter and a circuit breaker so a degraded provider cannot stall or
// overload the pipeline; the usecase treats failures as best-effort.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]domain.Candidate]
	logger  *slog.Logger
}

// Config holds the provider settings.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// NewClient constructs a web search client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}

	breaker := gobreaker.NewCircuitBreaker[[]domain.Candidate](gobreaker.Settings{
		Name:        "web-search",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.TotalFailures*2 >= counts.Requests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("web_search_breaker_state_changed",
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpclient.NewPooledClient(cfg.Timeout),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: breaker,
		logger:  logger,
	}
}

// Search implements domain.WebSearcher.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	return c.breaker.Execute(func() ([]domain.Candidate, error) {
		return c.search(ctx, query, limit)
	})
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	endpoint := fmt.Sprintf("%s/v1/search?q=%s&limit=%d", c.baseURL, url.QueryEscape(query), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call search provider: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search provider returned %d: %s", resp.StatusCode, string(body))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(payload.Results))
	for i, r := range payload.Results {
		if i >= limit {
			break
		}
		cand := domain.Candidate{
			ID:       uuid.New(),
			Source:   domain.SourceWeb,
			Title:    r.Title,
			Content:  r.Snippet,
			URL:      r.URL,
			Domain:   registrableDomain(r.URL),
			Semantic: r.Score,
			Keyword:  r.Score,
			Length:   len(r.Snippet),
			Position: i,
		}
		if r.PublishedAt != "" {
			if ts, perr := time.Parse(time.RFC3339, r.PublishedAt); perr == nil {
				cand.PublishedAt = ts
				cand.Freshness = freshnessScore(time.Since(ts))
			}
		}
		// Providers rarely score these dimensions; neutral mid-range values
		// keep the filter stage from treating the result as malformed.
		cand.Quality = 0.5
		cand.Topical = r.Score
		candidates = append(candidates, cand)
	}

	c.logger.Debug("web_search_completed",
		slog.Int("result_count", len(candidates)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	return candidates, nil
}

// registrableDomain strips the host down to its last two labels. Good enough
// for the authority table, which stores entries in the same form.
func registrableDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// freshnessScore decays linearly from 1.0 (published now) to 0.0 at two years.
func freshnessScore(age time.Duration) float64 {
	const horizon = 2 * 365 * 24 * time.Hour
	if age <= 0 {
		return 1.0
	}
	if age >= horizon {
		return 0.0
	}
	return 1.0 - float64(age)/float64(horizon)
}
