package planner_http

import (
	"errors"
	"net/http"
	"time"

	"retrieval-planner/internal/domain"
	"retrieval-planner/internal/infra/metrics"
	"retrieval-planner/internal/usecase"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	planUsecase      usecase.PlanRetrievalUsecase
	rankUsecase      usecase.RankCandidatesUsecase
	authorityUsecase usecase.UpdateAuthorityUsecase
	identity         domain.IdentityProvider
}

func NewHandler(
	planUsecase usecase.PlanRetrievalUsecase,
	rankUsecase usecase.RankCandidatesUsecase,
	authorityUsecase usecase.UpdateAuthorityUsecase,
	identity domain.IdentityProvider,
) *Handler {
	return &Handler{
		planUsecase:      planUsecase,
		rankUsecase:      rankUsecase,
		authorityUsecase: authorityUsecase,
		identity:         identity,
	}
}

// RegisterRoutes wires the handler into an echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/v1/retrieval", SubjectMiddleware())
	v1.POST("/plan", h.Plan)
	v1.POST("/rank", h.Rank)

	e.PUT("/internal/authority/domains", h.UpdateAuthority)
}

// PlanRequest is the payload for POST /v1/retrieval/plan.
type PlanRequest struct {
	Query        string `json:"query"`
	Model        string `json:"model"`
	SubjectID    string `json:"subject_id,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	History      string `json:"history,omitempty"`
}

// PlanResponse carries the sizing and weighting decisions.
type PlanResponse struct {
	Budget struct {
		Total           int `json:"total"`
		ResponseReserve int `json:"response_reserve"`
		Remaining       int `json:"remaining"`
	} `json:"budget"`
	Complexity     string  `json:"complexity"`
	DocumentChunks int     `json:"document_chunks"`
	WebResults     int     `json:"web_results"`
	Reasoning      string  `json:"reasoning"`
	SemanticWeight float64 `json:"semantic_weight"`
	KeywordWeight  float64 `json:"keyword_weight"`
	Variant        string  `json:"variant"`
}

// Compute a retrieval plan without fetching candidates
// (POST /v1/retrieval/plan)
func (h *Handler) Plan(ctx echo.Context) error {
	var req PlanRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}
	if req.SubjectID == "" {
		req.SubjectID = h.identity.SubjectID(ctx.Request().Context())
	}

	output, err := h.planUsecase.Execute(ctx.Request().Context(), usecase.PlanRetrievalInput{
		Query:        req.Query,
		Model:        req.Model,
		SubjectID:    req.SubjectID,
		SystemPrompt: req.SystemPrompt,
		History:      req.History,
	})
	if err != nil {
		if errors.Is(err, domain.ErrOverBudget) {
			return ctx.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	metrics.PlansTotal.Inc()

	var resp PlanResponse
	resp.Budget.Total = output.Budget.Total
	resp.Budget.ResponseReserve = output.Budget.ResponseReserve
	resp.Budget.Remaining = output.Budget.Remaining
	resp.Complexity = output.Complexity.String()
	resp.DocumentChunks = output.Limits.DocumentChunks
	resp.WebResults = output.Limits.WebResults
	resp.Reasoning = output.Limits.Reasoning
	resp.SemanticWeight = output.Weights.Semantic
	resp.KeywordWeight = output.Weights.Keyword
	resp.Variant = output.Variant

	return ctx.JSON(http.StatusOK, resp)
}

// RankRequest is the payload for POST /v1/retrieval/rank.
type RankRequest struct {
	Query        string `json:"query"`
	Model        string `json:"model"`
	SubjectID    string `json:"subject_id,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	History      string `json:"history,omitempty"`
}

// RankedCandidate is one result in the rank response.
type RankedCandidate struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Title       string     `json:"title,omitempty"`
	Content     string     `json:"content"`
	URL         string     `json:"url,omitempty"`
	Domain      string     `json:"domain,omitempty"`
	Score       float64    `json:"score"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// RankResponse carries the ordered result sets and filter diagnostics.
type RankResponse struct {
	RetrievalID string            `json:"retrieval_id"`
	Empty       bool              `json:"empty"`
	Documents   []RankedCandidate `json:"documents"`
	Web         []RankedCandidate `json:"web"`
	Diagnostics struct {
		Input            int     `json:"input"`
		HardFiltered     int     `json:"hard_filtered"`
		Penalized        int     `json:"penalized"`
		DiversityDropped int     `json:"diversity_dropped"`
		DiversityRatio   float64 `json:"diversity_ratio"`
	} `json:"diagnostics"`
}

// Run the full retrieval pipeline and return ranked candidates
// (POST /v1/retrieval/rank)
func (h *Handler) Rank(ctx echo.Context) error {
	var req RankRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}
	if req.SubjectID == "" {
		req.SubjectID = h.identity.SubjectID(ctx.Request().Context())
	}

	output, err := h.rankUsecase.Execute(ctx.Request().Context(), usecase.RankCandidatesInput{
		Query:        req.Query,
		Model:        req.Model,
		SubjectID:    req.SubjectID,
		SystemPrompt: req.SystemPrompt,
		History:      req.History,
	})
	if err != nil {
		metrics.RanksTotal.WithLabelValues("error").Inc()
		if errors.Is(err, domain.ErrOverBudget) {
			return ctx.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if output.Empty {
		metrics.EmptyResultSets.Inc()
		metrics.RanksTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.RanksTotal.WithLabelValues("ok").Inc()
	}

	resp := RankResponse{
		RetrievalID: output.RetrievalID,
		Empty:       output.Empty,
		Documents:   toRankedCandidates(output.Documents),
		Web:         toRankedCandidates(output.Web),
	}
	resp.Diagnostics.Input = output.Diagnostics.Input
	resp.Diagnostics.HardFiltered = output.Diagnostics.HardFiltered
	resp.Diagnostics.Penalized = output.Diagnostics.Penalized
	resp.Diagnostics.DiversityDropped = output.Diagnostics.DiversityDropped
	resp.Diagnostics.DiversityRatio = output.Diagnostics.DiversityRatio

	return ctx.JSON(http.StatusOK, resp)
}

// UpdateAuthorityRequest is the payload for PUT /internal/authority/domains.
type UpdateAuthorityRequest struct {
	Scores map[string]float64 `json:"scores"`
}

// Upsert operator-provided domain authority scores. The new scores are
// picked up by the background refresher within one interval.
// (PUT /internal/authority/domains)
func (h *Handler) UpdateAuthority(ctx echo.Context) error {
	var req UpdateAuthorityRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if len(req.Scores) == 0 {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "scores is required"})
	}

	if err := h.authorityUsecase.Execute(ctx.Request().Context(), req.Scores); err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return ctx.NoContent(http.StatusNoContent)
}

func toRankedCandidates(candidates []domain.Candidate) []RankedCandidate {
	out := make([]RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		rc := RankedCandidate{
			ID:      c.ID.String(),
			Source:  string(c.Source),
			Title:   c.Title,
			Content: c.Content,
			URL:     c.URL,
			Domain:  c.Domain,
			Score:   c.Score,
		}
		if !c.PublishedAt.IsZero() {
			published := c.PublishedAt
			rc.PublishedAt = &published
		}
		out = append(out, rc)
	}
	return out
}
