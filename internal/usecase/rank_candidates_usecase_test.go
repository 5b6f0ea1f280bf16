package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"retrieval-planner/internal/domain"
	"retrieval-planner/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDocRetriever struct {
	candidates []domain.Candidate
	err        error
	calls      int
}

func (s *stubDocRetriever) Retrieve(_ context.Context, _ string, limit int) ([]domain.Candidate, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.candidates) > limit {
		return s.candidates[:limit], nil
	}
	return s.candidates, nil
}

type stubWebSearcher struct {
	candidates []domain.Candidate
	err        error
}

func (s *stubWebSearcher) Search(_ context.Context, _ string, limit int) ([]domain.Candidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.candidates) > limit {
		return s.candidates[:limit], nil
	}
	return s.candidates, nil
}

type stubCrossEncoder struct {
	scores map[string]float64
	err    error
}

func (s *stubCrossEncoder) Score(_ context.Context, _ string, candidates []domain.CrossEncoderCandidate) ([]domain.CrossEncoderResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.CrossEncoderResult, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, domain.CrossEncoderResult{ID: c.ID, Score: s.scores[c.ID]})
	}
	return out, nil
}

func (s *stubCrossEncoder) ModelName() string { return "stub-encoder" }

type stubAuthority map[string]float64

func (s stubAuthority) DomainScore(d string) (float64, bool) {
	score, ok := s[d]
	return score, ok
}

func docCandidate(title string, semantic, keyword float64) domain.Candidate {
	return domain.Candidate{
		ID:         uuid.New(),
		Source:     domain.SourceDocument,
		DocumentID: "doc-" + title,
		Title:      title,
		Content:    "content of " + title,
		Semantic:   semantic,
		Keyword:    keyword,
		Quality:    0.9,
		Topical:    0.9,
		Freshness:  0.8,
		Authority:  0.7,
		Length:     200,
	}
}

func webResult(domainName string, semantic, keyword float64) domain.Candidate {
	c := docCandidate(domainName, semantic, keyword)
	c.Source = domain.SourceWeb
	c.Domain = domainName
	c.DocumentID = ""
	return c
}

func rankInput() usecase.RankCandidatesInput {
	return usecase.RankCandidatesInput{
		Query:     "how does the billing export work",
		Model:     "gpt-4o",
		SubjectID: "user-42",
	}
}

func newRanker(t *testing.T, docs *stubDocRetriever, web *stubWebSearcher, opts ...usecase.RankCandidatesOption) usecase.RankCandidatesUsecase {
	t.Helper()
	source, err := usecase.NewConfigSource(usecase.DefaultPipelineConfig())
	require.NoError(t, err)
	planner := usecase.NewPlanRetrievalUsecase(
		domain.NewStaticModelCatalog(nil, 8192),
		domain.NewHeuristicEstimator(),
		source,
		discardLogger(),
	)
	var searcher domain.WebSearcher
	if web != nil {
		searcher = web
	}
	return usecase.NewRankCandidatesUsecase(
		planner,
		docs,
		searcher,
		stubAuthority{"docs.example.org": 0.9, "contentfarm.biz": 0.2},
		source,
		discardLogger(),
		opts...,
	)
}

func TestRankCandidates_EndToEnd(t *testing.T) {
	docs := &stubDocRetriever{candidates: []domain.Candidate{
		docCandidate("alpha", 0.9, 0.7),
		docCandidate("beta", 0.6, 0.5),
	}}
	web := &stubWebSearcher{candidates: []domain.Candidate{
		webResult("docs.example.org", 0.8, 0.6),
	}}
	ranker := newRanker(t, docs, web)

	out, err := ranker.Execute(context.Background(), rankInput())
	require.NoError(t, err)

	assert.False(t, out.Empty)
	assert.NotEmpty(t, out.RetrievalID)
	require.Len(t, out.Documents, 2)
	require.Len(t, out.Web, 1)
	assert.Equal(t, "alpha", out.Documents[0].Title)
	assert.Equal(t, "beta", out.Documents[1].Title)
	assert.Equal(t, 3, out.Diagnostics.Input)
	assert.Equal(t, 0, out.Diagnostics.HardFiltered)
}

func TestRankCandidates_DocumentFailureAborts(t *testing.T) {
	docs := &stubDocRetriever{err: errors.New("pgvector down")}
	web := &stubWebSearcher{candidates: []domain.Candidate{webResult("docs.example.org", 0.8, 0.6)}}
	ranker := newRanker(t, docs, web)

	_, err := ranker.Execute(context.Background(), rankInput())
	assert.Error(t, err)
}

func TestRankCandidates_WebFailureIsTolerated(t *testing.T) {
	docs := &stubDocRetriever{candidates: []domain.Candidate{docCandidate("alpha", 0.9, 0.7)}}
	web := &stubWebSearcher{err: errors.New("search provider 503")}
	ranker := newRanker(t, docs, web)

	out, err := ranker.Execute(context.Background(), rankInput())
	require.NoError(t, err)

	assert.Len(t, out.Documents, 1)
	assert.Empty(t, out.Web)
}

func TestRankCandidates_NilWebSearcher(t *testing.T) {
	docs := &stubDocRetriever{candidates: []domain.Candidate{docCandidate("alpha", 0.9, 0.7)}}
	ranker := newRanker(t, docs, nil)

	out, err := ranker.Execute(context.Background(), rankInput())
	require.NoError(t, err)
	assert.Len(t, out.Documents, 1)
	assert.Empty(t, out.Web)
}

func TestRankCandidates_EmptyAfterFilteringIsNotAnError(t *testing.T) {
	weak := docCandidate("weak", 0.5, 0.5)
	weak.Quality = 0.1 // below the moderate hard threshold
	docs := &stubDocRetriever{candidates: []domain.Candidate{weak}}
	ranker := newRanker(t, docs, &stubWebSearcher{})

	out, err := ranker.Execute(context.Background(), rankInput())
	require.NoError(t, err)

	assert.True(t, out.Empty)
	assert.Empty(t, out.Documents)
	assert.Equal(t, 1, out.Diagnostics.HardFiltered)
}

func TestRankCandidates_CrossEncoderFallbackOnError(t *testing.T) {
	docs := &stubDocRetriever{candidates: []domain.Candidate{
		docCandidate("alpha", 0.9, 0.7),
		docCandidate("beta", 0.6, 0.5),
	}}
	ranker := newRanker(t, docs, &stubWebSearcher{},
		usecase.WithCrossEncoder(&stubCrossEncoder{err: errors.New("encoder timeout")}))

	out, err := ranker.Execute(context.Background(), rankInput())
	require.NoError(t, err)
	// Composite ordering still applies.
	require.Len(t, out.Documents, 2)
	assert.Equal(t, "alpha", out.Documents[0].Title)
}

func TestRankCandidates_ResponseCache(t *testing.T) {
	docs := &stubDocRetriever{candidates: []domain.Candidate{docCandidate("alpha", 0.9, 0.7)}}
	ranker := newRanker(t, docs, &stubWebSearcher{},
		usecase.WithResponseCache(16, time.Minute))

	first, err := ranker.Execute(context.Background(), rankInput())
	require.NoError(t, err)
	second, err := ranker.Execute(context.Background(), rankInput())
	require.NoError(t, err)

	assert.Equal(t, 1, docs.calls, "second request must be served from cache")
	assert.Equal(t, first.RetrievalID, second.RetrievalID)

	// A different query misses.
	other := rankInput()
	other.Query = "capital of France"
	_, err = ranker.Execute(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, 2, docs.calls)
}

func TestRankCandidates_EmptyQueryRejected(t *testing.T) {
	ranker := newRanker(t, &stubDocRetriever{}, &stubWebSearcher{})

	_, err := ranker.Execute(context.Background(), usecase.RankCandidatesInput{Model: "gpt-4o"})
	assert.Error(t, err)
}
