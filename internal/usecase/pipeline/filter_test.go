package pipeline_test

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"

	"retrieval-planner/internal/domain"
	"retrieval-planner/internal/usecase/pipeline"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// goodCandidate passes every preset threshold.
func goodCandidate(title string, score float64) domain.Candidate {
	return domain.Candidate{
		ID:         uuid.New(),
		Source:     domain.SourceDocument,
		DocumentID: "doc-" + title,
		Title:      title,
		Score:      score,
		Quality:    0.9,
		Topical:    0.9,
		Freshness:  0.8,
		Authority:  0.7,
	}
}

func webCandidate(domainName string, score float64) domain.Candidate {
	c := goodCandidate(domainName, score)
	c.Source = domain.SourceWeb
	c.Domain = domainName
	c.DocumentID = ""
	return c
}

func TestApplyFilters_StrictDropsMediocreQuality(t *testing.T) {
	borderline := goodCandidate("borderline", 0.8)
	borderline.Quality = 0.55

	kept, diag, err := pipeline.ApplyFilters(
		[]domain.Candidate{goodCandidate("good", 0.9), borderline},
		pipeline.PresetStrategy(pipeline.ModeStrict),
		discardLogger(),
	)
	require.NoError(t, err)

	require.Len(t, kept, 1)
	assert.Equal(t, "good", kept[0].Title)
	assert.Equal(t, 1, diag.HardFiltered)
}

func TestApplyFilters_ModerateKeepsMediocreQuality(t *testing.T) {
	borderline := goodCandidate("borderline", 0.8)
	borderline.Quality = 0.55

	kept, diag, err := pipeline.ApplyFilters(
		[]domain.Candidate{borderline},
		pipeline.PresetStrategy(pipeline.ModeModerate),
		discardLogger(),
	)
	require.NoError(t, err)

	require.Len(t, kept, 1)
	assert.Equal(t, 0, diag.HardFiltered)
	assert.Equal(t, 0, diag.Penalized)
	assert.Equal(t, 0.8, kept[0].Score, "passing candidates keep their score")
}

func TestApplyFilters_LenientPenalizesInsteadOfDropping(t *testing.T) {
	weak := goodCandidate("weak", 1.0)
	weak.Quality = 0.25 // below even the lenient threshold

	kept, diag, err := pipeline.ApplyFilters(
		[]domain.Candidate{weak},
		pipeline.PresetStrategy(pipeline.ModeLenient),
		discardLogger(),
	)
	require.NoError(t, err)

	require.Len(t, kept, 1)
	assert.Equal(t, 0, diag.HardFiltered)
	assert.Equal(t, 1, diag.Penalized)
	assert.InDelta(t, 0.9, kept[0].Score, 1e-9) // 1.0 * (1 - 0.1)
}

func TestApplyFilters_PenaltiesCompound(t *testing.T) {
	weak := goodCandidate("weak", 1.0)
	weak.Quality = 0.25
	weak.Topical = 0.1

	kept, _, err := pipeline.ApplyFilters(
		[]domain.Candidate{weak},
		pipeline.PresetStrategy(pipeline.ModeLenient),
		discardLogger(),
	)
	require.NoError(t, err)

	require.Len(t, kept, 1)
	// topic penalty 0.15 then quality penalty 0.1
	assert.InDelta(t, 1.0*0.85*0.9, kept[0].Score, 1e-9)
}

func TestApplyFilters_MalformedDimensionIsNeutral(t *testing.T) {
	nan := goodCandidate("nan-quality", 0.8)
	nan.Quality = math.NaN()
	outOfRange := goodCandidate("oor-topic", 0.8)
	outOfRange.Topical = 1.7

	kept, diag, err := pipeline.ApplyFilters(
		[]domain.Candidate{nan, outOfRange},
		pipeline.PresetStrategy(pipeline.ModeStrict),
		discardLogger(),
	)
	require.NoError(t, err)

	assert.Len(t, kept, 2)
	assert.Equal(t, 0, diag.HardFiltered)
	assert.Equal(t, 0, diag.Penalized)
}

func TestApplyFilters_DiversityCapKeepsTopScored(t *testing.T) {
	candidates := make([]domain.Candidate, 0, 10)
	for i := 0; i < 10; i++ {
		candidates = append(candidates, webCandidate("example.com", float64(10-i)/10))
	}

	kept, diag, err := pipeline.ApplyFilters(
		candidates,
		pipeline.PresetStrategy(pipeline.ModeModerate),
		discardLogger(),
	)
	require.NoError(t, err)

	require.Len(t, kept, 3)
	assert.Equal(t, 7, diag.DiversityDropped)
	assert.Equal(t, 1, diag.DistinctSources)
	// Highest-scored results survive, in original order.
	assert.InDelta(t, 1.0, kept[0].Score, 1e-9)
	assert.InDelta(t, 0.9, kept[1].Score, 1e-9)
	assert.InDelta(t, 0.8, kept[2].Score, 1e-9)
	assert.InDelta(t, 1.0/3.0, diag.DiversityRatio, 1e-9)
}

func TestApplyFilters_DiversityCountsDocumentsBySourceDocument(t *testing.T) {
	a1 := goodCandidate("a1", 0.9)
	a2 := goodCandidate("a2", 0.8)
	a1.DocumentID, a2.DocumentID = "doc-a", "doc-a"
	b := goodCandidate("b", 0.7)
	b.DocumentID = "doc-b"

	strategy := pipeline.PresetStrategy(pipeline.ModeModerate)
	strategy.Diversity.MaxResultsPerDomain = 1

	kept, diag, err := pipeline.ApplyFilters(
		[]domain.Candidate{a1, a2, b},
		strategy,
		discardLogger(),
	)
	require.NoError(t, err)

	require.Len(t, kept, 2)
	assert.Equal(t, "a1", kept[0].Title)
	assert.Equal(t, "b", kept[1].Title)
	assert.Equal(t, 2, diag.DistinctSources)
	assert.True(t, diag.DiversityMet)
}

func TestApplyFilters_DiversityBelowMinimumStillReturnsResults(t *testing.T) {
	strategy := pipeline.PresetStrategy(pipeline.ModeModerate)
	strategy.Diversity.MinDomainDiversity = 0.5

	kept, diag, err := pipeline.ApplyFilters(
		[]domain.Candidate{
			webCandidate("a.com", 0.9),
			webCandidate("a.com", 0.8),
			webCandidate("a.com", 0.7),
		},
		strategy,
		discardLogger(),
	)
	require.NoError(t, err)

	// The minimum is a logged warning, never a drop.
	assert.Len(t, kept, 3)
	assert.False(t, diag.DiversityMet)
}

func TestApplyFilters_EmptySurvivorsIsExplicitError(t *testing.T) {
	bad := goodCandidate("bad", 0.5)
	bad.Quality = 0.1

	kept, diag, err := pipeline.ApplyFilters(
		[]domain.Candidate{bad},
		pipeline.PresetStrategy(pipeline.ModeStrict),
		discardLogger(),
	)

	assert.ErrorIs(t, err, domain.ErrEmptyResultSet)
	assert.Nil(t, kept)
	assert.Equal(t, 1, diag.HardFiltered)
}

func TestApplyFilters_DiagnosticsNeverAffectResults(t *testing.T) {
	// Same batch twice: identical outputs regardless of the diversity warning.
	candidates := []domain.Candidate{
		webCandidate("a.com", 0.9),
		webCandidate("a.com", 0.8),
		webCandidate("a.com", 0.7),
		webCandidate("a.com", 0.6),
	}
	strategy := pipeline.PresetStrategy(pipeline.ModeModerate)

	first, _, err := pipeline.ApplyFilters(candidates, strategy, discardLogger())
	require.NoError(t, err)
	second, _, err := pipeline.ApplyFilters(candidates, strategy, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPresetStrategy_Validates(t *testing.T) {
	for _, mode := range []pipeline.FilterMode{pipeline.ModeStrict, pipeline.ModeModerate, pipeline.ModeLenient} {
		assert.NoError(t, pipeline.PresetStrategy(mode).Validate(), fmt.Sprintf("mode %s", mode))
	}
}

func TestParseFilterMode(t *testing.T) {
	m, err := pipeline.ParseFilterMode("strict")
	require.NoError(t, err)
	assert.Equal(t, pipeline.ModeStrict, m)

	_, err = pipeline.ParseFilterMode("aggressive")
	assert.Error(t, err)
}
