package worker_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"retrieval-planner/internal/domain"
	"retrieval-planner/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type stubAuthorityRepo struct {
	scores map[string]float64
	err    error
}

func (s *stubAuthorityRepo) ListDomainScores(context.Context) (map[string]float64, error) {
	return s.scores, s.err
}

func (s *stubAuthorityRepo) UpsertDomainScore(context.Context, string, float64) error {
	return nil
}

func TestAuthorityRefresher_RefreshOnce(t *testing.T) {
	table := domain.NewAuthorityTable(nil)
	repo := &stubAuthorityRepo{scores: map[string]float64{"example.org": 0.75}}

	w := worker.NewAuthorityRefresher(repo, table, time.Minute, discardLogger())
	w.RefreshOnce()

	score, ok := table.DomainScore("example.org")
	require.True(t, ok)
	assert.Equal(t, 0.75, score)

	// Seeds are replaced wholesale by the provisioned table.
	_, ok = table.DomainScore("wikipedia.org")
	assert.False(t, ok)
	assert.Equal(t, 1, table.Len())
}

func TestAuthorityRefresher_FailureKeepsSnapshot(t *testing.T) {
	table := domain.NewAuthorityTable(map[string]float64{"kept.example": 0.6})
	repo := &stubAuthorityRepo{err: errors.New("db down")}

	w := worker.NewAuthorityRefresher(repo, table, time.Minute, discardLogger())
	w.RefreshOnce()

	score, ok := table.DomainScore("kept.example")
	require.True(t, ok)
	assert.Equal(t, 0.6, score)
}

func TestAuthorityRefresher_EmptyTableKeepsSeeds(t *testing.T) {
	table := domain.NewAuthorityTable(nil)
	repo := &stubAuthorityRepo{scores: map[string]float64{}}

	w := worker.NewAuthorityRefresher(repo, table, time.Minute, discardLogger())
	w.RefreshOnce()

	_, ok := table.DomainScore("wikipedia.org")
	assert.True(t, ok)
}

func TestAuthorityRefresher_StartStop(t *testing.T) {
	table := domain.NewAuthorityTable(nil)
	repo := &stubAuthorityRepo{scores: map[string]float64{"example.org": 0.5}}

	w := worker.NewAuthorityRefresher(repo, table, 10*time.Millisecond, discardLogger())
	w.Start()
	time.Sleep(30 * time.Millisecond)
	w.Stop()

	_, ok := table.DomainScore("example.org")
	assert.True(t, ok)
}
