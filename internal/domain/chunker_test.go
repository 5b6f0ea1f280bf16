package domain_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"retrieval-planner/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunker_Validation(t *testing.T) {
	_, err := domain.NewChunker(0, 100)
	assert.Error(t, err)

	_, err = domain.NewChunker(100, 100)
	assert.Error(t, err)

	_, err = domain.NewChunker(200, 100)
	assert.Error(t, err)

	_, err = domain.NewChunker(80, 1000)
	assert.NoError(t, err)
}

func TestChunker_Chunk(t *testing.T) {
	chunker, err := domain.NewChunker(5, 200)
	require.NoError(t, err)

	t.Run("Splits by paragraphs", func(t *testing.T) {
		body := "Paragraph one.\n\nParagraph two.\n\nParagraph three."
		chunks, err := chunker.Chunk(body)
		assert.NoError(t, err)
		assert.Len(t, chunks, 3)
		assert.Equal(t, "Paragraph one.", chunks[0].Content)
		assert.Equal(t, 0, chunks[0].Ordinal)
		assert.Equal(t, "Paragraph two.", chunks[1].Content)
		assert.Equal(t, 1, chunks[1].Ordinal)
		assert.Equal(t, "Paragraph three.", chunks[2].Content)
		assert.Equal(t, 2, chunks[2].Ordinal)
	})

	t.Run("Ignores empty paragraphs", func(t *testing.T) {
		body := "Para one here.\n\n\n\nPara two here."
		chunks, err := chunker.Chunk(body)
		assert.NoError(t, err)
		assert.Len(t, chunks, 2)
	})

	t.Run("Normalizes CRLF", func(t *testing.T) {
		body := "Para one here.\r\n\r\nPara two here."
		chunks, err := chunker.Chunk(body)
		assert.NoError(t, err)
		assert.Len(t, chunks, 2)
	})

	t.Run("Empty body yields no chunks", func(t *testing.T) {
		chunks, err := chunker.Chunk("   \n\n  ")
		assert.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("Hash is stable per content", func(t *testing.T) {
		first, err := chunker.Chunk("Same paragraph content.")
		require.NoError(t, err)
		second, err := chunker.Chunk("Same paragraph content.")
		require.NoError(t, err)
		require.Len(t, first, 1)
		require.Len(t, second, 1)
		assert.Equal(t, first[0].Hash, second[0].Hash)
		assert.Len(t, first[0].Hash, 64)
	})
}

func TestChunker_MergesShortParagraphs(t *testing.T) {
	chunker, err := domain.NewChunker(30, 200)
	require.NoError(t, err)

	long := strings.Repeat("long paragraph body ", 2) // 40 runes
	body := "Short.\n\nAlso short.\n\n" + long

	chunks, err := chunker.Chunk(body)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "Short.")
	assert.Contains(t, chunks[0].Content, "Also short.")
	assert.Contains(t, chunks[0].Content, "long paragraph body")
}

func TestChunker_SplitsLongParagraphsAtSentences(t *testing.T) {
	chunker, err := domain.NewChunker(5, 40)
	require.NoError(t, err)

	body := "This is sentence one. This is sentence two. This is sentence three."
	chunks, err := chunker.Chunk(body)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), 40)
	}
	assert.Equal(t, "This is sentence one.", chunks[0].Content)
}

func TestChunker_ProfileBoundsChangeOutput(t *testing.T) {
	// The same document chunks differently under a tighter profile.
	body := "This is sentence one. This is sentence two. This is sentence three."

	loose, err := domain.NewChunker(5, 500)
	require.NoError(t, err)
	tight, err := domain.NewChunker(5, 25)
	require.NoError(t, err)

	looseChunks, err := loose.Chunk(body)
	require.NoError(t, err)
	tightChunks, err := tight.Chunk(body)
	require.NoError(t, err)

	assert.Len(t, looseChunks, 1)
	assert.Greater(t, len(tightChunks), len(looseChunks))
}
