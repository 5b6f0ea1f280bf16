package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Chunk represents a single piece of a document.
type Chunk struct {
	Ordinal int    // Sequence number (0-indexed)
	Content string // The actual text content
	Hash    string // Stable hash of the content (SHA-256)
}

// Chunker defines the interface for splitting text into chunks.
type Chunker interface {
	Chunk(body string) ([]Chunk, error)
}

// paragraphChunker splits on paragraph boundaries, merges runs of short
// paragraphs and splits oversized ones at sentence boundaries. Size bounds
// come from the resolved chunking profile rather than fixed constants, so
// a PDF and a code file chunk differently under the same algorithm.
type paragraphChunker struct {
	minSize int // characters; shorter chunks are merged with neighbors
	maxSize int // characters; longer chunks are split at sentence boundaries
}

// NewChunker creates a paragraph chunker bounded by the given profile sizes.
func NewChunker(minSize, maxSize int) (Chunker, error) {
	if minSize <= 0 || maxSize <= 0 {
		return nil, fmt.Errorf("chunk sizes must be positive, got min=%d max=%d", minSize, maxSize)
	}
	if minSize >= maxSize {
		return nil, fmt.Errorf("min chunk size %d must be below max %d", minSize, maxSize)
	}
	return &paragraphChunker{minSize: minSize, maxSize: maxSize}, nil
}

// Chunk splits the body into chunks based on double newlines (paragraphs).
// It trims whitespace from each chunk and ignores empty chunks.
// Short chunks are merged with adjacent chunks, and long chunks are split.
func (c *paragraphChunker) Chunk(body string) ([]Chunk, error) {
	// Normalize newlines to \n
	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	// Split by double newline to get paragraphs
	parts := strings.Split(normalized, "\n\n")

	// Extract non-empty paragraphs
	var paragraphs []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	// Merge short chunks, then merge remaining consecutive short runs
	merged := mergeShortChunks(paragraphs, c.minSize)
	merged = mergeConsecutiveShortChunks(merged, c.minSize)

	// Split long chunks
	split := splitLongChunks(merged, c.maxSize)

	// Create final chunks with hashes
	var chunks []Chunk
	for i, content := range split {
		hashBytes := sha256.Sum256([]byte(content))
		hash := hex.EncodeToString(hashBytes[:])

		chunks = append(chunks, Chunk{
			Ordinal: i,
			Content: content,
			Hash:    hash,
		})
	}

	return chunks, nil
}
