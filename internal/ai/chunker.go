package ai

import (
	"fmt"
	"strings"

	appErr "github.com/paperdex/paperdex/internal/pkg/errors"
)

// Chunk splits text into overlapping windows of at most maxLen whitespace
// words each. The window advances by maxLen-overlap words per step, so
// consecutive chunks share the trailing overlap words of the previous one.
// Pure function: same inputs always yield the same chunks.
func Chunk(text string, maxLen, overlap int) ([]string, error) {
	if maxLen <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d: %w", maxLen, appErr.ErrConfiguration)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap must not be negative, got %d: %w", overlap, appErr.ErrConfiguration)
	}
	if overlap >= maxLen {
		return nil, fmt.Errorf("overlap %d must be smaller than chunk size %d: %w", overlap, maxLen, appErr.ErrConfiguration)
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}
	step := maxLen - overlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + maxLen
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks, nil
}

// ChunkCount is the closed-form number of windows Chunk produces for a
// text of wordCount words.
func ChunkCount(wordCount, maxLen, overlap int) int {
	if wordCount <= 0 || maxLen <= 0 || overlap >= maxLen {
		return 0
	}
	step := maxLen - overlap
	return (wordCount + step - 1) / step
}
