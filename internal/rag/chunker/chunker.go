// Package chunker splits raw ingested text into bounded fragments for
// embedding and retrieval.
package chunker

import (
	"strings"

	"github.com/tbadri/ragchat/internal/config"
	"github.com/tbadri/ragchat/internal/domain/fault"
)

// DefaultMaxLen is the fragment size in runes used by ingestion.
const DefaultMaxLen = config.ChunkMaxLen

// Split partitions text into contiguous fragments of at most maxLen
// runes each, no overlap, no loss: concatenating the fragments in
// order reproduces the trimmed input exactly. Text that trims to
// nothing produces an empty slice - a document with zero chunks is
// legal.
func Split(text string, maxLen int) ([]string, error) {
	if maxLen <= 0 {
		return nil, fault.Errorf(fault.InvalidInput, "max_len must be positive, got %d", maxLen)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []string{}, nil
	}

	runes := []rune(trimmed)
	chunks := make([]string, 0, (len(runes)/maxLen)+1)
	for start := 0; start < len(runes); start += maxLen {
		end := start + maxLen
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks, nil
}
