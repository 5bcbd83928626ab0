// Package budget fits a ranked set of chunks into a token budget: chunks
// are taken in descending score order, skipping (never truncating) any
// chunk that would overflow, then overlapping or touching chunks from the
// same file are merged into single contiguous ranges.
package budget

import (
	"sort"
	"strings"

	"github.com/contextkit/contextkit/internal/models"
	"github.com/contextkit/contextkit/internal/tokenizer"
)

// Fit selects chunks from ranked (already sorted by descending score) in
// order, skipping any that would push the running total over maxTokens,
// until either the budget is exhausted or every chunk has been
// considered. It returns the selected chunks, still in score order, plus
// the count of chunks that were skipped for exceeding the remaining
// budget.
func Fit(ranked []models.Scored, maxTokens int) (selected []models.Scored, skipped int) {
	remaining := maxTokens
	for _, item := range ranked {
		if item.Chunk.Tokens > remaining {
			skipped++
			continue
		}
		selected = append(selected, item)
		remaining -= item.Chunk.Tokens
	}
	return selected, skipped
}

// Merge groups selected items by file and merges any whose line ranges
// overlap or touch (end of one is adjacent to start of the next) into a
// single chunk spanning the union. Merged content is re-sourced from
// fullFileContent so interior lines dropped by the original chunking are
// restored; its Tokens is recounted and its Score is the max of its
// inputs. Files outside fullFileContent fall back to joining the
// original chunk contents with a newline.
func Merge(selected []models.Scored, fullFileContent map[string]string, counter tokenizer.Counter) []models.Scored {
	byFile := make(map[string][]models.Scored)
	var order []string
	for _, item := range selected {
		f := item.Chunk.FilePath
		if _, ok := byFile[f]; !ok {
			order = append(order, f)
		}
		byFile[f] = append(byFile[f], item)
	}

	var out []models.Scored
	for _, file := range order {
		items := byFile[file]
		sort.Slice(items, func(i, j int) bool { return items[i].Chunk.StartLine < items[j].Chunk.StartLine })

		merged := items[:1]
		for _, cur := range items[1:] {
			last := &merged[len(merged)-1]
			if cur.Chunk.StartLine <= last.Chunk.EndLine+1 {
				*last = combine(*last, cur, fullFileContent[file], counter)
				continue
			}
			merged = append(merged, cur)
		}
		out = append(out, merged...)
	}
	return out
}

func combine(a, b models.Scored, fullContent string, counter tokenizer.Counter) models.Scored {
	start := a.Chunk.StartLine
	end := a.Chunk.EndLine
	if b.Chunk.EndLine > end {
		end = b.Chunk.EndLine
	}

	content := joinContents(a.Chunk.Content, b.Chunk.Content)
	if fullContent != "" {
		if lines := linesInRange(fullContent, start, end); lines != "" {
			content = lines
		}
	}

	score := a.Score
	if b.Score > score {
		score = b.Score
	}
	similarity := a.Similarity
	if b.Similarity > similarity {
		similarity = b.Similarity
	}

	merged := a
	merged.Chunk.StartLine = start
	merged.Chunk.EndLine = end
	merged.Chunk.Content = content
	merged.Chunk.Tokens = counter.Count(content)
	merged.Chunk.Kind = models.ChunkKindTokenBlock
	merged.Score = score
	merged.Similarity = similarity
	return merged
}

func joinContents(a, b string) string {
	return a + "\n" + b
}

func linesInRange(fullContent string, start, end int) string {
	lines := strings.Split(fullContent, "\n")
	if start < 1 || end > len(lines) || start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}
