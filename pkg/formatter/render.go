// Package formatter turns the knowledge base into one Markdown document made
// of per-subject blocks, ready for a downstream chunking service.
package formatter

import (
	"strconv"
	"strings"

	"github.com/Sternrassler/bangumi-kb/pkg/kb"
)

// ChunkSeparator sits between two rendered blocks.
const ChunkSeparator = "\n---\n\n"

// Placeholders for fields a record does not carry.
const (
	NoRank  = "未排名"
	NoScore = "暂无评分"
)

// Render formats one record as a Markdown block. The output depends only on
// the record.
func Render(r kb.Record) string {
	name := r.Name
	if name == "" {
		name = kb.NoName
	}

	var b strings.Builder
	b.WriteString("# 作品：" + name + "\n\n")
	b.WriteString("**Bangumi ID**: " + strconv.Itoa(r.ID) + "\n")
	b.WriteString("**综合排名**: " + formatRank(r.Rank) + "\n")
	b.WriteString("**平均评分**: " + formatScore(r.Score) + "\n\n")

	if len(r.Tags) > 0 {
		b.WriteString("**核心标签**:\n")
		for _, tag := range r.Tags {
			b.WriteString("- " + tag + "\n")
		}
		b.WriteString("\n")
	}

	if r.Summary != "" {
		b.WriteString("**故事简介**:\n" + r.Summary + "\n\n")
	}

	return b.String()
}

// Join concatenates blocks with ChunkSeparator.
func Join(blocks []string) string {
	return strings.Join(blocks, ChunkSeparator)
}

// RenderAll renders records in order.
func RenderAll(records []kb.Record) []string {
	blocks := make([]string, 0, len(records))
	for _, r := range records {
		blocks = append(blocks, Render(r))
	}
	return blocks
}

func formatRank(rank int) string {
	if rank == 0 {
		return NoRank
	}
	return strconv.Itoa(rank)
}

// formatScore prints the shortest representation and keeps one decimal on
// whole numbers: 8.1 -> "8.1", 7 -> "7.0".
func formatScore(score float64) string {
	if score == 0 {
		return NoScore
	}
	s := strconv.FormatFloat(score, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
