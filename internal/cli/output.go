// Package cli formats command output for the ragqa command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Kolash2003/RAG-based-QA/internal/models"
	"github.com/Kolash2003/RAG-based-QA/pkg/utils"
)

// OutputFormat selects how command output is rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// AnswerSource is one retrieved source in the query wire format.
type AnswerSource struct {
	Text           string  `json:"text"`
	DocumentID     string  `json:"document_id"`
	Filename       string  `json:"filename"`
	ChunkIndex     int     `json:"chunk_index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// AnswerView is the query response as served over HTTP. The CLI decodes
// server responses into it directly and converts direct-mode answers with
// AnswerViewFrom, so both paths render identically.
type AnswerView struct {
	Question         string         `json:"question"`
	Answer           string         `json:"answer"`
	Sources          []AnswerSource `json:"sources"`
	SourceCount      int            `json:"source_count"`
	ContextTruncated bool           `json:"context_truncated,omitempty"`
}

// sourceTextLimit bounds source text in rendered output.
const sourceTextLimit = 500

// AnswerViewFrom converts an answer from the engine into the wire view.
func AnswerViewFrom(answer *models.Answer) *AnswerView {
	sources := make([]AnswerSource, 0, len(answer.Sources))
	for _, src := range answer.Sources {
		sources = append(sources, AnswerSource{
			Text:           utils.Truncate(src.Text, sourceTextLimit),
			DocumentID:     src.Meta.DocumentID,
			Filename:       src.Meta.Filename,
			ChunkIndex:     src.Meta.ChunkIndex,
			RelevanceScore: src.Score,
		})
	}
	return &AnswerView{
		Question:         answer.Question,
		Answer:           answer.Text,
		Sources:          sources,
		SourceCount:      answer.SourceCount,
		ContextTruncated: answer.ContextTruncated,
	}
}

// WriteAnswer writes the answer to w in the given format.
func WriteAnswer(w io.Writer, view *AnswerView, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	default:
		writeAnswerText(w, view)
		return nil
	}
}

func writeAnswerText(w io.Writer, view *AnswerView) {
	fmt.Fprintln(w, view.Answer)
	if len(view.Sources) == 0 {
		return
	}
	fmt.Fprintf(w, "\nSources (%d):\n", view.SourceCount)
	for i, src := range view.Sources {
		fmt.Fprintf(w, "%d. %s (chunk %d, score %.4f)\n", i+1, src.Filename, src.ChunkIndex, src.RelevanceScore)
		fmt.Fprintf(w, "   %s\n", utils.Truncate(src.Text, 200))
	}
	if view.ContextTruncated {
		fmt.Fprintln(w, "\nNote: context was truncated to fit the budget.")
	}
}
