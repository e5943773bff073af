// Package resolve assembles bounded, deduplicated context bundles for agent
// prompts from the knowledge store's task records.
package resolve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/planweave/planweave/internal/summarize"
	"github.com/planweave/planweave/models"
)

// genericSummaryPrefixes mark stored summaries as uninformative boilerplate.
// A generic summary is bypassed in favor of re-deriving from raw output.
var genericSummaryPrefixes = []string{
	"planned with",
	"execution completed",
	"data type:",
	"aggregation completed",
	"task completed",
}

// minUsefulSummaryLen is the shortest stored summary worth reusing.
const minUsefulSummaryLen = 20

// IsGenericSummary reports whether a stored summary is too uninformative to
// reuse: empty or whitespace, shorter than 20 characters, or starting with a
// known boilerplate phrase.
func IsGenericSummary(summary string) bool {
	s := strings.TrimSpace(summary)
	if len(s) < minUsefulSummaryLen {
		return true
	}
	lower := strings.ToLower(s)
	for _, prefix := range genericSummaryPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// SizingPolicy applies the content-sizing rules used by every strategy before
// it emits a context item: raw output verbatim when at or under the word
// target, summarization above it, reuse of a stored non-generic summary when
// the raw output is gone, and hard truncation as the last resort.
type SizingPolicy struct {
	TargetWords  int
	CharsPerWord int
	// SummarySlack is the factor by which a stored summary may exceed the
	// word target and still be reused verbatim.
	SummarySlack float64
	Summarizer   summarize.Summarizer
	Logger       *slog.Logger
}

// NewSizingPolicy fills in defaults for zero-valued fields.
func NewSizingPolicy(targetWords, charsPerWord int, slack float64, s summarize.Summarizer, logger *slog.Logger) SizingPolicy {
	if targetWords <= 0 {
		targetWords = summarize.DefaultTargetWords
	}
	if charsPerWord <= 0 {
		charsPerWord = summarize.DefaultCharsPerWord
	}
	if slack <= 0 {
		slack = 1.2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return SizingPolicy{
		TargetWords:  targetWords,
		CharsPerWord: charsPerWord,
		SummarySlack: slack,
		Summarizer:   s,
		Logger:       logger,
	}
}

// ResolveContent produces the bounded content for a record, or "" when the
// record has nothing usable. Raw output always wins over a stored summary.
func (p SizingPolicy) ResolveContent(ctx context.Context, rec *models.TaskRecord) string {
	if rec == nil {
		return ""
	}

	if rec.HasOutput() {
		text := summarize.Render(rec.OutputContent)
		if summarize.WordCount(text) <= p.TargetWords {
			return text
		}
		return summarize.SummarizeOrTruncate(ctx, p.Summarizer, p.Logger, rec.OutputContent, p.TargetWords, p.CharsPerWord)
	}

	summary := strings.TrimSpace(rec.OutputSummary)
	if summary == "" || IsGenericSummary(summary) {
		if summary != "" {
			p.Logger.Debug("bypassing generic summary with no raw output", "task_id", rec.TaskID)
		}
		return ""
	}
	if float64(summarize.WordCount(summary)) <= p.SummarySlack*float64(p.TargetWords) {
		return summary
	}
	return summarize.Truncate(summary, p.TargetWords, p.CharsPerWord)
}
