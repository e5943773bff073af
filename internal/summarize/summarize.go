// Package summarize bounds arbitrary task output for prompt assembly: short
// content passes through verbatim, long content is summarized by an LLM when
// one is configured, and everything else degrades to hard truncation. The
// package-level entry point never propagates failures to callers.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	// DefaultTargetWords is the verbatim-content threshold.
	DefaultTargetWords = 20000

	// DefaultCharsPerWord converts a word target into a character cap for
	// truncation. A heuristic constant, tunable via configuration.
	DefaultCharsPerWord = 7
)

// Summarizer condenses content toward a word target. Implementations may call
// out to an LLM and may fail; callers go through SummarizeOrTruncate, which
// absorbs failures.
type Summarizer interface {
	Summarize(ctx context.Context, content any, targetWords int) (string, error)
}

// Render converts arbitrary content to its string form. Strings pass through;
// serializable values are JSON-encoded; anything else falls back to fmt.
func Render(content any) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", v)
	}
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Truncate hard-caps the string at targetWords*charsPerWord characters,
// cutting on a rune boundary.
func Truncate(s string, targetWords, charsPerWord int) string {
	if targetWords <= 0 {
		targetWords = DefaultTargetWords
	}
	if charsPerWord <= 0 {
		charsPerWord = DefaultCharsPerWord
	}
	limit := targetWords * charsPerWord
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// SummarizeOrTruncate bounds content using the summarizer when available and
// truncation otherwise. It never returns an error: summarizer failures and
// empty summaries degrade to a truncated rendering of the content.
func SummarizeOrTruncate(ctx context.Context, s Summarizer, logger *slog.Logger, content any, targetWords, charsPerWord int) string {
	if logger == nil {
		logger = slog.Default()
	}
	text := Render(content)
	if text == "" {
		return ""
	}
	if s == nil {
		return Truncate(text, targetWords, charsPerWord)
	}
	out, err := s.Summarize(ctx, content, targetWords)
	if err != nil {
		logger.Warn("summarization failed, falling back to truncation", "error", err)
		return Truncate(text, targetWords, charsPerWord)
	}
	if strings.TrimSpace(out) == "" {
		logger.Warn("summarizer returned empty output, falling back to truncation")
		return Truncate(text, targetWords, charsPerWord)
	}
	return out
}

// ModelSummarizer summarizes via an Eino chat model.
type ModelSummarizer struct {
	chatModel model.BaseChatModel
}

// NewModelSummarizer wraps an Eino BaseChatModel.
func NewModelSummarizer(m model.BaseChatModel) *ModelSummarizer {
	return &ModelSummarizer{chatModel: m}
}

// Summarize asks the chat model for a condensed rendering near the word
// target. The raw content is rendered to text before prompting.
func (s *ModelSummarizer) Summarize(ctx context.Context, content any, targetWords int) (string, error) {
	if s.chatModel == nil {
		return "", fmt.Errorf("no chat model configured")
	}
	if targetWords <= 0 {
		targetWords = DefaultTargetWords
	}
	text := Render(content)
	msgs := []*schema.Message{
		schema.SystemMessage("You condense task outputs for reuse as context in later tasks. Preserve concrete facts, identifiers, and conclusions. Do not add commentary."),
		schema.UserMessage(fmt.Sprintf("Summarize the following content in at most %d words:\n\n%s", targetWords, text)),
	}
	resp, err := s.chatModel.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	return resp.Content, nil
}
