// Package convo manages the in-memory conversation history shared across a
// single run: tracking every exchanged Message, exposing the trimmed window
// of history actually sent to the model, and estimating its token cost.
package convo

import (
	"github.com/agentcore/runtime/pkg/models"
)

// TokenEstimator estimates the token cost of the messages that will be sent
// to a model. Implementations are pluggable so callers can substitute a
// model-specific tokenizer; DefaultEstimator is a cheap approximation usable
// without one.
type TokenEstimator func(messages []models.Message) int

const (
	// charsPerToken approximates English-language token density.
	charsPerToken = 4
	// perMessageOverhead accounts for role/formatting tokens added by the
	// wire format around each message, independent of its content.
	perMessageOverhead = 4
	// structuredBlockOverhead accounts for the extra framing tokens a
	// non-text content block costs beyond its raw byte length.
	structuredBlockOverhead = 8
)

// DefaultEstimator counts characters across all content blocks, divides by
// an approximate characters-per-token ratio, and adds a fixed per-message
// overhead plus a fixed overhead per structured (non-text) content block.
func DefaultEstimator(messages []models.Message) int {
	total := 0
	for _, m := range messages {
		total += perMessageOverhead
		for _, b := range m.Content {
			total += estimateBlock(b)
		}
	}
	return total
}

func estimateBlock(b models.ContentBlock) int {
	switch b.Kind {
	case models.BlockText, models.BlockThinking:
		return charCount(len(b.Text))
	case models.BlockToolUse:
		return charCount(len(b.ToolName)) + charCount(len(b.ToolInput)) + structuredBlockOverhead
	case models.BlockToolResult:
		return estimateToolResult(b.ToolResult) + structuredBlockOverhead
	default:
		return structuredBlockOverhead
	}
}

func estimateToolResult(r models.ToolResultContent) int {
	switch r.Kind {
	case models.ToolResultText:
		return charCount(len(r.Text))
	case models.ToolResultJSON:
		return charCount(len(r.JSON))
	case models.ToolResultImage, models.ToolResultDocument:
		// Binary payloads are not character-proportional; charge a flat
		// estimate scaled by byte length instead of assuming text density.
		return charCount(len(r.Bytes)) + structuredBlockOverhead
	default:
		return structuredBlockOverhead
	}
}

func charCount(n int) int {
	if n == 0 {
		return 0
	}
	tokens := n / charsPerToken
	if n%charsPerToken != 0 {
		tokens++
	}
	return tokens
}
