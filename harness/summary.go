package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/syslm/parity/common/helper"
	"github.com/syslm/parity/openai"
)

// contentPreviewLimit bounds the content excerpt carried in summaries.
const contentPreviewLimit = 120

// ToolCallSummary is the canonical projection of one tool invocation.
type ToolCallSummary struct {
	Id       string          `json:"id"`
	Type     string          `json:"type"`
	Function FunctionSummary `json:"function"`
}

// FunctionSummary carries the invoked function name and its canonicalized
// argument string.
type FunctionSummary struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Summary is the canonical, backend-agnostic projection of a response. It has
// the same shape whether the source was streamed or synchronous, so the
// evaluator and comparator never branch on the wire path.
type Summary struct {
	FinishReason   string            `json:"finish_reason,omitempty"`
	Role           string            `json:"role,omitempty"`
	HasContent     bool              `json:"has_content,omitempty"`
	Parsed         any               `json:"parsed,omitempty"`
	ToolCalls      []ToolCallSummary `json:"tool_calls,omitempty"`
	ContentPreview string            `json:"content_preview,omitempty"`
	ContentLength  *int              `json:"content_length,omitempty"`
	ChunkCount     *int              `json:"chunk_count,omitempty"`
	// ContentTokens is an approximate token count for display only; it is
	// never part of expectation checks or diffs.
	ContentTokens int `json:"content_tokens,omitempty"`
}

// ToolCallNames returns the invocation names in the order the model emitted
// them.
func (s *Summary) ToolCallNames() []string {
	if s == nil || len(s.ToolCalls) == 0 {
		return nil
	}
	names := make([]string, 0, len(s.ToolCalls))
	for _, call := range s.ToolCalls {
		names = append(names, call.Function.Name)
	}
	return names
}

// EffectiveContentLength reads the explicit length field when present, else
// derives a degraded but meaningful signal from the preview.
func (s *Summary) EffectiveContentLength() int {
	if s.ContentLength != nil {
		return *s.ContentLength
	}
	return utf8.RuneCountInString(s.ContentPreview)
}

// sanitizeArguments canonicalizes a tool call's arguments: strings pass
// through unchanged; structured values serialize with lexicographically
// sorted keys and no HTML/ASCII escaping so structurally equal argument sets
// always compare equal as strings. Serialization failures fall back to the
// default string form rather than raising.
func sanitizeArguments(args any) string {
	if s, ok := args.(string); ok {
		return s
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(args); err != nil {
		return fmt.Sprintf("%v", args)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// summarizeToolCalls projects tool invocations into canonical summaries. An
// empty invocation list yields nil, never an empty non-nil slice, so
// downstream nil-vs-empty ambiguity cannot cause spurious diffs.
func summarizeToolCalls(calls []openai.Tool) []ToolCallSummary {
	if len(calls) == 0 {
		return nil
	}
	summaries := make([]ToolCallSummary, 0, len(calls))
	for _, call := range calls {
		entry := ToolCallSummary{Id: call.Id, Type: call.Type}
		if call.Function != nil {
			entry.Function = FunctionSummary{
				Name:      call.Function.Name,
				Arguments: sanitizeArguments(call.Function.Arguments),
			}
		}
		summaries = append(summaries, entry)
	}
	return summaries
}

// summarizeResponse reduces a synchronous response's first choice to the
// canonical summary. structured indicates the request constrained the reply
// with a JSON schema, in which case the content is parsed into Summary.Parsed.
func summarizeResponse(resp *openai.ChatResponse, structured bool, model string) *Summary {
	choice := resp.Choices[0]
	message := choice.Message

	summary := &Summary{
		FinishReason:   choice.FinishReason,
		Role:           message.Role,
		HasContent:     message.Content != "",
		ToolCalls:      summarizeToolCalls(message.ToolCalls),
		ContentPreview: helper.Preview(message.Content, contentPreviewLimit),
		ContentTokens:  openai.CountTokenText(message.Content, model),
	}

	if structured && message.Content != "" {
		var parsed any
		if err := json.Unmarshal([]byte(message.Content), &parsed); err == nil {
			summary.Parsed = parsed
		}
	}

	return summary
}

// summarizeStream reduces the executor's aggregated stream accumulator to the
// canonical summary.
func summarizeStream(acc streamAccumulator, model string) *Summary {
	content := strings.TrimSpace(strings.Join(acc.chunks, ""))
	length := utf8.RuneCountInString(content)
	chunkCount := len(acc.chunks)

	return &Summary{
		FinishReason:   acc.finishReason,
		HasContent:     content != "",
		ContentPreview: helper.Preview(content, contentPreviewLimit),
		ContentLength:  &length,
		ChunkCount:     &chunkCount,
		ContentTokens:  openai.CountTokenText(content, model),
	}
}
