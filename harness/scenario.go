// Package harness implements the differential conformance suite: the scenario
// registry, the request executor, response summarization, expectation
// evaluation, the structural comparator, and the report aggregator.
package harness

import (
	"github.com/Laisky/errors/v2"

	"github.com/syslm/parity/openai"
)

// Expectations declares optional structural assertions checked against a
// backend's summary. Absent fields impose no constraint; an all-absent
// Expectations trivially passes.
type Expectations struct {
	FinishReason     string   `json:"finish_reason,omitempty"`
	ToolCallCount    *int     `json:"tool_call_count,omitempty"`
	RequiresTools    []string `json:"requires_tools,omitempty"`
	MinContentLength *int     `json:"min_content_length,omitempty"`
}

// Empty reports whether no constraint is set.
func (e *Expectations) Empty() bool {
	if e == nil {
		return true
	}
	return e.FinishReason == "" && e.ToolCallCount == nil &&
		len(e.RequiresTools) == 0 && e.MinContentLength == nil
}

// Scenario is one named probe of the chat-completions contract: a fixed
// request body plus optional pass/fail expectations. Scenarios are built once
// and read-only thereafter.
type Scenario struct {
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Request       openai.ChatRequest  `json:"request"`
	ExpectFailure bool                `json:"expect_failure,omitempty"`
	Expectations  *Expectations       `json:"expectations,omitempty"`
}

func systemMessage(content string) openai.Message {
	return openai.Message{Role: "system", Content: content}
}

func userMessage(content string) openai.Message {
	return openai.Message{Role: "user", Content: content}
}

func intPtr(v int) *int {
	return &v
}

func echoTool() openai.Tool {
	return openai.Tool{
		Type: "function",
		Function: &openai.Function{
			Name:        "echo",
			Description: "Return the same message",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"message": map[string]any{"type": "string"},
				},
				"required": []string{"message"},
			},
		},
	}
}

func calculatorTool() openai.Tool {
	return openai.Tool{
		Type: "function",
		Function: &openai.Function{
			Name:        "calculate_expression",
			Description: "Evaluate arithmetic expressions",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"expression": map[string]any{"type": "string"},
				},
				"required": []string{"expression"},
			},
		},
	}
}

// BuildScenarios constructs the ordered suite of chat-completion scenarios.
// Pure and deterministic: no I/O, stable names, stable order.
func BuildScenarios() []Scenario {
	return []Scenario{
		{
			Name:        "basic_completion",
			Description: "Simple text response",
			Request: openai.ChatRequest{
				Messages: []openai.Message{
					systemMessage("You reply with one concise sentence."),
					userMessage("Give me a random fruit."),
				},
			},
			Expectations: &Expectations{
				FinishReason:     openai.FinishReasonStop,
				MinContentLength: intPtr(5),
			},
		},
		{
			Name:        "structured_json",
			Description: "JSON schema enforced response",
			Request: openai.ChatRequest{
				Messages: []openai.Message{
					systemMessage("You speak JSON"),
					userMessage("Return sandwich info."),
				},
				ResponseFormat: &openai.ResponseFormat{
					Type: "json_schema",
					JSONSchema: &openai.JSONSchema{
						Name: "SandwichSummary",
						Schema: map[string]any{
							"type": "object",
							"properties": map[string]any{
								"name": map[string]any{"type": "string"},
								"ingredients": map[string]any{
									"type":     "array",
									"items":    map[string]any{"type": "string"},
									"minItems": 2,
								},
								"vegetarian": map[string]any{"type": "boolean"},
							},
							"required":             []string{"name", "ingredients"},
							"additionalProperties": false,
						},
					},
				},
			},
			Expectations: &Expectations{
				FinishReason:     openai.FinishReasonStop,
				MinContentLength: intPtr(2),
			},
		},
		{
			Name:        "tool_call",
			Description: "Allow the model to request a tool call",
			Request: openai.ChatRequest{
				Messages: []openai.Message{
					systemMessage("Call tools when necessary."),
					userMessage("Use the echo tool to repeat hello world."),
				},
				Tools: []openai.Tool{echoTool()},
			},
			Expectations: &Expectations{
				FinishReason:  openai.FinishReasonToolCalls,
				ToolCallCount: intPtr(1),
				RequiresTools: []string{"echo"},
			},
		},
		{
			Name:        "tool_choice_none",
			Description: "Forbid tool usage, expect a direct answer",
			Request: openai.ChatRequest{
				Messages: []openai.Message{
					systemMessage("You may *not* call any tools."),
					userMessage("Explain, briefly, what tool_choice none means."),
				},
				Tools:      []openai.Tool{echoTool()},
				ToolChoice: "none",
			},
			Expectations: &Expectations{
				FinishReason:     openai.FinishReasonStop,
				ToolCallCount:    intPtr(0),
				MinContentLength: intPtr(10),
			},
		},
		{
			Name:        "streaming",
			Description: "Streaming chat completion (capture aggregated text)",
			Request: openai.ChatRequest{
				Messages: []openai.Message{
					systemMessage("Be poetic."),
					userMessage("Describe the ocean in five short phrases."),
				},
				Stream: true,
			},
			Expectations: &Expectations{
				FinishReason:     openai.FinishReasonStop,
				MinContentLength: intPtr(10),
			},
		},
		{
			Name:        "invalid_schema",
			Description: "Send an invalid schema and expect a failure",
			Request: openai.ChatRequest{
				Messages: []openai.Message{userMessage("Hello")},
				ResponseFormat: &openai.ResponseFormat{
					Type: "json_schema",
					JSONSchema: &openai.JSONSchema{
						Name:   "Bad",
						Schema: map[string]any{"type": "whoops"},
					},
				},
			},
			ExpectFailure: true,
		},
		{
			Name:        "multi_turn_with_tool",
			Description: "Conversation requiring tool output integration",
			Request: openai.ChatRequest{
				Messages: []openai.Message{
					systemMessage("You are a task assistant. Use tools when helpful and cite results."),
					userMessage("What's 32 * 14? After you know the number, say if it is even."),
					{
						Role: "assistant",
						ToolCalls: []openai.Tool{
							{
								Id:   "call_parity_calc_1",
								Type: "function",
								Function: &openai.Function{
									Name:      "calculate_expression",
									Arguments: `{"expression": "32 * 14"}`,
								},
							},
						},
					},
					{
						Role:       "tool",
						ToolCallId: "call_parity_calc_1",
						Content:    "448",
					},
				},
				Tools: []openai.Tool{calculatorTool()},
			},
			Expectations: &Expectations{
				FinishReason:     openai.FinishReasonStop,
				MinContentLength: intPtr(5),
			},
		},
	}
}

// Filter selects scenarios by name. include keeps only the named scenarios
// (empty means all), exclude then removes names. Unknown names in either list
// are an error so typos do not silently shrink the suite.
func Filter(scenarios []Scenario, include, exclude []string) ([]Scenario, error) {
	known := make(map[string]bool, len(scenarios))
	for _, sc := range scenarios {
		known[sc.Name] = true
	}
	for _, name := range include {
		if !known[name] {
			return nil, errors.Errorf("unknown scenario %q", name)
		}
	}
	for _, name := range exclude {
		if !known[name] {
			return nil, errors.Errorf("unknown scenario %q", name)
		}
	}

	wanted := make(map[string]bool, len(include))
	for _, name := range include {
		wanted[name] = true
	}
	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}

	var selected []Scenario
	for _, sc := range scenarios {
		if len(wanted) > 0 && !wanted[sc.Name] {
			continue
		}
		if excluded[sc.Name] {
			continue
		}
		selected = append(selected, sc)
	}
	return selected, nil
}
