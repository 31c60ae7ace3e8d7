package openai

import (
	"encoding/json"

	"github.com/Laisky/errors/v2"
)

// Tool represents a tool definition in requests and a tool invocation in
// responses. Only function tools are supported by this harness.
type Tool struct {
	Id       string    `json:"id,omitempty"`
	Type     string    `json:"type,omitempty"` // may be empty when splicing streamed tool-call deltas
	Function *Function `json:"function,omitempty"`
	// Index identifies which tool call a streaming delta belongs to.
	Index *int `json:"index,omitempty"`
}

// Function carries the function schema in requests and the invoked arguments
// in responses. Arguments is `any` because backends return either a JSON
// string or an already-decoded structure.
type Function struct {
	Description string   `json:"description,omitempty"`
	Name        string   `json:"name,omitempty"`
	Parameters  any      `json:"parameters,omitempty"`
	Arguments   any      `json:"arguments,omitempty"`
	Required    []string `json:"required,omitempty"`
	Strict      *bool    `json:"strict,omitempty"`
}

// Validate checks that a function tool is well formed.
func (t *Tool) Validate() error {
	if t.Type != "" && t.Type != "function" {
		return errors.Errorf("unsupported tool type %q", t.Type)
	}
	if t.Function == nil {
		return errors.New("function tool requires function definition")
	}
	if t.Function.Name == "" {
		return errors.New("function name is required")
	}
	return nil
}

// UnmarshalJSON supports both nested OpenAI function definitions and flattened
// legacy payloads where function fields appear at the top level of the tool
// object. Backends under test emit either shape, so normalize into the
// Function struct during decoding.
func (t *Tool) UnmarshalJSON(data []byte) error {
	type alias Tool
	var raw struct {
		alias
		Function    *Function `json:"function"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Parameters  any       `json:"parameters"`
		Arguments   any       `json:"arguments"`
		Required    []string  `json:"required"`
		Strict      *bool     `json:"strict"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "unmarshal tool")
	}

	*t = Tool(raw.alias)
	t.Function = raw.Function

	if t.Function == nil {
		if hasFunctionShape(raw.Name, raw.Description, raw.Parameters, raw.Arguments, raw.Required, raw.Strict) {
			t.Function = &Function{
				Name:        raw.Name,
				Description: raw.Description,
				Parameters:  raw.Parameters,
				Arguments:   raw.Arguments,
				Required:    raw.Required,
				Strict:      raw.Strict,
			}
		}
		return nil
	}

	// Merge any flattened fields provided alongside the nested function.
	if raw.Name != "" && t.Function.Name == "" {
		t.Function.Name = raw.Name
	}
	if raw.Description != "" && t.Function.Description == "" {
		t.Function.Description = raw.Description
	}
	if raw.Parameters != nil && t.Function.Parameters == nil {
		t.Function.Parameters = raw.Parameters
	}
	if raw.Arguments != nil && t.Function.Arguments == nil {
		t.Function.Arguments = raw.Arguments
	}
	if len(raw.Required) > 0 && len(t.Function.Required) == 0 {
		t.Function.Required = raw.Required
	}
	if raw.Strict != nil && t.Function.Strict == nil {
		t.Function.Strict = raw.Strict
	}

	return nil
}

func hasFunctionShape(name, description string, parameters, arguments any, required []string, strict *bool) bool {
	if name != "" || description != "" || parameters != nil || arguments != nil || strict != nil {
		return true
	}
	return len(required) > 0
}
