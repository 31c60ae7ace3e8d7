package harness

import (
	"fmt"
	"strings"
)

// Evaluate checks a backend's result against a scenario's declared
// expectations, returning pass/fail plus human-readable feedback. Each rule
// is independently checked and all failures are semicolon-joined. The
// function is total: every reachable input combination yields a definite
// boolean and it never panics.
func Evaluate(result *ScenarioResult, expectations *Expectations) (bool, string) {
	if expectations.Empty() {
		return true, ""
	}
	if result == nil {
		// Expectations cannot be vacuously satisfied by a skipped backend.
		return false, "backend skipped, expectations not evaluated"
	}
	if result.Error != "" && !result.OK {
		return false, result.Error
	}
	if result.Summary == nil {
		return false, "no summary produced"
	}

	summary := result.Summary
	var failures []string

	if expectations.FinishReason != "" && summary.FinishReason != expectations.FinishReason {
		failures = append(failures, fmt.Sprintf("finish_reason expected %q got %q",
			expectations.FinishReason, summary.FinishReason))
	}

	if expectations.ToolCallCount != nil {
		actual := len(summary.ToolCalls)
		if actual != *expectations.ToolCallCount {
			failures = append(failures, fmt.Sprintf("tool_call_count expected %d got %d",
				*expectations.ToolCallCount, actual))
		}
		if missing := missingTools(summary.ToolCallNames(), expectations.RequiresTools); len(missing) > 0 {
			failures = append(failures, fmt.Sprintf("missing required tools: %s",
				strings.Join(missing, ", ")))
		}
	}

	if expectations.MinContentLength != nil {
		actual := summary.EffectiveContentLength()
		if actual < *expectations.MinContentLength {
			failures = append(failures, fmt.Sprintf("content_length expected >= %d got %d",
				*expectations.MinContentLength, actual))
		}
	}

	if len(failures) > 0 {
		return false, strings.Join(failures, "; ")
	}
	return true, ""
}

// missingTools returns the required tool names absent from the actual
// invocation names, in declaration order.
func missingTools(actual, required []string) []string {
	if len(required) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(actual))
	for _, name := range actual {
		seen[name] = true
	}
	var missing []string
	for _, name := range required {
		if !seen[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
