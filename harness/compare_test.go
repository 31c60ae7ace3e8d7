package harness

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syslm/parity/openai"
)

func resultWithSummary(summary *Summary) *ScenarioResult {
	return &ScenarioResult{OK: true, Summary: summary}
}

func TestCompareMissingSideYieldsNil(t *testing.T) {
	summary := resultWithSummary(&Summary{FinishReason: openai.FinishReasonStop})
	require.Nil(t, Compare(nil, summary))
	require.Nil(t, Compare(summary, nil))
	require.Nil(t, Compare(&ScenarioResult{OK: false}, summary))
	require.Nil(t, Compare(summary, &ScenarioResult{OK: false}))
}

func TestCompareEqualSummariesYieldNilNotEmptyMap(t *testing.T) {
	a := resultWithSummary(&Summary{FinishReason: openai.FinishReasonStop, Role: "assistant"})
	b := resultWithSummary(&Summary{FinishReason: openai.FinishReasonStop, Role: "assistant"})
	diff := Compare(a, b)
	require.Nil(t, diff)
}

func TestCompareSymmetricEmptiness(t *testing.T) {
	cases := []struct {
		name string
		a, b *ScenarioResult
	}{
		{"equal", resultWithSummary(&Summary{FinishReason: "stop"}), resultWithSummary(&Summary{FinishReason: "stop"})},
		{"differs", resultWithSummary(&Summary{FinishReason: "stop"}), resultWithSummary(&Summary{FinishReason: "length"})},
		{"one missing", nil, resultWithSummary(&Summary{})},
	}
	for _, tc := range cases {
		forward := Compare(tc.a, tc.b)
		backward := Compare(tc.b, tc.a)
		require.Equal(t, forward == nil, backward == nil, tc.name)
	}
}

func TestCompareFinishReasonAndRole(t *testing.T) {
	a := resultWithSummary(&Summary{FinishReason: "stop", Role: "assistant"})
	b := resultWithSummary(&Summary{FinishReason: "tool_calls", Role: "assistant"})
	diff := Compare(a, b)
	require.NotNil(t, diff)
	require.Contains(t, diff, "finish_reason")
	require.NotContains(t, diff, "role")

	entry, ok := diff["finish_reason"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "stop", entry["local"])
	require.Equal(t, "tool_calls", entry["reference"])
}

func TestCompareToolCallOrderMatters(t *testing.T) {
	a := resultWithSummary(&Summary{ToolCalls: []ToolCallSummary{
		{Function: FunctionSummary{Name: "echo"}},
		{Function: FunctionSummary{Name: "calculate_expression"}},
	}})
	b := resultWithSummary(&Summary{ToolCalls: []ToolCallSummary{
		{Function: FunctionSummary{Name: "calculate_expression"}},
		{Function: FunctionSummary{Name: "echo"}},
	}})

	diff := Compare(a, b)
	require.NotNil(t, diff)
	require.Contains(t, diff, "tool_calls")
}

func TestCompareToolCallsNilVsNilEqual(t *testing.T) {
	a := resultWithSummary(&Summary{FinishReason: "stop"})
	b := resultWithSummary(&Summary{FinishReason: "stop"})
	require.Nil(t, Compare(a, b))
}

func TestCompareContentLengthOnlyWhenReported(t *testing.T) {
	// Neither side reports a length: no content_length entry even though the
	// previews differ.
	a := resultWithSummary(&Summary{FinishReason: "stop", ContentPreview: "aaaa"})
	b := resultWithSummary(&Summary{FinishReason: "stop", ContentPreview: "bb"})
	require.Nil(t, Compare(a, b))

	// One side reports a length: compared numerically.
	length := 4
	a = resultWithSummary(&Summary{FinishReason: "stop", ContentLength: &length})
	b = resultWithSummary(&Summary{FinishReason: "stop"})
	diff := Compare(a, b)
	require.NotNil(t, diff)
	require.Contains(t, diff, "content_length")

	// Both report the same length: equal.
	otherLength := 4
	b = resultWithSummary(&Summary{FinishReason: "stop", ContentLength: &otherLength})
	require.Nil(t, Compare(a, b))
}

func TestCompareIgnoresContentWording(t *testing.T) {
	a := resultWithSummary(&Summary{FinishReason: "stop", Role: "assistant", ContentPreview: "a mango"})
	b := resultWithSummary(&Summary{FinishReason: "stop", Role: "assistant", ContentPreview: "one kiwi"})
	require.Nil(t, Compare(a, b))
}
