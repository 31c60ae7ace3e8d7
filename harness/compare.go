package harness

import "slices"

// Compare computes a structural diff between two backends' summaries for the
// same scenario. It returns nil when either side has no result or no summary,
// and nil (never an empty map) when no tracked field differs. Only
// structural/shape properties are diffed: textual content is expected to
// differ between independently generated responses.
func Compare(local, reference *ScenarioResult) map[string]any {
	if local == nil || reference == nil || local.Summary == nil || reference.Summary == nil {
		return nil
	}
	a, b := local.Summary, reference.Summary

	diff := map[string]any{}

	if a.FinishReason != b.FinishReason {
		diff["finish_reason"] = sideBySide(a.FinishReason, b.FinishReason)
	}
	if a.Role != b.Role {
		diff["role"] = sideBySide(a.Role, b.Role)
	}

	// Tool calls are compared as ordered name sequences: invocation order
	// reflects model planning order, so a reordering is a real difference.
	localNames, referenceNames := a.ToolCallNames(), b.ToolCallNames()
	if !slices.Equal(localNames, referenceNames) {
		diff["tool_calls"] = sideBySide(localNames, referenceNames)
	}

	// Content length is compared only when at least one side reports it.
	if a.ContentLength != nil || b.ContentLength != nil {
		if !intPtrEqual(a.ContentLength, b.ContentLength) {
			diff["content_length"] = sideBySide(intPtrValue(a.ContentLength), intPtrValue(b.ContentLength))
		}
	}

	if len(diff) == 0 {
		return nil
	}
	return diff
}

func sideBySide(local, reference any) map[string]any {
	return map[string]any{"local": local, "reference": reference}
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func intPtrValue(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
