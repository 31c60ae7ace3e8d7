package helper

import (
	"strings"
	"time"
)

// Preview clamps text to the first limit runes without trimming.
func Preview(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// Shorten trims whitespace and clamps the string to the provided rune length,
// appending an ellipsis when truncated.
func Shorten(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}

// CalcElapsedTime returns the elapsed time in milliseconds (ms).
func CalcElapsedTime(start time.Time) int64 {
	elapsed := time.Since(start)
	ms := elapsed.Milliseconds()
	if ms == 0 && elapsed > 0 {
		// Sub-millisecond calls still report 1ms so reports never show 0.
		return 1
	}
	return ms
}
