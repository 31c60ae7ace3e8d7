package harness

import (
	"context"
	"time"

	"github.com/syslm/parity/common/helper"
	"github.com/syslm/parity/openai"
)

// ScenarioResult is the outcome of executing one scenario against one
// backend. OK reflects the harness's own success criterion, distinct from
// expectation pass/fail. Never mutated after construction.
type ScenarioResult struct {
	OK        bool     `json:"ok"`
	Summary   *Summary `json:"summary,omitempty"`
	Error     string   `json:"error,omitempty"`
	ElapsedMS int64    `json:"elapsed_ms,omitempty"`
}

// mergeModel merges the scenario request with the backend's default model.
// Precedence: a scenario-specified model wins over the default.
func mergeModel(request openai.ChatRequest, model string) openai.ChatRequest {
	if request.Model == "" {
		request.Model = model
	}
	return request
}

// streamAccumulator folds an ordered stream of delta events into the
// aggregate the summarizer consumes: the emitted text chunks in order and the
// most recently observed finish reason.
type streamAccumulator struct {
	chunks       []string
	finishReason string
}

// aggregateStream advances the fold by one delta event and returns the new
// accumulator value. A stream may report its finish reason only on the final
// event; earlier events carry none.
func aggregateStream(acc streamAccumulator, chunk *openai.StreamChunk) streamAccumulator {
	for _, choice := range chunk.Choices {
		if choice.Delta.Content != "" {
			acc.chunks = append(acc.chunks, choice.Delta.Content)
		}
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			acc.finishReason = *choice.FinishReason
		}
	}
	return acc
}

// RunSingleRequest executes one scenario against one backend and resolves
// every failure mode into a ScenarioResult; it never propagates an error to
// the caller.
func RunSingleRequest(ctx context.Context, client *openai.Client, scenario Scenario, model string) ScenarioResult {
	start := time.Now()
	result := runSingleRequest(ctx, client, scenario, model)
	result.ElapsedMS = helper.CalcElapsedTime(start)
	return result
}

func runSingleRequest(ctx context.Context, client *openai.Client, scenario Scenario, model string) ScenarioResult {
	request := mergeModel(scenario.Request, model)

	if request.Stream {
		acc := streamAccumulator{}
		err := client.StreamChatCompletion(ctx, &request, func(chunk *openai.StreamChunk) error {
			acc = aggregateStream(acc, chunk)
			return nil
		})
		if err != nil {
			return ScenarioResult{OK: false, Error: err.Error()}
		}
		// For the harness's own purposes a stream only succeeds when it
		// terminates with the canonical stop reason; anything else (including
		// none observed) fails the scenario regardless of expectations.
		return ScenarioResult{
			OK:      acc.finishReason == openai.FinishReasonStop,
			Summary: summarizeStream(acc, request.Model),
		}
	}

	resp, err := client.CreateChatCompletion(ctx, &request)
	if err != nil {
		switch {
		case openai.IsRequestError(err):
			// A validation rejection is the expected outcome for scenarios
			// that declare expect_failure; the message is preserved either way.
			return ScenarioResult{OK: scenario.ExpectFailure, Error: err.Error()}
		case openai.IsAPIError(err):
			return ScenarioResult{OK: false, Error: "APIError: " + err.Error()}
		default:
			return ScenarioResult{OK: false, Error: err.Error()}
		}
	}

	structured := request.ResponseFormat != nil && request.ResponseFormat.Type == "json_schema"
	return ScenarioResult{
		OK:      true,
		Summary: summarizeResponse(resp, structured, request.Model),
	}
}
