package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeBaseURL(t *testing.T) {
	cases := map[string]string{
		"":                              "https://api.openai.com/v1",
		"http://localhost:8000":         "http://localhost:8000/v1",
		"http://localhost:8000/":        "http://localhost:8000/v1",
		"http://localhost:8000/v1":      "http://localhost:8000/v1",
		"http://localhost:8000/v1/":     "http://localhost:8000/v1",
		"  https://api.openai.com/v1 ":  "https://api.openai.com/v1",
		"https://example.com/openai///": "https://example.com/openai/v1",
	}
	for input, want := range cases {
		require.Equal(t, want, NormalizeBaseURL(input), "input %q", input)
	}
}

func TestCreateChatCompletion(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"chatcmpl-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"pear"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 5*time.Second)
	resp, err := client.CreateChatCompletion(context.Background(), &ChatRequest{
		Model:    "m",
		Messages: []Message{{Role: "user", Content: "fruit"}},
	})
	require.NoError(t, err)
	require.Equal(t, "/v1/chat/completions", gotPath)
	require.Equal(t, "Bearer test-key", gotAuth)
	require.Len(t, resp.Choices, 1)
	require.Equal(t, FinishReasonStop, resp.Choices[0].FinishReason)
	require.Equal(t, "pear", resp.Choices[0].Message.Content)
	require.NotNil(t, resp.Usage)
	require.Equal(t, 12, resp.Usage.TotalTokens)
}

func TestCreateChatCompletionValidationRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"invalid schema type: whoops","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", 5*time.Second)
	_, err := client.CreateChatCompletion(context.Background(), &ChatRequest{Model: "m"})
	require.Error(t, err)
	require.True(t, IsRequestError(err))
	require.Contains(t, err.Error(), "invalid schema type: whoops")
}

func TestCreateChatCompletionServerFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"upstream exploded","type":"server_error"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", 5*time.Second)
	_, err := client.CreateChatCompletion(context.Background(), &ChatRequest{Model: "m"})
	require.Error(t, err)
	require.True(t, IsAPIError(err))
}

func TestCreateChatCompletionErrorBodyWith200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"message":"generation failed","type":"server_error"},"choices":[]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", 5*time.Second)
	_, err := client.CreateChatCompletion(context.Background(), &ChatRequest{Model: "m"})
	require.Error(t, err)
	require.True(t, IsAPIError(err))
}

func TestStreamChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"A\"},\"finish_reason\":null}]}\n\n")
		fmt.Fprint(w, ": keep-alive comment\n\n")
		fmt.Fprint(w, "data: not-json\n\n")
		fmt.Fprint(w, "data:{\"choices\":[{\"index\":0,\"delta\":{\"content\":\"B\"},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", 5*time.Second)
	var contents []string
	var finish string
	err := client.StreamChatCompletion(context.Background(), &ChatRequest{Model: "m"}, func(chunk *StreamChunk) error {
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				contents = append(contents, choice.Delta.Content)
			}
			if choice.FinishReason != nil {
				finish = *choice.FinishReason
			}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, contents)
	require.Equal(t, FinishReasonStop, finish)
}

func TestStreamChatCompletionForcesStreamFlag(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", 5*time.Second)
	err := client.StreamChatCompletion(context.Background(), &ChatRequest{Model: "m"}, func(*StreamChunk) error {
		return nil
	})
	require.NoError(t, err)
	require.Contains(t, gotBody, `"stream":true`)
}

func TestStreamChatCompletionRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad request"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", 5*time.Second)
	err := client.StreamChatCompletion(context.Background(), &ChatRequest{Model: "m"}, func(*StreamChunk) error {
		return nil
	})
	require.Error(t, err)
	require.True(t, IsRequestError(err))
}

func TestNormalizeDataLine(t *testing.T) {
	require.Equal(t, "data: {}", normalizeDataLine("data:{}"))
	require.Equal(t, "data: {}", normalizeDataLine("data: {}"))
	require.Equal(t, "data: {}", normalizeDataLine("data:   {}"))
	require.Equal(t, "event: ping", normalizeDataLine("event: ping"))
}
