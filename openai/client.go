package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/syslm/parity/common/logger"
)

const (
	dataPrefix       = "data: "
	dataPrefixLength = len(dataPrefix)
	doneMarker       = "[DONE]"

	// maxErrorBodySize bounds how much of an error response is read.
	maxErrorBodySize = 1 << 20 // 1 MiB
)

// Client talks to one OpenAI-compatible chat-completions backend. Construct
// one per backend and reuse it across all scenarios.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a client for the given base URL. The URL is normalized to
// end in /v1 so callers can pass either the bare host or the full API root.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    NormalizeBaseURL(baseURL),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NormalizeBaseURL trims trailing slashes and appends /v1 when absent. An
// empty URL resolves to the public OpenAI endpoint.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "https://api.openai.com"
	}
	raw = strings.TrimRight(raw, "/")
	if !strings.HasSuffix(raw, "/v1") {
		raw += "/v1"
	}
	return raw
}

// BaseURL returns the normalized API root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", "parity-harness/1.0")
	return req, nil
}

// CreateChatCompletion issues a synchronous chat-completions call. Non-2xx
// responses are classified into the error taxonomy (RequestError, APIError);
// transport failures surface as plain wrapped errors.
func (c *Client) CreateChatCompletion(ctx context.Context, request *ChatRequest) (*ChatResponse, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	req, err := c.newRequest(ctx, payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyHTTPError(resp.StatusCode, body)
	}

	var result ChatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	if result.Error != nil && !result.Error.IsEmpty() {
		// Error object delivered with a 2xx status still means the backend
		// failed to generate.
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: *result.Error}
	}
	if len(result.Choices) == 0 {
		return nil, errors.New("response carries no choices")
	}
	return &result, nil
}

// StreamChatCompletion issues a streaming chat-completions call and invokes fn
// for every delta event, in order. Consumption is a blocking, ordered pull;
// malformed chunks are skipped, and the stream ends at [DONE] or EOF.
func (c *Client) StreamChatCompletion(ctx context.Context, request *ChatRequest, fn func(*StreamChunk) error) error {
	streamReq := *request
	streamReq.Stream = true

	payload, err := json.Marshal(&streamReq)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := c.newRequest(ctx, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return classifyHTTPError(resp.StatusCode, body)
	}

	scanner := bufio.NewScanner(resp.Body)
	buffer := make([]byte, 1024*1024)
	scanner.Buffer(buffer, len(buffer))
	scanner.Split(bufio.ScanLines)

	for scanner.Scan() {
		data := normalizeDataLine(scanner.Text())
		if len(data) < dataPrefixLength || data[:dataPrefixLength] != dataPrefix {
			continue
		}
		data = data[dataPrefixLength:]
		if strings.HasPrefix(data, doneMarker) {
			break
		}

		var chunk StreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			logger.Logger.Debug("skipping malformed stream chunk",
				zap.String("chunk_data", data),
				zap.Error(err))
			continue
		}
		if err := fn(&chunk); err != nil {
			return errors.Wrap(err, "process stream chunk")
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read stream")
	}
	return nil
}

// normalizeDataLine collapses "data:" prefix spacing variations emitted by
// different SSE implementations.
func normalizeDataLine(data string) string {
	if strings.HasPrefix(data, "data:") {
		content := strings.TrimLeft(data[len("data:"):], " ")
		return "data: " + content
	}
	return data
}
