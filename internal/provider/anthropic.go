package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	rerrors "github.com/avandyck/rostrum/internal/errors"
)

const (
	// defaultBaseURL is the Anthropic API endpoint.
	defaultBaseURL = "https://api.anthropic.com"

	// apiVersion is the Messages API version header value.
	apiVersion = "2023-06-01"

	// defaultModel is used when neither the client nor the request names one.
	defaultModel = "claude-sonnet-4-5"

	// defaultMaxTokens bounds generation when the request does not.
	defaultMaxTokens = 1024
)

// AnthropicClient implements Client using the Anthropic Messages API.
// It supports both buffered and streamed (SSE) responses.
type AnthropicClient struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// ClientOption configures an AnthropicClient.
type ClientOption func(*AnthropicClient)

// WithBaseURL sets the API endpoint, e.g. for proxies or test servers.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *AnthropicClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithModel sets the default model for requests that don't name one.
func WithModel(model string) ClientOption {
	return func(c *AnthropicClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens sets the default token budget for requests that don't set one.
func WithMaxTokens(maxTokens int) ClientOption {
	return func(c *AnthropicClient) {
		if maxTokens > 0 {
			c.maxTokens = maxTokens
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *AnthropicClient) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewAnthropicClient creates a client authenticated with the given API key.
// Returns an error if the key is empty.
//
// The underlying HTTP client carries no fixed timeout; callers bound each
// call through the request context, which keeps long streams alive while the
// retry layer enforces per-attempt deadlines.
func NewAnthropicClient(apiKey string, opts ...ClientOption) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, rerrors.ErrMissingCredential
	}

	c := &AnthropicClient{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		maxTokens:  defaultMaxTokens,
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// messagesRequest is the Anthropic Messages API request structure.
type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	Stream    bool      `json:"stream,omitempty"`
}

// messagesResponse is the buffered Messages API response structure. The same
// shape carries the error envelope on non-2xx responses.
type messagesResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Content    []contentBlock `json:"content"`
	Usage      tokenUsage     `json:"usage"`
	Error      *apiError      `json:"error,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type tokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// streamEvent is one SSE data payload from the streaming Messages API.
// Fields are populated depending on the event type.
type streamEvent struct {
	Type    string `json:"type"`
	Message *struct {
		ID    string     `json:"id"`
		Model string     `json:"model"`
		Usage tokenUsage `json:"usage"`
	} `json:"message,omitempty"`
	Delta *struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta,omitempty"`
	Usage *tokenUsage `json:"usage,omitempty"`
	Error *apiError   `json:"error,omitempty"`
}

// Generate produces text for the request, streaming when req.OnDelta is set.
func (c *AnthropicClient) Generate(ctx context.Context, req Request) (*Result, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	stream := req.OnDelta != nil

	reqBody := messagesRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  req.Messages,
		Stream:    stream,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, rerrors.NewProviderError("marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, rerrors.NewProviderError("create request", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, rerrors.NewProviderError("send request", err).
			WithRetryable(transientTransport(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	if stream {
		return c.readStream(resp.Body, req.OnDelta)
	}
	return c.readResponse(resp.Body)
}

// statusError converts a non-200 response into a ProviderError, decoding the
// API error envelope when present.
func (c *AnthropicClient) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	message := fmt.Sprintf("request rejected: %s", http.StatusText(resp.StatusCode))
	apiType := ""

	var envelope messagesResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		message = envelope.Error.Message
		apiType = envelope.Error.Type
	}

	return rerrors.NewProviderError(message, nil).
		WithStatusCode(resp.StatusCode).
		WithAPIType(apiType).
		WithRetryable(retryableStatus(resp.StatusCode))
}

// readResponse decodes a buffered response body into a Result.
func (c *AnthropicClient) readResponse(body io.Reader) (*Result, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, rerrors.NewProviderError("read response", err).
			WithRetryable(transientTransport(err))
	}

	var respData messagesResponse
	if err := json.Unmarshal(data, &respData); err != nil {
		return nil, rerrors.NewProviderError("unmarshal response", err)
	}

	if respData.Error != nil {
		return nil, rerrors.NewProviderError(respData.Error.Message, nil).
			WithAPIType(respData.Error.Type)
	}

	var text strings.Builder
	for _, block := range respData.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return nil, rerrors.NewProviderError("response contained no text", rerrors.ErrEmptyResponse).
			WithRetryable(true)
	}

	return &Result{
		MessageID:  respData.ID,
		Text:       text.String(),
		Model:      respData.Model,
		StopReason: respData.StopReason,
		Usage: Usage{
			InputTokens:  respData.Usage.InputTokens,
			OutputTokens: respData.Usage.OutputTokens,
		},
	}, nil
}

// readStream consumes an SSE response body, invoking onDelta for each text
// fragment and accumulating the full Result.
func (c *AnthropicClient) readStream(body io.Reader, onDelta func(string)) (*Result, error) {
	result := &Result{}
	var text strings.Builder

	scanner := bufio.NewScanner(body)
	// Individual events stay small, but a delta can carry a long fragment.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			// Skip malformed or unrecognized events
			continue
		}

		switch ev.Type {
		case "message_start":
			if ev.Message != nil {
				result.MessageID = ev.Message.ID
				result.Model = ev.Message.Model
				result.Usage.InputTokens = ev.Message.Usage.InputTokens
			}
		case "content_block_delta":
			if ev.Delta != nil && ev.Delta.Text != "" {
				text.WriteString(ev.Delta.Text)
				if onDelta != nil {
					onDelta(ev.Delta.Text)
				}
			}
		case "message_delta":
			if ev.Delta != nil && ev.Delta.StopReason != "" {
				result.StopReason = ev.Delta.StopReason
			}
			if ev.Usage != nil {
				result.Usage.OutputTokens = ev.Usage.OutputTokens
			}
		case "error":
			if ev.Error != nil {
				return nil, rerrors.NewProviderError(ev.Error.Message, nil).
					WithAPIType(ev.Error.Type).
					WithRetryable(ev.Error.Type == "overloaded_error")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		// A stream cut mid-flight is worth retrying
		return nil, rerrors.NewProviderError("read stream", err).WithRetryable(true)
	}

	if text.Len() == 0 {
		return nil, rerrors.NewProviderError("stream ended without content", rerrors.ErrEmptyResponse).
			WithRetryable(true)
	}

	result.Text = text.String()
	return result, nil
}
