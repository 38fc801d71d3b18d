package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	rerrors "github.com/avandyck/rostrum/internal/errors"
)

func TestNewAnthropicClient_NoAPIKey(t *testing.T) {
	_, err := NewAnthropicClient("")
	if err == nil {
		t.Fatal("expected error when API key is empty")
	}
	if !rerrors.Is(err, rerrors.ErrMissingCredential) {
		t.Errorf("expected ErrMissingCredential, got %v", err)
	}
}

func TestNewAnthropicClient_Defaults(t *testing.T) {
	client, err := NewAnthropicClient("test-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if client.baseURL != defaultBaseURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, defaultBaseURL)
	}
	if client.model != defaultModel {
		t.Errorf("model = %q, want %q", client.model, defaultModel)
	}
	if client.maxTokens != defaultMaxTokens {
		t.Errorf("maxTokens = %d, want %d", client.maxTokens, defaultMaxTokens)
	}
}

func TestNewAnthropicClient_WithOptions(t *testing.T) {
	httpClient := &http.Client{}
	client, err := NewAnthropicClient("test-key",
		WithBaseURL("http://localhost:9999/"),
		WithModel("custom-model"),
		WithMaxTokens(2048),
		WithHTTPClient(httpClient),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if client.baseURL != "http://localhost:9999" {
		t.Errorf("baseURL = %q, want trailing slash stripped", client.baseURL)
	}
	if client.model != "custom-model" {
		t.Errorf("model = %q, want %q", client.model, "custom-model")
	}
	if client.maxTokens != 2048 {
		t.Errorf("maxTokens = %d, want 2048", client.maxTokens)
	}
	if client.httpClient != httpClient {
		t.Error("httpClient was not replaced")
	}
}

// newTestClient builds a client pointed at the given test server.
func newTestClient(t *testing.T, server *httptest.Server, opts ...ClientOption) *AnthropicClient {
	t.Helper()
	opts = append([]ClientOption{WithBaseURL(server.URL)}, opts...)
	client, err := NewAnthropicClient("test-key", opts...)
	if err != nil {
		t.Fatalf("NewAnthropicClient failed: %v", err)
	}
	return client
}

func TestAnthropicClient_Generate_Success(t *testing.T) {
	var gotReq messagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/messages" {
			t.Errorf("expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("missing or invalid API key header")
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Error("missing or invalid anthropic-version header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}

		resp := messagesResponse{
			ID:         "msg_123",
			Model:      "claude-sonnet-4-5",
			StopReason: "end_turn",
			Content: []contentBlock{
				{Type: "text", Text: "The motion "},
				{Type: "text", Text: "stands."},
			},
			Usage: tokenUsage{InputTokens: 42, OutputTokens: 7},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("failed to encode response: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)
	result, err := client.Generate(context.Background(), Request{
		Model:     "claude-sonnet-4-5",
		System:    "You argue the pro side.",
		MaxTokens: 512,
		Messages: []Message{
			{Role: RoleUser, Content: "Open the debate."},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Text != "The motion stands." {
		t.Errorf("Text = %q, want %q", result.Text, "The motion stands.")
	}
	if result.MessageID != "msg_123" {
		t.Errorf("MessageID = %q, want %q", result.MessageID, "msg_123")
	}
	if result.StopReason != "end_turn" {
		t.Errorf("StopReason = %q, want %q", result.StopReason, "end_turn")
	}
	if result.Usage.InputTokens != 42 || result.Usage.OutputTokens != 7 {
		t.Errorf("Usage = %+v, want 42/7", result.Usage)
	}

	if gotReq.Model != "claude-sonnet-4-5" {
		t.Errorf("request model = %q, want %q", gotReq.Model, "claude-sonnet-4-5")
	}
	if gotReq.System != "You argue the pro side." {
		t.Errorf("request system = %q", gotReq.System)
	}
	if gotReq.MaxTokens != 512 {
		t.Errorf("request max_tokens = %d, want 512", gotReq.MaxTokens)
	}
	if gotReq.Stream {
		t.Error("request should not ask for streaming without OnDelta")
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != RoleUser {
		t.Errorf("request messages = %+v", gotReq.Messages)
	}
}

func TestAnthropicClient_Generate_UsesClientDefaults(t *testing.T) {
	var gotReq messagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		resp := messagesResponse{
			Content: []contentBlock{{Type: "text", Text: "ok"}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(t, server, WithModel("fallback-model"), WithMaxTokens(256))
	_, err := client.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotReq.Model != "fallback-model" {
		t.Errorf("request model = %q, want client default", gotReq.Model)
	}
	if gotReq.MaxTokens != 256 {
		t.Errorf("request max_tokens = %d, want client default 256", gotReq.MaxTokens)
	}
}

func TestAnthropicClient_Generate_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"Too many requests"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for rate limit response")
	}

	var perr *rerrors.ProviderError
	if !rerrors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if perr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", perr.StatusCode)
	}
	if perr.APIType != "rate_limit_error" {
		t.Errorf("APIType = %q, want rate_limit_error", perr.APIType)
	}
	if !rerrors.IsRetryable(err) {
		t.Error("rate limit errors should be retryable")
	}
}

func TestAnthropicClient_Generate_InvalidRequestNotRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens required"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for invalid request response")
	}
	if rerrors.IsRetryable(err) {
		t.Error("client errors should not be retryable")
	}

	var perr *rerrors.ProviderError
	if !rerrors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if perr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", perr.StatusCode)
	}
}

func TestAnthropicClient_Generate_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := messagesResponse{Content: []contentBlock{}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for empty content")
	}
	if !rerrors.Is(err, rerrors.ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
	if !rerrors.IsRetryable(err) {
		t.Error("empty responses should be retryable")
	}
}

const streamBody = `event: message_start
data: {"type":"message_start","message":{"id":"msg_stream","model":"claude-sonnet-4-5","usage":{"input_tokens":42}}}

event: content_block_start
data: {"type":"content_block_start","index":0}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Opening "}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"argument."}}

event: content_block_stop
data: {"type":"content_block_stop","index":0}

event: message_delta
data: {"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":7}}

event: message_stop
data: {"type":"message_stop"}
`

func TestAnthropicClient_Generate_Streaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if !req.Stream {
			t.Error("expected stream=true when OnDelta is set")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(streamBody))
	}))
	defer server.Close()

	var deltas []string
	client := newTestClient(t, server)
	result, err := client.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "Open the debate."}},
		OnDelta:  func(text string) { deltas = append(deltas, text) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Text != "Opening argument." {
		t.Errorf("Text = %q, want %q", result.Text, "Opening argument.")
	}
	if result.MessageID != "msg_stream" {
		t.Errorf("MessageID = %q, want %q", result.MessageID, "msg_stream")
	}
	if result.StopReason != "end_turn" {
		t.Errorf("StopReason = %q, want %q", result.StopReason, "end_turn")
	}
	if result.Usage.InputTokens != 42 || result.Usage.OutputTokens != 7 {
		t.Errorf("Usage = %+v, want 42/7", result.Usage)
	}

	if len(deltas) != 2 || deltas[0] != "Opening " || deltas[1] != "argument." {
		t.Errorf("deltas = %q, want [\"Opening \" \"argument.\"]", deltas)
	}
}

func TestAnthropicClient_Generate_StreamErrorEvent(t *testing.T) {
	body := "event: error\n" +
		`data: {"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}` + "\n\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		OnDelta:  func(string) {},
	})
	if err == nil {
		t.Fatal("expected error from stream error event")
	}

	var perr *rerrors.ProviderError
	if !rerrors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if perr.APIType != "overloaded_error" {
		t.Errorf("APIType = %q, want overloaded_error", perr.APIType)
	}
	if !rerrors.IsRetryable(err) {
		t.Error("overloaded errors should be retryable")
	}
}

func TestAnthropicClient_Generate_EmptyStream(t *testing.T) {
	body := "event: message_start\n" +
		`data: {"type":"message_start","message":{"id":"msg_empty","usage":{"input_tokens":3}}}` + "\n\n" +
		"event: message_stop\n" +
		`data: {"type":"message_stop"}` + "\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		OnDelta:  func(string) {},
	})
	if err == nil {
		t.Fatal("expected error for stream without content")
	}
	if !rerrors.Is(err, rerrors.ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
	if !rerrors.IsRetryable(err) {
		t.Error("empty streams should be retryable")
	}
}
