package provider

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"syscall"
	"testing"
	"time"

	rerrors "github.com/avandyck/rostrum/internal/errors"
)

// stubClient scripts responses per call so retry behavior can be observed
// without a network.
type stubClient struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, call int) (*Result, error)
}

func (s *stubClient) Generate(ctx context.Context, _ Request) (*Result, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	return s.fn(ctx, call)
}

func (s *stubClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fastRetryConfig keeps retry delays negligible for tests.
func fastRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
}

func retryableError() error {
	return rerrors.NewProviderError("service overloaded", nil).
		WithStatusCode(529).
		WithRetryable(true)
}

func fatalError() error {
	return rerrors.NewProviderError("invalid request", nil).
		WithStatusCode(400).
		WithRetryable(false)
}

func TestRetryClient_SuccessFirstAttempt(t *testing.T) {
	stub := &stubClient{fn: func(_ context.Context, _ int) (*Result, error) {
		return &Result{Text: "ok"}, nil
	}}
	client := NewRetryClient(stub, fastRetryConfig(3))

	result, err := client.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "ok" {
		t.Errorf("Text = %q, want %q", result.Text, "ok")
	}
	if stub.callCount() != 1 {
		t.Errorf("calls = %d, want 1", stub.callCount())
	}
}

func TestRetryClient_RetriesTransientError(t *testing.T) {
	stub := &stubClient{fn: func(_ context.Context, call int) (*Result, error) {
		if call == 1 {
			return nil, retryableError()
		}
		return &Result{Text: "recovered"}, nil
	}}
	client := NewRetryClient(stub, fastRetryConfig(3))

	result, err := client.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "recovered" {
		t.Errorf("Text = %q, want %q", result.Text, "recovered")
	}
	if stub.callCount() != 2 {
		t.Errorf("calls = %d, want 2", stub.callCount())
	}
}

func TestRetryClient_FatalErrorStopsImmediately(t *testing.T) {
	stub := &stubClient{fn: func(_ context.Context, _ int) (*Result, error) {
		return nil, fatalError()
	}}
	client := NewRetryClient(stub, fastRetryConfig(3))

	_, err := client.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if stub.callCount() != 1 {
		t.Errorf("calls = %d, want 1 (no retries for client errors)", stub.callCount())
	}
}

func TestRetryClient_ExhaustsRetries(t *testing.T) {
	stub := &stubClient{fn: func(_ context.Context, _ int) (*Result, error) {
		return nil, retryableError()
	}}
	client := NewRetryClient(stub, fastRetryConfig(2))

	_, err := client.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if stub.callCount() != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", stub.callCount())
	}

	var perr *rerrors.ProviderError
	if !rerrors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if perr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", perr.Attempts)
	}
}

func TestRetryClient_RetriesEmptyResponse(t *testing.T) {
	stub := &stubClient{fn: func(_ context.Context, call int) (*Result, error) {
		if call == 1 {
			return nil, rerrors.NewProviderError("response contained no text", rerrors.ErrEmptyResponse).
				WithRetryable(true)
		}
		return &Result{Text: "second time lucky"}, nil
	}}
	client := NewRetryClient(stub, fastRetryConfig(3))

	result, err := client.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "second time lucky" {
		t.Errorf("Text = %q", result.Text)
	}
	if stub.callCount() != 2 {
		t.Errorf("calls = %d, want 2", stub.callCount())
	}
}

func TestRetryClient_ParentCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stub := &stubClient{fn: func(_ context.Context, _ int) (*Result, error) {
		cancel()
		return nil, retryableError()
	}}
	client := NewRetryClient(stub, fastRetryConfig(5))

	_, err := client.Generate(ctx, Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if stub.callCount() != 1 {
		t.Errorf("calls = %d, want 1 (canceled context must not retry)", stub.callCount())
	}
}

func TestRetryClient_AttemptTimeoutRetries(t *testing.T) {
	stub := &stubClient{fn: func(ctx context.Context, call int) (*Result, error) {
		if call == 1 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &Result{Text: "prompt reply"}, nil
	}}
	cfg := fastRetryConfig(2)
	cfg.AttemptTimeout = 20 * time.Millisecond
	client := NewRetryClient(stub, cfg)

	result, err := client.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "prompt reply" {
		t.Errorf("Text = %q", result.Text)
	}
	if stub.callCount() != 2 {
		t.Errorf("calls = %d, want 2 (timed-out attempt should retry)", stub.callCount())
	}
}

func TestRetryClient_RequestSpacing(t *testing.T) {
	var starts []time.Time
	stub := &stubClient{fn: func(_ context.Context, _ int) (*Result, error) {
		starts = append(starts, time.Now())
		return &Result{Text: "ok"}, nil
	}}
	cfg := fastRetryConfig(0)
	cfg.MinInterval = 50 * time.Millisecond
	client := NewRetryClient(stub, cfg)

	ctx := context.Background()
	if _, err := client.Generate(ctx, Request{}); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if _, err := client.Generate(ctx, Request{}); err != nil {
		t.Fatalf("second request failed: %v", err)
	}

	if len(starts) != 2 {
		t.Fatalf("calls = %d, want 2", len(starts))
	}
	gap := starts[1].Sub(starts[0])
	if gap < 40*time.Millisecond {
		t.Errorf("gap between requests = %v, want at least ~50ms", gap)
	}
}

func TestRetryClient_BackoffBounds(t *testing.T) {
	client := NewRetryClient(nil, RetryConfig{
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  400 * time.Millisecond,
	})

	tests := []struct {
		attempt int
		max     time.Duration
	}{
		{attempt: 1, max: 100 * time.Millisecond},
		{attempt: 2, max: 200 * time.Millisecond},
		{attempt: 3, max: 400 * time.Millisecond},
		{attempt: 4, max: 400 * time.Millisecond}, // capped
		{attempt: 10, max: 400 * time.Millisecond},
	}
	for _, tt := range tests {
		for range 20 {
			got := client.backoff(tt.attempt)
			if got < tt.max/2 || got > tt.max {
				t.Errorf("backoff(%d) = %v, want in [%v, %v]", tt.attempt, got, tt.max/2, tt.max)
			}
		}
	}
}

func TestRetryableStatus(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{code: 408, want: true},
		{code: 429, want: true},
		{code: 500, want: true},
		{code: 503, want: true},
		{code: 529, want: true},
		{code: 400, want: false},
		{code: 401, want: false},
		{code: 404, want: false},
	}
	for _, tt := range tests {
		if got := retryableStatus(tt.code); got != tt.want {
			t.Errorf("retryableStatus(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestTransientTransport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, want: true},
		{name: "unexpected EOF", err: io.ErrUnexpectedEOF, want: true},
		{name: "EOF", err: io.EOF, want: true},
		{name: "connection reset", err: syscall.ECONNRESET, want: true},
		{name: "broken pipe", err: syscall.EPIPE, want: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "wrapped reset", err: rerrors.NewProviderError("send request", syscall.ECONNRESET), want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transientTransport(tt.err); got != tt.want {
				t.Errorf("transientTransport(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
