package provider

import (
	"context"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	rerrors "github.com/avandyck/rostrum/internal/errors"
)

// RetryConfig controls the retry behavior wrapped around a Client.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first failed attempt,
	// so a call makes at most MaxRetries+1 attempts.
	MaxRetries int
	// BaseDelay is the backoff before the first retry; it doubles per retry.
	BaseDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
	// MinInterval is the minimum spacing between request starts from this
	// client. Zero disables spacing.
	MinInterval time.Duration
	// AttemptTimeout bounds each attempt's wall-clock time, including
	// streaming. Zero disables the per-attempt deadline.
	AttemptTimeout time.Duration
}

// DefaultRetryConfig returns the standard retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		BaseDelay:      1 * time.Second,
		MaxDelay:       30 * time.Second,
		MinInterval:    1 * time.Second,
		AttemptTimeout: 120 * time.Second,
	}
}

// RetryClient wraps a Client with request spacing, exponential backoff with
// jitter, and a hard per-attempt timeout. One RetryClient represents one
// logical speaker; its spacing is independent of other clients.
type RetryClient struct {
	client Client
	cfg    RetryConfig

	mu          sync.Mutex
	lastRequest time.Time
}

// NewRetryClient wraps client with the given retry configuration.
func NewRetryClient(client Client, cfg RetryConfig) *RetryClient {
	return &RetryClient{
		client: client,
		cfg:    cfg,
	}
}

// Generate calls the wrapped client, retrying transient failures. Parent
// context cancellation stops the loop immediately; all other non-retryable
// errors propagate after the first attempt that produced them. Exhausting
// retries returns the last error.
func (r *RetryClient) Generate(ctx context.Context, req Request) (*Result, error) {
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := r.sleep(ctx, r.backoff(attempt)); err != nil {
				return nil, err
			}
		}
		if err := r.waitTurn(ctx); err != nil {
			return nil, err
		}

		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if r.cfg.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, r.cfg.AttemptTimeout)
		}

		r.noteRequest()
		result, err := r.client.Generate(attemptCtx, req)
		cancel()

		if err == nil {
			return result, nil
		}
		lastErr = err

		// Parent cancellation is fatal regardless of classification.
		// An expired attempt deadline leaves the parent context intact.
		if ctx.Err() != nil {
			return nil, lastErr
		}

		if !retryable(err) {
			return nil, lastErr
		}
	}

	// Annotate the final error with the attempt count when possible
	var perr *rerrors.ProviderError
	if rerrors.As(lastErr, &perr) {
		perr.WithAttempts(r.cfg.MaxRetries + 1)
	}
	return nil, lastErr
}

// waitTurn blocks until MinInterval has passed since the previous request
// start, or the context is done.
func (r *RetryClient) waitTurn(ctx context.Context) error {
	if r.cfg.MinInterval <= 0 {
		return nil
	}

	r.mu.Lock()
	var wait time.Duration
	if !r.lastRequest.IsZero() {
		if elapsed := time.Since(r.lastRequest); elapsed < r.cfg.MinInterval {
			wait = r.cfg.MinInterval - elapsed
		}
	}
	r.mu.Unlock()

	return r.sleep(ctx, wait)
}

// noteRequest records the current time as the latest request start.
func (r *RetryClient) noteRequest() {
	r.mu.Lock()
	r.lastRequest = time.Now()
	r.mu.Unlock()
}

// backoff returns the jittered delay before the given retry (1-based).
// The base delay doubles per retry up to the cap; jitter draws uniformly
// from [delay/2, delay].
func (r *RetryClient) backoff(attempt int) time.Duration {
	delay := r.cfg.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= r.cfg.MaxDelay {
			break
		}
	}
	if delay > r.cfg.MaxDelay {
		delay = r.cfg.MaxDelay
	}
	if delay <= 0 {
		return 0
	}

	half := delay / 2
	return half + time.Duration(rand.Int64N(int64(delay-half)+1))
}

// sleep waits for d or until the context is done, whichever comes first.
func (r *RetryClient) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryable reports whether an attempt error is worth retrying. Explicit
// classification on the error wins; otherwise the cause chain is inspected
// for transient transport failures.
func retryable(err error) bool {
	if rerrors.IsRetryable(err) {
		return true
	}
	return transientTransport(err)
}

// retryableStatus reports whether an HTTP status code indicates a transient
// condition: timeouts, rate limits, and server-side failures.
func retryableStatus(code int) bool {
	if code >= 500 {
		return true
	}
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
}

// transientTransport reports whether a transport-level failure is worth
// retrying: network timeouts, connection resets, truncated streams, and
// expired attempt deadlines.
func transientTransport(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if rerrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if rerrors.Is(err, io.ErrUnexpectedEOF) || rerrors.Is(err, io.EOF) {
		return true
	}
	if rerrors.Is(err, syscall.ECONNRESET) || rerrors.Is(err, syscall.EPIPE) {
		return true
	}
	if rerrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}
