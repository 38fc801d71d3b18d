// Package testutil provides shared test doubles for rostrum tests.
//
// The doubles implement provider.Client so debate, store, and api tests can
// run complete sessions without a network. Clients are safe for concurrent
// use.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/avandyck/rostrum/internal/provider"
)

// GenerateFunc adapts a function into a provider.Client.
type GenerateFunc func(ctx context.Context, req provider.Request) (*provider.Result, error)

// Generate calls f.
func (f GenerateFunc) Generate(ctx context.Context, req provider.Request) (*provider.Result, error) {
	return f(ctx, req)
}

// StaticClient returns a client that always produces the given text. When the
// request carries an OnDelta callback the full text is delivered as a single
// delta before the result returns.
func StaticClient(text string) provider.Client {
	return GenerateFunc(func(_ context.Context, req provider.Request) (*provider.Result, error) {
		if req.OnDelta != nil {
			req.OnDelta(text)
		}
		return &provider.Result{Text: text, StopReason: "end_turn"}, nil
	})
}

// FailingClient returns a client that always fails with the given error.
func FailingClient(err error) provider.Client {
	return GenerateFunc(func(_ context.Context, _ provider.Request) (*provider.Result, error) {
		return nil, err
	})
}

// Reply is one scripted response: either Text or Err.
type Reply struct {
	Text string
	Err  error
}

// ScriptedClient replays a fixed sequence of replies and records every
// request it receives. Calls beyond the script fail, which keeps tests honest
// about how many provider calls a scenario makes.
type ScriptedClient struct {
	mu      sync.Mutex
	replies []Reply
	next    int
	calls   []provider.Request
}

// NewScriptedClient creates a client that responds with replies in order.
func NewScriptedClient(replies ...Reply) *ScriptedClient {
	return &ScriptedClient{replies: replies}
}

// Generate returns the next scripted reply.
func (c *ScriptedClient) Generate(_ context.Context, req provider.Request) (*provider.Result, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	if c.next >= len(c.replies) {
		n := c.next
		c.mu.Unlock()
		return nil, fmt.Errorf("testutil: unscripted call %d", n+1)
	}
	reply := c.replies[c.next]
	c.next++
	c.mu.Unlock()

	if reply.Err != nil {
		return nil, reply.Err
	}
	if req.OnDelta != nil {
		req.OnDelta(reply.Text)
	}
	return &provider.Result{Text: reply.Text, StopReason: "end_turn"}, nil
}

// CallCount returns how many times Generate has been invoked.
func (c *ScriptedClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Calls returns a copy of the recorded requests in order.
func (c *ScriptedClient) Calls() []provider.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]provider.Request, len(c.calls))
	copy(out, c.calls)
	return out
}

// SingleFactory returns a factory that hands the same client to every
// credential.
func SingleFactory(client provider.Client) provider.Factory {
	return func(_, _ string) (provider.Client, error) {
		return client, nil
	}
}

// KeyedFactory returns a factory that routes each API key to its own client,
// so a test can script the pro side, the con side, and each judge separately.
func KeyedFactory(clients map[string]provider.Client) provider.Factory {
	return func(apiKey, _ string) (provider.Client, error) {
		client, ok := clients[apiKey]
		if !ok {
			return nil, fmt.Errorf("testutil: no client for key %q", apiKey)
		}
		return client, nil
	}
}
