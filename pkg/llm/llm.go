// Package llm provides minimal single-turn completion clients for the
// language models used by the analysis pipeline.
package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// Request is a single-turn completion request.
type Request struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Client performs one blocking completion per call. Implementations must be
// safe for concurrent use; parallel pipeline stages share one client.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Limit wraps a client with a request rate limiter. Each Complete call
// waits for a token before dispatching.
func Limit(c Client, rps float64, burst int) Client {
	if burst < 1 {
		burst = 1
	}
	return &limited{inner: c, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

type limited struct {
	inner   Client
	limiter *rate.Limiter
}

func (l *limited) Complete(ctx context.Context, req Request) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return l.inner.Complete(ctx, req)
}
