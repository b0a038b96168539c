package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	calls int
	out   string
	err   error
}

func (s *stubClient) Complete(ctx context.Context, req Request) (string, error) {
	s.calls++
	return s.out, s.err
}

func TestLimit_PassesThrough(t *testing.T) {
	stub := &stubClient{out: "answer"}
	client := Limit(stub, 100, 10)

	out, err := client.Complete(context.Background(), Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "answer", out)
	assert.Equal(t, 1, stub.calls)
}

func TestLimit_PropagatesError(t *testing.T) {
	stub := &stubClient{err: assert.AnError}
	client := Limit(stub, 100, 10)

	_, err := client.Complete(context.Background(), Request{Prompt: "q"})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestLimit_CanceledContext(t *testing.T) {
	stub := &stubClient{out: "answer"}
	// Zero rps means the limiter never grants a token, so only
	// cancellation can release the wait.
	client := Limit(stub, 0, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, Request{Prompt: "q"})
	require.Error(t, err)
	assert.Equal(t, 0, stub.calls)
}

func TestLimit_BurstFloor(t *testing.T) {
	stub := &stubClient{out: "x"}
	client := Limit(stub, 50, 0)

	_, err := client.Complete(context.Background(), Request{Prompt: "q"})
	require.NoError(t, err)
}
