package llm

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkedProvider streams a fixed sequence of chunks.
func chunkedProvider(chunks ...*StreamChunk) Provider {
	return ProviderFunc(func(ctx context.Context, req *Request) (<-chan *StreamChunk, error) {
		ch := make(chan *StreamChunk, len(chunks))
		for _, c := range chunks {
			ch <- c
		}
		close(ch)
		return ch, nil
	})
}

func TestComplete_AccumulatesChunks(t *testing.T) {
	p := chunkedProvider(
		&StreamChunk{Content: "Hello, "},
		&StreamChunk{Content: "world"},
		&StreamChunk{Done: true},
	)

	out, err := Complete(context.Background(), p, &Request{Model: "m", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", out)
}

func TestComplete_ClosedWithoutDone(t *testing.T) {
	p := chunkedProvider(&StreamChunk{Content: "partial"})

	out, err := Complete(context.Background(), p, &Request{Model: "m", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "partial", out)
}

func TestComplete_StreamError(t *testing.T) {
	p := chunkedProvider(
		&StreamChunk{Content: "some text"},
		&StreamChunk{Done: true, Err: fmt.Errorf("provider exploded")},
	)

	_, err := Complete(context.Background(), p, &Request{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider exploded")
}

func TestComplete_OpenError(t *testing.T) {
	p := ProviderFunc(func(ctx context.Context, req *Request) (<-chan *StreamChunk, error) {
		return nil, fmt.Errorf("connection refused")
	})

	_, err := Complete(context.Background(), p, &Request{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestComplete_ContextCancelled(t *testing.T) {
	// A provider that never sends anything.
	p := ProviderFunc(func(ctx context.Context, req *Request) (<-chan *StreamChunk, error) {
		return make(chan *StreamChunk), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Complete(ctx, p, &Request{Model: "m", Prompt: "p"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModelRef_NoProvider(t *testing.T) {
	ref := ModelRef{Model: "orphan"}
	_, err := ref.Complete(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orphan")
}

func TestModelRef_Complete(t *testing.T) {
	var gotModel string
	p := ProviderFunc(func(ctx context.Context, req *Request) (<-chan *StreamChunk, error) {
		gotModel = req.Model
		ch := make(chan *StreamChunk, 1)
		ch <- &StreamChunk{Content: "ok", Done: true}
		close(ch)
		return ch, nil
	})

	ref := ModelRef{Provider: p, Model: "judge-1"}
	out, err := ref.Complete(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, "judge-1", gotModel)
}
