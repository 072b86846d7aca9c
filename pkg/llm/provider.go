// Package llm defines the provider collaborator contract consumed by the
// consensus strategies, plus the single adapter that turns a streamed
// completion into one awaited call. Transport, credentials, retries and
// timeouts all live on the provider side; this layer issues at most one
// attempt per call.
package llm

import (
	"context"
	"fmt"
	"strings"

	"digital.vasic.consensus/pkg/models"
)

// Request describes one model call.
type Request struct {
	Model   string                    `json:"model"`
	Prompt  string                    `json:"prompt"`
	Options *models.GenerationOptions `json:"options,omitempty"`
}

// StreamChunk is one element of a completion stream. Chunks carry content
// deltas; the terminal chunk has Done=true and, on failure, a non-nil Err.
type StreamChunk struct {
	Content string
	Done    bool
	Err     error
}

// Provider submits a prompt to a named model and streams text back. The
// returned channel is closed after the terminal chunk.
type Provider interface {
	CompleteStream(ctx context.Context, req *Request) (<-chan *StreamChunk, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, req *Request) (<-chan *StreamChunk, error)

// CompleteStream implements Provider.
func (f ProviderFunc) CompleteStream(ctx context.Context, req *Request) (<-chan *StreamChunk, error) {
	return f(ctx, req)
}

// Complete drains a provider stream into one awaited result. It returns
// the concatenated chunk contents, or the stream's error if the terminal
// chunk carried one. Every strategy funnels its model calls through here.
func Complete(ctx context.Context, p Provider, req *Request) (string, error) {
	modelCalls.Inc()

	ch, err := p.CompleteStream(ctx, req)
	if err != nil {
		modelCallFailures.Inc()
		return "", fmt.Errorf("model call failed: %w", err)
	}

	var sb strings.Builder
	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				return sb.String(), nil
			}
			if chunk == nil {
				continue
			}
			if chunk.Err != nil {
				modelCallFailures.Inc()
				return "", fmt.Errorf("model call failed: %w", chunk.Err)
			}
			sb.WriteString(chunk.Content)
			if chunk.Done {
				return sb.String(), nil
			}
		case <-ctx.Done():
			modelCallFailures.Inc()
			return "", ctx.Err()
		}
	}
}

// ModelRef names a model on a provider. Strategies hold one ModelRef per
// role (judge, summarizer) and per council participant.
type ModelRef struct {
	Provider Provider
	Model    string
}

// Complete issues one awaited call against the referenced model.
func (r ModelRef) Complete(ctx context.Context, prompt string, opts *models.GenerationOptions) (string, error) {
	if r.Provider == nil {
		return "", fmt.Errorf("no provider configured for model %q", r.Model)
	}
	return Complete(ctx, r.Provider, &Request{Model: r.Model, Prompt: prompt, Options: opts})
}
