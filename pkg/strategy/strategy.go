// Package strategy implements the pluggable ranking-and-synthesis
// strategies: standard consensus, dedicated elo-ranking, majority voting
// and self-consistency. The council-debate strategy composes these
// building blocks and lives in pkg/council.
package strategy

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"digital.vasic.consensus/pkg/models"
)

// Strategy is the contract every consensus strategy fulfils. Rank
// produces exactly one result per input response with dense 1-based
// ranks. Synthesize selects the top candidates of a (possibly reused)
// ranking and asks a summarizer model for one final answer; summarizer
// failures resolve to a fixed fallback string instead of an error.
type Strategy interface {
	Name() string
	Rank(ctx context.Context, responses []models.ModelResponse, prompt string) ([]models.RankingResult, error)
	Synthesize(ctx context.Context, responses []models.ModelResponse, topN int, prompt string) (string, error)
}

// FallbackSummary is returned when final synthesis fails. Synthesis
// failures never propagate as errors.
const FallbackSummary = "Failed to generate summary."

// InsufficientResponsesError reports a call with fewer responses than the
// strategy's minimum. It is the only error a strategy's public entry
// points return for well-formed input.
type InsufficientResponsesError struct {
	Strategy string
	Required int
	Got      int
}

func (e *InsufficientResponsesError) Error() string {
	return fmt.Sprintf("%s requires at least %d responses, got %d", e.Strategy, e.Required, e.Got)
}

func checkMinResponses(name string, required int, responses []models.ModelResponse) error {
	if len(responses) < required {
		return &InsufficientResponsesError{Strategy: name, Required: required, Got: len(responses)}
	}
	return nil
}

// ensureLogger lets callers pass a nil logger without sprinkling nil
// checks through the strategies.
func ensureLogger(logger *logrus.Logger) *logrus.Logger {
	if logger != nil {
		return logger
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard
}

// effectiveTopN resolves the caller's topN against the strategy default
// and clamps it into [1, rankedCount].
func effectiveTopN(topN, defaultK, rankedCount int) int {
	n := topN
	if n <= 0 {
		n = defaultK
	}
	if n < 1 {
		n = 1
	}
	if n > rankedCount {
		n = rankedCount
	}
	return n
}

// topResponses maps the first n entries of a rank-ordered result list
// back to their responses, preserving rank order.
func topResponses(responses []models.ModelResponse, ranking []models.RankingResult, n int) []models.ModelResponse {
	byID := make(map[string]models.ModelResponse, len(responses))
	for _, r := range responses {
		byID[r.ModelID] = r
	}
	top := make([]models.ModelResponse, 0, n)
	for _, entry := range ranking[:n] {
		if r, ok := byID[entry.ModelID]; ok {
			top = append(top, r)
		}
	}
	return top
}
