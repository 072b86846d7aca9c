package strategy

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.consensus/pkg/elo"
	"digital.vasic.consensus/pkg/llm"
	"digital.vasic.consensus/pkg/models"
)

// recordingProvider captures every prompt it receives and answers with a
// fixed reply.
type recordingProvider struct {
	mu      sync.Mutex
	prompts []string
	answer  string
}

func (p *recordingProvider) CompleteStream(ctx context.Context, req *llm.Request) (<-chan *llm.StreamChunk, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, req.Prompt)
	p.mu.Unlock()
	return reply(p.answer)
}

// =========================================================================
// Standard strategy
// =========================================================================

func TestStandardRankProducesStrictOrder(t *testing.T) {
	judge := &firstListedWinnerJudge{}
	s, err := NewStandard(StandardConfig{
		Judge: llm.ModelRef{Provider: judge, Model: "judge"},
	}, nil)
	require.NoError(t, err)

	ranking, err := s.Rank(context.Background(), threeResponses(), "question")
	require.NoError(t, err)
	require.Len(t, ranking, 3)

	// First-listed always wins, so the input order becomes the final
	// order with strictly decreasing ratings.
	assert.Equal(t, "model-a", ranking[0].ModelID)
	assert.Equal(t, "model-b", ranking[1].ModelID)
	assert.Equal(t, "model-c", ranking[2].ModelID)
	assert.Equal(t, []int{1, 2, 3}, ranksOf(ranking))
	assert.Greater(t, ranking[0].Score, ranking[1].Score)
	assert.Greater(t, ranking[1].Score, ranking[2].Score)

	// Round-robin over three candidates is exactly three comparisons.
	assert.Equal(t, 3, judge.calls)
}

func TestStandardJudgingIsSequential(t *testing.T) {
	judge := &firstListedWinnerJudge{}
	s, err := NewStandard(StandardConfig{
		Judge: llm.ModelRef{Provider: judge, Model: "judge"},
	}, nil)
	require.NoError(t, err)

	responses := append(threeResponses(), models.ModelResponse{
		ModelID: "model-d", ModelName: "Model D", Content: "answer d",
	})
	_, err = s.Rank(context.Background(), responses, "question")
	require.NoError(t, err)

	assert.Equal(t, 6, judge.calls)
	assert.False(t, judge.overlapped, "pairwise judge calls must not overlap")
}

func TestStandardJudgeSeesRealModelIDs(t *testing.T) {
	judge := &recordingProvider{answer: "WINNER: TIE"}
	s, err := NewStandard(StandardConfig{
		Judge: llm.ModelRef{Provider: judge, Model: "judge"},
	}, nil)
	require.NoError(t, err)

	_, err = s.Rank(context.Background(), threeResponses()[:2], "question")
	require.NoError(t, err)

	require.Len(t, judge.prompts, 1)
	assert.Contains(t, judge.prompts[0], "Candidate model-a:")
	assert.Contains(t, judge.prompts[0], "Candidate model-b:")
}

func TestStandardTiePullsBothRatingsDown(t *testing.T) {
	judge := fixedProvider("WINNER: TIE")
	s, err := NewStandard(StandardConfig{
		Judge: llm.ModelRef{Provider: judge, Model: "judge"},
	}, nil)
	require.NoError(t, err)

	ranking, err := s.Rank(context.Background(), threeResponses()[:2], "question")
	require.NoError(t, err)
	require.Len(t, ranking, 2)

	// A tie scores 0/0 here, so both sides lose rating equally and keep
	// their input order.
	assert.Equal(t, "model-a", ranking[0].ModelID)
	assert.Equal(t, "model-b", ranking[1].ModelID)
	assert.Equal(t, ranking[0].Score, ranking[1].Score)
	assert.Less(t, ranking[0].Score, elo.InitialRating)
}

func TestStandardJudgeFailureCountsAsTie(t *testing.T) {
	s, err := NewStandard(StandardConfig{
		Judge: llm.ModelRef{Provider: failingProvider(), Model: "judge"},
	}, nil)
	require.NoError(t, err)

	ranking, err := s.Rank(context.Background(), threeResponses()[:2], "question")
	require.NoError(t, err)
	require.Len(t, ranking, 2)
	assert.Equal(t, ranking[0].Score, ranking[1].Score)
	assert.Less(t, ranking[0].Score, elo.InitialRating)
}

func TestStandardRequiresTwoResponses(t *testing.T) {
	s, err := NewStandard(StandardConfig{
		Judge: llm.ModelRef{Provider: fixedProvider("WINNER: TIE"), Model: "judge"},
	}, nil)
	require.NoError(t, err)

	_, err = s.Rank(context.Background(), threeResponses()[:1], "question")
	var insufficient *InsufficientResponsesError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Required)
	assert.Equal(t, 1, insufficient.Got)
}

func TestStandardRequiresJudgeProvider(t *testing.T) {
	_, err := NewStandard(StandardConfig{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "judge provider is required")
}

func TestStandardSynthesizeUsesTopCandidates(t *testing.T) {
	judge := &firstListedWinnerJudge{}
	summarizer := &recordingProvider{answer: "final answer"}
	s, err := NewStandard(StandardConfig{
		Judge:      llm.ModelRef{Provider: judge, Model: "judge"},
		Summarizer: llm.ModelRef{Provider: summarizer, Model: "summarizer"},
	}, nil)
	require.NoError(t, err)

	out, err := s.Synthesize(context.Background(), threeResponses(), 1, "question")
	require.NoError(t, err)
	assert.Equal(t, "final answer", out)

	require.Len(t, summarizer.prompts, 1)
	assert.Contains(t, summarizer.prompts[0], "answer a")
	assert.NotContains(t, summarizer.prompts[0], "answer b")
	assert.NotContains(t, summarizer.prompts[0], "answer c")
}

func TestStandardSynthesizeFallsBackOnSummarizerFailure(t *testing.T) {
	judge := &firstListedWinnerJudge{}
	s, err := NewStandard(StandardConfig{
		Judge:      llm.ModelRef{Provider: judge, Model: "judge"},
		Summarizer: llm.ModelRef{Provider: failingProvider(), Model: "summarizer"},
	}, nil)
	require.NoError(t, err)

	out, err := s.Synthesize(context.Background(), threeResponses(), 0, "question")
	require.NoError(t, err)
	assert.Equal(t, FallbackSummary, out)
}

// =========================================================================
// Elo-ranking strategy
// =========================================================================

func TestEloRankingAnonymizesCandidates(t *testing.T) {
	judge := &recordingProvider{answer: "WINNER: TIE"}
	e, err := NewEloRanking(EloRankingConfig{
		Judge: llm.ModelRef{Provider: judge, Model: "judge"},
	}, nil)
	require.NoError(t, err)

	_, err = e.Rank(context.Background(), threeResponses(), "question")
	require.NoError(t, err)

	require.Len(t, judge.prompts, 3)
	for _, p := range judge.prompts {
		assert.Contains(t, p, "Candidate Response-A:")
		assert.Contains(t, p, "Candidate Response-B:")
		assert.NotContains(t, p, "model-a")
		assert.NotContains(t, p, "model-b")
		assert.NotContains(t, p, "model-c")
	}
}

func TestEloRankingTieKeepsRatingsUnchanged(t *testing.T) {
	e, err := NewEloRanking(EloRankingConfig{
		Judge: llm.ModelRef{Provider: fixedProvider("WINNER: TIE"), Model: "judge"},
	}, nil)
	require.NoError(t, err)

	ranking, err := e.Rank(context.Background(), threeResponses(), "question")
	require.NoError(t, err)
	require.Len(t, ranking, 3)

	// A 0.5/0.5 tie between equally rated sides is a no-op, so everyone
	// finishes at the initial rating in input order.
	for i, r := range ranking {
		assert.InDelta(t, elo.InitialRating, r.Score, 1e-9)
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, "model-a", ranking[0].ModelID)
	assert.Equal(t, "model-b", ranking[1].ModelID)
	assert.Equal(t, "model-c", ranking[2].ModelID)
}

func TestEloRankingDecisiveWinnerRanksFirst(t *testing.T) {
	judge := &firstListedWinnerJudge{}
	e, err := NewEloRanking(EloRankingConfig{
		Judge: llm.ModelRef{Provider: judge, Model: "judge"},
	}, nil)
	require.NoError(t, err)

	ranking, err := e.Rank(context.Background(), threeResponses(), "question")
	require.NoError(t, err)

	assert.Equal(t, "model-a", ranking[0].ModelID)
	assert.Equal(t, 1, ranking[0].Rank)
	assert.Equal(t, 3, judge.calls)
	assert.False(t, judge.overlapped)
}

func TestEloRankingRequiresThreeResponses(t *testing.T) {
	e, err := NewEloRanking(EloRankingConfig{
		Judge: llm.ModelRef{Provider: fixedProvider("WINNER: TIE"), Model: "judge"},
	}, nil)
	require.NoError(t, err)

	_, err = e.Rank(context.Background(), threeResponses()[:2], "question")
	var insufficient *InsufficientResponsesError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 3, insufficient.Required)
	assert.Equal(t, 2, insufficient.Got)
}

func TestEloRankingSynthesizeFallsBackOnSummarizerFailure(t *testing.T) {
	e, err := NewEloRanking(EloRankingConfig{
		Judge:      llm.ModelRef{Provider: fixedProvider("WINNER: TIE"), Model: "judge"},
		Summarizer: llm.ModelRef{Provider: failingProvider(), Model: "summarizer"},
	}, nil)
	require.NoError(t, err)

	out, err := e.Synthesize(context.Background(), threeResponses(), 0, "question")
	require.NoError(t, err)
	assert.Equal(t, FallbackSummary, out)
}
