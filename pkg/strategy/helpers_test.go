package strategy

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"digital.vasic.consensus/pkg/llm"
	"digital.vasic.consensus/pkg/models"
)

func reply(text string) (<-chan *llm.StreamChunk, error) {
	ch := make(chan *llm.StreamChunk, 1)
	ch <- &llm.StreamChunk{Content: text, Done: true}
	close(ch)
	return ch, nil
}

// fixedProvider answers every call with the same text.
func fixedProvider(text string) llm.Provider {
	return llm.ProviderFunc(func(ctx context.Context, req *llm.Request) (<-chan *llm.StreamChunk, error) {
		return reply(text)
	})
}

// failingProvider rejects every call.
func failingProvider() llm.Provider {
	return llm.ProviderFunc(func(ctx context.Context, req *llm.Request) (<-chan *llm.StreamChunk, error) {
		return nil, fmt.Errorf("provider unavailable")
	})
}

// firstListedWinnerJudge always declares the first-listed candidate the
// winner by echoing the first WINNER line offered in the judge prompt.
// It also records how many calls ran and fails the run if two judge
// calls were ever in flight at once, asserting the tournaments stay
// strictly sequential.
type firstListedWinnerJudge struct {
	mu         sync.Mutex
	calls      int
	inFlight   int
	overlapped bool
}

func (j *firstListedWinnerJudge) CompleteStream(ctx context.Context, req *llm.Request) (<-chan *llm.StreamChunk, error) {
	j.mu.Lock()
	j.calls++
	j.inFlight++
	if j.inFlight > 1 {
		j.overlapped = true
	}
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.inFlight--
		j.mu.Unlock()
	}()

	idx := strings.Index(req.Prompt, "WINNER: ")
	if idx < 0 {
		return reply("no idea")
	}
	line := req.Prompt[idx:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	return reply(line)
}

func threeResponses() []models.ModelResponse {
	return []models.ModelResponse{
		{ModelID: "model-a", ModelName: "Model A", Content: "answer a"},
		{ModelID: "model-b", ModelName: "Model B", Content: "answer b"},
		{ModelID: "model-c", ModelName: "Model C", Content: "answer c"},
	}
}

func ranksOf(results []models.RankingResult) []int {
	ranks := make([]int, 0, len(results))
	for _, r := range results {
		ranks = append(ranks, r.Rank)
	}
	return ranks
}
