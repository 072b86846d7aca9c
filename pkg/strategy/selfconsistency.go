package strategy

import (
	"context"

	"github.com/sirupsen/logrus"

	"digital.vasic.consensus/pkg/models"
)

// SelfConsistencyMinResponses is the minimum response count for
// self-consistency; a single response ranks and synthesizes trivially.
const SelfConsistencyMinResponses = 1

// Extractor maps a response's free text to a canonical short answer. The
// second return is false when no canonical answer can be extracted.
type Extractor func(content string) (string, bool)

// SelfConsistency ranks by answer frequency without any model calls. Each
// response's score is the number of responses sharing its canonical
// answer; its rank is that answer's position in descending-frequency
// order, so responses sharing an answer share a rank. Unextractable
// responses rank last with score 0.
type SelfConsistency struct {
	extract Extractor
	logger  *logrus.Logger
}

// NewSelfConsistency creates the self-consistency strategy. A nil
// extractor treats every response as unextractable.
func NewSelfConsistency(extract Extractor, logger *logrus.Logger) *SelfConsistency {
	if extract == nil {
		extract = func(string) (string, bool) { return "", false }
	}
	return &SelfConsistency{extract: extract, logger: ensureLogger(logger)}
}

// Name implements Strategy.
func (s *SelfConsistency) Name() string { return "self-consistency" }

// tally counts canonical answers, remembering first-seen order so that
// frequency ties resolve deterministically.
func (s *SelfConsistency) tally(responses []models.ModelResponse) (canonical []string, extracted []bool, counts map[string]int, order []string) {
	canonical = make([]string, len(responses))
	extracted = make([]bool, len(responses))
	counts = make(map[string]int)

	for i, r := range responses {
		answer, ok := s.extract(r.Content)
		canonical[i], extracted[i] = answer, ok
		if !ok {
			continue
		}
		if _, seen := counts[answer]; !seen {
			order = append(order, answer)
		}
		counts[answer]++
	}
	return canonical, extracted, counts, order
}

// frequencyOrder sorts canonical answers by descending count, stable by
// first appearance, and returns each answer's 1-based position.
func frequencyOrder(counts map[string]int, order []string) map[string]int {
	sorted := make([]string, len(order))
	copy(sorted, order)
	// Insertion sort keeps first-seen order among equal counts.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && counts[sorted[j]] > counts[sorted[j-1]]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	positions := make(map[string]int, len(sorted))
	for i, answer := range sorted {
		positions[answer] = i + 1
	}
	return positions
}

// Rank implements Strategy. No model calls are made.
func (s *SelfConsistency) Rank(_ context.Context, responses []models.ModelResponse, _ string) ([]models.RankingResult, error) {
	if err := checkMinResponses("self consistency", SelfConsistencyMinResponses, responses); err != nil {
		return nil, err
	}

	canonical, extracted, counts, order := s.tally(responses)
	positions := frequencyOrder(counts, order)
	lastRank := len(positions) + 1

	results := make([]models.RankingResult, 0, len(responses))
	for i, r := range responses {
		if !extracted[i] {
			results = append(results, models.RankingResult{ModelID: r.ModelID, Score: 0, Rank: lastRank})
			continue
		}
		answer := canonical[i]
		results = append(results, models.RankingResult{
			ModelID: r.ModelID,
			Score:   float64(counts[answer]),
			Rank:    positions[answer],
		})
	}
	return results, nil
}

// Synthesize implements Strategy. It returns the content of the first
// response whose canonical answer has the highest count; frequency ties
// resolve by first appearance. When nothing is extractable it returns the
// first response's raw content verbatim. The topN parameter is unused:
// there is no summarizer call to narrow candidates for.
func (s *SelfConsistency) Synthesize(_ context.Context, responses []models.ModelResponse, _ int, _ string) (string, error) {
	if err := checkMinResponses("self consistency", SelfConsistencyMinResponses, responses); err != nil {
		return "", err
	}

	canonical, extracted, counts, order := s.tally(responses)
	if len(order) == 0 {
		s.logger.Warn("No extractable answers, returning first response verbatim")
		return responses[0].Content, nil
	}

	winner := order[0]
	best := counts[winner]
	for _, answer := range order[1:] {
		if counts[answer] > best {
			winner, best = answer, counts[answer]
		}
	}

	for i, r := range responses {
		if extracted[i] && canonical[i] == winner {
			return r.Content, nil
		}
	}
	return responses[0].Content, nil
}

var _ Strategy = (*SelfConsistency)(nil)
