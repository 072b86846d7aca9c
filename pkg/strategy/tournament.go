package strategy

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"digital.vasic.consensus/pkg/elo"
	"digital.vasic.consensus/pkg/llm"
	"digital.vasic.consensus/pkg/models"
	"digital.vasic.consensus/pkg/prompts"
)

// tournament holds the shared round-robin machinery behind the standard
// and elo-ranking strategies. Comparisons run strictly sequentially, one
// judge call at a time; only the council's rating phase judges pairs
// concurrently.
type tournament struct {
	judge         llm.ModelRef
	kFactor       float64
	initialRating float64
	// tieScore is the actual score applied to each side when the judge
	// declares no clear winner or the call fails. The standard strategy
	// uses 0, the dedicated elo-ranking strategy uses 0.5.
	tieScore  float64
	anonymize bool
	logger    *logrus.Logger
}

// run judges every unordered pair and returns the final ratings table.
// Ratings live only for the duration of this call.
func (t *tournament) run(ctx context.Context, responses []models.ModelResponse, prompt string) *elo.Table {
	ids := make([]string, 0, len(responses))
	for _, r := range responses {
		ids = append(ids, r.ModelID)
	}
	table := elo.NewTable(ids, t.initialRating, t.kFactor)

	for _, pair := range elo.AllPairs(len(responses)) {
		a, b := responses[pair.A], responses[pair.B]
		labelA, labelB := a.ModelID, b.ModelID
		if t.anonymize {
			labelA, labelB = "Response-A", "Response-B"
		}

		judgePrompt := prompts.PairwiseJudge(prompt, labelA, a.Content, labelB, b.Content)
		out, err := t.judge.Complete(ctx, judgePrompt, nil)
		verdict := prompts.VerdictNone
		if err != nil {
			t.logger.WithFields(logrus.Fields{
				"candidate_a": a.ModelID,
				"candidate_b": b.ModelID,
			}).Warnf("Judge call failed, treating comparison as a tie: %v", err)
		} else {
			verdict = prompts.ParseWinner(out, labelA, labelB)
		}

		switch verdict {
		case prompts.VerdictA:
			table.Apply(a.ModelID, b.ModelID, 1, 0)
		case prompts.VerdictB:
			table.Apply(a.ModelID, b.ModelID, 0, 1)
		default:
			table.Apply(a.ModelID, b.ModelID, t.tieScore, t.tieScore)
		}
	}

	return table
}

// rankFromTable converts final standings into ranking results, rank order
// first.
func rankFromTable(table *elo.Table) []models.RankingResult {
	standings := table.Standings()
	results := make([]models.RankingResult, 0, len(standings))
	for _, s := range standings {
		results = append(results, models.RankingResult{ModelID: s.ID, Score: s.Rating, Rank: s.Rank})
	}
	return results
}

// synthesizeTop ranks, selects the top candidates and asks the summarizer
// for one reconciled answer. A summarizer failure resolves to the fixed
// fallback string.
func synthesizeTop(ctx context.Context, s Strategy, summarizer llm.ModelRef, logger *logrus.Logger,
	responses []models.ModelResponse, topN, defaultK int, prompt string) (string, error) {

	ranking, err := s.Rank(ctx, responses, prompt)
	if err != nil {
		return "", err
	}

	n := effectiveTopN(topN, defaultK, len(ranking))
	top := topResponses(responses, ranking, n)

	out, err := summarizer.Complete(ctx, prompts.Synthesis(prompt, top), nil)
	if err != nil {
		logger.Warnf("Synthesis call failed, returning fallback summary: %v", err)
		return FallbackSummary, nil
	}
	return out, nil
}

func validateJudge(name string, judge llm.ModelRef) error {
	if judge.Provider == nil {
		return fmt.Errorf("%s: judge provider is required", name)
	}
	return nil
}
