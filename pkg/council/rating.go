package council

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"digital.vasic.consensus/pkg/elo"
	"digital.vasic.consensus/pkg/models"
	"digital.vasic.consensus/pkg/prompts"
)

// Rating judges see anonymized candidates under these labels. Single
// letters are deliberately avoided: the winner parser's prose tolerance
// needs labels that cannot occur as ordinary words in judge output.
const (
	ratingLabelA = "Response-A"
	ratingLabelB = "Response-B"
)

// branchContent is what a rating judge sees for one branch: the initial
// answer plus any rebuttal the branch produced during the debate.
func branchContent(b *models.CouncilBranch) string {
	if b.Rebuttal == nil {
		return b.InitialAnswer
	}
	return b.InitialAnswer + "\n\nAuthor's rebuttal to critiques:\n" + b.Rebuttal.Content
}

// ratingRound runs the pairwise tournament over the working set. Unlike
// the standalone tournament strategies, every pairing is judged
// concurrently and the judge rotates through the full participant list by
// pairing index. Judges see anonymized Response-A/Response-B content;
// ties and failed calls
// leave both ratings unchanged. Verdicts are applied in pairing order
// after all calls settle, keeping the rating math deterministic.
//
// The returned ranking covers every input response: working-set branches
// by final rating first, then filtered-out branches in input order, with
// dense ranks across the whole list.
func (c *CouncilDebate) ratingRound(ctx context.Context, prompt string, parts []Participant, branches map[string]*models.CouncilBranch, order, validSet []string) []models.RankingResult {
	table := elo.NewTable(validSet, c.cfg.InitialRating, c.cfg.KFactor)
	pairs := elo.AllPairs(len(validSet))

	verdicts := make([]prompts.Verdict, len(pairs))
	c.fanOut(ctx, len(pairs), func(i int) {
		pair := pairs[i]
		a, b := branches[validSet[pair.A]], branches[validSet[pair.B]]
		judge := parts[i%len(parts)]

		judgePrompt := prompts.PairwiseJudge(prompt, ratingLabelA, branchContent(a), ratingLabelB, branchContent(b))
		out, err := judge.ref().Complete(ctx, judgePrompt, nil)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"judge":    judge.ModelID,
				"branch_a": a.ModelID,
				"branch_b": b.ModelID,
			}).Warnf("Rating call failed, leaving ratings unchanged: %v", err)
			return
		}
		verdicts[i] = prompts.ParseWinner(out, ratingLabelA, ratingLabelB)
	})

	for i, pair := range pairs {
		idA, idB := validSet[pair.A], validSet[pair.B]
		switch verdicts[i] {
		case prompts.VerdictA:
			table.Apply(idA, idB, 1, 0)
		case prompts.VerdictB:
			table.Apply(idA, idB, 0, 1)
		default:
			// Tie or no decision: no movement either way.
		}
	}

	inWorkingSet := make(map[string]bool, len(validSet))
	for _, id := range validSet {
		inWorkingSet[id] = true
	}

	ranking := make([]models.RankingResult, 0, len(order))
	for _, s := range table.Standings() {
		branches[s.ID].EloScore = s.Rating
		ranking = append(ranking, models.RankingResult{ModelID: s.ID, Score: s.Rating})
	}
	// Filtered-out branches rank below the working set, in input order,
	// at their untouched initial rating.
	for _, id := range order {
		if !inWorkingSet[id] {
			ranking = append(ranking, models.RankingResult{ModelID: id, Score: branches[id].EloScore})
		}
	}
	for i := range ranking {
		ranking[i].Rank = i + 1
		branches[ranking[i].ModelID].Rank = ranking[i].Rank
	}
	return ranking
}

// summarize hands the top-K branches of the final ranking to the
// summarizer. A failed call resolves to the fixed fallback string.
func (c *CouncilDebate) summarize(ctx context.Context, prompt string, branches map[string]*models.CouncilBranch, ranking []models.RankingResult, validSet []string, topK int) string {
	inWorkingSet := make(map[string]bool, len(validSet))
	for _, id := range validSet {
		inWorkingSet[id] = true
	}

	candidates := make([]prompts.LabeledResponse, 0, topK)
	for _, entry := range ranking {
		if len(candidates) == topK {
			break
		}
		if !inWorkingSet[entry.ModelID] {
			continue
		}
		candidates = append(candidates, prompts.LabeledResponse{
			Label:   fmt.Sprintf("Response-%d", len(candidates)+1),
			Content: branchContent(branches[entry.ModelID]),
		})
	}

	out, err := c.cfg.Summarizer.Complete(ctx, prompts.CouncilSynthesis(prompt, candidates), nil)
	if err != nil {
		c.logger.Warnf("Council synthesis call failed, returning fallback summary: %v", err)
		return FallbackSummary
	}
	return out
}
