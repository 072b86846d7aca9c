package strategy

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"digital.vasic.consensus/pkg/llm"
	"digital.vasic.consensus/pkg/models"
	"digital.vasic.consensus/pkg/prompts"
)

// MajorityMinResponses is the minimum response count for majority voting.
const MajorityMinResponses = 2

// MajorityVotingConfig configures the majority-voting strategy.
type MajorityVotingConfig struct {
	Judge       llm.ModelRef
	Summarizer  llm.ModelRef
	DefaultTopK int
}

func (c *MajorityVotingConfig) applyDefaults() {
	if c.DefaultTopK == 0 {
		c.DefaultTopK = 3
	}
}

// MajorityVoting ranks all responses in a single judge call. Responses
// are anonymized behind Response-N labels and scored 0-100 by alignment
// with the perceived majority position. Judge or parse failures degrade
// to a fully deterministic fallback ranking rather than an error.
type MajorityVoting struct {
	cfg    MajorityVotingConfig
	logger *logrus.Logger
}

// NewMajorityVoting creates the majority-voting strategy.
func NewMajorityVoting(cfg MajorityVotingConfig, logger *logrus.Logger) (*MajorityVoting, error) {
	if err := validateJudge("majority-voting", cfg.Judge); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &MajorityVoting{cfg: cfg, logger: ensureLogger(logger)}, nil
}

// Name implements Strategy.
func (m *MajorityVoting) Name() string { return "majority-voting" }

// Rank implements Strategy.
func (m *MajorityVoting) Rank(ctx context.Context, responses []models.ModelResponse, prompt string) ([]models.RankingResult, error) {
	if err := checkMinResponses("majority voting", MajorityMinResponses, responses); err != nil {
		return nil, err
	}

	labeled, byLabel := prompts.Anonymize(responses)

	out, err := m.cfg.Judge.Complete(ctx, prompts.MajorityRanking(prompt, labeled), nil)
	if err != nil {
		m.logger.Warnf("Majority ranking call failed, using fallback ranking: %v", err)
		return m.fallbackRanking(responses), nil
	}

	payload, err := prompts.ParseRankings(out)
	if err != nil {
		m.logger.Warnf("Majority ranking output unparseable, using fallback ranking: %v", err)
		return m.fallbackRanking(responses), nil
	}

	return m.resolveRankings(responses, byLabel, payload), nil
}

// resolveRankings maps the judge's anonymized entries back to real model
// IDs, clamps scores into [0,100], drops unknown labels, keeps the first
// instance of a duplicated label and appends any response the judge
// omitted with score 0.
func (m *MajorityVoting) resolveRankings(responses []models.ModelResponse, byLabel map[string]string, payload *prompts.RankingPayload) []models.RankingResult {
	known := make(map[string]bool, len(responses))
	for _, r := range responses {
		known[r.ModelID] = true
	}

	seen := make(map[string]bool, len(responses))
	results := make([]models.RankingResult, 0, len(responses))

	for _, entry := range payload.Rankings {
		id, ok := byLabel[entry.ModelID]
		if !ok && known[entry.ModelID] {
			// Some judges echo the real ID despite anonymization.
			id, ok = entry.ModelID, true
		}
		if !ok {
			m.logger.WithFields(logrus.Fields{"model_id": entry.ModelID}).Warn("Dropping ranking entry for unknown ID")
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		results = append(results, models.RankingResult{ModelID: id, Score: clampScore(entry.AlignmentScore)})
	}

	for _, r := range responses {
		if !seen[r.ModelID] {
			results = append(results, models.RankingResult{ModelID: r.ModelID, Score: 0})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// fallbackRanking is fully deterministic: original input order, score 0,
// rank equal to position.
func (m *MajorityVoting) fallbackRanking(responses []models.ModelResponse) []models.RankingResult {
	results := make([]models.RankingResult, 0, len(responses))
	for i, r := range responses {
		results = append(results, models.RankingResult{ModelID: r.ModelID, Score: 0, Rank: i + 1})
	}
	return results
}

// Synthesize implements Strategy. The top candidates are presented to the
// summarizer in rank order, still anonymized, with earlier responses
// weighted more heavily.
func (m *MajorityVoting) Synthesize(ctx context.Context, responses []models.ModelResponse, topN int, prompt string) (string, error) {
	if err := checkMinResponses("majority voting", MajorityMinResponses, responses); err != nil {
		return "", err
	}

	ranking, err := m.Rank(ctx, responses, prompt)
	if err != nil {
		return "", err
	}

	n := effectiveTopN(topN, m.cfg.DefaultTopK, len(ranking))
	top := topResponses(responses, ranking, n)

	ranked, _ := prompts.Anonymize(top)
	out, err := m.cfg.Summarizer.Complete(ctx, prompts.WeightedSynthesis(prompt, ranked), nil)
	if err != nil {
		m.logger.Warnf("Synthesis call failed, returning fallback summary: %v", err)
		return FallbackSummary, nil
	}
	return out, nil
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

var _ Strategy = (*MajorityVoting)(nil)
