package strategy

import (
	"context"

	"github.com/sirupsen/logrus"

	"digital.vasic.consensus/pkg/elo"
	"digital.vasic.consensus/pkg/llm"
	"digital.vasic.consensus/pkg/models"
)

// EloRankingMinResponses is the minimum response count for the dedicated
// elo-ranking strategy.
const EloRankingMinResponses = 3

// EloRankingConfig configures the dedicated elo-ranking strategy.
type EloRankingConfig struct {
	Judge         llm.ModelRef
	Summarizer    llm.ModelRef
	KFactor       float64
	InitialRating float64
	DefaultTopK   int
}

func (c *EloRankingConfig) applyDefaults() {
	if c.KFactor == 0 {
		c.KFactor = elo.DefaultK
	}
	if c.InitialRating == 0 {
		c.InitialRating = elo.InitialRating
	}
	if c.DefaultTopK == 0 {
		c.DefaultTopK = 3
	}
}

// EloRanking runs the same sequential round-robin tournament as Standard
// with two differences: candidates are anonymized before the judge sees
// them, and a no-decision verdict applies standard ELO tie semantics,
// 0.5/0.5 actual scores for both sides.
type EloRanking struct {
	cfg    EloRankingConfig
	logger *logrus.Logger
}

// NewEloRanking creates the dedicated elo-ranking strategy.
func NewEloRanking(cfg EloRankingConfig, logger *logrus.Logger) (*EloRanking, error) {
	if err := validateJudge("elo-ranking", cfg.Judge); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &EloRanking{cfg: cfg, logger: ensureLogger(logger)}, nil
}

// Name implements Strategy.
func (e *EloRanking) Name() string { return "elo-ranking" }

// Rank implements Strategy.
func (e *EloRanking) Rank(ctx context.Context, responses []models.ModelResponse, prompt string) ([]models.RankingResult, error) {
	if err := checkMinResponses("elo ranking", EloRankingMinResponses, responses); err != nil {
		return nil, err
	}

	t := &tournament{
		judge:         e.cfg.Judge,
		kFactor:       e.cfg.KFactor,
		initialRating: e.cfg.InitialRating,
		tieScore:      0.5,
		anonymize:     true,
		logger:        e.logger,
	}
	table := t.run(ctx, responses, prompt)
	return rankFromTable(table), nil
}

// Synthesize implements Strategy.
func (e *EloRanking) Synthesize(ctx context.Context, responses []models.ModelResponse, topN int, prompt string) (string, error) {
	if err := checkMinResponses("elo ranking", EloRankingMinResponses, responses); err != nil {
		return "", err
	}
	return synthesizeTop(ctx, e, e.cfg.Summarizer, e.logger, responses, topN, e.cfg.DefaultTopK, prompt)
}

var _ Strategy = (*EloRanking)(nil)
