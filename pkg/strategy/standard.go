package strategy

import (
	"context"

	"github.com/sirupsen/logrus"

	"digital.vasic.consensus/pkg/elo"
	"digital.vasic.consensus/pkg/llm"
	"digital.vasic.consensus/pkg/models"
)

// StandardMinResponses is the minimum response count for the standard
// consensus strategy.
const StandardMinResponses = 2

// StandardConfig configures the standard consensus strategy.
type StandardConfig struct {
	Judge         llm.ModelRef
	Summarizer    llm.ModelRef
	KFactor       float64
	InitialRating float64
	DefaultTopK   int
}

func (c *StandardConfig) applyDefaults() {
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

// Standard runs a sequential round-robin pairwise tournament with the
// configured judge. The judge sees the real model identifiers. A
// no-decision verdict applies 0/0 actual scores to both sides; this
// deliberately differs from the dedicated elo-ranking strategy's 0.5/0.5
// tie handling.
type Standard struct {
	cfg    StandardConfig
	logger *logrus.Logger
}

// NewStandard creates the standard consensus strategy. A nil logger
// discards log output.
func NewStandard(cfg StandardConfig, logger *logrus.Logger) (*Standard, error) {
	if err := validateJudge("standard", cfg.Judge); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &Standard{cfg: cfg, logger: ensureLogger(logger)}, nil
}

// Name implements Strategy.
func (s *Standard) Name() string { return "standard" }

// Rank implements Strategy.
func (s *Standard) Rank(ctx context.Context, responses []models.ModelResponse, prompt string) ([]models.RankingResult, error) {
	if err := checkMinResponses("standard consensus", StandardMinResponses, responses); err != nil {
		return nil, err
	}

	t := &tournament{
		judge:         s.cfg.Judge,
		kFactor:       s.cfg.KFactor,
		initialRating: s.cfg.InitialRating,
		tieScore:      0,
		anonymize:     false,
		logger:        s.logger,
	}
	table := t.run(ctx, responses, prompt)
	return rankFromTable(table), nil
}

// Synthesize implements Strategy.
func (s *Standard) Synthesize(ctx context.Context, responses []models.ModelResponse, topN int, prompt string) (string, error) {
	if err := checkMinResponses("standard consensus", StandardMinResponses, responses); err != nil {
		return "", err
	}
	return synthesizeTop(ctx, s, s.cfg.Summarizer, s.logger, responses, topN, s.cfg.DefaultTopK, prompt)
}

var _ Strategy = (*Standard)(nil)
