// Package council implements the council-debate strategy: a strictly
// linear pipeline over one branch per input response.
//
//	Init → Critique → Rebuttal → Judgment → Filter → Elo → Summary → Done
//
// Critique, Judgment and the Elo tournament fan their model calls out
// concurrently and wait for every outcome, tolerating individual
// failures without aborting the phase. There are no retries: for N
// participants the pipeline already scales as N·(N−1) calls per fan-out
// phase.
package council

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"digital.vasic.consensus/pkg/elo"
	"digital.vasic.consensus/pkg/llm"
	"digital.vasic.consensus/pkg/models"
	"digital.vasic.consensus/pkg/strategy"
)

// Phase names the pipeline stages reported through the progress callback.
type Phase string

const (
	PhaseInit     Phase = "init"
	PhaseCritique Phase = "critique"
	PhaseRebuttal Phase = "rebuttal"
	PhaseJudgment Phase = "judgment"
	PhaseFilter   Phase = "filter"
	PhaseElo      Phase = "elo"
	PhaseSummary  Phase = "summary"
)

// ProgressFunc is invoked at the start (fraction 0) and end (fraction 1)
// of each phase. It is the only externally observable hook into the
// pipeline.
type ProgressFunc func(phase Phase, fraction float64)

const (
	// MinResponses is enforced on every public entry point.
	MinResponses = 3
	// DefaultValidityThreshold is the minimum fraction of valid votes a
	// branch needs to survive filtering. Exactly 50% passes.
	DefaultValidityThreshold = 0.5
	// DefaultTopK is the number of branches handed to the summarizer.
	DefaultTopK = 3
	// FallbackSummary is returned when the final synthesis call fails.
	FallbackSummary = "Failed to generate council summary."
)

// Participant binds a response's model ID to the provider handle and
// provider-side model identifier used for that model's debate calls.
type Participant struct {
	ModelID  string
	Model    string
	Provider llm.Provider
}

func (p Participant) ref() llm.ModelRef {
	return llm.ModelRef{Provider: p.Provider, Model: p.Model}
}

// Config configures a council debate instance.
type Config struct {
	Participants      []Participant
	Summarizer        llm.ModelRef
	ValidityThreshold float64
	TopK              int
	KFactor           float64
	InitialRating     float64
	// MaxParallelism caps in-flight model calls during fan-out phases.
	// Zero means unbounded, matching the pipeline's default behavior.
	MaxParallelism int64
	Progress       ProgressFunc
}

func (c *Config) applyDefaults() {
	if c.ValidityThreshold == 0 {
		c.ValidityThreshold = DefaultValidityThreshold
	}
	if c.TopK == 0 {
		c.TopK = DefaultTopK
	}
	if c.KFactor == 0 {
		c.KFactor = elo.DefaultK
	}
	if c.InitialRating == 0 {
		c.InitialRating = elo.InitialRating
	}
}

// CouncilDebate runs the debate pipeline. The instance caches the most
// recent debate tree for post-hoc inspection; the cache is overwritten by
// the next call, so concurrent in-flight calls on one instance must treat
// the per-call return value as authoritative.
type CouncilDebate struct {
	cfg    Config
	byID   map[string]Participant
	logger *logrus.Logger

	mu       sync.Mutex
	lastTree *models.CouncilDebateTree
}

// New creates a council-debate strategy. Every response passed to a later
// call must have a configured participant. A nil logger discards output.
func New(cfg Config, logger *logrus.Logger) (*CouncilDebate, error) {
	if len(cfg.Participants) == 0 {
		return nil, fmt.Errorf("council: at least one participant is required")
	}
	if cfg.Summarizer.Provider == nil {
		return nil, fmt.Errorf("council: summarizer provider is required")
	}
	cfg.applyDefaults()

	byID := make(map[string]Participant, len(cfg.Participants))
	for _, p := range cfg.Participants {
		if p.Provider == nil {
			return nil, fmt.Errorf("council: participant %q has no provider", p.ModelID)
		}
		if _, dup := byID[p.ModelID]; dup {
			return nil, fmt.Errorf("council: duplicate participant %q", p.ModelID)
		}
		byID[p.ModelID] = p
	}

	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &CouncilDebate{cfg: cfg, byID: byID, logger: logger}, nil
}

// Name implements strategy.Strategy.
func (c *CouncilDebate) Name() string { return "council-debate" }

// Rank implements strategy.Strategy by running a full debate and
// returning its final ranking: one result per input response.
func (c *CouncilDebate) Rank(ctx context.Context, responses []models.ModelResponse, prompt string) ([]models.RankingResult, error) {
	tree, err := c.run(ctx, responses, prompt, 0)
	if err != nil {
		return nil, err
	}
	return tree.Ranking, nil
}

// Synthesize implements strategy.Strategy. A positive topN overrides the
// configured top-K for this call.
func (c *CouncilDebate) Synthesize(ctx context.Context, responses []models.ModelResponse, topN int, prompt string) (string, error) {
	tree, err := c.run(ctx, responses, prompt, topN)
	if err != nil {
		return "", err
	}
	return tree.Summary, nil
}

// Debate runs a full debate and returns the complete tree. This is the
// authoritative record of the run; LastTree is a convenience cache only.
func (c *CouncilDebate) Debate(ctx context.Context, responses []models.ModelResponse, prompt string) (*models.CouncilDebateTree, error) {
	return c.run(ctx, responses, prompt, 0)
}

// LastTree returns the tree of the most recent completed call, or nil.
// Overwritten by every call on this instance.
func (c *CouncilDebate) LastTree() *models.CouncilDebateTree {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTree
}

func (c *CouncilDebate) run(ctx context.Context, responses []models.ModelResponse, prompt string, topN int) (*models.CouncilDebateTree, error) {
	if len(responses) < MinResponses {
		return nil, &strategy.InsufficientResponsesError{Strategy: "council debate", Required: MinResponses, Got: len(responses)}
	}

	parts := make([]Participant, 0, len(responses))
	for _, r := range responses {
		p, ok := c.byID[r.ModelID]
		if !ok {
			return nil, fmt.Errorf("council: no participant configured for model %q", r.ModelID)
		}
		parts = append(parts, p)
	}

	start := time.Now()
	var (
		branches map[string]*models.CouncilBranch
		order    []string
	)

	c.phase(PhaseInit, func() {
		branches, order = c.initBranches(responses)
	})
	c.phase(PhaseCritique, func() {
		c.critiqueRound(ctx, prompt, parts, branches, order)
	})
	c.phase(PhaseRebuttal, func() {
		c.rebuttalRound(ctx, prompt, parts, branches, order)
	})
	c.phase(PhaseJudgment, func() {
		c.judgmentRound(ctx, prompt, parts, branches, order)
	})

	var validSet []string
	c.phase(PhaseFilter, func() {
		validSet = c.filterBranches(branches, order)
	})

	var ranking []models.RankingResult
	c.phase(PhaseElo, func() {
		ranking = c.ratingRound(ctx, prompt, parts, branches, order, validSet)
	})

	topK := effectiveTopK(topN, c.cfg.TopK, len(validSet))
	var summary string
	c.phase(PhaseSummary, func() {
		summary = c.summarize(ctx, prompt, branches, ranking, validSet, topK)
	})

	// ValidCount reflects the vote outcome, not the working-set size:
	// when the all-invalid fallback fires the two diverge.
	validCount := 0
	for _, id := range order {
		if branches[id].IsValid {
			validCount++
		}
	}

	end := time.Now()
	tree := &models.CouncilDebateTree{
		Prompt:   prompt,
		Branches: branches,
		ValidSet: validSet,
		Ranking:  ranking,
		Summary:  summary,
		Metadata: models.DebateMetadata{
			DebateID:   uuid.New().String(),
			ModelCount: len(responses),
			ValidCount: validCount,
			Threshold:  c.cfg.ValidityThreshold,
			TopK:       topK,
			StartTime:  start,
			EndTime:    end,
			Duration:   end.Sub(start),
		},
	}

	c.mu.Lock()
	c.lastTree = tree
	c.mu.Unlock()
	debatesTotal.Inc()

	c.logger.WithFields(logrus.Fields{
		"debate_id":   tree.Metadata.DebateID,
		"model_count": tree.Metadata.ModelCount,
		"valid_count": tree.Metadata.ValidCount,
		"duration":    tree.Metadata.Duration,
	}).Info("Council debate complete")

	return tree, nil
}

// phase wraps one pipeline stage with progress callbacks and duration
// logging.
func (c *CouncilDebate) phase(p Phase, fn func()) {
	if c.cfg.Progress != nil {
		c.cfg.Progress(p, 0)
	}
	start := time.Now()
	fn()
	c.logger.WithFields(logrus.Fields{
		"phase":    string(p),
		"duration": time.Since(start),
	}).Debug("Council phase complete")
	if c.cfg.Progress != nil {
		c.cfg.Progress(p, 1)
	}
}

// initBranches seeds one branch per response at the initial rating.
func (c *CouncilDebate) initBranches(responses []models.ModelResponse) (map[string]*models.CouncilBranch, []string) {
	branches := make(map[string]*models.CouncilBranch, len(responses))
	order := make([]string, 0, len(responses))
	for _, r := range responses {
		branches[r.ModelID] = &models.CouncilBranch{
			ModelID:       r.ModelID,
			ModelName:     r.ModelName,
			InitialAnswer: r.Content,
			EloScore:      c.cfg.InitialRating,
		}
		order = append(order, r.ModelID)
	}
	return branches, order
}

// filterBranches drops invalid branches. If that would empty the working
// set the filter is discarded and every branch is carried forward, while
// each branch's own IsValid flag keeps its computed value.
func (c *CouncilDebate) filterBranches(branches map[string]*models.CouncilBranch, order []string) []string {
	valid := make([]string, 0, len(order))
	for _, id := range order {
		if branches[id].IsValid {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		c.logger.Warn("All branches voted invalid, carrying full set into the rating phase")
		return append([]string(nil), order...)
	}
	return valid
}

func effectiveTopK(topN, defaultK, validCount int) int {
	k := topN
	if k <= 0 {
		k = defaultK
	}
	if k < 1 {
		k = 1
	}
	if k > validCount {
		k = validCount
	}
	return k
}

var _ strategy.Strategy = (*CouncilDebate)(nil)
