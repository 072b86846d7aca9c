// Package models contains the core domain types shared by every consensus
// strategy: raw model answers, ranking results, and the council debate
// records. Types here are plain value records with no behavior beyond
// small accessors; strategies own all logic.
package models

import "time"

// ModelResponse is one model's raw answer to the original prompt. The
// caller creates these before invoking the engine; the engine never
// mutates them. ModelID must be unique within one call.
type ModelResponse struct {
	ModelID   string `json:"model_id"`
	ModelName string `json:"model_name"`
	Content   string `json:"content"`
}

// RankingResult scores one response. Rank is 1-based and dense; every
// ranking call produces exactly one result per input response and nothing
// is carried between calls.
type RankingResult struct {
	ModelID string  `json:"model_id"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
}

// GenerationOptions tune a single model call. A nil options pointer means
// provider defaults.
type GenerationOptions struct {
	Temperature float64 `json:"temperature"`
	Seed        *int64  `json:"seed,omitempty"`
}

// Critique is one participant's critique of another participant's initial
// answer. Branches are referenced by model ID only, never by pointer.
type Critique struct {
	CriticModelID string `json:"critic_model_id"`
	TargetModelID string `json:"target_model_id"`
	Content       string `json:"content"`
}

// Rebuttal is a branch's response to the critiques it received. A branch
// that received no critiques has no rebuttal.
type Rebuttal struct {
	AuthorModelID string `json:"author_model_id"`
	Content       string `json:"content"`
}

// BranchVote is one participant's validity judgment on one branch.
// Unparseable judge output degrades to IsValid=true with empty reasoning.
type BranchVote struct {
	VoterModelID  string `json:"voter_model_id"`
	BranchModelID string `json:"branch_model_id"`
	IsValid       bool   `json:"is_valid"`
	Reasoning     string `json:"reasoning"`
}

// CouncilBranch is the full state of one participant's position through a
// council debate. One branch is created per input response at debate
// start, mutated in place through each phase, and discarded with the tree
// at the end of the call.
type CouncilBranch struct {
	ModelID        string       `json:"model_id"`
	ModelName      string       `json:"model_name"`
	InitialAnswer  string       `json:"initial_answer"`
	Critiques      []Critique   `json:"critiques,omitempty"`
	Rebuttal       *Rebuttal    `json:"rebuttal,omitempty"`
	Votes          []BranchVote `json:"votes,omitempty"`
	ValidVoteCount int          `json:"valid_vote_count"`
	IsValid        bool         `json:"is_valid"`
	EloScore       float64      `json:"elo_score"`
	Rank           int          `json:"rank"`
}

// DebateMetadata records run-level facts about one council debate.
// ValidCount is the number of branches that passed the validity vote; it
// can be smaller than the working set carried into the rating phase when
// the all-invalid fallback fired (then it is 0).
type DebateMetadata struct {
	DebateID   string        `json:"debate_id"`
	ModelCount int           `json:"model_count"`
	ValidCount int           `json:"valid_count"`
	Threshold  float64       `json:"threshold"`
	TopK       int           `json:"top_k"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
}

// CouncilDebateTree is the complete record of one debate run. Branches is
// a flat map keyed by model ID; ValidSet lists, in original input order,
// the model IDs carried into the Elo phase after filtering (or all of
// them when the validity fallback fired).
type CouncilDebateTree struct {
	Prompt   string                    `json:"prompt"`
	Branches map[string]*CouncilBranch `json:"branches"`
	ValidSet []string                  `json:"valid_set"`
	Ranking  []RankingResult           `json:"ranking"`
	Summary  string                    `json:"summary"`
	Metadata DebateMetadata            `json:"metadata"`
}

// Branch returns the branch for a model ID, or nil if absent.
func (t *CouncilDebateTree) Branch(modelID string) *CouncilBranch {
	if t == nil || t.Branches == nil {
		return nil
	}
	return t.Branches[modelID]
}
