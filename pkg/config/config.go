// Package config loads the engine configuration from YAML, with
// ${ENV_VAR} substitution for credentials and sensible defaults for
// every tuning knob. The engine itself never reads files; callers load a
// config here and wire providers from it.
package config

import (
	"fmt"
	"os"
)

// Strategy names accepted in a config file.
const (
	StrategyStandard        = "standard"
	StrategyEloRanking      = "elo-ranking"
	StrategyMajorityVoting  = "majority-voting"
	StrategySelfConsistency = "self-consistency"
	StrategyCouncilDebate   = "council-debate"
)

// ModelConfig names one model role: which provider serves it and under
// what credentials. APIKey and BaseURL support ${ENV_VAR} placeholders.
type ModelConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
}

// ParticipantConfig binds a council participant's model ID to its
// provider-side model.
type ParticipantConfig struct {
	ModelID     string `yaml:"model_id"`
	ModelConfig `yaml:",inline"`
}

// EngineConfig is the full engine configuration.
type EngineConfig struct {
	Strategy          string              `yaml:"strategy"`
	Judge             ModelConfig         `yaml:"judge"`
	Summarizer        ModelConfig         `yaml:"summarizer"`
	Participants      []ParticipantConfig `yaml:"participants,omitempty"`
	KFactor           float64             `yaml:"k_factor"`
	InitialRating     float64             `yaml:"initial_rating"`
	TopK              int                 `yaml:"top_k"`
	ValidityThreshold float64             `yaml:"validity_threshold"`
	MaxParallelism    int64               `yaml:"max_parallelism"`
}

var knownStrategies = map[string]bool{
	StrategyStandard:        true,
	StrategyEloRanking:      true,
	StrategyMajorityVoting:  true,
	StrategySelfConsistency: true,
	StrategyCouncilDebate:   true,
}

// Validate checks the configuration for values the engine would reject.
func (c *EngineConfig) Validate() error {
	if !knownStrategies[c.Strategy] {
		return fmt.Errorf("unknown strategy: %q", c.Strategy)
	}
	if c.ValidityThreshold < 0 || c.ValidityThreshold > 1 {
		return fmt.Errorf("validity_threshold must be in [0,1], got %v", c.ValidityThreshold)
	}
	if c.KFactor < 0 {
		return fmt.Errorf("k_factor must not be negative, got %v", c.KFactor)
	}
	if c.TopK < 0 {
		return fmt.Errorf("top_k must not be negative, got %d", c.TopK)
	}
	if c.MaxParallelism < 0 {
		return fmt.Errorf("max_parallelism must not be negative, got %d", c.MaxParallelism)
	}
	if c.Strategy == StrategyCouncilDebate && len(c.Participants) == 0 {
		return fmt.Errorf("council-debate requires at least one participant")
	}
	seen := make(map[string]bool, len(c.Participants))
	for _, p := range c.Participants {
		if p.ModelID == "" {
			return fmt.Errorf("participant with empty model_id")
		}
		if seen[p.ModelID] {
			return fmt.Errorf("duplicate participant model_id: %q", p.ModelID)
		}
		seen[p.ModelID] = true
	}
	return nil
}

func (c *EngineConfig) applyDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyStandard
	}
	if c.KFactor == 0 {
		c.KFactor = 32
	}
	if c.InitialRating == 0 {
		c.InitialRating = 1200
	}
	if c.TopK == 0 {
		c.TopK = 3
	}
	if c.ValidityThreshold == 0 {
		c.ValidityThreshold = 0.5
	}
}

// substituteEnvVars expands ${VAR_NAME} placeholders in credential
// fields.
func (c *EngineConfig) substituteEnvVars() {
	expand := func(m *ModelConfig) {
		if m.APIKey != "" {
			m.APIKey = os.ExpandEnv(m.APIKey)
		}
		if m.BaseURL != "" {
			m.BaseURL = os.ExpandEnv(m.BaseURL)
		}
	}
	expand(&c.Judge)
	expand(&c.Summarizer)
	for i := range c.Participants {
		expand(&c.Participants[i].ModelConfig)
	}
}
