package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RankingEntry is one scored entry of a majority-voting judge reply. The
// modelId field carries the anonymized label the judge was shown.
type RankingEntry struct {
	ModelID        string  `json:"modelId"`
	AlignmentScore float64 `json:"alignmentScore"`
}

// RankingPayload is the JSON object the majority-voting judge replies with.
type RankingPayload struct {
	Rankings []RankingEntry `json:"rankings"`
}

// VotePayload is the JSON object a council judgment voter replies with.
type VotePayload struct {
	IsValid   bool   `json:"isValid"`
	Reasoning string `json:"reasoning"`
}

// StripCodeFence removes a surrounding markdown code fence, with or
// without a language tag. Input without a fence passes through unchanged.
func StripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		// Drop the language tag line (e.g. "json").
		firstLine := strings.TrimSpace(trimmed[:nl])
		if firstLine == "" || !strings.ContainsAny(firstLine, " \t{[") {
			trimmed = trimmed[nl+1:]
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

// unmarshalTolerant tries the raw output, then the fence-stripped output,
// then the outermost brace-delimited substring.
func unmarshalTolerant(output string, v interface{}) error {
	if err := json.Unmarshal([]byte(output), v); err == nil {
		return nil
	}
	stripped := StripCodeFence(output)
	if err := json.Unmarshal([]byte(stripped), v); err == nil {
		return nil
	}
	start := strings.IndexByte(stripped, '{')
	end := strings.LastIndexByte(stripped, '}')
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(stripped[start:end+1]), v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no parseable JSON object in model output")
}

// ParseRankings parses a majority-voting judge reply, tolerating a
// markdown code fence around the JSON.
func ParseRankings(output string) (*RankingPayload, error) {
	var payload RankingPayload
	if err := unmarshalTolerant(output, &payload); err != nil {
		return nil, fmt.Errorf("parse rankings: %w", err)
	}
	if len(payload.Rankings) == 0 {
		return nil, fmt.Errorf("parse rankings: empty rankings list")
	}
	return &payload, nil
}

// ParseVote parses a council judgment reply, tolerating a markdown code
// fence. Callers translate a parse error into the lenient default vote.
func ParseVote(output string) (*VotePayload, error) {
	var payload VotePayload
	if err := unmarshalTolerant(output, &payload); err != nil {
		return nil, fmt.Errorf("parse vote: %w", err)
	}
	return &payload, nil
}
