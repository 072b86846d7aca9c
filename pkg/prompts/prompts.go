// Package prompts holds the pure prompt builders and output parsers used
// by the consensus strategies. Nothing here calls a model or keeps state;
// every function maps inputs to a string or a parsed value.
package prompts

import (
	"fmt"
	"strings"

	"digital.vasic.consensus/pkg/models"
)

// LabeledResponse pairs an anonymized label with a response body.
type LabeledResponse struct {
	Label   string
	Content string
}

// Anonymize replaces real model identities with neutral Response-N labels
// to suppress identity bias in judge calls. The returned map resolves a
// label back to the real model ID.
func Anonymize(responses []models.ModelResponse) ([]LabeledResponse, map[string]string) {
	labeled := make([]LabeledResponse, 0, len(responses))
	byLabel := make(map[string]string, len(responses))
	for i, r := range responses {
		label := fmt.Sprintf("Response-%d", i+1)
		labeled = append(labeled, LabeledResponse{Label: label, Content: r.Content})
		byLabel[label] = r.ModelID
	}
	return labeled, byLabel
}

// PairwiseJudge builds the prompt for one head-to-head comparison. The
// judge must answer with an explicit WINNER token naming one of the two
// labels, or TIE when neither answer is clearly better.
func PairwiseJudge(prompt, labelA, contentA, labelB, contentB string) string {
	var sb strings.Builder
	sb.WriteString("You are judging two candidate answers to the same question.\n\n")
	sb.WriteString("Question:\n")
	sb.WriteString(prompt)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Candidate %s:\n%s\n\n", labelA, contentA)
	fmt.Fprintf(&sb, "Candidate %s:\n%s\n\n", labelB, contentB)
	sb.WriteString("Compare the candidates on correctness, completeness and clarity.\n")
	fmt.Fprintf(&sb, "Answer on the last line with exactly one of:\nWINNER: %s\nWINNER: %s\nWINNER: TIE\n", labelA, labelB)
	return sb.String()
}

// Verdict is the outcome of one pairwise judge call.
type Verdict int

const (
	// VerdictNone means no WINNER token could be parsed.
	VerdictNone Verdict = iota
	VerdictA
	VerdictB
	VerdictTie
)

// ParseWinner extracts the WINNER token from judge output. The last
// WINNER line wins when several are present. Output with no recognizable
// token parses as VerdictNone; callers decide what a no-decision means.
func ParseWinner(output, labelA, labelB string) Verdict {
	idx := strings.LastIndex(strings.ToUpper(output), "WINNER")
	if idx < 0 {
		return VerdictNone
	}
	rest := output[idx+len("WINNER"):]
	rest = strings.TrimLeft(rest, ": \t")
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	token := strings.TrimSpace(rest)
	if strings.EqualFold(token, "TIE") {
		return VerdictTie
	}
	if strings.EqualFold(token, labelA) {
		return VerdictA
	}
	if strings.EqualFold(token, labelB) {
		return VerdictB
	}
	// Tolerate surrounding punctuation or prose, but only on whole-word
	// label occurrences: a short label must never match inside another
	// word and misattribute the win. The longer label is checked first so
	// one label being a prefix of the other cannot misattribute either.
	upper := strings.ToUpper(token)
	first, second := labelA, labelB
	firstVerdict, secondVerdict := VerdictA, VerdictB
	if len(labelB) > len(labelA) {
		first, second = labelB, labelA
		firstVerdict, secondVerdict = VerdictB, VerdictA
	}
	if containsLabelToken(upper, strings.ToUpper(first)) {
		return firstVerdict
	}
	if containsLabelToken(upper, strings.ToUpper(second)) {
		return secondVerdict
	}
	if containsLabelToken(upper, "TIE") {
		return VerdictTie
	}
	return VerdictNone
}

// containsLabelToken reports whether label occurs in s delimited by
// non-label characters on both sides.
func containsLabelToken(s, label string) bool {
	if label == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(s[from:], label)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(label)
		if (i == 0 || !isLabelChar(s[i-1])) && (end == len(s) || !isLabelChar(s[end])) {
			return true
		}
		from = i + 1
	}
}

func isLabelChar(c byte) bool {
	return c == '-' || c == '_' ||
		(c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// Synthesis builds the summarizer prompt for the pairwise-tournament
// strategies: reconcile the selected candidates into one final answer
// while preserving any output format the question demands.
func Synthesis(prompt string, candidates []models.ModelResponse) string {
	var sb strings.Builder
	sb.WriteString("Multiple assistants answered the same question. Produce one final answer that reconciles the strongest candidates below.\n\n")
	sb.WriteString("Question:\n")
	sb.WriteString(prompt)
	sb.WriteString("\n\n")
	for i, c := range candidates {
		fmt.Fprintf(&sb, "Candidate %d:\n%s\n\n", i+1, c.Content)
	}
	sb.WriteString("Rules:\n")
	sb.WriteString("- Output the answer only, with no preamble and no markdown formatting.\n")
	sb.WriteString("- If the question demands an exact output format, reproduce that format exactly.\n")
	sb.WriteString("- Do not mention the candidates or that multiple answers were considered.\n")
	return sb.String()
}

// MajorityRanking builds the single-call ranking prompt used by the
// majority-voting strategy. Responses are presented under anonymized
// labels and the judge replies with a JSON rankings object scored by
// alignment with the perceived majority position.
func MajorityRanking(prompt string, labeled []LabeledResponse) string {
	var sb strings.Builder
	sb.WriteString("Several anonymous assistants answered the same question. Score each response from 0 to 100 by how well it aligns with the majority position across all responses.\n\n")
	sb.WriteString("Question:\n")
	sb.WriteString(prompt)
	sb.WriteString("\n\n")
	for _, l := range labeled {
		fmt.Fprintf(&sb, "%s:\n%s\n\n", l.Label, l.Content)
	}
	sb.WriteString("Reply with JSON only, in exactly this shape:\n")
	sb.WriteString(`{"rankings": [{"modelId": "Response-1", "alignmentScore": 90}]}`)
	sb.WriteString("\nInclude every response exactly once, using its label as modelId.\n")
	return sb.String()
}

// WeightedSynthesis builds the majority-voting summarizer prompt. The
// candidates arrive in rank order and the summarizer is told to weight
// earlier, more-aligned responses more heavily. Identities stay
// anonymized here as well.
func WeightedSynthesis(prompt string, ranked []LabeledResponse) string {
	var sb strings.Builder
	sb.WriteString("Synthesize one final answer from the ranked responses below. They are ordered from most to least aligned with the majority position; weight earlier responses more heavily.\n\n")
	sb.WriteString("Question:\n")
	sb.WriteString(prompt)
	sb.WriteString("\n\n")
	for i, l := range ranked {
		fmt.Fprintf(&sb, "Rank %d (%s):\n%s\n\n", i+1, l.Label, l.Content)
	}
	sb.WriteString("Rules:\n")
	sb.WriteString("- Output the answer only, with no preamble and no markdown formatting.\n")
	sb.WriteString("- If the question demands an exact output format, reproduce that format exactly.\n")
	return sb.String()
}

// Critique builds the prompt asking one council participant to critique
// another participant's initial answer.
func Critique(prompt, targetAnswer string) string {
	var sb strings.Builder
	sb.WriteString("You are reviewing another assistant's answer to a question.\n\n")
	sb.WriteString("Question:\n")
	sb.WriteString(prompt)
	sb.WriteString("\n\nAnswer under review:\n")
	sb.WriteString(targetAnswer)
	sb.WriteString("\n\nPoint out factual errors, logical flaws, missing considerations and unsupported claims. Be specific and constructive; do not rewrite the answer.\n")
	return sb.String()
}

// RebuttalPrompt asks a branch's own model to defend or concede against
// the critiques its answer received.
func RebuttalPrompt(prompt, initialAnswer string, critiques []string) string {
	var sb strings.Builder
	sb.WriteString("Your answer to a question received critiques from other assistants.\n\n")
	sb.WriteString("Question:\n")
	sb.WriteString(prompt)
	sb.WriteString("\n\nYour answer:\n")
	sb.WriteString(initialAnswer)
	sb.WriteString("\n\nCritiques:\n")
	for i, c := range critiques {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c)
	}
	sb.WriteString("\nRespond to the critiques. Defend the parts of your answer that hold up and concede the points that are correct.\n")
	return sb.String()
}

// Judgment builds the validity-vote prompt for one branch. The voter
// replies with a JSON object; anything unparseable is treated by the
// caller as a valid vote.
func Judgment(prompt, answer string, rebuttal string) string {
	var sb strings.Builder
	sb.WriteString("Judge whether the following answer to a question is valid: factually sound and responsive to what was asked.\n\n")
	sb.WriteString("Question:\n")
	sb.WriteString(prompt)
	sb.WriteString("\n\nAnswer:\n")
	sb.WriteString(answer)
	if rebuttal != "" {
		sb.WriteString("\n\nThe author's rebuttal to critiques of this answer:\n")
		sb.WriteString(rebuttal)
	}
	sb.WriteString("\n\nReply with JSON only, in exactly this shape:\n")
	sb.WriteString(`{"isValid": true, "reasoning": "one or two sentences"}`)
	sb.WriteString("\n")
	return sb.String()
}

// CouncilSynthesis builds the final summarizer prompt over the top-ranked
// surviving branches.
func CouncilSynthesis(prompt string, candidates []LabeledResponse) string {
	var sb strings.Builder
	sb.WriteString("A council of assistants debated answers to a question. Synthesize the surviving top answers below into one unified final answer.\n\n")
	sb.WriteString("Question:\n")
	sb.WriteString(prompt)
	sb.WriteString("\n\n")
	for _, c := range candidates {
		fmt.Fprintf(&sb, "%s:\n%s\n\n", c.Label, c.Content)
	}
	sb.WriteString("Rules:\n")
	sb.WriteString("- Output one answer only, with no preamble and no markdown formatting.\n")
	sb.WriteString("- If the question demands an exact output format, reproduce that format exactly.\n")
	return sb.String()
}
