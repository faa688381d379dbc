package language

import "strings"

// Intent is the coarse meaning of a caller's answer to the agent question.
type Intent string

const (
	IntentAffirmative   Intent = "affirmative"
	IntentNegative      Intent = "negative"
	IntentAgentTransfer Intent = "agent_transfer"
	IntentUnclear       Intent = "unclear"
)

// ParseIntent maps free-form labels (as returned by an LLM) onto an Intent.
func ParseIntent(label string) Intent {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.Trim(label, "\"'`.")
	label = strings.NewReplacer("-", "_", " ", "_").Replace(label)
	switch label {
	case "affirmative", "yes", "positive", "agree":
		return IntentAffirmative
	case "negative", "no", "decline", "refuse":
		return IntentNegative
	case "agent_transfer", "agent", "transfer", "human":
		return IntentAgentTransfer
	default:
		return IntentUnclear
	}
}

// WantsAgent reports whether the intent hands the call to a human.
func (i Intent) WantsAgent() bool {
	return i == IntentAffirmative || i == IntentAgentTransfer
}
