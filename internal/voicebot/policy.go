package voicebot

import "github.com/wolfman30/emi-voice-agent/internal/language"

// DefaultMaxAgentQuestions bounds deliveries of the agent-connect question.
const DefaultMaxAgentQuestions = 2

// Action is what the conversation does after an answer to the agent
// question.
type Action int

const (
	ActionRepeatQuestion Action = iota
	ActionTransfer
	ActionGoodbye
)

func (a Action) String() string {
	switch a {
	case ActionRepeatQuestion:
		return "repeat_question"
	case ActionTransfer:
		return "transfer"
	case ActionGoodbye:
		return "goodbye"
	default:
		return "unknown"
	}
}

// NextAction decides how to respond to an answer to the agent question.
// Silence and unclear answers share one budget: the question is asked again
// until it has been delivered limit times, after which silence counts as
// consent and the call is transferred.
func NextAction(intent language.Intent, deliveries, limit int) Action {
	switch {
	case intent.WantsAgent():
		return ActionTransfer
	case intent == language.IntentNegative:
		return ActionGoodbye
	case deliveries < limit:
		return ActionRepeatQuestion
	default:
		return ActionTransfer
	}
}
