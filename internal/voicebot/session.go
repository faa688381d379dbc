package voicebot

import (
	"time"

	"github.com/wolfman30/emi-voice-agent/internal/callrecord"
	"github.com/wolfman30/emi-voice-agent/internal/customer"
	"github.com/wolfman30/emi-voice-agent/internal/language"
	"github.com/wolfman30/emi-voice-agent/internal/prompts"
)

// State is a conversation stage.
type State int

const (
	StateAwaitingStart State = iota
	StateInitialGreeting
	StateWaitingForLangDetect
	StateWaitingAgentResponse
	StateTransferringToAgent
	StateGoodbyeDecline
	StateErrorTerminal
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingStart:
		return "awaiting_start"
	case StateInitialGreeting:
		return "initial_greeting"
	case StateWaitingForLangDetect:
		return "waiting_for_lang_detect"
	case StateWaitingAgentResponse:
		return "waiting_agent_response"
	case StateTransferringToAgent:
		return "transferring_to_agent"
	case StateGoodbyeDecline:
		return "goodbye_decline"
	case StateErrorTerminal:
		return "error_terminal"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Counters track repeated prompts.
type Counters struct {
	// DidNotHear counts "didn't hear you" prompts while detecting language.
	// It is not bounded.
	DidNotHear int
	// AgentQuestion counts deliveries of the agent-connect question,
	// including the first ask.
	AgentQuestion int
}

// Session is the state of one call. It is only touched by the goroutine
// serving the call's connection.
type Session struct {
	ID        string
	CallSID   string
	StreamSID string
	State     State
	// Language is the customer's assigned language until a turn is
	// classified, then the detected language for the rest of the call.
	Language  language.Language
	Customer  customer.Profile
	Source    customer.Source
	Buffer    *Buffer
	Counters  Counters
	Intent    language.Intent
	StartedAt time.Time

	started           bool
	greetingCorrected bool
	apologized        bool
	terminal          bool
	outcome           callrecord.Status
	reason            string
	turns             []callrecord.Turn
}

// Terminal reports whether a terminal action has completed.
func (s *Session) Terminal() bool { return s.terminal }

// markTerminal moves the session into a terminal state. Only the first call
// succeeds.
func (s *Session) markTerminal(state State, outcome callrecord.Status, reason string) bool {
	if s.terminal {
		return false
	}
	s.terminal = true
	s.State = state
	s.outcome = outcome
	s.reason = reason
	return true
}

func (s *Session) fields() prompts.Fields {
	return prompts.Fields{
		Name:    s.Customer.Name,
		LoanID:  s.Customer.LoanID,
		Amount:  s.Customer.Amount,
		DueDate: s.Customer.DueDate,
	}
}

func (s *Session) summary(endedAt time.Time) callrecord.Summary {
	outcome := s.outcome
	if outcome == "" {
		outcome = callrecord.StatusCompleted
	}
	return callrecord.Summary{
		CallSID:       s.CallSID,
		StreamSID:     s.StreamSID,
		CustomerID:    s.Customer.ID,
		CustomerPhone: s.Customer.PhoneNumber,
		Outcome:       outcome,
		Language:      s.Language.Code(),
		Intent:        string(s.Intent),
		Reason:        s.reason,
		Turns:         s.turns,
		StartedAt:     s.StartedAt,
		EndedAt:       endedAt,
	}
}
