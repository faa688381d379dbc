// Package nlu holds the LLM-backed intent classifiers used ahead of the
// keyword lexicon.
package nlu

import (
	"fmt"
	"strings"

	"github.com/wolfman30/emi-voice-agent/internal/language"
)

const systemPrompt = `You classify a loan customer's spoken reply on a collections call.
The customer was just asked whether they want to be connected to a human agent.
Reply with exactly one label and nothing else:
affirmative - they agree or want to be connected
negative - they decline, refuse, or ask to be called later
agent_transfer - they explicitly ask for an agent, a human, or the help desk
unclear - anything else, including questions and silence`

func userPrompt(transcript string, lang language.Language) string {
	return fmt.Sprintf("Language: %s\nTranscript: %s", lang.Code(), strings.TrimSpace(transcript))
}

// parseLabel reads the first word of a model reply as an intent label.
func parseLabel(reply string) language.Intent {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return language.IntentUnclear
	}
	first := strings.Fields(reply)[0]
	return language.ParseIntent(first)
}
