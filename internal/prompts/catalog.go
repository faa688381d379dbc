// Package prompts holds the localized text of every utterance the voice agent
// speaks. Text is looked up by prompt kind and language; a language without a
// translation falls back to English spoken with the English voice.
package prompts

import (
	"fmt"
	"strings"

	"github.com/wolfman30/emi-voice-agent/internal/language"
)

// Kind names a scripted utterance.
type Kind string

const (
	Greeting       Kind = "greeting"
	EMIPart1       Kind = "emi_part1"
	EMIPart2       Kind = "emi_part2"
	AgentQuestion  Kind = "agent_question"
	Goodbye        Kind = "goodbye"
	DidNotHear     Kind = "did_not_hear"
	TransferNotice Kind = "transfer_notice"
	Apology        Kind = "apology"
)

// Fields are the customer values substituted into prompt text.
type Fields struct {
	Name    string
	LoanID  string
	Amount  string
	DueDate string
}

// Utterance is resolved prompt text and the voice it should be spoken in.
type Utterance struct {
	Kind     Kind
	Text     string
	Language language.Language
}

// Catalog resolves prompts to text.
type Catalog struct {
	templates map[Kind]map[language.Language]string
	agentName string
	lender    string
}

// Option customizes a Catalog.
type Option func(*Catalog)

// WithBranding sets the assistant and lender names spoken in the greeting.
func WithBranding(agentName, lender string) Option {
	return func(c *Catalog) {
		if strings.TrimSpace(agentName) != "" {
			c.agentName = agentName
		}
		if strings.TrimSpace(lender) != "" {
			c.lender = lender
		}
	}
}

// WithTemplate overrides the text of one prompt in one language.
func WithTemplate(kind Kind, lang language.Language, text string) Option {
	return func(c *Catalog) {
		if c.templates[kind] == nil {
			c.templates[kind] = map[language.Language]string{}
		}
		c.templates[kind][lang] = text
	}
}

// NewCatalog returns the built-in catalog.
func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{
		templates: make(map[Kind]map[language.Language]string, len(defaultTemplates)),
		agentName: "Priya",
		lender:    "South India Finvest Bank",
	}
	for kind, byLang := range defaultTemplates {
		copied := make(map[language.Language]string, len(byLang))
		for l, text := range byLang {
			copied[l] = text
		}
		c.templates[kind] = copied
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Render resolves a prompt. It never fails for a known kind: missing
// translations fall back to the default language.
func (c *Catalog) Render(kind Kind, lang language.Language, f Fields) (Utterance, error) {
	byLang, ok := c.templates[kind]
	if !ok {
		return Utterance{}, fmt.Errorf("prompts: unknown prompt %q", kind)
	}
	voice := lang
	text, ok := byLang[lang]
	if !ok {
		voice = language.Default
		text, ok = byLang[language.Default]
		if !ok {
			return Utterance{}, fmt.Errorf("prompts: %q has no %s text", kind, language.Default)
		}
	}
	r := strings.NewReplacer(
		"{agent}", c.agentName,
		"{lender}", c.lender,
		"{name}", f.Name,
		"{loan_id}", f.LoanID,
		"{amount}", f.Amount,
		"{due_date}", f.DueDate,
	)
	return Utterance{Kind: kind, Text: r.Replace(text), Language: voice}, nil
}

// Has reports whether a prompt is translated into lang.
func (c *Catalog) Has(kind Kind, lang language.Language) bool {
	_, ok := c.templates[kind][lang]
	return ok
}
