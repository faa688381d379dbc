package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/emi-voice-agent/internal/language"
)

var ravi = Fields{Name: "Ravi", LoanID: "7824", Amount: "4,500", DueDate: "25 July"}

func TestRenderSubstitutesFields(t *testing.T) {
	c := NewCatalog()
	u, err := c.Render(EMIPart1, language.English, ravi)
	require.NoError(t, err)
	assert.Contains(t, u.Text, "7824")
	assert.Contains(t, u.Text, "₹4,500")
	assert.Contains(t, u.Text, "25 July")
	assert.Equal(t, language.English, u.Language)
	assert.Equal(t, EMIPart1, u.Kind)
}

func TestRenderLocalized(t *testing.T) {
	c := NewCatalog()
	u, err := c.Render(Greeting, language.Hindi, ravi)
	require.NoError(t, err)
	assert.Equal(t, language.Hindi, u.Language)
	assert.Contains(t, u.Text, "नमस्ते")
	assert.Contains(t, u.Text, "Ravi")
}

func TestRenderFallsBackToEnglishVoice(t *testing.T) {
	c := NewCatalog()
	u, err := c.Render(AgentQuestion, language.Kannada, ravi)
	require.NoError(t, err)
	assert.Equal(t, language.English, u.Language)
	assert.False(t, c.Has(AgentQuestion, language.Kannada))
}

func TestRenderUnknownKind(t *testing.T) {
	_, err := NewCatalog().Render(Kind("nope"), language.English, ravi)
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	c := NewCatalog(
		WithBranding("Asha", "Acme Finance"),
		WithTemplate(Goodbye, language.Kannada, "ಧನ್ಯವಾದಗಳು {name}"),
	)
	u, err := c.Render(Greeting, language.English, ravi)
	require.NoError(t, err)
	assert.Contains(t, u.Text, "Asha")
	assert.Contains(t, u.Text, "Acme Finance")

	u, err = c.Render(Goodbye, language.Kannada, ravi)
	require.NoError(t, err)
	assert.Equal(t, "ಧನ್ಯವಾದಗಳು Ravi", u.Text)
	assert.Equal(t, language.Kannada, u.Language)

	// Overrides do not leak into other catalogs.
	assert.False(t, NewCatalog().Has(Goodbye, language.Kannada))
}

func TestEveryKindHasEnglish(t *testing.T) {
	c := NewCatalog()
	for _, kind := range []Kind{Greeting, EMIPart1, EMIPart2, AgentQuestion, Goodbye, DidNotHear, TransferNotice, Apology} {
		assert.True(t, c.Has(kind, language.English), kind)
	}
}
