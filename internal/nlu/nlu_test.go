package nlu

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/emi-voice-agent/internal/language"
)

type fakeConverse struct {
	reply string
	err   error
	input *bedrockruntime.ConverseInput
}

func (f *fakeConverse) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: f.reply}},
		}},
	}, nil
}

func TestNewBedrockClassifierValidates(t *testing.T) {
	_, err := NewBedrockClassifier(nil, "model")
	assert.Error(t, err)
	_, err = NewBedrockClassifier(&fakeConverse{}, " ")
	assert.Error(t, err)
}

func TestBedrockClassifier(t *testing.T) {
	api := &fakeConverse{reply: " Affirmative\n"}
	c, err := NewBedrockClassifier(api, "anthropic.claude-3-haiku")
	require.NoError(t, err)

	intent, err := c.ClassifyIntent(context.Background(), "हाँ बिलकुल", language.Hindi)
	require.NoError(t, err)
	assert.Equal(t, language.IntentAffirmative, intent)
	require.NotNil(t, api.input)
	assert.Equal(t, "anthropic.claude-3-haiku", aws.ToString(api.input.ModelId))
	require.Len(t, api.input.Messages, 1)
	text := api.input.Messages[0].Content[0].(*brtypes.ContentBlockMemberText).Value
	assert.Contains(t, text, "hi-IN")
}

func TestBedrockClassifierErrors(t *testing.T) {
	c, err := NewBedrockClassifier(&fakeConverse{err: errors.New("throttled")}, "m")
	require.NoError(t, err)
	intent, err := c.ClassifyIntent(context.Background(), "yes", language.English)
	assert.Error(t, err)
	assert.Equal(t, language.IntentUnclear, intent)

	c, err = NewBedrockClassifier(&fakeConverse{reply: "   "}, "m")
	require.NoError(t, err)
	_, err = c.ClassifyIntent(context.Background(), "yes", language.English)
	assert.Error(t, err)
}

func TestBedrockClassifierSkipsEmptyTranscript(t *testing.T) {
	api := &fakeConverse{reply: "affirmative"}
	c, err := NewBedrockClassifier(api, "m")
	require.NoError(t, err)
	intent, err := c.ClassifyIntent(context.Background(), "  ", language.English)
	require.NoError(t, err)
	assert.Equal(t, language.IntentUnclear, intent)
	assert.Nil(t, api.input)
}

type stubGenerator struct {
	reply  string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, _, prompt string) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

func TestGeminiClassifier(t *testing.T) {
	gen := &stubGenerator{reply: "negative."}
	c := &GeminiClassifier{gen: gen}
	intent, err := c.ClassifyIntent(context.Background(), "not now", language.English)
	require.NoError(t, err)
	assert.Equal(t, language.IntentNegative, intent)
	assert.Contains(t, gen.prompt, "not now")
	assert.NoError(t, c.Close())
}

func TestNewGeminiClassifierRequiresKey(t *testing.T) {
	_, err := NewGeminiClassifier(context.Background(), "", "")
	assert.Error(t, err)
}

func TestParseLabel(t *testing.T) {
	assert.Equal(t, language.IntentAgentTransfer, parseLabel("agent_transfer - they asked"))
	assert.Equal(t, language.IntentUnclear, parseLabel(""))
	assert.Equal(t, language.IntentUnclear, parseLabel("I am not sure"))
}

type stubModel struct {
	intent language.Intent
	err    error
	calls  int
}

func (s *stubModel) ClassifyIntent(context.Context, string, language.Language) (language.Intent, error) {
	s.calls++
	return s.intent, s.err
}

func TestFallbackClassifier(t *testing.T) {
	primary := &stubModel{err: errors.New("down")}
	fallback := &stubModel{intent: language.IntentNegative}
	c := NewFallbackClassifier(primary, fallback, nil)
	intent, err := c.ClassifyIntent(context.Background(), "no", language.English)
	require.NoError(t, err)
	assert.Equal(t, language.IntentNegative, intent)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)

	healthy := &stubModel{intent: language.IntentAffirmative}
	c = NewFallbackClassifier(healthy, fallback, nil)
	intent, err = c.ClassifyIntent(context.Background(), "yes", language.English)
	require.NoError(t, err)
	assert.Equal(t, language.IntentAffirmative, intent)
	assert.Equal(t, 1, fallback.calls)

	c = NewFallbackClassifier(primary, nil, nil)
	_, err = c.ClassifyIntent(context.Background(), "yes", language.English)
	assert.Error(t, err)
}
