package nlu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/wolfman30/emi-voice-agent/internal/language"
)

type textGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GeminiClassifier labels intents with a Gemini model.
type GeminiClassifier struct {
	gen textGenerator
}

// NewGeminiClassifier dials the Gemini API.
func NewGeminiClassifier(ctx context.Context, apiKey, modelID string) (*GeminiClassifier, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("nlu: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("nlu: failed to create gemini client: %w", err)
	}
	return &GeminiClassifier{gen: &genaiGenerator{client: client, modelID: modelID}}, nil
}

// ClassifyIntent implements language.IntentModel.
func (c *GeminiClassifier) ClassifyIntent(ctx context.Context, transcript string, lang language.Language) (language.Intent, error) {
	if strings.TrimSpace(transcript) == "" {
		return language.IntentUnclear, nil
	}
	reply, err := c.gen.Generate(ctx, systemPrompt, userPrompt(transcript, lang))
	if err != nil {
		return language.IntentUnclear, err
	}
	return parseLabel(reply), nil
}

// Close releases the underlying client.
func (c *GeminiClassifier) Close() error {
	if g, ok := c.gen.(*genaiGenerator); ok {
		return g.client.Close()
	}
	return nil
}

type genaiGenerator struct {
	client  *genai.Client
	modelID string
}

func (g *genaiGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(8)
	model.SystemInstruction = genai.NewUserContent(genai.Text(system))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("nlu: gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("nlu: gemini returned no candidates")
	}
	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.WriteString(string(text))
		}
	}
	return out.String(), nil
}
