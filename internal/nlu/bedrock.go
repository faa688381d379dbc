package nlu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/wolfman30/emi-voice-agent/internal/language"
)

// BedrockConverseAPI is the subset of the Bedrock runtime client used here.
type BedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClassifier labels intents with a Bedrock-hosted model.
type BedrockClassifier struct {
	api     BedrockConverseAPI
	modelID string
}

func NewBedrockClassifier(api BedrockConverseAPI, modelID string) (*BedrockClassifier, error) {
	if api == nil {
		return nil, errors.New("nlu: bedrock converse client is required")
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, errors.New("nlu: bedrock model id is required")
	}
	return &BedrockClassifier{api: api, modelID: modelID}, nil
}

// ClassifyIntent implements language.IntentModel.
func (c *BedrockClassifier) ClassifyIntent(ctx context.Context, transcript string, lang language.Language) (language.Intent, error) {
	if strings.TrimSpace(transcript) == "" {
		return language.IntentUnclear, nil
	}
	out, err := c.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.modelID),
		System: []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: systemPrompt},
		},
		Messages: []brtypes.Message{{
			Role: brtypes.ConversationRoleUser,
			Content: []brtypes.ContentBlock{
				&brtypes.ContentBlockMemberText{Value: userPrompt(transcript, lang)},
			},
		}},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(8),
			Temperature: aws.Float32(0),
		},
	})
	if err != nil {
		return language.IntentUnclear, fmt.Errorf("nlu: bedrock converse: %w", err)
	}
	text, err := extractOutputText(out)
	if err != nil {
		return language.IntentUnclear, err
	}
	return parseLabel(text), nil
}

func extractOutputText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", errors.New("nlu: bedrock response is nil")
	}
	msgOut, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", errors.New("nlu: bedrock response did not include a message output")
	}
	var builder strings.Builder
	for _, block := range msgOut.Value.Content {
		if textBlock, ok := block.(*brtypes.ContentBlockMemberText); ok {
			builder.WriteString(textBlock.Value)
		}
	}
	if strings.TrimSpace(builder.String()) == "" {
		return "", errors.New("nlu: bedrock response contained no text content blocks")
	}
	return builder.String(), nil
}
