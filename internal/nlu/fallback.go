package nlu

import (
	"context"

	"github.com/wolfman30/emi-voice-agent/internal/language"
	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

// FallbackClassifier asks the primary model and, when it errors, the
// fallback model.
type FallbackClassifier struct {
	primary  language.IntentModel
	fallback language.IntentModel
	logger   *logging.Logger
}

// NewFallbackClassifier wraps primary with an optional fallback.
func NewFallbackClassifier(primary, fallback language.IntentModel, logger *logging.Logger) *FallbackClassifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackClassifier{primary: primary, fallback: fallback, logger: logger}
}

func (c *FallbackClassifier) ClassifyIntent(ctx context.Context, transcript string, lang language.Language) (language.Intent, error) {
	intent, err := c.primary.ClassifyIntent(ctx, transcript, lang)
	if err == nil {
		return intent, nil
	}
	c.logger.Warn("primary intent model failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", c.fallback != nil,
	)
	if c.fallback == nil {
		return language.IntentUnclear, err
	}
	return c.fallback.ClassifyIntent(ctx, transcript, lang)
}
