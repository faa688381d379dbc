package language

import (
	"context"
	"time"

	"github.com/wolfman30/emi-voice-agent/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var classifierTracer = otel.Tracer("emi.internal.language.classifier")

// IntentModel is an external NLU service that labels a transcript.
type IntentModel interface {
	ClassifyIntent(ctx context.Context, transcript string, lang Language) (Intent, error)
}

// Classifier labels transcripts with a language and an intent.
type Classifier struct {
	model   IntentModel
	lexicon Lexicon
	timeout time.Duration
	logger  *logging.Logger
}

// ClassifierOption customizes a Classifier.
type ClassifierOption func(*Classifier)

// WithLexicon replaces the keyword table.
func WithLexicon(lx Lexicon) ClassifierOption {
	return func(c *Classifier) {
		if lx != nil {
			c.lexicon = lx
		}
	}
}

// WithModelTimeout bounds each NLU call.
func WithModelTimeout(d time.Duration) ClassifierOption {
	return func(c *Classifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClassifier builds a classifier. A nil model runs the keyword lexicon only.
func NewClassifier(model IntentModel, logger *logging.Logger, opts ...ClassifierOption) *Classifier {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Classifier{
		model:   model,
		lexicon: DefaultLexicon,
		timeout: 3 * time.Second,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Language detects the transcript's language.
func (c *Classifier) Language(transcript string) Language {
	return c.lexicon.Detect(transcript)
}

// Intent asks the NLU model first. Model errors and unclear labels fall back
// to the keyword lexicon; failures are never returned.
func (c *Classifier) Intent(ctx context.Context, transcript string, lang Language) Intent {
	ctx, span := classifierTracer.Start(ctx, "language.classify_intent")
	defer span.End()
	span.SetAttributes(attribute.String("emi.language", lang.Code()))

	source := "lexicon"
	intent := IntentUnclear
	if c.model != nil {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		label, err := c.model.ClassifyIntent(callCtx, transcript, lang)
		cancel()
		if err != nil {
			span.RecordError(err)
			c.logger.Warn("intent model failed, using keyword lexicon", "error", err, "language", lang.Code())
		} else if label != IntentUnclear {
			intent = label
			source = "model"
		}
	}
	if intent == IntentUnclear {
		intent = c.lexicon.Match(transcript, lang)
	}
	span.SetAttributes(
		attribute.String("emi.intent", string(intent)),
		attribute.String("emi.intent_source", source),
	)
	return intent
}
