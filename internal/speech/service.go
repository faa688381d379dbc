// Package speech is the boundary to the external speech-to-text and
// text-to-speech services. Failures never escape as errors the conversation
// has to handle: a failed transcription is an empty transcript and a failed
// synthesis is ErrNoAudio.
package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/emi-voice-agent/internal/audio"
	"github.com/wolfman30/emi-voice-agent/internal/language"
	"github.com/wolfman30/emi-voice-agent/internal/observability/metrics"
	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

// ErrNoAudio means synthesis produced nothing playable; the prompt is skipped.
var ErrNoAudio = errors.New("speech: no audio")

var speechTracer = otel.Tracer("emi.internal.speech")

// Transcript is the result of one recognition request.
type Transcript struct {
	Text string
	// Language is the language sent with the request, replaced by the
	// service's detected language when it reports a supported one.
	Language language.Language
}

// Empty reports whether nothing intelligible was recognized.
func (t Transcript) Empty() bool { return t.Text == "" }

// Recognizer is the STT half of a speech provider.
type Recognizer interface {
	SpeechToText(ctx context.Context, wav []byte, languageCode string) (*STTResult, error)
}

// Synthesizer is the TTS half of a speech provider.
type Synthesizer interface {
	TextToSpeech(ctx context.Context, text, languageCode string) ([]byte, error)
}

// Service adapts a speech provider to the conversation.
type Service struct {
	stt     Recognizer
	tts     Synthesizer
	metrics *metrics.VoiceMetrics
	logger  *logging.Logger
	now     func() time.Time
	// autoDetect sends "unknown" so the STT service detects the language.
	autoDetect bool
}

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Recognizer  Recognizer
	Synthesizer Synthesizer
	Metrics     *metrics.VoiceMetrics
	Logger      *logging.Logger
	// PinLanguage sends the session language with STT requests instead of
	// asking the service to detect it.
	PinLanguage bool
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		stt:        cfg.Recognizer,
		tts:        cfg.Synthesizer,
		metrics:    cfg.Metrics,
		logger:     logger,
		now:        time.Now,
		autoDetect: !cfg.PinLanguage,
	}
}

// Transcribe sends one turn of 8 kHz PCM16 audio to STT. Errors are logged
// and reported as an empty transcript.
func (s *Service) Transcribe(ctx context.Context, pcm []byte, hint language.Language) Transcript {
	out := Transcript{Language: hint}
	if len(pcm) == 0 || s.stt == nil {
		return out
	}
	ctx, span := speechTracer.Start(ctx, "speech.transcribe", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.Int("emi.audio_bytes", len(pcm)),
		attribute.String("emi.language_hint", hint.Code()),
	)

	code := "unknown"
	if !s.autoDetect {
		code = hint.Code()
	}
	start := s.now()
	result, err := s.stt.SpeechToText(ctx, audio.WrapWAV(pcm, audio.SampleRate), code)
	elapsed := s.now().Sub(start).Seconds()
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveSpeech("stt", "error", elapsed)
		s.logger.Warn("speech to text failed", "error", err, "audio_bytes", len(pcm))
		return out
	}
	s.metrics.ObserveSpeech("stt", "ok", elapsed)
	out.Text = result.Transcript
	if l, ok := language.Parse(result.LanguageCode); ok {
		out.Language = l
	}
	span.SetAttributes(attribute.Int("emi.transcript_chars", len(out.Text)))
	return out
}

// Synthesize converts text to telephony PCM (8 kHz mono PCM16). Any failure,
// including undecodable output, is wrapped in ErrNoAudio.
func (s *Service) Synthesize(ctx context.Context, text string, lang language.Language) ([]byte, error) {
	if s.tts == nil {
		return nil, fmt.Errorf("%w: no synthesizer configured", ErrNoAudio)
	}
	ctx, span := speechTracer.Start(ctx, "speech.synthesize", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("emi.language", lang.Code()),
		attribute.Int("emi.text_chars", len(text)),
	)

	start := s.now()
	raw, err := s.tts.TextToSpeech(ctx, text, lang.Code())
	elapsed := s.now().Sub(start).Seconds()
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveSpeech("tts", "error", elapsed)
		return nil, fmt.Errorf("%w: %v", ErrNoAudio, err)
	}
	pcm, err := audio.Normalize(raw, audio.SampleRate)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveSpeech("tts", "error", elapsed)
		return nil, fmt.Errorf("%w: %v", ErrNoAudio, err)
	}
	s.metrics.ObserveSpeech("tts", "ok", elapsed)
	return pcm, nil
}
