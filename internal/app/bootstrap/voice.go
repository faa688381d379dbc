package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/emi-voice-agent/internal/callcontrol"
	"github.com/wolfman30/emi-voice-agent/internal/callrecord"
	appconfig "github.com/wolfman30/emi-voice-agent/internal/config"
	"github.com/wolfman30/emi-voice-agent/internal/customer"
	"github.com/wolfman30/emi-voice-agent/internal/language"
	"github.com/wolfman30/emi-voice-agent/internal/nlu"
	"github.com/wolfman30/emi-voice-agent/internal/observability/metrics"
	"github.com/wolfman30/emi-voice-agent/internal/prompts"
	"github.com/wolfman30/emi-voice-agent/internal/speech"
	"github.com/wolfman30/emi-voice-agent/internal/voicebot"
	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

// Clients carries the AWS service clients. Any of them may be nil.
type Clients struct {
	Bedrock nlu.BedrockConverseAPI
	S3      callrecord.S3API
	SQS     callrecord.SQSAPI
}

// NewAWSClients builds the AWS clients used by the voice agent.
func NewAWSClients(awsCfg aws.Config, s3Client *s3.Client) Clients {
	return Clients{
		Bedrock: bedrockruntime.NewFromConfig(awsCfg),
		S3:      s3Client,
		SQS:     sqs.NewFromConfig(awsCfg),
	}
}

// BuildIntentModel selects the tier-1 NLU model. "bedrock" falls back to
// Gemini when both are configured, and the reverse for "gemini". A nil
// model leaves intent to the keyword lexicon.
func BuildIntentModel(ctx context.Context, cfg *appconfig.Config, bedrock nlu.BedrockConverseAPI, logger *logging.Logger) language.IntentModel {
	if cfg == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	var bedrockModel, geminiModel language.IntentModel
	if bedrock != nil && cfg.BedrockModelID != "" {
		m, err := nlu.NewBedrockClassifier(bedrock, cfg.BedrockModelID)
		if err != nil {
			logger.Warn("bedrock intent model unavailable", "error", err)
		} else {
			bedrockModel = m
		}
	}
	if cfg.GeminiAPIKey != "" {
		m, err := nlu.NewGeminiClassifier(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Warn("gemini intent model unavailable", "error", err)
		} else {
			geminiModel = m
		}
	}

	var primary, fallback language.IntentModel
	switch cfg.NLUProvider {
	case "bedrock":
		primary, fallback = bedrockModel, geminiModel
	case "gemini":
		primary, fallback = geminiModel, bedrockModel
	default:
		logger.Info("intent model disabled; using keyword lexicon", "provider", cfg.NLUProvider)
		return nil
	}
	if primary == nil {
		primary, fallback = fallback, nil
	}
	if primary == nil {
		logger.Warn("no intent model configured; using keyword lexicon", "provider", cfg.NLUProvider)
		return nil
	}
	logger.Info("intent model configured", "provider", cfg.NLUProvider, "fallback", fallback != nil)
	if fallback == nil {
		return primary
	}
	return nlu.NewFallbackClassifier(primary, fallback, logger)
}

// BuildSpeech wires the Sarvam client into the speech service. Without an
// API key the service still runs: STT hears nothing and every prompt is
// skipped.
func BuildSpeech(cfg *appconfig.Config, m *metrics.VoiceMetrics, logger *logging.Logger) (*speech.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	svcCfg := speech.ServiceConfig{
		Metrics:     m,
		Logger:      logger,
		PinLanguage: cfg.STTPinLanguage,
	}
	if !cfg.SpeechEnabled() {
		logger.Warn("SARVAM_API_KEY not set; speech services disabled")
		return speech.NewService(svcCfg), nil
	}
	client, err := speech.NewSarvamClient(speech.SarvamConfig{
		BaseURL:    cfg.SarvamBaseURL,
		APIKey:     cfg.SarvamAPIKey,
		STTModel:   cfg.SarvamSTTModel,
		TTSModel:   cfg.SarvamTTSModel,
		Speaker:    cfg.SarvamTTSSpeaker,
		Timeout:    cfg.SpeechTimeout,
		MaxRetries: cfg.SpeechMaxRetries,
		Backoff:    cfg.SpeechRetryBackoff,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: sarvam client: %w", err)
	}
	svcCfg.Recognizer = client
	svcCfg.Synthesizer = client
	return speech.NewService(svcCfg), nil
}

// BuildTransferer returns the Exotel client, or nil when call control is
// not configured.
func BuildTransferer(cfg *appconfig.Config, logger *logging.Logger) (*callcontrol.ExotelClient, error) {
	if cfg == nil || !cfg.CallControlEnabled() {
		return nil, nil
	}
	client, err := callcontrol.NewExotelClient(callcontrol.Config{
		AccountSID:  cfg.ExotelSID,
		APIKey:      cfg.ExotelAPIKey,
		APIToken:    cfg.ExotelToken,
		Subdomain:   cfg.ExotelSubdomain,
		CallerID:    cfg.Exophone,
		AgentNumber: cfg.AgentNumber,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: exotel client: %w", err)
	}
	return client, nil
}

// BuildResolver wires the customer lookups that have a backend.
func BuildResolver(redisClient *redis.Client, db *Database, logger *logging.Logger) *customer.Resolver {
	var cache customer.SessionLookup
	if redisClient != nil {
		cache = customer.NewSessionCache(redisClient)
	}
	var repo customer.Repository
	if db != nil && db.Pool != nil {
		repo = customer.NewPostgresRepository(db.Pool)
	}
	return customer.NewResolver(cache, repo, logger)
}

// RecordStores are the call record backends built for the server.
type RecordStores struct {
	Recorder  *callrecord.Recorder
	State     *callrecord.StateStore
	StatusLog *callrecord.StatusLog
}

// BuildRecorder assembles the call recorder from whichever sinks are
// configured.
func BuildRecorder(cfg *appconfig.Config, redisClient *redis.Client, db *Database, clients Clients, logger *logging.Logger) RecordStores {
	if logger == nil {
		logger = logging.Default()
	}
	var out RecordStores
	rc := callrecord.RecorderConfig{Logger: logger}
	if redisClient != nil {
		out.State = callrecord.NewStateStore(redisClient)
		rc.State = out.State
	}
	if db != nil && db.SQL != nil {
		out.StatusLog = callrecord.NewStatusLog(db.SQL)
		rc.StatusLog = out.StatusLog
	}
	if cfg != nil && cfg.CallArchiveBucket != "" && clients.S3 != nil {
		rc.Archive = callrecord.NewArchive(clients.S3, cfg.CallArchiveBucket)
	}
	if cfg != nil && cfg.CallEventsQueueURL != "" && clients.SQS != nil {
		rc.Publisher = callrecord.NewEventPublisher(clients.SQS, cfg.CallEventsQueueURL)
	}
	logger.Info("call recorder configured",
		"redis_state", rc.State != nil,
		"status_log", rc.StatusLog != nil,
		"archive", rc.Archive.Enabled(),
		"events", rc.Publisher.Enabled(),
	)
	out.Recorder = callrecord.NewRecorder(rc)
	return out
}

// VoiceDeps are the collaborators of the conversation controller.
type VoiceDeps struct {
	Resolver    *customer.Resolver
	Speech      *speech.Service
	IntentModel language.IntentModel
	Transferer  *callcontrol.ExotelClient
	Recorder    *callrecord.Recorder
	Metrics     *metrics.VoiceMetrics
}

// BuildController wires the conversation controller from config.
func BuildController(cfg *appconfig.Config, deps VoiceDeps, logger *logging.Logger) (*voicebot.Controller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	vc := voicebot.Config{
		Classifier: language.NewClassifier(deps.IntentModel, logger,
			language.WithModelTimeout(cfg.NLUTimeout),
		),
		Prompts:      prompts.NewCatalog(prompts.WithBranding(cfg.AgentName, cfg.LenderName)),
		Metrics:      deps.Metrics,
		Logger:       logger,
		TurnWindow:   cfg.TurnBufferDuration,
		ChunkBytes:   cfg.OutboundChunkBytes,
		MaxQuestions: cfg.MaxAgentQuestionRepeats,
	}
	// Interface fields stay nil rather than holding a typed nil pointer.
	if deps.Resolver != nil {
		vc.Resolver = deps.Resolver
	}
	if deps.Speech != nil {
		vc.Transcriber = deps.Speech
		vc.Synthesizer = deps.Speech
	}
	if deps.Transferer != nil {
		vc.Transferer = deps.Transferer
	} else if logger != nil {
		logger.Warn("exotel call control not configured; agent transfers disabled")
	}
	if deps.Recorder != nil {
		vc.Recorder = deps.Recorder
	}
	return voicebot.NewController(vc)
}
