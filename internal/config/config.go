package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Sarvam speech services
	SarvamAPIKey       string
	SarvamBaseURL      string
	SarvamSTTModel     string
	SarvamTTSModel     string
	SarvamTTSSpeaker   string
	SpeechMaxRetries   int
	SpeechRetryBackoff time.Duration
	SpeechTimeout      time.Duration
	// STTPinLanguage sends the session language to STT instead of auto-detect.
	STTPinLanguage bool

	// Exotel call control
	ExotelSID       string
	ExotelAPIKey    string
	ExotelToken     string
	ExotelSubdomain string
	Exophone        string
	AgentNumber     string

	// Intent NLU tier
	NLUProvider    string
	NLUTimeout     time.Duration
	BedrockModelID string
	GeminiAPIKey   string
	GeminiModelID  string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	CallArchiveBucket   string
	CallEventsQueueURL  string

	// Conversation tuning
	TurnBufferDuration      time.Duration
	OutboundChunkBytes      int
	MaxAgentQuestionRepeats int
	AgentName               string
	LenderName              string

	StreamTokenSecret string
	StreamRateLimit   float64
	StreamRateBurst   int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SarvamAPIKey:       getEnv("SARVAM_API_KEY", ""),
		SarvamBaseURL:      getEnv("SARVAM_BASE_URL", "https://api.sarvam.ai"),
		SarvamSTTModel:     getEnv("SARVAM_STT_MODEL", "saarika:v2.5"),
		SarvamTTSModel:     getEnv("SARVAM_TTS_MODEL", "bulbul:v2"),
		SarvamTTSSpeaker:   getEnv("SARVAM_TTS_SPEAKER", "anushka"),
		SpeechMaxRetries:   getEnvAsInt("SPEECH_MAX_RETRIES", 2),
		SpeechRetryBackoff: getEnvAsDuration("SPEECH_RETRY_BACKOFF", 250*time.Millisecond),
		SpeechTimeout:      getEnvAsDuration("SPEECH_TIMEOUT", 10*time.Second),
		STTPinLanguage:     getEnvAsBool("STT_PIN_LANGUAGE", false),

		ExotelSID:       getEnv("EXOTEL_SID", ""),
		ExotelAPIKey:    getEnv("EXOTEL_API_KEY", ""),
		ExotelToken:     getEnv("EXOTEL_TOKEN", ""),
		ExotelSubdomain: getEnv("EXOTEL_SUBDOMAIN", "api.exotel.com"),
		Exophone:        getEnv("EXOPHONE", ""),
		AgentNumber:     getEnv("AGENT_PHONE_NUMBER", ""),

		NLUProvider:    strings.ToLower(strings.TrimSpace(getEnv("NLU_PROVIDER", "none"))),
		NLUTimeout:     getEnvAsDuration("NLU_TIMEOUT", 3*time.Second),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		AWSRegion:           getEnv("AWS_REGION", "ap-south-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		CallArchiveBucket:   getEnv("CALL_ARCHIVE_BUCKET", ""),
		CallEventsQueueURL:  getEnv("CALL_EVENTS_QUEUE_URL", ""),

		TurnBufferDuration:      getEnvAsDuration("TURN_BUFFER_DURATION", time.Second),
		OutboundChunkBytes:      getEnvAsInt("OUTBOUND_CHUNK_BYTES", 320),
		MaxAgentQuestionRepeats: getEnvAsInt("MAX_AGENT_QUESTION_REPEATS", 2),
		AgentName:               getEnv("AGENT_NAME", "Priya"),
		LenderName:              getEnv("LENDER_NAME", "South India Finvest Bank"),

		StreamTokenSecret: getEnv("STREAM_TOKEN_SECRET", ""),
		StreamRateLimit:   getEnvAsFloat("STREAM_RATE_LIMIT", 5),
		StreamRateBurst:   getEnvAsInt("STREAM_RATE_BURST", 20),
	}
}

// SpeechEnabled reports whether Sarvam credentials are present.
func (c *Config) SpeechEnabled() bool {
	return strings.TrimSpace(c.SarvamAPIKey) != ""
}

// CallControlEnabled reports whether agent transfers can be placed.
func (c *Config) CallControlEnabled() bool {
	return strings.TrimSpace(c.ExotelSID) != "" &&
		strings.TrimSpace(c.ExotelToken) != "" &&
		strings.TrimSpace(c.AgentNumber) != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
