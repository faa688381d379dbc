package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

const (
	defaultBaseURL   = "https://api.sarvam.ai"
	defaultSTTModel  = "saarika:v2.5"
	defaultTTSModel  = "bulbul:v2"
	defaultSpeaker   = "anushka"
	defaultUserAgent = "emi-voice-agent/0.1"
)

// SarvamConfig controls how the Sarvam client behaves.
type SarvamConfig struct {
	BaseURL    string
	APIKey     string
	STTModel   string
	TTSModel   string
	Speaker    string
	SampleRate int
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// SarvamClient wraps the Sarvam speech-to-text and text-to-speech endpoints.
type SarvamClient struct {
	apiKey     string
	baseURL    string
	sttModel   string
	ttsModel   string
	speaker    string
	sampleRate int
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *logging.Logger
}

// NewSarvamClient creates a configured client with sane defaults.
func NewSarvamClient(cfg SarvamConfig) (*SarvamClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("speech: sarvam API key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 8000
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &SarvamClient{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		sttModel:   firstNonEmpty(cfg.STTModel, defaultSTTModel),
		ttsModel:   firstNonEmpty(cfg.TTSModel, defaultTTSModel),
		speaker:    firstNonEmpty(cfg.Speaker, defaultSpeaker),
		sampleRate: sampleRate,
		httpClient: httpClient,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
	}, nil
}

// STTResult is the decoded speech-to-text response.
type STTResult struct {
	Transcript   string `json:"transcript"`
	LanguageCode string `json:"language_code"`
	RequestID    string `json:"request_id,omitempty"`
}

// SpeechToText uploads a WAV clip. languageCode "unknown" asks the service to
// detect the language.
func (c *SarvamClient) SpeechToText(ctx context.Context, wav []byte, languageCode string) (*STTResult, error) {
	if len(wav) == 0 {
		return nil, errors.New("speech: empty audio")
	}
	if strings.TrimSpace(languageCode) == "" {
		languageCode = "unknown"
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="audio.wav"`)
	header.Set("Content-Type", "audio/wav")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("speech: build multipart: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return nil, fmt.Errorf("speech: build multipart: %w", err)
	}
	if err := mw.WriteField("model", c.sttModel); err != nil {
		return nil, fmt.Errorf("speech: build multipart: %w", err)
	}
	if err := mw.WriteField("language_code", languageCode); err != nil {
		return nil, fmt.Errorf("speech: build multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("speech: build multipart: %w", err)
	}

	data, err := c.invoke(ctx, "/speech-to-text", body.Bytes(), mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var result STTResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("speech: decode stt response: %w", err)
	}
	result.Transcript = strings.TrimSpace(result.Transcript)
	return &result, nil
}

type ttsRequest struct {
	Inputs             []string `json:"inputs"`
	TargetLanguageCode string   `json:"target_language_code"`
	Speaker            string   `json:"speaker"`
	Model              string   `json:"model"`
	SampleRate         int      `json:"speech_sample_rate,omitempty"`
}

type ttsResponse struct {
	Audios    []string `json:"audios"`
	RequestID string   `json:"request_id,omitempty"`
}

// TextToSpeech returns the synthesized audio as delivered by the service
// (normally a WAV file).
func (c *SarvamClient) TextToSpeech(ctx context.Context, text, languageCode string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("speech: empty text")
	}
	payload, err := json.Marshal(ttsRequest{
		Inputs:             []string{text},
		TargetLanguageCode: languageCode,
		Speaker:            c.speaker,
		Model:              c.ttsModel,
		SampleRate:         c.sampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("speech: encode tts request: %w", err)
	}
	data, err := c.invoke(ctx, "/text-to-speech", payload, "application/json")
	if err != nil {
		return nil, err
	}
	var resp ttsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("speech: decode tts response: %w", err)
	}
	if len(resp.Audios) == 0 || resp.Audios[0] == "" {
		return nil, errors.New("speech: tts response had no audio")
	}
	var out []byte
	for _, chunk := range resp.Audios {
		decoded, err := base64.StdEncoding.DecodeString(chunk)
		if err != nil {
			return nil, fmt.Errorf("speech: decode tts audio: %w", err)
		}
		out = append(out, decoded...)
	}
	return out, nil
}

func (c *SarvamClient) invoke(ctx context.Context, path string, body []byte, contentType string) ([]byte, error) {
	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("speech: build request: %w", err)
		}
		req.Header.Set("api-subscription-key", c.apiKey)
		req.Header.Set("User-Agent", defaultUserAgent)
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !shouldRetry(0, err) || attempt == c.maxRetries {
				return nil, fmt.Errorf("speech: http error: %w", err)
			}
			lastErr = err
			c.logRetry(path, attempt, 0, err)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("speech: read response: %w", readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, nil
		}
		apiErr := decodeAPIError(resp.StatusCode, data)
		if attempt < c.maxRetries && shouldRetry(resp.StatusCode, nil) {
			lastErr = apiErr
			c.logRetry(path, attempt, resp.StatusCode, apiErr)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		return nil, apiErr
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("speech: request failed without response")
}

func (c *SarvamClient) sleep(ctx context.Context, attempt int) error {
	delay := c.backoff * time.Duration(1<<attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *SarvamClient) logRetry(path string, attempt int, status int, err error) {
	c.logger.Warn("sarvam retry",
		"path", path,
		"attempt", attempt+1,
		"status", status,
		"error", err,
	)
}

func shouldRetry(status int, err error) bool {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		return !errors.Is(err, context.Canceled)
	}
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500 && status <= 599
}

// APIError is a non-2xx response from the speech service.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("speech: %s (status=%d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("speech: http status %d", e.StatusCode)
}

func decodeAPIError(status int, body []byte) error {
	var wrapper struct {
		Error APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Error.Message == "" {
		return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
	}
	wrapper.Error.StatusCode = status
	return &wrapper.Error
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
