package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/emi-voice-agent/internal/audio"
	"github.com/wolfman30/emi-voice-agent/internal/language"
)

func newTestClient(t *testing.T, server *httptest.Server, cfg SarvamConfig) *SarvamClient {
	t.Helper()
	cfg.BaseURL = server.URL
	if cfg.APIKey == "" {
		cfg.APIKey = "sk_test"
	}
	if cfg.Backoff == 0 {
		cfg.Backoff = time.Millisecond
	}
	cfg.HTTPClient = server.Client()
	client, err := NewSarvamClient(cfg)
	require.NoError(t, err)
	return client
}

func TestNewSarvamClientRequiresKey(t *testing.T) {
	_, err := NewSarvamClient(SarvamConfig{})
	assert.Error(t, err)
}

func TestSpeechToText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/speech-to-text", r.URL.Path)
		assert.Equal(t, "sk_test", r.Header.Get("api-subscription-key"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "saarika:v2.5", r.FormValue("model"))
		assert.Equal(t, "unknown", r.FormValue("language_code"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "audio.wav", header.Filename)
		data, _ := io.ReadAll(file)
		assert.True(t, audio.IsWAV(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transcript":" हाँ ","language_code":"hi-IN"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, SarvamConfig{})
	res, err := client.SpeechToText(context.Background(), audio.WrapWAV([]byte{1, 0}, 8000), "")
	require.NoError(t, err)
	assert.Equal(t, "हाँ", res.Transcript)
	assert.Equal(t, "hi-IN", res.LanguageCode)
}

func TestTextToSpeech(t *testing.T) {
	wav := audio.WrapWAV(audio.Bytes([]int16{1, 2, 3}), 8000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/text-to-speech", r.URL.Path)
		var req ttsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"hello"}, req.Inputs)
		assert.Equal(t, "ta-IN", req.TargetLanguageCode)
		assert.Equal(t, "anushka", req.Speaker)
		assert.Equal(t, "bulbul:v2", req.Model)
		assert.Equal(t, 8000, req.SampleRate)
		_ = json.NewEncoder(w).Encode(ttsResponse{Audios: []string{base64.StdEncoding.EncodeToString(wav)}})
	}))
	defer server.Close()

	client := newTestClient(t, server, SarvamConfig{})
	out, err := client.TextToSpeech(context.Background(), "hello", "ta-IN")
	require.NoError(t, err)
	assert.Equal(t, wav, out)
}

func TestInvokeRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"transcript":"yes","language_code":"en-IN"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, SarvamConfig{MaxRetries: 2})
	res, err := client.SpeechToText(context.Background(), []byte("RIFF"), "en-IN")
	require.NoError(t, err)
	assert.Equal(t, "yes", res.Transcript)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestInvokeDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid language","code":"bad_request"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, SarvamConfig{MaxRetries: 3})
	_, err := client.TextToSpeech(context.Background(), "hi", "xx")
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid language", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestShouldRetry(t *testing.T) {
	assert.True(t, shouldRetry(http.StatusTooManyRequests, nil))
	assert.True(t, shouldRetry(http.StatusBadGateway, nil))
	assert.False(t, shouldRetry(http.StatusUnauthorized, nil))
	assert.False(t, shouldRetry(0, context.Canceled))
}

type fakeProvider struct {
	stt    *STTResult
	sttErr error
	tts    []byte
	ttsErr error
	code   string
	wav    []byte
}

func (f *fakeProvider) SpeechToText(_ context.Context, wav []byte, code string) (*STTResult, error) {
	f.code = code
	f.wav = wav
	return f.stt, f.sttErr
}

func (f *fakeProvider) TextToSpeech(context.Context, string, string) ([]byte, error) {
	return f.tts, f.ttsErr
}

func TestServiceTranscribe(t *testing.T) {
	p := &fakeProvider{stt: &STTResult{Transcript: "हाँ", LanguageCode: "hi-IN"}}
	svc := NewService(ServiceConfig{Recognizer: p, Synthesizer: p})

	tr := svc.Transcribe(context.Background(), []byte{1, 2, 3, 4}, language.English)
	assert.Equal(t, "हाँ", tr.Text)
	assert.Equal(t, language.Hindi, tr.Language)
	assert.Equal(t, "unknown", p.code)
	assert.Len(t, p.wav, 44+4)
}

func TestServiceTranscribePinnedLanguage(t *testing.T) {
	p := &fakeProvider{stt: &STTResult{Transcript: "ok", LanguageCode: "weird"}}
	svc := NewService(ServiceConfig{Recognizer: p, PinLanguage: true})
	tr := svc.Transcribe(context.Background(), []byte{1, 2}, language.Tamil)
	assert.Equal(t, "ta-IN", p.code)
	assert.Equal(t, language.Tamil, tr.Language)
}

func TestServiceTranscribeDegrades(t *testing.T) {
	p := &fakeProvider{sttErr: errors.New("boom")}
	svc := NewService(ServiceConfig{Recognizer: p})
	tr := svc.Transcribe(context.Background(), []byte{1, 2}, language.Telugu)
	assert.True(t, tr.Empty())
	assert.Equal(t, language.Telugu, tr.Language)

	assert.True(t, svc.Transcribe(context.Background(), nil, language.English).Empty())
}

func TestServiceSynthesizeNormalizes(t *testing.T) {
	in := make([]int16, 1600)
	p := &fakeProvider{tts: audio.WrapWAV(audio.Bytes(in), 16000)}
	svc := NewService(ServiceConfig{Synthesizer: p})
	pcm, err := svc.Synthesize(context.Background(), "hello", language.English)
	require.NoError(t, err)
	assert.Len(t, pcm, 1600)
}

func TestServiceSynthesizeFailures(t *testing.T) {
	svc := NewService(ServiceConfig{Synthesizer: &fakeProvider{ttsErr: errors.New("down")}})
	_, err := svc.Synthesize(context.Background(), "hello", language.English)
	assert.ErrorIs(t, err, ErrNoAudio)

	svc = NewService(ServiceConfig{Synthesizer: &fakeProvider{tts: []byte{}}})
	_, err = svc.Synthesize(context.Background(), "hello", language.English)
	assert.ErrorIs(t, err, ErrNoAudio)

	_, err = NewService(ServiceConfig{}).Synthesize(context.Background(), "hello", language.English)
	assert.True(t, strings.Contains(err.Error(), "no synthesizer"))
}
