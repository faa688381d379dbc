package voicebot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/emi-voice-agent/internal/callcontrol"
	"github.com/wolfman30/emi-voice-agent/internal/callrecord"
	"github.com/wolfman30/emi-voice-agent/internal/customer"
	"github.com/wolfman30/emi-voice-agent/internal/language"
	"github.com/wolfman30/emi-voice-agent/internal/prompts"
	"github.com/wolfman30/emi-voice-agent/internal/speech"
	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

const window = time.Second

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

// step is one inbound message, delivered after the clock advances.
type step struct {
	advance time.Duration
	data    []byte
}

type fakeConn struct {
	clock    *clock
	steps    []step
	writes   []map[string]any
	writeErr error
	closes   int
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	if len(f.steps) == 0 {
		return 0, nil, io.EOF
	}
	s := f.steps[0]
	f.steps = f.steps[1:]
	f.clock.now = f.clock.now.Add(s.advance)
	return 1, s.data, nil
}

func (f *fakeConn) WriteJSON(v any) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	f.writes = append(f.writes, m)
	return nil
}

func (f *fakeConn) Close() error {
	f.closes++
	return nil
}

func (f *fakeConn) events(name string) []map[string]any {
	var out []map[string]any
	for _, w := range f.writes {
		if w["event"] == name {
			out = append(out, w)
		}
	}
	return out
}

type fakeTranscriber struct {
	texts []string
	calls int
	// reports overrides the language hint in returned transcripts.
	reports language.Language
}

func (f *fakeTranscriber) Transcribe(_ context.Context, pcm []byte, hint language.Language) speech.Transcript {
	f.calls++
	if len(f.texts) == 0 {
		return speech.Transcript{Language: hint}
	}
	text := f.texts[0]
	f.texts = f.texts[1:]
	if f.reports != "" {
		hint = f.reports
	}
	return speech.Transcript{Text: text, Language: hint}
}

type fakeSynth struct {
	fail map[string]bool
}

func (f *fakeSynth) Synthesize(_ context.Context, text string, _ language.Language) ([]byte, error) {
	if f.fail[text] {
		return nil, speech.ErrNoAudio
	}
	return bytes.Repeat([]byte{7}, 640), nil
}

type fakeTransferer struct {
	numbers []string
	err     error
}

func (f *fakeTransferer) TransferToAgent(_ context.Context, number string) (callcontrol.TransferResult, error) {
	f.numbers = append(f.numbers, number)
	if f.err != nil {
		return callcontrol.TransferResult{}, f.err
	}
	return callcontrol.TransferResult{CallSID: "bridge1", Status: "queued"}, nil
}

type fakeRecorder struct {
	statuses []callrecord.Status
	turns    []callrecord.Turn
	summary  *callrecord.Summary
}

func (f *fakeRecorder) Status(_ context.Context, _ string, status callrecord.Status, _ string) {
	f.statuses = append(f.statuses, status)
}
func (f *fakeRecorder) Language(context.Context, string, string) {}
func (f *fakeRecorder) Turn(_ context.Context, _ string, t callrecord.Turn) {
	f.turns = append(f.turns, t)
}
func (f *fakeRecorder) Complete(_ context.Context, s callrecord.Summary) { f.summary = &s }

// spoken lists "prompt@language" for every prompt the agent played.
func (f *fakeRecorder) spoken() []string {
	var out []string
	for _, t := range f.turns {
		if t.Role == callrecord.RoleAgent {
			out = append(out, t.Prompt+"@"+t.Language)
		}
	}
	return out
}

type harness struct {
	clock      *clock
	conn       *fakeConn
	stt        *fakeTranscriber
	synth      *fakeSynth
	transferer *fakeTransferer
	recorder   *fakeRecorder
	ctl        *Controller
	logs       *bytes.Buffer
}

func newHarness(t *testing.T, transcripts ...string) *harness {
	t.Helper()
	h := &harness{
		clock:      &clock{now: time.Date(2026, 7, 20, 10, 0, 0, 0, time.UTC)},
		stt:        &fakeTranscriber{texts: transcripts},
		synth:      &fakeSynth{fail: map[string]bool{}},
		transferer: &fakeTransferer{},
		recorder:   &fakeRecorder{},
		logs:       &bytes.Buffer{},
	}
	h.conn = &fakeConn{clock: h.clock}
	logger := logging.NewWithWriter("debug", h.logs)
	ctl, err := NewController(Config{
		Resolver:    customer.NewResolver(nil, nil, logger),
		Transcriber: h.stt,
		Synthesizer: h.synth,
		Classifier:  language.NewClassifier(nil, logger),
		Prompts:     prompts.NewCatalog(),
		Transferer:  h.transferer,
		Recorder:    h.recorder,
		Logger:      logger,
		TurnWindow:  window,
		ChunkBytes:  320,
		Now:         h.clock.Now,
		Sleep:       func(context.Context, time.Duration) error { return nil },
	})
	require.NoError(t, err)
	h.ctl = ctl
	return h
}

func (h *harness) run(steps ...step) *Session {
	h.conn.steps = steps
	return h.ctl.Serve(context.Background(), h.conn, ConnectParams{CallSID: "CA100"})
}

func startMsg(customField string) step {
	msg := fmt.Sprintf(`{"event":"start","stream_sid":"MZ1","start":{"stream_sid":"MZ1","call_sid":"CA100","from":"+919876543210","custom_parameters":{"CustomField":%q}}}`, customField)
	return step{data: []byte(msg)}
}

func speechTurn() step {
	payload := encodePCM(bytes.Repeat([]byte{3, 1}, 160))
	return step{advance: window, data: []byte(`{"event":"media","stream_sid":"MZ1","media":{"payload":"` + payload + `"}}`)}
}

func silentTurn() step {
	payload := encodePCM(make([]byte, 320))
	return step{advance: window, data: []byte(`{"event":"media","stream_sid":"MZ1","media":{"payload":"` + payload + `"}}`)}
}

const raviTamil = "name=Ravi|loan_id=7824|amount=4,500|due_date=25 July|language_code=ta-IN"
const raviEnglish = "name=Ravi|loan_id=7824|amount=4,500|due_date=25 July|language_code=en-IN"

func TestScenarioHindiAffirmativeTransfers(t *testing.T) {
	h := newHarness(t, "हाँ", "हाँ बिलकुल")
	s := h.run(startMsg(raviTamil), speechTurn(), speechTurn())

	assert.Equal(t, []string{
		"greeting@ta-IN",
		"greeting@hi-IN",
		"emi_part1@hi-IN",
		"emi_part2@hi-IN",
		"agent_question@hi-IN",
		"transfer_notice@hi-IN",
	}, h.recorder.spoken())
	assert.Equal(t, language.Hindi, s.Language)
	assert.Equal(t, language.IntentAffirmative, s.Intent)
	assert.Equal(t, []string{"+919876543210"}, h.transferer.numbers)
	assert.Equal(t, StateClosed, s.State)
	assert.True(t, s.Terminal())
	assert.Equal(t, 1, h.conn.closes)

	// six prompts of two 320-byte chunks each
	media := h.conn.events("media")
	assert.Len(t, media, 12)
	assert.Equal(t, "MZ1", media[0]["stream_sid"])

	require.NotNil(t, h.recorder.summary)
	assert.Equal(t, callrecord.StatusAgentTransfer, h.recorder.summary.Outcome)
	assert.Equal(t, "hi-IN", h.recorder.summary.Language)
	// the outcome is written once, by Complete, after the greeting status
	assert.Equal(t, []callrecord.Status{callrecord.StatusInProgress}, h.recorder.statuses)
}

func TestLanguageFromSTTWhenKeywordsMiss(t *testing.T) {
	h := newHarness(t, "blah blah", "yes")
	h.stt.reports = language.Hindi
	s := h.run(startMsg(raviEnglish), speechTurn(), speechTurn())

	assert.Equal(t, []string{
		"greeting@en-IN",
		"greeting@hi-IN",
		"emi_part1@hi-IN",
		"emi_part2@hi-IN",
		"agent_question@hi-IN",
		"transfer_notice@hi-IN",
	}, h.recorder.spoken())
	assert.Equal(t, language.Hindi, s.Language)
	require.NotNil(t, h.recorder.summary)
	assert.Equal(t, "hi-IN", h.recorder.summary.Language)
}

func TestMarathiReportedBySTTOverridesDevanagariDetection(t *testing.T) {
	h := newHarness(t, "होय नक्की", "yes")
	h.stt.reports = language.Marathi
	s := h.run(startMsg(raviEnglish), speechTurn(), speechTurn())

	assert.Equal(t, language.Marathi, s.Language)
	assert.Len(t, h.transferer.numbers, 1)
}

func TestLanguageStaysAssignedWhenNothingDetected(t *testing.T) {
	h := newHarness(t, "blah blah", "yes")
	s := h.run(startMsg(raviEnglish), speechTurn(), speechTurn())

	assert.Equal(t, language.English, s.Language)
	assert.Equal(t, "greeting@en-IN", h.recorder.spoken()[0])
	assert.Equal(t, "emi_part1@en-IN", h.recorder.spoken()[1])
}

func TestScenarioSilenceEscalatesToTransfer(t *testing.T) {
	h := newHarness(t, "hello")
	s := h.run(startMsg(raviEnglish), speechTurn(), silentTurn(), silentTurn(), silentTurn())

	assert.Equal(t, []string{
		"greeting@en-IN",
		"emi_part1@en-IN",
		"emi_part2@en-IN",
		"agent_question@en-IN",
		"agent_question@en-IN",
		"transfer_notice@en-IN",
	}, h.recorder.spoken())
	assert.Equal(t, 2, s.Counters.AgentQuestion)
	assert.Len(t, h.transferer.numbers, 1)
	assert.Equal(t, 1, h.stt.calls, "silent windows never reach STT")
	assert.Equal(t, callrecord.StatusAgentTransfer, h.recorder.summary.Outcome)
	assert.Equal(t, "no clear answer to agent question", h.recorder.summary.Reason)
}

func TestScenarioIncompleteCustomerRejected(t *testing.T) {
	h := newHarness(t)
	s := h.run(startMsg("name=Ravi|loan_id=7824|due_date=25 July"), speechTurn())

	require.Len(t, h.conn.writes, 1)
	msg := h.conn.writes[0]
	assert.Equal(t, "error", msg["event"])
	body := msg["error"].(map[string]any)
	assert.Equal(t, "customer_data_incomplete", body["code"])
	assert.Equal(t, []any{"amount"}, body["missing_fields"])
	assert.Empty(t, h.conn.events("media"))
	assert.Empty(t, h.recorder.spoken())
	assert.Equal(t, 0, h.stt.calls)
	assert.Equal(t, StateClosed, s.State)
	assert.Equal(t, 1, h.conn.closes)
	assert.Equal(t, callrecord.StatusNotResolved, h.recorder.summary.Outcome)
}

func TestUnknownCustomerRejected(t *testing.T) {
	h := newHarness(t)
	h.run(step{data: []byte(`{"event":"start","stream_sid":"MZ1","start":{"call_sid":"CA100"}}`)})

	require.Len(t, h.conn.writes, 1)
	body := h.conn.writes[0]["error"].(map[string]any)
	assert.Equal(t, "customer_not_found", body["code"])
}

func TestNegativeSaysGoodbyeOnce(t *testing.T) {
	h := newHarness(t, "hello", "no, not interested", "yes")
	s := h.run(startMsg(raviEnglish), speechTurn(), speechTurn(), speechTurn(), speechTurn())

	spoken := h.recorder.spoken()
	assert.Equal(t, "goodbye@en-IN", spoken[len(spoken)-1])
	assert.Empty(t, h.transferer.numbers)
	assert.Equal(t, 2, h.stt.calls, "nothing is processed after the goodbye")
	assert.Equal(t, StateClosed, s.State)
	assert.Equal(t, callrecord.StatusCompleted, h.recorder.summary.Outcome)
	assert.Equal(t, language.IntentNegative, s.Intent)
}

func TestDidNotHearIsRepeatedWhileDetectingLanguage(t *testing.T) {
	h := newHarness(t)
	s := h.run(startMsg(raviEnglish), silentTurn(), silentTurn(), silentTurn(), step{data: []byte(`{"event":"stop"}`)})

	assert.Equal(t, []string{
		"greeting@en-IN",
		"did_not_hear@en-IN",
		"did_not_hear@en-IN",
		"did_not_hear@en-IN",
	}, h.recorder.spoken())
	assert.Equal(t, 3, s.Counters.DidNotHear)
	assert.Equal(t, StateClosed, s.State)
	assert.Equal(t, callrecord.StatusCompleted, h.recorder.summary.Outcome)
	assert.Equal(t, "caller hung up", h.recorder.summary.Reason)
}

func TestLanguageCorrectionHappensOnce(t *testing.T) {
	h := newHarness(t, "वणक्कम नमस्ते")
	h.run(startMsg(raviTamil), speechTurn())

	spoken := h.recorder.spoken()
	require.GreaterOrEqual(t, len(spoken), 2)
	assert.Equal(t, "greeting@hi-IN", spoken[1])
	count := 0
	for _, p := range spoken {
		if p == "greeting@hi-IN" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSkippedPromptDoesNotEndCall(t *testing.T) {
	h := newHarness(t, "hello", "yes")
	catalog := prompts.NewCatalog()
	greeting, err := catalog.Render(prompts.Greeting, language.English, prompts.Fields{Name: "Ravi", LoanID: "7824", Amount: "4,500", DueDate: "25 July"})
	require.NoError(t, err)
	h.synth.fail[greeting.Text] = true

	h.run(startMsg(raviEnglish), speechTurn(), speechTurn())

	spoken := h.recorder.spoken()
	assert.NotContains(t, spoken, "greeting@en-IN")
	assert.Contains(t, spoken, "transfer_notice@en-IN")
	assert.Len(t, h.transferer.numbers, 1)
}

func TestFailedTransferStillEndsCall(t *testing.T) {
	h := newHarness(t, "hello", "connect me to an agent")
	h.transferer.err = errors.New("exotel down")
	s := h.run(startMsg(raviEnglish), speechTurn(), speechTurn(), speechTurn())

	assert.Len(t, h.transferer.numbers, 1)
	assert.Equal(t, language.IntentAgentTransfer, s.Intent)
	assert.Equal(t, 2, h.stt.calls)
	assert.Contains(t, h.logs.String(), "agent transfer failed")
}

func TestSendFailureEndsInErrorTerminal(t *testing.T) {
	h := newHarness(t)
	h.conn.writeErr = errors.New("broken pipe")
	s := h.run(startMsg(raviEnglish), speechTurn())

	assert.True(t, s.Terminal())
	assert.Equal(t, StateClosed, s.State)
	assert.Equal(t, callrecord.StatusFailed, h.recorder.summary.Outcome)
	assert.Equal(t, 0, h.stt.calls)
	assert.Equal(t, 1, h.conn.closes)
	assert.Contains(t, h.logs.String(), "conversation failed")
}

func TestMalformedMessagesAreIgnored(t *testing.T) {
	h := newHarness(t, "hello", "yes")
	h.run(
		step{data: []byte(`{"event":"connected"}`)},
		step{data: []byte(`not json`)},
		step{data: []byte(`{"event":"media","media":{"payload":"AAAA"}}`)},
		startMsg(raviEnglish),
		step{data: []byte(`{"event":"media","media":{"payload":"%%%"}}`)},
		step{data: []byte(`{"event":"surprise"}`)},
		speechTurn(),
		speechTurn(),
	)
	assert.Len(t, h.transferer.numbers, 1)
	assert.Contains(t, h.logs.String(), "malformed stream message")
	assert.Contains(t, h.logs.String(), "unexpected stream event")
}

func TestDisconnectBeforeStartRecordsNothing(t *testing.T) {
	h := newHarness(t)
	s := h.run()
	assert.Nil(t, h.recorder.summary)
	assert.Equal(t, 1, h.conn.closes)
	assert.Equal(t, StateAwaitingStart, s.State)
}

func TestNewControllerRequiresCollaborators(t *testing.T) {
	_, err := NewController(Config{})
	assert.Error(t, err)
}
