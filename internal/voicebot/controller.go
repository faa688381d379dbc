// Package voicebot runs the EMI reminder conversation over an Exotel
// bidirectional media stream.
package voicebot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/emi-voice-agent/internal/audio"
	"github.com/wolfman30/emi-voice-agent/internal/callcontrol"
	"github.com/wolfman30/emi-voice-agent/internal/callrecord"
	"github.com/wolfman30/emi-voice-agent/internal/customer"
	"github.com/wolfman30/emi-voice-agent/internal/language"
	"github.com/wolfman30/emi-voice-agent/internal/observability/metrics"
	"github.com/wolfman30/emi-voice-agent/internal/prompts"
	"github.com/wolfman30/emi-voice-agent/internal/speech"
	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

// Conn is the subset of a WebSocket connection the controller uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	Close() error
}

// Transcriber turns a turn's audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte, hint language.Language) speech.Transcript
}

// Synthesizer renders prompt text as telephony PCM.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, lang language.Language) ([]byte, error)
}

// IntentClassifier labels transcripts.
type IntentClassifier interface {
	Language(transcript string) language.Language
	Intent(ctx context.Context, transcript string, lang language.Language) language.Intent
}

// CustomerResolver finds the customer a call belongs to.
type CustomerResolver interface {
	Resolve(ctx context.Context, keys customer.Keys) (customer.Profile, customer.Source, error)
}

// PromptCatalog resolves prompt text.
type PromptCatalog interface {
	Render(kind prompts.Kind, lang language.Language, f prompts.Fields) (prompts.Utterance, error)
}

// Transferer hands the caller to a human agent.
type Transferer interface {
	TransferToAgent(ctx context.Context, customerNumber string) (callcontrol.TransferResult, error)
}

// Recorder persists call activity. Implementations must not block the call
// on failures.
type Recorder interface {
	Status(ctx context.Context, callSID string, status callrecord.Status, message string)
	Language(ctx context.Context, callSID, lang string)
	Turn(ctx context.Context, callSID string, turn callrecord.Turn)
	Complete(ctx context.Context, s callrecord.Summary)
}

// Config wires a Controller. Transferer and Recorder are optional.
type Config struct {
	Resolver     CustomerResolver
	Transcriber  Transcriber
	Synthesizer  Synthesizer
	Classifier   IntentClassifier
	Prompts      PromptCatalog
	Transferer   Transferer
	Recorder     Recorder
	Metrics      *metrics.VoiceMetrics
	Logger       *logging.Logger
	TurnWindow   time.Duration
	ChunkBytes   int
	MaxQuestions int
	Silence      SilenceFunc
	Now          func() time.Time
	Sleep        SleepFunc
}

// Controller runs conversations. It holds no per-call state and is shared
// by every connection.
type Controller struct {
	resolver     CustomerResolver
	transcriber  Transcriber
	synthesizer  Synthesizer
	classifier   IntentClassifier
	prompts      PromptCatalog
	transferer   Transferer
	recorder     Recorder
	metrics      *metrics.VoiceMetrics
	logger       *logging.Logger
	turnWindow   time.Duration
	maxQuestions int
	silence      SilenceFunc
	streamer     *Streamer
	now          func() time.Time
}

// NewController validates the required collaborators and applies defaults.
func NewController(cfg Config) (*Controller, error) {
	switch {
	case cfg.Resolver == nil:
		return nil, errors.New("voicebot: customer resolver is required")
	case cfg.Transcriber == nil:
		return nil, errors.New("voicebot: transcriber is required")
	case cfg.Synthesizer == nil:
		return nil, errors.New("voicebot: synthesizer is required")
	case cfg.Classifier == nil:
		return nil, errors.New("voicebot: classifier is required")
	case cfg.Prompts == nil:
		return nil, errors.New("voicebot: prompt catalog is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	window := cfg.TurnWindow
	if window <= 0 {
		window = time.Second
	}
	maxQuestions := cfg.MaxQuestions
	if maxQuestions <= 0 {
		maxQuestions = DefaultMaxAgentQuestions
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		resolver:     cfg.Resolver,
		transcriber:  cfg.Transcriber,
		synthesizer:  cfg.Synthesizer,
		classifier:   cfg.Classifier,
		prompts:      cfg.Prompts,
		transferer:   cfg.Transferer,
		recorder:     cfg.Recorder,
		metrics:      cfg.Metrics,
		logger:       logger,
		turnWindow:   window,
		maxQuestions: maxQuestions,
		silence:      cfg.Silence,
		streamer:     NewStreamer(cfg.ChunkBytes, cfg.Sleep),
		now:          now,
	}, nil
}

// Serve runs one call until the peer stops the stream, the connection
// drops, or the conversation reaches a terminal state. The connection is
// closed exactly once before Serve returns.
func (c *Controller) Serve(ctx context.Context, conn Conn, params ConnectParams) *Session {
	rc := &call{
		ctl:    c,
		conn:   conn,
		params: params,
		logger: c.logger,
		session: &Session{
			ID:       sessionID(params),
			State:    StateAwaitingStart,
			Language: language.Default,
		},
	}
	defer rc.close(ctx)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !rc.session.terminal {
				rc.logger.Info("stream connection ended", "state", rc.session.State.String(), "error", err)
			}
			return rc.session
		}
		if done := rc.handle(ctx, data); done {
			return rc.session
		}
	}
}

func sessionID(p ConnectParams) string {
	switch {
	case p.CallSID != "":
		return p.CallSID
	case p.TempCallID != "":
		return p.TempCallID
	case p.Phone != "":
		return p.Phone
	default:
		return "temp_call_" + uuid.NewString()
	}
}

// call is the per-connection runner around a Session.
type call struct {
	ctl     *Controller
	conn    Conn
	params  ConnectParams
	session *Session
	logger  *logging.Logger
	closed  bool
}

// handle processes one inbound message and reports whether the call is over.
func (c *call) handle(ctx context.Context, data []byte) bool {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("malformed stream message", "error", err, "bytes", len(data))
		return false
	}
	switch msg.Event {
	case eventConnected:
		c.logger.Debug("stream connected")
	case eventStart:
		return c.start(ctx, msg)
	case eventMedia:
		return c.media(ctx, msg)
	case eventMark:
		if msg.Mark != nil {
			c.logger.Debug("playback mark reached", "mark", msg.Mark.Name)
		}
	case eventDTMF:
		if msg.DTMF != nil {
			c.logger.Info("dtmf received", "digit", msg.DTMF.Digit)
		}
	case eventClear:
		c.logger.Debug("stream clear received")
	case eventStop:
		c.logger.Info("stream stopped by peer", "state", c.session.State.String())
		if !c.session.terminal && c.session.started {
			c.session.markTerminal(StateClosed, callrecord.StatusCompleted, "caller hung up")
		}
		return true
	default:
		c.logger.Warn("unexpected stream event", "event", msg.Event)
	}
	return false
}

func (c *call) start(ctx context.Context, msg inboundMessage) bool {
	s := c.session
	if s.started {
		c.logger.Warn("duplicate start event ignored")
		return false
	}
	s.started = true
	s.StartedAt = c.ctl.now()
	if msg.Start != nil {
		s.StreamSID = firstNonEmpty(msg.Start.StreamSID, msg.StreamSID)
	} else {
		s.StreamSID = msg.StreamSID
	}
	keys := c.params.keys(msg)
	s.CallSID = firstNonEmpty(keys.CallSID, s.ID)
	c.logger = c.logger.ForCall(s.CallSID, s.StreamSID)
	c.ctl.metrics.SessionStarted()

	profile, source, err := c.ctl.resolver.Resolve(ctx, keys)
	if err != nil {
		c.rejectUnresolved(ctx, err)
		return true
	}
	s.Customer = profile
	s.Source = source
	s.Language = profile.Language()
	s.State = StateInitialGreeting
	c.logger.Info("customer resolved",
		"source", string(source),
		"customer_id", profile.ID,
		"phone", customer.MaskPhone(profile.PhoneNumber),
		"language", s.Language.Code(),
	)
	c.record(ctx, callrecord.StatusInProgress, "greeting")
	c.recordLanguage(ctx)

	return c.runGuarded(ctx, func() error {
		if err := c.say(ctx, prompts.Greeting); err != nil {
			return err
		}
		s.State = StateWaitingForLangDetect
		return nil
	})
}

// rejectUnresolved ends a call whose customer could not be identified. No
// audio is played.
func (c *call) rejectUnresolved(ctx context.Context, err error) {
	s := c.session
	body := ErrorBody{Code: "customer_not_found", Message: "customer data could not be resolved for this call"}
	var incomplete *customer.IncompleteError
	if errors.As(err, &incomplete) {
		body = ErrorBody{
			Code:          "customer_data_incomplete",
			Message:       "customer record is missing required fields",
			MissingFields: incomplete.Missing,
		}
	}
	c.logger.Warn("customer resolution failed", "error", err, "code", body.Code)
	if werr := c.conn.WriteJSON(ErrorMessage{Event: eventError, Error: body}); werr != nil {
		c.logger.Warn("failed to send resolution error", "error", werr)
	}
	s.markTerminal(StateClosed, callrecord.StatusNotResolved, body.Code)
}

func (c *call) media(ctx context.Context, msg inboundMessage) bool {
	s := c.session
	if !s.started {
		c.logger.Debug("media before start ignored")
		return false
	}
	if s.terminal {
		return true
	}
	if msg.Media == nil {
		return false
	}
	frame, err := audio.DecodeFrame(msg.Media.Payload)
	if err != nil {
		c.logger.Warn("undecodable media frame", "error", err)
		return false
	}
	if s.Buffer == nil {
		s.Buffer = NewBuffer(c.ctl.turnWindow, c.ctl.silence, c.ctl.now())
	}
	s.Buffer.Append(frame)
	now := c.ctl.now()
	if !s.Buffer.ShouldFlush(now) {
		return false
	}
	pcm := s.Buffer.Flush(now)
	return c.runGuarded(ctx, func() error { return c.turn(ctx, pcm) })
}

// runGuarded runs one step of the conversation. Any error or panic ends
// the call with an apology. It reports whether the call is over.
func (c *call) runGuarded(ctx context.Context, step func() error) (done bool) {
	defer func() {
		if r := recover(); r != nil {
			c.fail(ctx, fmt.Errorf("voicebot: panic: %v", r))
			done = true
		}
	}()
	if err := step(); err != nil {
		c.fail(ctx, err)
		return true
	}
	s := c.session
	if s.terminal {
		return true
	}
	if s.Buffer == nil {
		s.Buffer = NewBuffer(c.ctl.turnWindow, c.ctl.silence, c.ctl.now())
	} else {
		s.Buffer.Reset(c.ctl.now())
	}
	return false
}

// turn handles one flushed window of caller audio.
func (c *call) turn(ctx context.Context, pcm []byte) error {
	s := c.session
	var transcript speech.Transcript
	if len(pcm) > 0 {
		transcript = c.ctl.transcriber.Transcribe(ctx, pcm, s.Language)
	}
	heard := !transcript.Empty()
	c.ctl.metrics.ObserveTurn(s.State.String(), heard)
	if heard {
		c.appendTurn(ctx, callrecord.Turn{
			Role:     callrecord.RoleCustomer,
			Text:     transcript.Text,
			Language: transcript.Language.Code(),
			At:       c.ctl.now(),
		})
	}
	c.logger.Debug("turn completed", "state", s.State.String(), "audio_bytes", len(pcm), "heard", heard)

	switch s.State {
	case StateWaitingForLangDetect:
		return c.onLanguageTurn(ctx, transcript)
	case StateWaitingAgentResponse:
		return c.onAgentTurn(ctx, transcript)
	default:
		return nil
	}
}

func (c *call) onLanguageTurn(ctx context.Context, t speech.Transcript) error {
	s := c.session
	if t.Empty() {
		s.Counters.DidNotHear++
		c.logger.Info("no speech during language detection", "repeats", s.Counters.DidNotHear)
		return c.say(ctx, prompts.DidNotHear)
	}

	detected := c.ctl.classifier.Language(t.Text)
	switch {
	case detected == language.Default && t.Language.Valid():
		detected = t.Language
	case detected == language.Hindi && t.Language == language.Marathi:
		// Devanagari alone cannot separate the two.
		detected = language.Marathi
	}
	if detected != s.Language && !s.greetingCorrected {
		s.greetingCorrected = true
		c.logger.Info("caller language differs from assigned",
			"assigned", s.Language.Code(),
			"detected", detected.Code(),
		)
		s.Language = detected
		if err := c.say(ctx, prompts.Greeting); err != nil {
			return err
		}
	}
	s.Language = detected
	c.recordLanguage(ctx)

	for _, kind := range []prompts.Kind{prompts.EMIPart1, prompts.EMIPart2, prompts.AgentQuestion} {
		if err := c.say(ctx, kind); err != nil {
			return err
		}
	}
	s.Counters.AgentQuestion = 1
	s.State = StateWaitingAgentResponse
	return nil
}

func (c *call) onAgentTurn(ctx context.Context, t speech.Transcript) error {
	s := c.session
	intent := language.IntentUnclear
	if !t.Empty() {
		intent = c.ctl.classifier.Intent(ctx, t.Text, s.Language)
		c.ctl.metrics.ObserveIntent(string(intent), s.Language.Code())
	}
	s.Intent = intent

	action := NextAction(intent, s.Counters.AgentQuestion, c.ctl.maxQuestions)
	c.logger.Info("agent question answered",
		"intent", string(intent),
		"deliveries", s.Counters.AgentQuestion,
		"action", action.String(),
	)
	switch action {
	case ActionTransfer:
		reason := "customer asked for an agent"
		if !intent.WantsAgent() {
			reason = "no clear answer to agent question"
		}
		return c.transfer(ctx, reason)
	case ActionGoodbye:
		return c.goodbye(ctx)
	default:
		s.Counters.AgentQuestion++
		return c.say(ctx, prompts.AgentQuestion)
	}
}

// transfer plays the notice and hands the caller to an agent. A failed
// transfer is logged; the conversation does not resume.
func (c *call) transfer(ctx context.Context, reason string) error {
	s := c.session
	if s.terminal {
		return nil
	}
	s.State = StateTransferringToAgent
	sayErr := c.say(ctx, prompts.TransferNotice)
	if !s.markTerminal(StateTransferringToAgent, callrecord.StatusAgentTransfer, reason) {
		return sayErr
	}
	if c.ctl.transferer == nil {
		c.logger.Warn("agent transfer not configured")
		c.ctl.metrics.ObserveTransfer("disabled")
		return sayErr
	}
	res, err := c.ctl.transferer.TransferToAgent(ctx, s.Customer.PhoneNumber)
	if err != nil {
		c.logger.Error("agent transfer failed", "error", err)
		c.ctl.metrics.ObserveTransfer("failed")
		return sayErr
	}
	c.ctl.metrics.ObserveTransfer("ok")
	c.logger.Info("agent transfer placed", "transfer_call_sid", res.CallSID, "status", res.Status)
	return sayErr
}

func (c *call) goodbye(ctx context.Context) error {
	s := c.session
	if s.terminal {
		return nil
	}
	s.State = StateGoodbyeDecline
	err := c.say(ctx, prompts.Goodbye)
	s.markTerminal(StateGoodbyeDecline, callrecord.StatusCompleted, "customer declined agent")
	return err
}

// fail ends the call after an unrecoverable error, attempting one apology.
func (c *call) fail(ctx context.Context, err error) {
	s := c.session
	if s.terminal {
		c.logger.Warn("error after terminal action", "error", err)
		return
	}
	c.logger.Error("conversation failed", "state", s.State.String(), "error", err)
	if !s.apologized {
		s.apologized = true
		if sayErr := c.say(ctx, prompts.Apology); sayErr != nil {
			c.logger.Warn("apology not delivered", "error", sayErr)
		}
	}
	s.markTerminal(StateErrorTerminal, callrecord.StatusFailed, err.Error())
}

// say renders, synthesizes and streams one prompt in the session language.
// A prompt that cannot be synthesized is skipped; only a failure to send
// audio is returned.
func (c *call) say(ctx context.Context, kind prompts.Kind) error {
	s := c.session
	if s.terminal {
		return nil
	}
	u, err := c.ctl.prompts.Render(kind, s.Language, s.fields())
	if err != nil {
		return fmt.Errorf("voicebot: render %s: %w", kind, err)
	}
	pcm, err := c.ctl.synthesizer.Synthesize(ctx, u.Text, u.Language)
	if err != nil || len(pcm) == 0 {
		c.logger.Warn("prompt skipped", "prompt", string(kind), "language", u.Language.Code(), "error", err)
		c.ctl.metrics.ObservePrompt(string(kind), "skipped")
		return nil
	}
	c.appendTurn(ctx, callrecord.Turn{
		Role:     callrecord.RoleAgent,
		Prompt:   string(kind),
		Text:     u.Text,
		Language: u.Language.Code(),
		At:       c.ctl.now(),
	})
	chunks, err := c.ctl.streamer.Stream(ctx, pcm, c.sendMedia)
	if err != nil {
		c.ctl.metrics.ObservePrompt(string(kind), "failed")
		return fmt.Errorf("voicebot: stream %s after %d chunks: %w", kind, chunks, err)
	}
	if err := c.conn.WriteJSON(outboundMark{Event: eventMark, StreamSID: s.StreamSID, Mark: markPayload{Name: string(kind)}}); err != nil {
		c.logger.Debug("mark not sent", "prompt", string(kind), "error", err)
	}
	c.ctl.metrics.ObservePrompt(string(kind), "played")
	c.logger.Debug("prompt played", "prompt", string(kind), "language", u.Language.Code(), "chunks", chunks)
	return nil
}

func (c *call) sendMedia(chunk []byte) error {
	return c.conn.WriteJSON(outboundMedia{
		Event:     eventMedia,
		StreamSID: c.session.StreamSID,
		Media:     outboundPayload{Payload: audio.EncodeFrame(chunk)},
	})
}

func (c *call) appendTurn(ctx context.Context, t callrecord.Turn) {
	c.session.turns = append(c.session.turns, t)
	if c.ctl.recorder != nil {
		c.ctl.recorder.Turn(ctx, c.session.CallSID, t)
	}
}

func (c *call) record(ctx context.Context, status callrecord.Status, message string) {
	if c.ctl.recorder != nil {
		c.ctl.recorder.Status(ctx, c.session.CallSID, status, message)
	}
}

func (c *call) recordLanguage(ctx context.Context) {
	if c.ctl.recorder != nil {
		c.ctl.recorder.Language(ctx, c.session.CallSID, c.session.Language.Code())
	}
}

// close releases the connection and records the outcome. Safe to call more
// than once.
func (c *call) close(ctx context.Context) {
	if c.closed {
		return
	}
	c.closed = true
	s := c.session
	if err := c.conn.Close(); err != nil {
		c.logger.Debug("connection close", "error", err)
	}
	if !s.started {
		return
	}
	if !s.terminal {
		s.markTerminal(StateClosed, callrecord.StatusFailed, "connection dropped")
	}
	summary := s.summary(c.ctl.now())
	s.State = StateClosed
	c.ctl.metrics.SessionEnded(string(summary.Outcome))
	if c.ctl.recorder != nil {
		c.ctl.recorder.Complete(context.WithoutCancel(ctx), summary)
	}
	c.logger.Info("call closed",
		"outcome", string(summary.Outcome),
		"language", summary.Language,
		"turns", len(summary.Turns),
		"agent_questions", s.Counters.AgentQuestion,
		"did_not_hear", s.Counters.DidNotHear,
	)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
