package callrecord

import (
	"context"

	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

// Recorder fans call activity out to every configured sink. Sinks are
// optional and failures are logged, never returned: recording must not
// interrupt a live call.
type Recorder struct {
	state     *StateStore
	log       *StatusLog
	archive   *Archive
	publisher *EventPublisher
	logger    *logging.Logger
}

// RecorderConfig lists the sinks; nil sinks are skipped.
type RecorderConfig struct {
	State     *StateStore
	StatusLog *StatusLog
	Archive   *Archive
	Publisher *EventPublisher
	Logger    *logging.Logger
}

func NewRecorder(cfg RecorderConfig) *Recorder {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{
		state:     cfg.State,
		log:       cfg.StatusLog,
		archive:   cfg.Archive,
		publisher: cfg.Publisher,
		logger:    logger,
	}
}

// Status records a status transition.
func (r *Recorder) Status(ctx context.Context, callSID string, status Status, message string) {
	if r == nil || callSID == "" {
		return
	}
	if r.state != nil {
		if err := r.state.SetStatus(ctx, callSID, status, message); err != nil {
			r.logger.Warn("call state update failed", "call_sid", callSID, "status", status, "error", err)
		}
	}
	if r.log != nil {
		if _, err := r.log.Append(ctx, callSID, status, message); err != nil {
			r.logger.Warn("status log append failed", "call_sid", callSID, "status", status, "error", err)
		}
	}
}

// Language records the language the call is conducted in.
func (r *Recorder) Language(ctx context.Context, callSID, lang string) {
	if r == nil || r.state == nil || callSID == "" {
		return
	}
	if err := r.state.SetLanguage(ctx, callSID, lang); err != nil {
		r.logger.Warn("call language update failed", "call_sid", callSID, "error", err)
	}
}

// Turn appends an utterance to the live transcript.
func (r *Recorder) Turn(ctx context.Context, callSID string, turn Turn) {
	if r == nil || r.state == nil || callSID == "" {
		return
	}
	if err := r.state.AppendTurn(ctx, callSID, turn); err != nil {
		r.logger.Warn("transcript append failed", "call_sid", callSID, "error", err)
	}
}

// Complete persists the final summary, archives the transcript and
// publishes the outcome event.
func (r *Recorder) Complete(ctx context.Context, s Summary) {
	if r == nil || s.CallSID == "" {
		return
	}
	r.Status(ctx, s.CallSID, s.Outcome, s.Reason)
	if r.log != nil {
		if err := r.log.SaveSession(ctx, s); err != nil {
			r.logger.Warn("call session save failed", "call_sid", s.CallSID, "error", err)
		}
	}
	key, err := r.archive.Put(ctx, s)
	if err != nil {
		r.logger.Warn("transcript archive failed", "call_sid", s.CallSID, "error", err)
	}
	if err := r.publisher.PublishCompleted(ctx, s, key); err != nil {
		r.logger.Warn("call completed event failed", "call_sid", s.CallSID, "error", err)
	}
	r.logger.Info("call recorded",
		"call_sid", s.CallSID,
		"outcome", s.Outcome,
		"language", s.Language,
		"turns", len(s.Turns),
		"archive_key", key,
	)
}
