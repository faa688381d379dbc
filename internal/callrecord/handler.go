package callrecord

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

type stateReader interface {
	Get(ctx context.Context, callSID string) (*CallState, error)
	Transcript(ctx context.Context, callSID string) ([]Turn, error)
}

type historyReader interface {
	History(ctx context.Context, callSID string, statuses ...Status) ([]StatusUpdate, error)
}

// Handler serves read-only call status lookups.
type Handler struct {
	state   stateReader
	history historyReader
	logger  *logging.Logger
}

// NewHandler creates a call status handler; either store may be nil.
func NewHandler(state *StateStore, log *StatusLog, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{logger: logger}
	if state != nil {
		h.state = state
	}
	if log != nil {
		h.history = log
	}
	return h
}

// Routes returns a chi router with call status routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{callSID}", h.GetCall)
	return r
}

// CallView is the response of GetCall.
type CallView struct {
	CallSID    string         `json:"call_sid"`
	Live       *CallState     `json:"live,omitempty"`
	Transcript []Turn         `json:"transcript,omitempty"`
	History    []StatusUpdate `json:"history,omitempty"`
}

// GetCall returns the live state, transcript and status history of a call.
// GET /calls/{callSID}?status=agent_transfer,failed
func (h *Handler) GetCall(w http.ResponseWriter, r *http.Request) {
	callSID := strings.TrimSpace(chi.URLParam(r, "callSID"))
	if callSID == "" {
		http.Error(w, `{"error": "call_sid required"}`, http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	view := CallView{CallSID: callSID}

	if h.state != nil {
		live, err := h.state.Get(ctx, callSID)
		if err != nil {
			h.logger.Error("failed to read call state", "call_sid", callSID, "error", err)
			http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			return
		}
		view.Live = live
		if live != nil {
			turns, err := h.state.Transcript(ctx, callSID)
			if err != nil {
				h.logger.Warn("failed to read transcript", "call_sid", callSID, "error", err)
			}
			view.Transcript = turns
		}
	}
	if h.history != nil {
		history, err := h.history.History(ctx, callSID, parseStatuses(r.URL.Query().Get("status"))...)
		if err != nil {
			h.logger.Error("failed to read status history", "call_sid", callSID, "error", err)
			http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			return
		}
		view.History = history
	}
	if view.Live == nil && len(view.History) == 0 {
		http.Error(w, `{"error": "call not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.logger.Error("failed to encode call view", "call_sid", callSID, "error", err)
	}
}

func parseStatuses(raw string) []Status {
	var out []Status
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, Status(part))
		}
	}
	return out
}
