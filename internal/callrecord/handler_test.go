package callrecord

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

type stubState struct {
	live  *CallState
	turns []Turn
	err   error
}

func (s stubState) Get(context.Context, string) (*CallState, error) { return s.live, s.err }
func (s stubState) Transcript(context.Context, string) ([]Turn, error) {
	return s.turns, nil
}

type stubHistory struct {
	updates []StatusUpdate
	filter  []Status
}

func (s *stubHistory) History(_ context.Context, _ string, statuses ...Status) ([]StatusUpdate, error) {
	s.filter = statuses
	return s.updates, nil
}

func serveCall(h *Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandlerGetCall(t *testing.T) {
	at := time.Date(2026, 7, 25, 10, 0, 0, 0, time.UTC)
	history := &stubHistory{updates: []StatusUpdate{{ID: "u1", CallSID: "CA1", Status: StatusAgentTransfer, CreatedAt: at}}}
	h := &Handler{
		state: stubState{
			live:  &CallState{CallSID: "CA1", Status: StatusAgentTransfer, Language: "hi-IN", UpdatedAt: at},
			turns: []Turn{{Role: RoleAgent, Prompt: "greeting", Text: "Namaste", Language: "hi-IN", At: at}},
		},
		history: history,
		logger:  logging.NewWithWriter("error", io.Discard),
	}

	rec := serveCall(h, "/CA1?status=agent_transfer,%20failed")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []Status{StatusAgentTransfer, StatusFailed}, history.filter)

	var view CallView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "CA1", view.CallSID)
	require.NotNil(t, view.Live)
	assert.Equal(t, "hi-IN", view.Live.Language)
	assert.Len(t, view.Transcript, 1)
	assert.Len(t, view.History, 1)
}

func TestHandlerGetCallNotFound(t *testing.T) {
	h := &Handler{state: stubState{}, history: &stubHistory{}, logger: logging.NewWithWriter("error", io.Discard)}
	assert.Equal(t, http.StatusNotFound, serveCall(h, "/CA404").Code)
}

func TestHandlerGetCallStateError(t *testing.T) {
	h := &Handler{state: stubState{err: errors.New("redis down")}, logger: logging.NewWithWriter("error", io.Discard)}
	assert.Equal(t, http.StatusInternalServerError, serveCall(h, "/CA1").Code)
}

