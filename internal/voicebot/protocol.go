package voicebot

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/wolfman30/emi-voice-agent/internal/customer"
)

// Exotel stream events.
const (
	eventConnected = "connected"
	eventStart     = "start"
	eventMedia     = "media"
	eventMark      = "mark"
	eventDTMF      = "dtmf"
	eventStop      = "stop"
	eventClear     = "clear"
	eventError     = "error"
)

type inboundMessage struct {
	Event       string        `json:"event"`
	StreamSID   string        `json:"stream_sid"`
	Start       *startPayload `json:"start,omitempty"`
	Media       *mediaPayload `json:"media,omitempty"`
	Mark        *markPayload  `json:"mark,omitempty"`
	DTMF        *dtmfPayload  `json:"dtmf,omitempty"`
	CustomField string        `json:"custom_field,omitempty"`
}

type startPayload struct {
	StreamSID        string         `json:"stream_sid"`
	CallSID          string         `json:"call_sid"`
	AccountSID       string         `json:"account_sid"`
	From             string         `json:"from"`
	To               string         `json:"to"`
	CustomParameters map[string]any `json:"custom_parameters"`
}

type mediaPayload struct {
	Payload string `json:"payload"`
}

type markPayload struct {
	Name string `json:"name"`
}

type dtmfPayload struct {
	Digit string `json:"digit"`
}

type outboundMedia struct {
	Event     string          `json:"event"`
	StreamSID string          `json:"stream_sid,omitempty"`
	Media     outboundPayload `json:"media"`
}

type outboundPayload struct {
	Payload string `json:"payload"`
}

type outboundMark struct {
	Event     string      `json:"event"`
	StreamSID string      `json:"stream_sid,omitempty"`
	Mark      markPayload `json:"mark"`
}

// ErrorMessage is sent to the peer when a call cannot proceed.
type ErrorMessage struct {
	Event string    `json:"event"`
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code          string   `json:"code"`
	Message       string   `json:"message"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// ConnectParams are the correlation values carried on the stream URL.
type ConnectParams struct {
	TempCallID  string
	CallSID     string
	Phone       string
	CustomField string
}

// ParamsFromQuery reads correlation values from the WebSocket URL.
func ParamsFromQuery(q url.Values) ConnectParams {
	return ConnectParams{
		TempCallID:  firstParam(q, "temp_call_id", "tempCallId"),
		CallSID:     firstParam(q, "call_sid", "CallSid"),
		Phone:       firstParam(q, "phone", "From"),
		CustomField: firstParam(q, "CustomField", "custom_field"),
	}
}

func firstParam(q url.Values, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

// keys merges URL parameters with what the start event carries. Values on
// the URL win because the dialer set them explicitly.
func (p ConnectParams) keys(msg inboundMessage) customer.Keys {
	keys := customer.Keys{
		TempCallID:  p.TempCallID,
		CallSID:     p.CallSID,
		Phone:       p.Phone,
		CustomField: p.CustomField,
	}
	start := msg.Start
	if start == nil {
		start = &startPayload{}
	}
	if keys.CallSID == "" {
		keys.CallSID = strings.TrimSpace(start.CallSID)
	}
	if keys.Phone == "" {
		keys.Phone = strings.TrimSpace(start.From)
	}
	if keys.TempCallID == "" {
		keys.TempCallID = customParam(start.CustomParameters, "temp_call_id", "tempCallId")
	}
	if keys.CustomField == "" {
		keys.CustomField = customParam(start.CustomParameters, "CustomField", "customField", "custom_field")
	}
	if keys.CustomField == "" {
		keys.CustomField = strings.TrimSpace(msg.CustomField)
	}
	return keys
}

func customParam(params map[string]any, names ...string) string {
	for _, name := range names {
		v, ok := params[name]
		if !ok || v == nil {
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			return s
		}
	}
	return ""
}
