// Package callrecord persists what happened on each call: live state in
// Redis, a status history in Postgres, the transcript in S3, and an outcome
// event on SQS for the dashboard.
package callrecord

import "time"

// Status is a call lifecycle status as shown on the dashboard.
type Status string

const (
	StatusInProgress    Status = "in_progress"
	StatusAgentTransfer Status = "agent_transfer"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
	StatusNotResolved   Status = "not_resolved"
)

// Role identifies who spoke a turn.
type Role string

const (
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
)

// Turn is one utterance in the call transcript.
type Turn struct {
	Role     Role      `json:"role"`
	Prompt   string    `json:"prompt,omitempty"`
	Text     string    `json:"text"`
	Language string    `json:"language"`
	At       time.Time `json:"at"`
}

// StatusUpdate is one entry of a call's status history.
type StatusUpdate struct {
	ID        string    `json:"id"`
	CallSID   string    `json:"call_sid"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is the final record of a call.
type Summary struct {
	CallSID       string    `json:"call_sid"`
	StreamSID     string    `json:"stream_sid,omitempty"`
	CustomerID    string    `json:"customer_id,omitempty"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	Outcome       Status    `json:"outcome"`
	Language      string    `json:"language"`
	Intent        string    `json:"intent,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Turns         []Turn    `json:"turns"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at"`
}
