package callrecord

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	callStateKeyPrefix  = "voice:call:"
	transcriptKeyPrefix = "voice:transcript:"
	callStateTTL        = 2 * time.Hour
)

// CallState is the live view of a call kept in Redis.
type CallState struct {
	CallSID   string    `json:"call_sid"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Language  string    `json:"language,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StateStore mirrors call status and transcript into Redis for the
// dashboard's live view.
type StateStore struct {
	redis *redis.Client
	now   func() time.Time
}

func NewStateStore(client *redis.Client) *StateStore {
	if client == nil {
		panic("callrecord: redis client cannot be nil")
	}
	return &StateStore{redis: client, now: time.Now}
}

func callStateKey(callSID string) string  { return callStateKeyPrefix + callSID }
func transcriptKey(callSID string) string { return transcriptKeyPrefix + callSID }

// SetStatus records the latest status of a call.
func (s *StateStore) SetStatus(ctx context.Context, callSID string, status Status, message string) error {
	key := callStateKey(callSID)
	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"call_sid":   callSID,
		"status":     string(status),
		"message":    message,
		"updated_at": s.now().UTC().Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, callStateTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("callrecord: set status: %w", err)
	}
	return nil
}

// SetLanguage records the language the call settled on.
func (s *StateStore) SetLanguage(ctx context.Context, callSID, lang string) error {
	key := callStateKey(callSID)
	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, key, "language", lang)
	pipe.Expire(ctx, key, callStateTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("callrecord: set language: %w", err)
	}
	return nil
}

// AppendTurn adds an utterance to the live transcript.
func (s *StateStore) AppendTurn(ctx context.Context, callSID string, turn Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("callrecord: encode turn: %w", err)
	}
	key := transcriptKey(callSID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, callStateTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("callrecord: append turn: %w", err)
	}
	return nil
}

// Get returns nil, nil when the call is unknown or expired.
func (s *StateStore) Get(ctx context.Context, callSID string) (*CallState, error) {
	fields, err := s.redis.HGetAll(ctx, callStateKey(callSID)).Result()
	if err != nil {
		return nil, fmt.Errorf("callrecord: get state: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	state := &CallState{
		CallSID:  fields["call_sid"],
		Status:   Status(fields["status"]),
		Message:  fields["message"],
		Language: fields["language"],
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields["updated_at"]); err == nil {
		state.UpdatedAt = ts
	}
	return state, nil
}

// Transcript returns the live transcript in order.
func (s *StateStore) Transcript(ctx context.Context, callSID string) ([]Turn, error) {
	raw, err := s.redis.LRange(ctx, transcriptKey(callSID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("callrecord: read transcript: %w", err)
	}
	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("callrecord: decode turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}
