package customer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	callSessionPrefix = "call_session:"
	phoneKeyPrefix    = "temp:customer_phone_"
	callSessionTTL    = 2 * time.Hour
	phoneKeyTTL       = time.Hour
)

// SessionCache reads the customer snapshots the outbound dialer leaves in
// Redis before placing a call. Entries are keyed by the dialer's temporary
// call id, by the provider call id once known, and by phone digits.
type SessionCache struct {
	redis *redis.Client
}

func NewSessionCache(client *redis.Client) *SessionCache {
	if client == nil {
		panic("customer: redis client cannot be nil")
	}
	return &SessionCache{redis: client}
}

type callSession struct {
	CallSID      string         `json:"call_sid,omitempty"`
	CustomerData map[string]any `json:"customer_data"`
	Status       string         `json:"status,omitempty"`
	CreatedAt    string         `json:"created_at,omitempty"`
}

// ByCallSession looks up a snapshot by temporary or provider call id.
func (c *SessionCache) ByCallSession(ctx context.Context, id string) (*Profile, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	data, err := c.redis.Get(ctx, callSessionPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("customer: get call session: %w", err)
	}
	var session callSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("customer: decode call session: %w", err)
	}
	if len(session.CustomerData) == 0 {
		return nil, ErrNotFound
	}
	p := ProfileFromFields(stringify(session.CustomerData))
	return &p, nil
}

// ByPhone looks up a snapshot stored under a phone number's digits.
func (c *SessionCache) ByPhone(ctx context.Context, phone string) (*Profile, error) {
	digits := digitsOnly(phone)
	if digits == "" {
		return nil, ErrNotFound
	}
	data, err := c.redis.Get(ctx, phoneKeyPrefix+digits).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("customer: get phone key: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("customer: decode phone key: %w", err)
	}
	p := ProfileFromFields(stringify(fields))
	return &p, nil
}

// StoreCallSession writes a snapshot under a call id. The dialer uses it to
// alias the provider call id to the temporary id's snapshot.
func (c *SessionCache) StoreCallSession(ctx context.Context, id string, p Profile) error {
	fields := map[string]any{
		"id":            p.ID,
		"name":          p.Name,
		"phone_number":  p.PhoneNumber,
		"state":         p.State,
		"loan_id":       p.LoanID,
		"amount":        p.Amount,
		"due_date":      p.DueDate,
		"language_code": string(p.PreferredLanguage),
	}
	data, err := json.Marshal(callSession{
		CallSID:      id,
		CustomerData: fields,
		Status:       "initiated",
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("customer: encode call session: %w", err)
	}
	if err := c.redis.Set(ctx, callSessionPrefix+id, data, callSessionTTL).Err(); err != nil {
		return fmt.Errorf("customer: store call session: %w", err)
	}
	if digits := digitsOnly(p.PhoneNumber); digits != "" {
		raw, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("customer: encode phone key: %w", err)
		}
		if err := c.redis.Set(ctx, phoneKeyPrefix+digits, raw, phoneKeyTTL).Err(); err != nil {
			return fmt.Errorf("customer: store phone key: %w", err)
		}
	}
	return nil
}

func stringify(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case nil:
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
