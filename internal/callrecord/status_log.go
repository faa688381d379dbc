package callrecord

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// StatusLog persists call status history and the final call session row.
type StatusLog struct {
	db  *sql.DB
	now func() time.Time
}

// NewStatusLog creates a status log backed by Postgres.
func NewStatusLog(db *sql.DB) *StatusLog {
	return &StatusLog{db: db, now: time.Now}
}

// Append records one status transition.
func (l *StatusLog) Append(ctx context.Context, callSID string, status Status, message string) (*StatusUpdate, error) {
	update := &StatusUpdate{
		ID:        uuid.New().String(),
		CallSID:   callSID,
		Status:    status,
		Message:   message,
		CreatedAt: l.now().UTC(),
	}
	query := `
		INSERT INTO call_status_updates (id, call_sid, status, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := l.db.ExecContext(ctx, query,
		update.ID, update.CallSID, string(update.Status), update.Message, update.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("callrecord: insert status update: %w", err)
	}
	return update, nil
}

// History returns a call's status updates oldest first. An empty statuses
// filter returns every update.
func (l *StatusLog) History(ctx context.Context, callSID string, statuses ...Status) ([]StatusUpdate, error) {
	filter := make([]string, 0, len(statuses))
	for _, s := range statuses {
		filter = append(filter, string(s))
	}
	query := `
		SELECT id, call_sid, status, message, created_at
		FROM call_status_updates
		WHERE call_sid = $1
		  AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		ORDER BY created_at ASC
	`
	rows, err := l.db.QueryContext(ctx, query, callSID, pq.Array(filter))
	if err != nil {
		return nil, fmt.Errorf("callrecord: query status history: %w", err)
	}
	defer rows.Close()

	var updates []StatusUpdate
	for rows.Next() {
		var (
			u       StatusUpdate
			status  string
			message sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.CallSID, &status, &message, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("callrecord: scan status update: %w", err)
		}
		u.Status = Status(status)
		u.Message = message.String
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("callrecord: iterate status history: %w", err)
	}
	return updates, nil
}

// SaveSession upserts the final call_sessions row.
func (l *StatusLog) SaveSession(ctx context.Context, s Summary) error {
	query := `
		INSERT INTO call_sessions (call_sid, stream_sid, customer_id, phone_number, outcome, language_code, intent, turn_count, started_at, ended_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (call_sid) DO UPDATE SET
			outcome = EXCLUDED.outcome,
			language_code = EXCLUDED.language_code,
			intent = EXCLUDED.intent,
			turn_count = EXCLUDED.turn_count,
			ended_at = EXCLUDED.ended_at
	`
	if _, err := l.db.ExecContext(ctx, query,
		s.CallSID, s.StreamSID, s.CustomerID, s.CustomerPhone, string(s.Outcome),
		s.Language, s.Intent, len(s.Turns), s.StartedAt, s.EndedAt,
	); err != nil {
		return fmt.Errorf("callrecord: upsert call session: %w", err)
	}
	return nil
}
