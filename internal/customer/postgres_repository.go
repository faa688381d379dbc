package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/emi-voice-agent/internal/language"
)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads customers uploaded by the dashboard.
type PostgresRepository struct {
	pool rowQuerier
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("customer: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(q rowQuerier) *PostgresRepository {
	if q == nil {
		panic("customer: querier required")
	}
	return &PostgresRepository{pool: q}
}

const findByPhoneQuery = `
	SELECT id::text, name, phone_number, COALESCE(state, ''), COALESCE(loan_id, ''),
	       COALESCE(amount, ''), COALESCE(due_date, ''), COALESCE(language_code, '')
	FROM customers
	WHERE phone_number = ANY($1::text[])
	ORDER BY array_position($1::text[], phone_number)
	LIMIT 1
`

// FindByPhone returns the customer stored under the first matching variant.
func (r *PostgresRepository) FindByPhone(ctx context.Context, variants []string) (*Profile, error) {
	if len(variants) == 0 {
		return nil, ErrNotFound
	}
	var (
		p    Profile
		lang string
	)
	err := r.pool.QueryRow(ctx, findByPhoneQuery, variants).Scan(
		&p.ID, &p.Name, &p.PhoneNumber, &p.State, &p.LoanID, &p.Amount, &p.DueDate, &lang,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("customer: find by phone: %w", err)
	}
	p.PreferredLanguage = language.Language(lang)
	return &p, nil
}
