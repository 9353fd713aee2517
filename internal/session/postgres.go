package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/and161185/campus-onboard/internal/errs"
	"github.com/and161185/campus-onboard/internal/model"
)

// PgxPool is the subset of *pgxpool.Pool the store needs; pgxmock.PgxPoolIface satisfies it.
type PgxPool interface {
	// Exec executes a SQL command and returns the command tag.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	// QueryRow executes a query expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres keeps the session in the sessions table under Key.
type Postgres struct {
	pool PgxPool
	now  func() time.Time
}

var _ Store = (*Postgres)(nil)

// NewPostgres constructs a PostgreSQL-backed store.
func NewPostgres(pool PgxPool) *Postgres {
	return &Postgres{pool: pool, now: time.Now}
}

// Save upserts the row.
func (p *Postgres) Save(ctx context.Context, s model.Session) error {
	const q = `
INSERT INTO sessions (key, token, expires_at, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (key)
DO UPDATE SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, updated_at = now()`
	_, err := p.pool.Exec(ctx, q, Key, s.Token, nullTime(s.ExpiresAt))
	return err
}

// Load selects the row.
func (p *Postgres) Load(ctx context.Context) (model.Session, error) {
	const q = `SELECT token, expires_at FROM sessions WHERE key = $1`
	var (
		token string
		exp   *time.Time
	)
	if err := p.pool.QueryRow(ctx, q, Key).Scan(&token, &exp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, errs.ErrNoSession
		}
		return model.Session{}, err
	}
	s := model.Session{Token: token}
	if exp != nil {
		s.ExpiresAt = *exp
	}
	return usable(s, p.now())
}

// Clear deletes the row.
func (p *Postgres) Clear(ctx context.Context) error {
	const q = `DELETE FROM sessions WHERE key = $1`
	_, err := p.pool.Exec(ctx, q, Key)
	return err
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
