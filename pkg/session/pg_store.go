package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists session records in PostgreSQL. The schema lives in
// migrations/00001_create_sessions.sql; lookups by token hash, browser
// ID and principal are all index-backed.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore returns a store on the given connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const recordColumns = `
	id, browser_id, token_hash, user_type, user_id, parent_id, active,
	login_at, login_ip, login_country, host, user_agent,
	last_activity_at, last_activity_ip, last_activity_country, last_activity_path, requests,
	expires_at, password_seen_at,
	two_factored_at, two_factored_ip, skip_two_factor,
	data, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, rec *Record) error {
	rec.normalize()

	data, err := marshalData(rec.Data)
	if err != nil {
		return fmt.Errorf("encode session data: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
INSERT INTO sessions (
	browser_id, token_hash, user_type, user_id, parent_id, active,
	login_at, login_ip, login_country, host, user_agent,
	last_activity_at, last_activity_ip, last_activity_country, last_activity_path, requests,
	expires_at, password_seen_at,
	two_factored_at, two_factored_ip, skip_two_factor,
	data
) VALUES (
	$1, $2, $3, $4, $5, $6,
	$7, $8, $9, $10, $11,
	$12, $13, $14, $15, $16,
	$17, $18,
	$19, $20, $21,
	$22
)
RETURNING id, created_at, updated_at`,
		rec.BrowserID, rec.TokenHash, rec.User.Type, rec.User.ID, rec.ParentID, rec.Active,
		nullableTime(rec.LoginAt), rec.LoginIP, rec.LoginCountry, rec.Host, rec.UserAgent,
		rec.LastActivityAt, rec.LastActivityIP, rec.LastActivityCountry, rec.LastActivityPath, rec.Requests,
		rec.ExpiresAt, rec.PasswordSeenAt,
		rec.TwoFactoredAt, rec.TwoFactoredIP, rec.SkipTwoFactor,
		data,
	)

	if err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PGStore) FindActiveByTokenHash(ctx context.Context, hash string) (*Record, error) {
	return s.findOne(ctx, `
SELECT`+recordColumns+`
FROM sessions
WHERE token_hash = $1 AND active
ORDER BY id DESC
LIMIT 1`, hash)
}

func (s *PGStore) FindByTokenHash(ctx context.Context, hash string) (*Record, error) {
	return s.findOne(ctx, `
SELECT`+recordColumns+`
FROM sessions
WHERE token_hash = $1
ORDER BY id DESC
LIMIT 1`, hash)
}

func (s *PGStore) Update(ctx context.Context, rec *Record) error {
	rec.normalize()

	data, err := marshalData(rec.Data)
	if err != nil {
		return fmt.Errorf("encode session data: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
UPDATE sessions SET
	browser_id = $2,
	token_hash = $3,
	user_type = $4,
	user_id = $5,
	parent_id = $6,
	active = $7,
	login_at = $8,
	login_ip = $9,
	login_country = $10,
	host = $11,
	user_agent = $12,
	last_activity_at = $13,
	last_activity_ip = $14,
	last_activity_country = $15,
	last_activity_path = $16,
	requests = $17,
	expires_at = $18,
	password_seen_at = $19,
	two_factored_at = $20,
	two_factored_ip = $21,
	skip_two_factor = $22,
	data = $23,
	updated_at = now()
WHERE id = $1`,
		rec.ID,
		rec.BrowserID, rec.TokenHash, rec.User.Type, rec.User.ID, rec.ParentID, rec.Active,
		nullableTime(rec.LoginAt), rec.LoginIP, rec.LoginCountry, rec.Host, rec.UserAgent,
		rec.LastActivityAt, rec.LastActivityIP, rec.LastActivityCountry, rec.LastActivityPath, rec.Requests,
		rec.ExpiresAt, rec.PasswordSeenAt,
		rec.TwoFactoredAt, rec.TwoFactoredIP, rec.SkipTwoFactor,
		data,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PGStore) ActiveForBrowser(ctx context.Context, browserID string) ([]*Record, error) {
	return s.findAll(ctx, `
SELECT`+recordColumns+`
FROM sessions
WHERE browser_id = $1 AND active
ORDER BY id`, browserID)
}

func (s *PGStore) ActiveForUser(ctx context.Context, user UserRef) ([]*Record, error) {
	return s.findAll(ctx, `
SELECT`+recordColumns+`
FROM sessions
WHERE user_type = $1 AND user_id = $2 AND active
ORDER BY id`, user.Type, user.ID)
}

func (s *PGStore) CountBefore(ctx context.Context, id int64, f Filter) (int, error) {
	// Empty filter fields match everything; the SQL mirrors the
	// zero-value-is-ignored contract of Filter.
	var count int
	err := s.pool.QueryRow(ctx, `
SELECT count(*)
FROM sessions
WHERE id < $1
	AND ($2 = '' OR user_type = $2)
	AND ($3 = '' OR user_id = $3)
	AND ($4 = '' OR browser_id = $4)
	AND ($5 = '' OR login_ip = $5)`,
		id, f.User.Type, f.User.ID, f.BrowserID, f.LoginIP,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sessions before %d: %w", id, err)
	}
	return count, nil
}

func (s *PGStore) BrowserIDExists(ctx context.Context, browserID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sessions WHERE browser_id = $1)`,
		browserID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check browser id: %w", err)
	}
	return exists, nil
}

func (s *PGStore) SweepExpired(ctx context.Context, now, inactivityCutoff time.Time) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
UPDATE sessions
SET active = FALSE, updated_at = now()
WHERE active
	AND (
		(expires_at IS NULL AND last_activity_at IS NOT NULL AND last_activity_at < $2)
		OR (expires_at IS NOT NULL AND expires_at < $1)
	)
RETURNING id`, now, inactivityCutoff)
	if err != nil {
		return nil, fmt.Errorf("sweep expired sessions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan swept session id: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate swept sessions: %w", rows.Err())
	}
	return ids, nil
}

func (s *PGStore) findOne(ctx context.Context, query string, args ...any) (*Record, error) {
	rec, err := scanRecord(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return rec, nil
}

func (s *PGStore) findAll(ctx context.Context, query string, args ...any) ([]*Record, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate sessions: %w", rows.Err())
	}
	return out, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec     Record
		loginAt *time.Time
		data    []byte
	)

	err := row.Scan(
		&rec.ID, &rec.BrowserID, &rec.TokenHash, &rec.User.Type, &rec.User.ID, &rec.ParentID, &rec.Active,
		&loginAt, &rec.LoginIP, &rec.LoginCountry, &rec.Host, &rec.UserAgent,
		&rec.LastActivityAt, &rec.LastActivityIP, &rec.LastActivityCountry, &rec.LastActivityPath, &rec.Requests,
		&rec.ExpiresAt, &rec.PasswordSeenAt,
		&rec.TwoFactoredAt, &rec.TwoFactoredIP, &rec.SkipTwoFactor,
		&data, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if loginAt != nil {
		rec.LoginAt = *loginAt
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rec.Data); err != nil {
			return nil, fmt.Errorf("decode session data: %w", err)
		}
	}
	return &rec, nil
}

func marshalData(data map[string]any) ([]byte, error) {
	if data == nil {
		return []byte(`{}`), nil
	}
	return json.Marshal(data)
}

// nullableTime maps the zero time onto SQL NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
