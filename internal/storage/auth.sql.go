package storage

import (
	"context"

	"zeendr/internal/core"
)

const userColumns = `id, username, password_hash, establishment, logo_url, role`

func scanUser(row scanner) (core.User, error) {
	var (
		u    core.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Establishment, &u.LogoURL, &role); err != nil {
		return core.User{}, err
	}
	u.Role = core.Role(role)
	return u, nil
}

func (q *Queries) CreateUser(ctx context.Context, u core.User) (int64, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO users (username, password_hash, establishment, logo_url, role)
		VALUES (?, ?, ?, ?, ?)`, u.Username, u.PasswordHash, u.Establishment, u.LogoURL, string(u.Role))
	if err != nil {
		return 0, constraint(err)
	}
	return res.LastInsertId()
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	u, err := scanUser(q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		return core.User{}, notFound(err, "user", username)
	}
	return u, nil
}

func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, hash string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "user", id)
}

func (q *Queries) CreateSession(ctx context.Context, token string, userID int64, expires core.Timestamp) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, timestampText(expires))
	return err
}

// GetSession returns the session and its user, regardless of expiry.
func (q *Queries) GetSession(ctx context.Context, token string) (core.Session, error) {
	var (
		s       core.Session
		expires string
		role    string
	)
	err := q.db.QueryRowContext(ctx, `SELECT s.token, s.expires_at, u.id, u.username, u.password_hash,
		u.establishment, u.logo_url, u.role
		FROM sessions s JOIN users u ON u.id = s.user_id WHERE s.token = ?`, token).
		Scan(&s.Token, &expires, &s.User.ID, &s.User.Username, &s.User.PasswordHash,
			&s.User.Establishment, &s.User.LogoURL, &role)
	if err != nil {
		return core.Session{}, notFound(err, "session", "token")
	}
	s.User.Role = core.Role(role)
	s.ExpiresAt = parseTimestampText(expires)
	return s, nil
}

func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now core.Timestamp) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, timestampText(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
