package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"printshop-backend/internal/storage"
)

func (s *Storage) CreateSession(ctx context.Context, sess *storage.Session) (int64, error) {
	const op = "storage.mysql.CreateSession"

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (employee_id, token_hash, user_agent, ip, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sess.EmployeeID, sess.TokenHash, sess.UserAgent, sess.IP, sess.ExpiresAt, sess.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

func (s *Storage) GetSessionByTokenHash(ctx context.Context, tokenHash string) (*storage.Session, error) {
	const op = "storage.mysql.GetSessionByTokenHash"

	var sess storage.Session
	var userAgent, ip sql.NullString
	var revokedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, token_hash, user_agent, ip, expires_at, revoked_at, created_at
		FROM sessions WHERE token_hash = ?`, tokenHash,
	).Scan(&sess.ID, &sess.EmployeeID, &sess.TokenHash, &userAgent, &ip,
		&sess.ExpiresAt, &revokedAt, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if userAgent.Valid {
		sess.UserAgent = userAgent.String
	}
	if ip.Valid {
		sess.IP = ip.String
	}
	if revokedAt.Valid {
		sess.RevokedAt = &revokedAt.Time
	}
	return &sess, nil
}

func (s *Storage) RevokeSession(ctx context.Context, id int64, at time.Time) error {
	const op = "storage.mysql.RevokeSession"

	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL", at, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRow(op, res, storage.ErrSessionNotFound)
}

// RevokeEmployeeSessions invalidates every live session of the employee, used
// on logout-everywhere and password change.
func (s *Storage) RevokeEmployeeSessions(ctx context.Context, employeeID int64, at time.Time) error {
	const op = "storage.mysql.RevokeEmployeeSessions"

	_, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET revoked_at = ? WHERE employee_id = ? AND revoked_at IS NULL", at, employeeID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
