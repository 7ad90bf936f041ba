package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"printshop-backend/internal/storage"
)

const clientColumns = "id, first_name, last_name, phone, whatsapp, email, created_at, updated_at"

func (s *Storage) ListClients(ctx context.Context) ([]storage.Client, error) {
	const op = "storage.mysql.ListClients"

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+clientColumns+" FROM clients ORDER BY last_name, first_name")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var clients []storage.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		clients = append(clients, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return clients, nil
}

func (s *Storage) GetClient(ctx context.Context, id int64) (*storage.Client, error) {
	const op = "storage.mysql.GetClient"

	row := s.db.QueryRowContext(ctx, "SELECT "+clientColumns+" FROM clients WHERE id = ?", id)
	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrClientNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (s *Storage) CreateClient(ctx context.Context, c *storage.Client) (int64, error) {
	const op = "storage.mysql.CreateClient"

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (first_name, last_name, phone, whatsapp, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.FirstName, c.LastName, c.Phone, c.Whatsapp, c.Email, c.CreatedAt, c.UpdatedAt,
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

func (s *Storage) UpdateClient(ctx context.Context, c *storage.Client) error {
	const op = "storage.mysql.UpdateClient"

	res, err := s.db.ExecContext(ctx, `
		UPDATE clients
		SET first_name = ?, last_name = ?, phone = ?, whatsapp = ?, email = ?, updated_at = ?
		WHERE id = ?`,
		c.FirstName, c.LastName, c.Phone, c.Whatsapp, c.Email, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateErr(err))
	}
	return requireRow(op, res, storage.ErrClientNotFound)
}

func (s *Storage) DeleteClient(ctx context.Context, id int64) error {
	const op = "storage.mysql.DeleteClient"

	res, err := s.db.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRow(op, res, storage.ErrClientNotFound)
}

func (s *Storage) CountClients(ctx context.Context) (int64, error) {
	return s.count(ctx, "storage.mysql.CountClients", "clients")
}

func scanClient(row rowScanner) (*storage.Client, error) {
	var c storage.Client
	var phone, whatsapp, email sql.NullString

	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &phone, &whatsapp,
		&email, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if phone.Valid {
		c.Phone = phone.String
	}
	if whatsapp.Valid {
		c.Whatsapp = whatsapp.String
	}
	if email.Valid {
		c.Email = email.String
	}
	return &c, nil
}
