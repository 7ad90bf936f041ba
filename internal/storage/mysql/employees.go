package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"printshop-backend/internal/storage"
)

const employeeColumns = "id, first_name, last_name, email, phone, position, hire_date, created_at, updated_at"

func (s *Storage) ListEmployees(ctx context.Context) ([]storage.Employee, error) {
	const op = "storage.mysql.ListEmployees"

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+employeeColumns+" FROM employees ORDER BY last_name, first_name")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var employees []storage.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		employees = append(employees, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return employees, nil
}

func (s *Storage) GetEmployee(ctx context.Context, id int64) (*storage.Employee, error) {
	const op = "storage.mysql.GetEmployee"

	row := s.db.QueryRowContext(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrEmployeeNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}

// GetEmployeeByEmail is the only query that loads the password hash; it backs
// the login flow.
func (s *Storage) GetEmployeeByEmail(ctx context.Context, email string) (*storage.Employee, error) {
	const op = "storage.mysql.GetEmployeeByEmail"

	var e storage.Employee
	var phone sql.NullString
	var hireDate sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, phone, position, hire_date,
		       created_at, updated_at, password_hash
		FROM employees WHERE email = ?`, email,
	).Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &phone, &e.Position,
		&hireDate, &e.CreatedAt, &e.UpdatedAt, &e.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrEmployeeNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if phone.Valid {
		e.Phone = phone.String
	}
	if hireDate.Valid {
		e.HireDate = &hireDate.Time
	}
	return &e, nil
}

func (s *Storage) CreateEmployee(ctx context.Context, e *storage.Employee) (int64, error) {
	const op = "storage.mysql.CreateEmployee"

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (first_name, last_name, email, phone, position,
		                       hire_date, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.FirstName, e.LastName, e.Email, e.Phone, e.Position,
		e.HireDate, e.PasswordHash, e.CreatedAt, e.UpdatedAt,
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

func (s *Storage) UpdateEmployee(ctx context.Context, e *storage.Employee) error {
	const op = "storage.mysql.UpdateEmployee"

	res, err := s.db.ExecContext(ctx, `
		UPDATE employees
		SET first_name = ?, last_name = ?, email = ?, phone = ?, position = ?,
		    hire_date = ?, updated_at = ?
		WHERE id = ?`,
		e.FirstName, e.LastName, e.Email, e.Phone, e.Position,
		e.HireDate, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateErr(err))
	}
	return requireRow(op, res, storage.ErrEmployeeNotFound)
}

func (s *Storage) DeleteEmployee(ctx context.Context, id int64) error {
	const op = "storage.mysql.DeleteEmployee"

	res, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRow(op, res, storage.ErrEmployeeNotFound)
}

func (s *Storage) CountEmployees(ctx context.Context) (int64, error) {
	return s.count(ctx, "storage.mysql.CountEmployees", "employees")
}

func scanEmployee(row rowScanner) (*storage.Employee, error) {
	var e storage.Employee
	var phone sql.NullString
	var hireDate sql.NullTime

	err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &phone,
		&e.Position, &hireDate, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if phone.Valid {
		e.Phone = phone.String
	}
	if hireDate.Valid {
		e.HireDate = &hireDate.Time
	}
	return &e, nil
}

func (s *Storage) count(ctx context.Context, op, table string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func requireRow(op string, res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, notFound)
	}
	return nil
}
