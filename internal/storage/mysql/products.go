package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"printshop-backend/internal/storage"
)

const productColumns = "id, type, product_name, product_code, description, price, created_at, updated_at"

func (s *Storage) ListProducts(ctx context.Context) ([]storage.Product, error) {
	const op = "storage.mysql.ListProducts"

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY product_name")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var products []storage.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

func (s *Storage) GetProduct(ctx context.Context, id int64) (*storage.Product, error) {
	const op = "storage.mysql.GetProduct"

	row := s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *Storage) CreateProduct(ctx context.Context, p *storage.Product) (int64, error) {
	const op = "storage.mysql.CreateProduct"

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO products (type, product_name, product_code, description, price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Type, p.ProductName, p.ProductCode, p.Description, p.Price, p.CreatedAt, p.UpdatedAt,
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

func (s *Storage) UpdateProduct(ctx context.Context, p *storage.Product) error {
	const op = "storage.mysql.UpdateProduct"

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET type = ?, product_name = ?, product_code = ?, description = ?, price = ?, updated_at = ?
		WHERE id = ?`,
		p.Type, p.ProductName, p.ProductCode, p.Description, p.Price, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateErr(err))
	}
	return requireRow(op, res, storage.ErrProductNotFound)
}

func (s *Storage) DeleteProduct(ctx context.Context, id int64) error {
	const op = "storage.mysql.DeleteProduct"

	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRow(op, res, storage.ErrProductNotFound)
}

func (s *Storage) CountProducts(ctx context.Context) (int64, error) {
	return s.count(ctx, "storage.mysql.CountProducts", "products")
}

func scanProduct(row rowScanner) (*storage.Product, error) {
	var p storage.Product
	var ptype, description sql.NullString

	err := row.Scan(&p.ID, &ptype, &p.ProductName, &p.ProductCode,
		&description, &p.Price, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if ptype.Valid {
		p.Type = ptype.String
	}
	if description.Valid {
		p.Description = description.String
	}
	return &p, nil
}
