package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"printshop-backend/internal/storage"
)

// OrderFilter narrows ListOrders; zero values mean "no filter".
type OrderFilter struct {
	Status   storage.OrderStatus
	Priority storage.Priority
	Customer int64
	Search   string
	Limit    int
	Offset   int
}

const orderColumns = `
	o.id, o.due_date, o.received_through, o.status, o.customer,
	CONCAT(c.first_name, ' ', c.last_name),
	o.customer_company,
	CONCAT(cc.first_name, ' ', cc.last_name),
	o.priority, o.description, o.created_at, o.updated_at
	FROM orders o
	LEFT JOIN clients c ON c.id = o.customer
	LEFT JOIN clients cc ON cc.id = o.customer_company`

func (s *Storage) GetOrder(ctx context.Context, id int64) (*storage.Order, error) {
	const op = "storage.mysql.GetOrder"

	row := s.db.QueryRowContext(ctx, "SELECT "+orderColumns+" WHERE o.id = ?", id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders := []storage.Order{*order}
	if err := s.loadItems(ctx, orders); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &orders[0], nil
}

func (s *Storage) ListOrders(ctx context.Context, f OrderFilter) ([]storage.Order, error) {
	const op = "storage.mysql.ListOrders"

	var conds []string
	var args []interface{}
	if f.Status != "" {
		conds = append(conds, "o.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Priority != "" {
		conds = append(conds, "o.priority = ?")
		args = append(args, string(f.Priority))
	}
	if f.Customer != 0 {
		conds = append(conds, "o.customer = ?")
		args = append(args, f.Customer)
	}
	if f.Search != "" {
		conds = append(conds, `(o.description LIKE ? OR EXISTS (
			SELECT 1 FROM order_items si WHERE si.order_id = o.id
			AND (si.product_name_snapshot LIKE ? OR si.description_snapshot LIKE ?)))`)
		like := "%" + f.Search + "%"
		args = append(args, like, like, like)
	}

	stmt := "SELECT " + orderColumns
	if len(conds) > 0 {
		stmt += " WHERE " + strings.Join(conds, " AND ")
	}
	stmt += " ORDER BY o.created_at DESC"
	if f.Limit > 0 {
		stmt += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	return s.queryOrders(ctx, op, stmt, args...)
}

func (s *Storage) OrdersCreatedBetween(ctx context.Context, start, end time.Time) ([]storage.Order, error) {
	const op = "storage.mysql.OrdersCreatedBetween"

	stmt := "SELECT " + orderColumns + " WHERE o.created_at >= ? AND o.created_at <= ?"
	return s.queryOrders(ctx, op, stmt, start, end)
}

func (s *Storage) OrdersDueBetween(ctx context.Context, start, end time.Time) ([]storage.Order, error) {
	const op = "storage.mysql.OrdersDueBetween"

	stmt := "SELECT " + orderColumns + " WHERE o.due_date >= ? AND o.due_date <= ?"
	return s.queryOrders(ctx, op, stmt, start, end)
}

func (s *Storage) queryOrders(ctx context.Context, op, stmt string, args ...interface{}) ([]storage.Order, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var orders []storage.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.loadItems(ctx, orders); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

// CreateOrder writes the whole aggregate in one transaction and returns the
// new order id.
func (s *Storage) CreateOrder(ctx context.Context, o *storage.Order) (int64, error) {
	const op = "storage.mysql.CreateOrder"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (due_date, received_through, status, customer, customer_company,
		                    priority, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.DueDate, string(o.ReceivedThrough), string(o.Status), o.Customer, o.CustomerCompany,
		string(o.Priority), o.Description, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := insertItems(ctx, tx, id, o.Items); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// UpdateOrder replaces the stored aggregate with the given one: the order row
// is updated in place, items and assignments are deleted and reinserted.
func (s *Storage) UpdateOrder(ctx context.Context, o *storage.Order) error {
	const op = "storage.mysql.UpdateOrder"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET due_date = ?, received_through = ?, status = ?, customer = ?,
		    customer_company = ?, priority = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		o.DueDate, string(o.ReceivedThrough), string(o.Status), o.Customer,
		o.CustomerCompany, string(o.Priority), o.Description, o.UpdatedAt, o.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_ = n // zero rows affected is fine when only items changed

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM order_assignments WHERE item_id IN (SELECT id FROM order_items WHERE order_id = ?)", o.ID,
	); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = ?", o.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := insertItems(ctx, tx, o.ID, o.Items); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) DeleteOrder(ctx context.Context, id int64) error {
	const op = "storage.mysql.DeleteOrder"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM order_assignments WHERE item_id IN (SELECT id FROM order_items WHERE order_id = ?)", id,
	); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = ?", id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrOrderNotFound)
	}
	return tx.Commit()
}

func insertItems(ctx context.Context, tx *sql.Tx, orderID int64, items []storage.OrderItem) error {
	for pos := range items {
		it := &items[pos]

		attachments, err := json.Marshal(it.Attachments)
		if err != nil {
			return err
		}
		disabled, err := json.Marshal(it.DisabledStages)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, position, product, product_name_snapshot,
			                         description_snapshot, price_snapshot, quantity, item_status,
			                         attachments, graphics_image, finished_product_image,
			                         text_to_print, disabled_stages)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, orderID, pos, it.Product, it.ProductNameSnapshot,
			it.DescriptionSnapshot, it.PriceSnapshot, it.Quantity, string(it.ItemStatus),
			string(attachments), it.GraphicsImage, it.FinishedProductImage,
			it.TextToPrint, string(disabled),
		); err != nil {
			return translateErr(err)
		}

		for k := range it.Assignments {
			a := &it.Assignments[k]
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_assignments (item_id, stage, assigned_to, stage_notes,
				                               assigned_at, started_at, completed_at,
				                               time_spent, is_active)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				it.ID, string(a.Stage), a.AssignedTo, a.StageNotes,
				a.AssignedAt, a.StartedAt, a.CompletedAt,
				a.TimeSpent, a.IsActive,
			); err != nil {
				return translateErr(err)
			}
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*storage.Order, error) {
	var o storage.Order
	var (
		dueDate      sql.NullTime
		received     sql.NullString
		customerName sql.NullString
		company      sql.NullInt64
		companyName  sql.NullString
	)

	err := row.Scan(&o.ID, &dueDate, &received, &o.Status, &o.Customer,
		&customerName, &company, &companyName,
		&o.Priority, &o.Description, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		o.DueDate = &dueDate.Time
	}
	if received.Valid {
		o.ReceivedThrough = storage.ReceivedThrough(received.String)
	}
	if customerName.Valid {
		o.CustomerName = &customerName.String
	}
	if company.Valid {
		o.CustomerCompany = &company.Int64
	}
	if companyName.Valid {
		o.CustomerCompanyName = &companyName.String
	}
	return &o, nil
}

// loadItems attaches items and assignment records to the given orders.
func (s *Storage) loadItems(ctx context.Context, orders []storage.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byOrder := map[int64]*storage.Order{}
	ids := make([]interface{}, 0, len(orders))
	ph := make([]string, 0, len(orders))
	for i := range orders {
		byOrder[orders[i].ID] = &orders[i]
		ids = append(ids, orders[i].ID)
		ph = append(ph, "?")
	}

	stmt := `
		SELECT i.id, i.order_id, i.product, p.product_name,
		       i.product_name_snapshot, i.description_snapshot, i.price_snapshot,
		       i.quantity, i.item_status, i.attachments, i.graphics_image,
		       i.finished_product_image, i.text_to_print, i.disabled_stages
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product
		WHERE i.order_id IN (` + strings.Join(ph, ", ") + `)
		ORDER BY i.order_id, i.position`

	rows, err := s.db.QueryContext(ctx, stmt, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()

	itemsByOrder := map[int64][]storage.OrderItem{}
	var itemIDs []interface{}
	for rows.Next() {
		var it storage.OrderItem
		var orderID int64
		var (
			productName sql.NullString
			attachments []byte
			graphics    sql.NullString
			finished    sql.NullString
			disabled    []byte
		)

		err := rows.Scan(&it.ID, &orderID, &it.Product, &productName,
			&it.ProductNameSnapshot, &it.DescriptionSnapshot, &it.PriceSnapshot,
			&it.Quantity, &it.ItemStatus, &attachments, &graphics,
			&finished, &it.TextToPrint, &disabled)
		if err != nil {
			return err
		}

		if productName.Valid {
			it.ProductName = &productName.String
		}
		if graphics.Valid {
			it.GraphicsImage = &graphics.String
		}
		if finished.Valid {
			it.FinishedProductImage = &finished.String
		}
		if len(attachments) > 0 {
			if err := json.Unmarshal(attachments, &it.Attachments); err != nil {
				return err
			}
		}
		if len(disabled) > 0 {
			if err := json.Unmarshal(disabled, &it.DisabledStages); err != nil {
				return err
			}
		}

		itemsByOrder[orderID] = append(itemsByOrder[orderID], it)
		itemIDs = append(itemIDs, it.ID)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Item slices are final from here on, so pointers into them stay valid.
	byItem := map[string]*storage.OrderItem{}
	for orderID, items := range itemsByOrder {
		o := byOrder[orderID]
		if o == nil {
			continue
		}
		o.Items = items
		for i := range o.Items {
			byItem[o.Items[i].ID] = &o.Items[i]
		}
	}
	if len(itemIDs) == 0 {
		return nil
	}

	ph = ph[:0]
	for range itemIDs {
		ph = append(ph, "?")
	}
	stmt = `
		SELECT a.id, a.item_id, a.stage, a.assigned_to,
		       CONCAT(e.first_name, ' ', e.last_name),
		       a.stage_notes, a.assigned_at, a.started_at, a.completed_at,
		       a.time_spent, a.is_active
		FROM order_assignments a
		LEFT JOIN employees e ON e.id = a.assigned_to
		WHERE a.item_id IN (` + strings.Join(ph, ", ") + `)
		ORDER BY a.item_id, a.id`

	arows, err := s.db.QueryContext(ctx, stmt, itemIDs...)
	if err != nil {
		return err
	}
	defer arows.Close()

	for arows.Next() {
		var a storage.Assignment
		var itemID string
		var (
			assigneeName sql.NullString
			started      sql.NullTime
			completed    sql.NullTime
		)

		err := arows.Scan(&a.ID, &itemID, &a.Stage, &a.AssignedTo,
			&assigneeName, &a.StageNotes, &a.AssignedAt, &started, &completed,
			&a.TimeSpent, &a.IsActive)
		if err != nil {
			return err
		}

		if assigneeName.Valid {
			a.AssignedToName = &assigneeName.String
		}
		if started.Valid {
			a.StartedAt = &started.Time
		}
		if completed.Valid {
			a.CompletedAt = &completed.Time
		}

		if it := byItem[itemID]; it != nil {
			it.Assignments = append(it.Assignments, a)
		}
	}
	return arows.Err()
}
