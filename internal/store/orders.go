package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"apparel-order-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateOrder inserts a new employee order with status pending.
func (s *Store) CreateOrder(ctx context.Context, order *models.EmployeeOrder) error {
	query := `
		INSERT INTO employee_orders (
			id, employee_name,
			tshirt_1_style, tshirt_1_color, tshirt_1_size,
			tshirt_2_style, tshirt_2_color, tshirt_2_size,
			tshirt_3_style, tshirt_3_color, tshirt_3_size,
			outerwear_type, outerwear_color, outerwear_size,
			status
		) VALUES (
			:id, :employee_name,
			:tshirt_1_style, :tshirt_1_color, :tshirt_1_size,
			:tshirt_2_style, :tshirt_2_color, :tshirt_2_size,
			:tshirt_3_style, :tshirt_3_color, :tshirt_3_size,
			:outerwear_type, :outerwear_color, :outerwear_size,
			:status
		) RETURNING created_at`

	rows, err := s.db.NamedQueryContext(ctx, query, order)
	if err != nil {
		return err
	}
	defer rows.Close()

	if rows.Next() {
		return rows.Scan(&order.CreatedAt)
	}
	return rows.Err()
}

// GetOrderByID retrieves an employee order by ID
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.EmployeeOrder, error) {
	var order models.EmployeeOrder
	err := s.db.GetContext(ctx, &order, "SELECT * FROM employee_orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersByStatus retrieves orders with the given lifecycle status,
// newest first.
func (s *Store) ListOrdersByStatus(ctx context.Context, status string) ([]models.EmployeeOrder, error) {
	var orders []models.EmployeeOrder
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM employee_orders WHERE status = $1 ORDER BY created_at DESC", status)
	return orders, err
}

// DeleteOrder removes a pending order. Completed orders are immutable and
// cannot be deleted.
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM employee_orders WHERE id = $1 AND status = $2",
		id, models.OrderStatusPending)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("pending order not found: %s", id)
	}
	return nil
}

// CompleteBatch transitions every listed order to completed with one shared
// batch id and vendor order identifier, in a single transaction. It returns
// the number of rows that actually transitioned so the caller can detect a
// partial write-back: affected < len(ids) means some records did not move.
func (s *Store) CompleteBatch(ctx context.Context, ids []string, batchID, ssOrderID string, ssOrderDate time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`
		UPDATE employee_orders
		SET status = ?, batch_id = ?, ss_order_id = ?, ss_order_date = ?
		WHERE id IN (?) AND status = ?`,
		models.OrderStatusCompleted, batchID, ssOrderID, ssOrderDate, ids, models.OrderStatusPending)
	if err != nil {
		return 0, err
	}
	query = s.db.Rebind(query)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return affected, nil
}

// ListBatchSummaries groups completed orders by vendor order identifier,
// one row per batch, newest first.
func (s *Store) ListBatchSummaries(ctx context.Context) ([]models.BatchSummary, error) {
	var summaries []models.BatchSummary
	err := s.db.SelectContext(ctx, &summaries, `
		SELECT batch_id, ss_order_id, MAX(ss_order_date) AS ss_order_date, COUNT(*) AS order_count
		FROM employee_orders
		WHERE status = $1 AND ss_order_id IS NOT NULL AND batch_id IS NOT NULL
		GROUP BY batch_id, ss_order_id
		ORDER BY ss_order_date DESC`,
		models.OrderStatusCompleted)
	return summaries, err
}

// ListOrdersByBatch retrieves the members of one batch sorted by employee
// name.
func (s *Store) ListOrdersByBatch(ctx context.Context, ssOrderID string) ([]models.EmployeeOrder, error) {
	var orders []models.EmployeeOrder
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM employee_orders WHERE ss_order_id = $1 ORDER BY employee_name", ssOrderID)
	return orders, err
}
