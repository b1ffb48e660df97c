package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
)

const orderColumns = `order_id, user_id, intent_id, payment_id, delivery_info, total_cost, items, status, order_date, payment_date`

// PostgresOrderRepository implements OrderRepository using PostgreSQL.
type PostgresOrderRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewPostgresOrderRepository creates a new PostgreSQL order repository.
func NewPostgresOrderRepository(db *sql.DB, logger *logging.Logger) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves an order by its order id.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.logger.Debug("Fetching order by ID", logging.Fields{"order_id": id})

	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to fetch order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, errors.NewPersistenceError("get order", err)
	}

	return order, nil
}

// Create inserts a fully built order.
func (r *PostgresOrderRepository) Create(ctx context.Context, order *models.Order) error {
	r.logger.Debug("Creating new order", logging.Fields{
		"order_id": order.OrderID,
		"user_id":  order.UserID,
	})

	deliveryJSON, err := json.Marshal(order.DeliveryInfo)
	if err != nil {
		return errors.NewPersistenceError("encode delivery info", err)
	}
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return errors.NewPersistenceError("encode items", err)
	}

	query := `
		INSERT INTO orders (
			order_id, user_id, intent_id, payment_id, delivery_info,
			total_cost, items, status, order_date, payment_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		order.OrderID,
		order.UserID,
		nullString(order.IntentID),
		order.PaymentID,
		deliveryJSON,
		order.TotalCost,
		itemsJSON,
		order.Status,
		order.OrderDate,
		order.PaymentDate,
	)
	if isUniqueViolation(err) {
		r.logger.Warn("Order already recorded for payment", logging.Fields{
			"payment_id": order.PaymentID,
		})
		return errors.ErrConflict
	}
	if err != nil {
		r.logger.Error("Failed to create order", logging.Fields{
			"user_id": order.UserID,
			"error":   err.Error(),
		})
		return errors.NewPersistenceError("create order", err)
	}

	r.logger.Info("Order created successfully", logging.Fields{
		"order_id": order.OrderID,
		"user_id":  order.UserID,
		"total":    order.TotalCost,
	})

	return nil
}

// UpdateStatus moves an order from one status to another and returns the
// result. The write is skipped when the stored status is no longer from.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (*models.Order, error) {
	r.logger.Debug("Updating order status", logging.Fields{
		"order_id":   id,
		"old_status": from,
		"new_status": to,
	})

	query := `UPDATE orders SET status = $2 WHERE order_id = $1 AND status = $3 RETURNING ` + orderColumns

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id, to, from))
	if err == sql.ErrNoRows {
		current, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		r.logger.Warn("Order status changed concurrently", logging.Fields{
			"order_id":        id,
			"expected_status": from,
			"actual_status":   current.Status,
		})
		return nil, &errors.TransitionError{From: string(current.Status), To: string(to)}
	}
	if err != nil {
		r.logger.Error("Failed to update order status", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, errors.NewPersistenceError("update order status", err)
	}

	r.logger.Info("Order status updated", logging.Fields{
		"order_id":   id,
		"new_status": to,
	})

	return order, nil
}

// List retrieves orders newest first. An empty filter lists every order.
func (r *PostgresOrderRepository) List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := make([]interface{}, 0, 1)
	if filter != nil && filter.UserID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, filter.UserID)
	}
	query += ` ORDER BY order_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list orders", logging.Fields{"error": err.Error()})
		return nil, errors.NewPersistenceError("list orders", err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, errors.NewPersistenceError("scan order", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("list orders", err)
	}

	r.logger.Debug("Orders listed", logging.Fields{"count": len(orders)})

	return orders, nil
}

// GetByUserID retrieves all orders for a specific user.
func (r *PostgresOrderRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Order, error) {
	logging.Infof("Fetching orders for user: %s", userID)
	return r.List(ctx, &models.OrderListFilter{UserID: userID})
}

// Delete removes an order permanently.
func (r *PostgresOrderRepository) Delete(ctx context.Context, id string) error {
	r.logger.Debug("Deleting order", logging.Fields{"order_id": id})

	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE order_id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return errors.NewPersistenceError("delete order", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return errors.ErrNotFound
	}

	r.logger.Info("Order deleted", logging.Fields{"order_id": id})
	return nil
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var deliveryJSON, itemsJSON []byte
	var intentID sql.NullString

	err := row.Scan(
		&order.OrderID,
		&order.UserID,
		&intentID,
		&order.PaymentID,
		&deliveryJSON,
		&order.TotalCost,
		&itemsJSON,
		&order.Status,
		&order.OrderDate,
		&order.PaymentDate,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(deliveryJSON, &order.DeliveryInfo); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, err
	}
	if order.Items == nil {
		order.Items = make([]models.OrderItem, 0)
	}
	if intentID.Valid {
		order.IntentID = intentID.String
	}

	return &order, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
