package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/notgodfather/canteenapp/internal/cart"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	MarkPaid(ctx context.Context, orderID string) (bool, error)
	GetByOrderID(ctx context.Context, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

// Create inserts a pending order and its items. Re-creating the same gateway
// order id is a no-op, so the webhook and verify paths can never end up with
// duplicate rows for one payment.
func (r *repo) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (id, order_id, user_id, amount, currency, status, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         ON CONFLICT (order_id) DO NOTHING`,
		o.ID, o.OrderID, o.UserID, o.Amount, o.Currency, o.Status, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if inserted == 0 {
		// already recorded for this gateway order id
		return tx.Commit()
	}

	for _, it := range o.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, item_id, name, quantity, price)
             VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), o.OrderID, it.ID, it.Name, it.Quantity, it.Price,
		)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// MarkPaid flips an order to paid. It reports whether this call performed the
// transition, so callers can act exactly once (e.g. publish a kitchen event);
// calling it again for the same order is a harmless no-op.
func (r *repo) MarkPaid(ctx context.Context, orderID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, paid_at = NOW()
         WHERE order_id = $2 AND status <> $1`,
		StatusPaid, orderID,
	)
	if err != nil {
		return false, fmt.Errorf("mark paid: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *repo) GetByOrderID(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	var paidAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, order_id, user_id, amount, currency, status, created_at, paid_at
         FROM orders WHERE order_id = $1`,
		orderID,
	).Scan(&o.ID, &o.OrderID, &o.UserID, &o.Amount, &o.Currency, &o.Status, &o.CreatedAt, &paidAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}

	items, err := r.loadItems(ctx, o.OrderID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, user_id, amount, currency, status, created_at, paid_at
         FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		var paidAt sql.NullTime
		if err := rows.Scan(&o.ID, &o.OrderID, &o.UserID, &o.Amount, &o.Currency, &o.Status, &o.CreatedAt, &paidAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if paidAt.Valid {
			o.PaidAt = &paidAt.Time
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].OrderID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

func (r *repo) loadItems(ctx context.Context, orderID string) ([]cart.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT item_id, name, quantity, price FROM order_items WHERE order_id = $1`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	var items []cart.Item
	for rows.Next() {
		var it cart.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}
