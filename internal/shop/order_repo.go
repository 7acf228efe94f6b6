package shop

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepo struct{ DB *pgxpool.Pool }

// CreateOrderHeader inserts the header on the caller's Querier and fills
// in the generated id and the server-assigned order date.
func (r *OrderRepo) CreateOrderHeader(ctx context.Context, q Querier, o *Order) error {
	err := q.QueryRow(ctx, `
		INSERT INTO orders (user_id, total_amount, status, shipping_address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, order_date`,
		o.UserID, o.TotalAmount, o.Status, o.ShippingAddress,
	).Scan(&o.ID, &o.OrderDate)
	if err != nil {
		return fmt.Errorf("insert order header: %w", err)
	}
	return nil
}

// InsertOrderLines writes every line in a single batch round-trip.
func (r *OrderRepo) InsertOrderLines(ctx context.Context, q Querier, lines []OrderLine) error {
	b := &pgx.Batch{}
	for _, l := range lines {
		b.Queue(`
			INSERT INTO order_items (order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4)`,
			l.OrderID, l.ProductID, l.Quantity, l.Price)
	}
	br := q.SendBatch(ctx, b)
	var execErr error
	for range lines {
		if _, err := br.Exec(); err != nil {
			execErr = fmt.Errorf("insert order line: %w", err)
			break
		}
	}
	if cerr := br.Close(); execErr == nil && cerr != nil {
		execErr = fmt.Errorf("close line batch: %w", cerr)
	}
	return execErr
}

// GetOrderByID returns the fully hydrated aggregate: header, lines, and
// each line's product. Absent id is ErrOrderNotFound, never a partial
// object.
func (r *OrderRepo) GetOrderByID(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, order_date, total_amount, status, shipping_address
		FROM orders WHERE id=$1`, id,
	).Scan(&o.ID, &o.UserID, &o.OrderDate, &o.TotalAmount, &o.Status, &o.ShippingAddress)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	lines, err := r.linesForOrders(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	o.Lines = lines[id]
	return &o, nil
}

// GetOrdersByUser returns the user's orders most-recent-first, each fully
// hydrated.
func (r *OrderRepo) GetOrdersByUser(ctx context.Context, userID int64) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_id, order_date, total_amount, status, shipping_address
		FROM orders WHERE user_id=$1
		ORDER BY order_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user: %w", err)
	}
	defer rows.Close()

	var out []Order
	var ids []int64
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.OrderDate, &o.TotalAmount,
			&o.Status, &o.ShippingAddress); err != nil {
			return nil, err
		}
		out = append(out, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	lines, err := r.linesForOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Lines = lines[out[i].ID]
	}
	return out, nil
}

// linesForOrders hydrates the lines of all given orders through one
// products join, instead of one lookup per line.
func (r *OrderRepo) linesForOrders(ctx context.Context, orderIDs []int64) (map[int64][]OrderLine, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price,
		       p.id, p.name, p.description, p.price, p.image_path, p.stock,
		       p.created_at, p.updated_at
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.id`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]OrderLine)
	for rows.Next() {
		var l OrderLine
		var p Product
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.Price,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.ImagePath, &p.Stock,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		l.Product = &p
		out[l.OrderID] = append(out[l.OrderID], l)
	}
	return out, rows.Err()
}

// UpdateOrderStatus moves an order along the transition table. The update
// is conditioned on the status it read, so a concurrent transition shows
// up as ErrBadTransition instead of a silent overwrite.
func (r *OrderRepo) UpdateOrderStatus(ctx context.Context, id int64, next Status) error {
	if !next.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", next)}
	}

	var cur Status
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, id).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("query order status: %w", err)
	}
	if !CanTransition(cur, next) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, cur, next)
	}

	ct, err := r.DB.Exec(ctx,
		`UPDATE orders SET status=$2 WHERE id=$1 AND status=$3`, id, next, cur)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d changed concurrently", ErrBadTransition, id)
	}
	return nil
}
