package shop

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderStore is the slice of OrderRepo the placement protocol needs.
type OrderStore interface {
	CreateOrderHeader(ctx context.Context, q Querier, o *Order) error
	InsertOrderLines(ctx context.Context, q Querier, lines []OrderLine) error
}

// ProductStore is the slice of ProductRepo the placement protocol needs.
type ProductStore interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	DecrementStock(ctx context.Context, q Querier, productID int64, qty int) error
}

// PlacementService converts a cart snapshot into a durable order header,
// its line rows, and the matching stock decrements as one transaction:
// either all of it becomes visible or none of it does.
type PlacementService struct {
	Provider ConnProvider
	Orders   OrderStore
	Products ProductStore
}

// PlaceOrder runs the whole placement. Prices are looked up at call time
// (jangan trust harga dari client) and captured on each line; the cart's
// own totals are ignored. Rejections before Begin touch nothing.
func (s *PlacementService) PlaceOrder(ctx context.Context, userID int64, shippingAddress string, cart *Cart) (*Order, error) {
	if cart == nil {
		return nil, ErrEmptyCart
	}
	lines := cart.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, l := range lines {
		if l.Qty < 1 {
			return nil, &ValidationError{
				Field:  "quantity",
				Reason: fmt.Sprintf("product %d: quantity must be at least 1", l.Product.ID),
			}
		}
	}

	total := decimal.Zero
	orderLines := make([]OrderLine, 0, len(lines))
	for _, l := range lines {
		p, err := s.Products.GetByID(ctx, l.Product.ID)
		if err != nil {
			return nil, err
		}
		if p.Stock < l.Qty {
			return nil, &InsufficientStockError{ProductID: p.ID, Available: p.Stock, Requested: l.Qty}
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Qty))))
		orderLines = append(orderLines, OrderLine{ProductID: p.ID, Quantity: l.Qty, Price: p.Price})
	}

	conn, err := s.Provider.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, &TxError{Step: "begin", Err: err}
	}

	order := &Order{
		UserID:          userID,
		TotalAmount:     total,
		Status:          StatusPending,
		ShippingAddress: shippingAddress,
	}
	if err := s.Orders.CreateOrderHeader(ctx, tx, order); err != nil {
		return nil, s.abort(ctx, tx, &TxError{Step: "insert order header", Err: err})
	}
	for i := range orderLines {
		orderLines[i].OrderID = order.ID
	}
	if err := s.Orders.InsertOrderLines(ctx, tx, orderLines); err != nil {
		return nil, s.abort(ctx, tx, &TxError{Step: "insert order lines", Err: err})
	}
	for _, l := range orderLines {
		if err := s.Products.DecrementStock(ctx, tx, l.ProductID, l.Quantity); err != nil {
			var ise *InsufficientStockError
			if errors.As(err, &ise) {
				// guard lost a race after the pre-check: ordinary
				// rejection, not a transactional failure
				return nil, s.abort(ctx, tx, err)
			}
			return nil, s.abort(ctx, tx, &TxError{Step: "decrement stock", Err: err})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		// backend sudah abort sendiri; cukup laporkan
		return nil, &TxError{Step: "commit", Err: err}
	}
	order.Lines = orderLines
	return order, nil
}

// abort rolls the transaction back, keeping cause as the primary error. A
// failed rollback outranks it: store state is now uncertain.
func (s *PlacementService) abort(ctx context.Context, tx Tx, cause error) error {
	if rbErr := tx.Rollback(ctx); rbErr != nil {
		return &RollbackError{Cause: cause, Err: rbErr}
	}
	return cause
}
