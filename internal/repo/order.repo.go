package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"terra-storefront/internal/domain"
)

// AdminOrder is an order joined with the owning username and its lines,
// as shown in the admin order listing.
type AdminOrder struct {
	domain.Order
	Username string             `json:"username"`
	Lines    []domain.OrderLine `json:"items"`
}

type OrderRepo interface {
	// CreateOrder and CreateOrderLines take tx so the order and all of its
	// lines commit atomically or not at all.
	CreateOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error
	CreateOrderLines(ctx context.Context, tx *sql.Tx, lines []domain.OrderLine) error
	FindById(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error)
	LinesByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error)
	ListWithLines(ctx context.Context) ([]AdminOrder, error)
	// MarkPaid flips pending -> paid and reports whether a row changed.
	// Zero rows means the order was already past pending (or missing),
	// which callers treat as an absorbed replay.
	MarkPaid(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	SetPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) error
	FindStuckPending(ctx context.Context, olderThan time.Duration) ([]domain.Order, error)
}

type orderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepo {
	return &orderRepo{db: db}
}

const orderColumns = `id, user_id, name, email, phone, address, landmark,
	total, status, COALESCE(payment_session_id, ''), created_at, updated_at`

func (r *orderRepo) CreateOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	query := `INSERT INTO orders
	          (id, user_id, name, email, phone, address, landmark, total, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := tx.ExecContext(ctx, query,
		order.ID, order.UserID, order.Name, order.Email, order.Phone,
		order.Address, order.Landmark, order.Total, order.Status,
		order.CreatedAt, order.UpdatedAt,
	)
	return err
}

func (r *orderRepo) CreateOrderLines(ctx context.Context, tx *sql.Tx, lines []domain.OrderLine) error {
	query := `INSERT INTO order_lines (order_id, product_id, quantity, unit_price)
	          VALUES ($1, $2, $3, $4)`
	for _, l := range lines {
		if _, err := tx.ExecContext(ctx, query, l.OrderID, l.ProductID, l.Quantity, l.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepo) FindById(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *orderRepo) LinesByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error) {
	query := `SELECT l.order_id, l.product_id, p.title, l.quantity, l.unit_price
	          FROM order_lines l JOIN products p ON l.product_id = p.id
	          WHERE l.order_id = $1`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.Title, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *orderRepo) ListWithLines(ctx context.Context) ([]AdminOrder, error) {
	query := `SELECT o.id, o.user_id, o.name, o.email, o.phone, o.address, o.landmark,
	                 o.total, o.status, COALESCE(o.payment_session_id, ''),
	                 o.created_at, o.updated_at, COALESCE(u.username, '')
	          FROM orders o LEFT JOIN users u ON o.user_id = u.id
	          ORDER BY o.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []AdminOrder
	for rows.Next() {
		var o AdminOrder
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Name, &o.Email, &o.Phone, &o.Address, &o.Landmark,
			&o.Total, &o.Status, &o.PaymentSessionID, &o.CreatedAt, &o.UpdatedAt, &o.Username,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		lines, err := r.LinesByOrder(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}
	return orders, nil
}

func (r *orderRepo) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE orders SET status = $1, updated_at = now()
	          WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, domain.OrderPaid, id, domain.OrderPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	query := `UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

func (r *orderRepo) SetPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	query := `UPDATE orders SET payment_session_id = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, sessionID, id)
	return err
}

func (r *orderRepo) FindStuckPending(ctx context.Context, olderThan time.Duration) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
	          WHERE status = $1 AND updated_at < $2`
	rows, err := r.db.QueryContext(ctx, query, domain.OrderPending, time.Now().Add(-olderThan))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Name, &o.Email, &o.Phone, &o.Address, &o.Landmark,
		&o.Total, &o.Status, &o.PaymentSessionID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOrders(rows *sql.Rows) ([]domain.Order, error) {
	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}
