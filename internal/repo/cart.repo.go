package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"terra-storefront/internal/domain"
)

type CartRepo interface {
	// Upsert adds qty to an existing line or creates one. The conflict
	// clause is what keeps the one-line-per-(user,product) invariant.
	Upsert(ctx context.Context, userID, productID uuid.UUID, qty int32) error
	// SetQuantity overwrites a line's quantity; qty <= 0 deletes the line.
	// Missing lines are a no-op either way.
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int32) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.CartView, error)
	// Snapshot reads the user's cart joined with live catalog prices. The
	// returned rows are the checkout read set.
	Snapshot(ctx context.Context, userID uuid.UUID) ([]domain.SnapshotLine, error)
	// ClearLines removes the given products from the user's cart. Called
	// only after the order transaction has committed.
	ClearLines(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) error
}

type cartRepo struct {
	db *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepo {
	return &cartRepo{db: db}
}

func (r *cartRepo) Upsert(ctx context.Context, userID, productID uuid.UUID, qty int32) error {
	query := `INSERT INTO cart_lines (user_id, product_id, quantity)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, product_id)
	          DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity,
	                        updated_at = now()`
	_, err := r.db.ExecContext(ctx, query, userID, productID, qty)
	return err
}

func (r *cartRepo) SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int32) error {
	if qty <= 0 {
		return r.Remove(ctx, userID, productID)
	}
	query := `UPDATE cart_lines SET quantity = $1, updated_at = now()
	          WHERE user_id = $2 AND product_id = $3`
	_, err := r.db.ExecContext(ctx, query, qty, userID, productID)
	return err
}

func (r *cartRepo) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	query := `DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2`
	_, err := r.db.ExecContext(ctx, query, userID, productID)
	return err
}

func (r *cartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.CartView, error) {
	query := `SELECT c.product_id, p.title, p.image, p.price, c.quantity
	          FROM cart_lines c JOIN products p ON c.product_id = p.id
	          WHERE c.user_id = $1
	          ORDER BY c.created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []domain.CartView
	for rows.Next() {
		var v domain.CartView
		if err := rows.Scan(&v.ProductID, &v.Title, &v.Image, &v.UnitPrice, &v.Quantity); err != nil {
			return nil, err
		}
		v.Subtotal = v.UnitPrice.Mul(decimal.NewFromInt32(v.Quantity))
		views = append(views, v)
	}
	return views, rows.Err()
}

func (r *cartRepo) Snapshot(ctx context.Context, userID uuid.UUID) ([]domain.SnapshotLine, error) {
	query := `SELECT c.product_id, p.title, c.quantity, p.price
	          FROM cart_lines c JOIN products p ON c.product_id = p.id
	          WHERE c.user_id = $1
	          ORDER BY c.created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.SnapshotLine
	for rows.Next() {
		var l domain.SnapshotLine
		if err := rows.Scan(&l.ProductID, &l.Title, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *cartRepo) ClearLines(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) error {
	query := `DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2`
	for _, pid := range productIDs {
		if _, err := r.db.ExecContext(ctx, query, userID, pid); err != nil {
			return err
		}
	}
	return nil
}
