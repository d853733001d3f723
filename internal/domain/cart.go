package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one (user, product, quantity) record. The cart table keeps at
// most one line per pair; adds fold into the existing quantity.
type CartLine struct {
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartView is a cart line joined with live catalog data, as returned to the
// client. Prices here track the catalog until checkout freezes them.
type CartView struct {
	ProductID uuid.UUID       `json:"product_id"`
	Title     string          `json:"title"`
	Image     string          `json:"image"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int32           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}
