package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SnapshotLine is one row of a cart read joined with the live catalog at
// the instant checkout begins. The snapshot, not the mutable cart, is what
// the order is built from.
type SnapshotLine struct {
	ProductID uuid.UUID
	Title     string
	Quantity  int32
	UnitPrice decimal.Decimal
}

func (l SnapshotLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
}
