package service

import "errors"

var (
	ErrValidation         = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("admin privileges required")
	ErrDuplicateIdentity  = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")

	// ErrOrderPersistence means the order transaction failed; no order
	// exists and the cart is untouched.
	ErrOrderPersistence = errors.New("failed to persist order")

	// ErrPaymentSession means the order was created but the gateway call
	// failed; the order stays pending and is not rolled back.
	ErrPaymentSession = errors.New("failed to create payment session")
)
