package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"terra-storefront/internal/infrastructure/payment"
	"terra-storefront/internal/service"
)

// statusFor maps the service error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateIdentity):
		return http.StatusConflict
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrPaymentSession):
		return http.StatusBadGateway
	case errors.Is(err, payment.ErrUntrustedEvent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Do not leak storage internals to clients.
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}
