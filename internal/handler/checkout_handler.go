package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"terra-storefront/internal/domain"
	"terra-storefront/internal/service"
)

type CheckoutHandler struct {
	checkout service.CheckoutService
	orders   service.OrderService
}

func NewCheckoutHandler(checkout service.CheckoutService, orders service.OrderService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, orders: orders}
}

type checkoutRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Address  string `json:"address" binding:"required"`
	Landmark string `json:"landmark"`
}

// POST /api/checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	result, err := h.checkout.InitiateCheckout(c.Request.Context(), currentUserID(c), domain.ContactDetails{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Landmark: req.Landmark,
	})
	if err != nil {
		// Session failure still created the order; tell the client which
		// order is now waiting so a retry can be correlated.
		if errors.Is(err, service.ErrPaymentSession) && result != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "payment session could not be created, order is pending",
				"order": result.Order,
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":   result.RedirectURL,
		"order": result.Order,
		"items": result.Lines,
	})
}

// GET /api/orders
func (h *CheckoutHandler) MyOrders(c *gin.Context) {
	orders, err := h.orders.ListForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}

// GET /api/admin/orders
func (h *CheckoutHandler) AdminOrders(c *gin.Context) {
	orders, err := h.orders.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}
