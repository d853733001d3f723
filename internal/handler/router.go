package handler

import (
	"database/sql"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"terra-storefront/internal/auth"
	"terra-storefront/internal/database"
)

type Handlers struct {
	Auth     *AuthHandler
	Product  *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Webhook  *WebhookHandler
}

// NewRouter assembles the gin engine: public routes, session-protected
// routes, admin routes, and the gateway-authenticated webhook.
func NewRouter(h *Handlers, tokens *auth.TokenManager, db *sql.DB, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.SetTrustedProxies(nil)

	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, database.Health(db))
	})

	api := r.Group("/api")
	{
		api.POST("/signup", h.Auth.Signup)
		api.POST("/login", h.Auth.Login)
		api.GET("/products", h.Product.List)
		api.GET("/products/:id", h.Product.Get)

		// Authenticated by the event signature, not a session.
		api.POST("/webhook", h.Webhook.HandleEvent)

		protected := api.Group("/")
		protected.Use(AuthMiddleware(tokens))
		{
			protected.GET("/cart", h.Cart.Get)
			protected.POST("/cart", h.Cart.Add)
			protected.PUT("/cart/:product_id", h.Cart.SetQuantity)
			protected.DELETE("/cart/:product_id", h.Cart.Remove)

			protected.POST("/checkout", h.Checkout.Checkout)
			protected.GET("/orders", h.Checkout.MyOrders)

			admin := protected.Group("/admin")
			admin.Use(AdminMiddleware())
			{
				admin.POST("/products", h.Product.Create)
				admin.PUT("/products/:id", h.Product.Update)
				admin.DELETE("/products/:id", h.Product.Delete)
				admin.GET("/orders", h.Checkout.AdminOrders)
			}
		}
	}

	return r
}
