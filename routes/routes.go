package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/metrics"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/services/account"
	"github.com/junaidrashid-git/storefront-api/services/billing"
	"github.com/junaidrashid-git/storefront-api/services/cart"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
)

// Services is everything the HTTP layer needs.
type Services struct {
	Accounts *account.Service
	Catalog  *catalog.Service
	Carts    *cart.Service
	Billing  *billing.Service
	Hub      *events.Hub
	Metrics  *metrics.ServerMetrics
	Limiter  *middleware.IPRateLimiter
	// Ping reports whether the store is reachable.
	Ping func(ctx context.Context) error
}

// New builds the engine with the global middleware and every route.
func New(svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Spreadsheet imports stay well below this.
	r.MaxMultipartMemory = 32 << 20

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	if svc.Metrics != nil {
		r.Use(svc.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(svc.Metrics.Handler()))
	}
	if svc.Limiter != nil {
		r.Use(svc.Limiter.Middleware())
	}

	r.GET("/health", health(svc.Ping))

	SetupRoutes(r, svc)
	return r
}

// SetupRoutes is the single entry-point that wires up every /api route group.
func SetupRoutes(r *gin.Engine, svc Services) {
	api := r.Group("/api")

	SetupAuthRoutes(api, svc)
	SetupUserRoutes(api, svc)
	SetupCatalogRoutes(api, svc)
	SetupCartRoutes(api, svc)
	SetupBillRoutes(api, svc)
}

func health(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
