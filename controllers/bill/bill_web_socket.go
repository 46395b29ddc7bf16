package billControllers

import (
	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/logging"
	"github.com/junaidrashid-git/storefront-api/middleware"
)

// GET /api/bill/ws streams bill events to admin dashboards.
func BillWebSocketHandler(hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := hub.Serve(c.Writer, c.Request); err != nil {
			logging.Log(logging.Fields{Service: "http", Step: "ws_upgrade", Status: "failed",
				UserID: middleware.Principal(c).ID, Error: err.Error()})
		}
	}
}
