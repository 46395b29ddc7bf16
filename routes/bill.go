package routes

import (
	"github.com/gin-gonic/gin"
	billControllers "github.com/junaidrashid-git/storefront-api/controllers/bill"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
)

// SetupBillRoutes registers all “/api/bill/*” endpoints.
func SetupBillRoutes(api *gin.RouterGroup, svc Services) {
	bills := api.Group("/bill")
	bills.Use(middleware.ValidateToken(svc.Accounts))
	{
		client := bills.Group("", middleware.RequireRole(models.RoleClient))
		client.POST("/create", billControllers.CreateBill(svc.Billing))
		client.GET("/my-bills", billControllers.GetMyBills(svc.Billing))

		bills.GET("/detail/:id", billControllers.GetBillByID(svc.Billing))

		admin := bills.Group("", middleware.RequireRole(models.RoleAdmin))
		admin.GET("/all", billControllers.GetAllBills(svc.Billing))
		admin.PUT("/update-status/:id", billControllers.UpdateBillStatus(svc.Billing))
		admin.DELETE("/delete/:id", billControllers.DeleteBill(svc.Billing))
		admin.GET("/export", billControllers.ExportBillsToExcel(svc.Billing))

		// websocket endpoint for real-time bill updates
		admin.GET("/ws", billControllers.BillWebSocketHandler(svc.Hub))
	}
}
