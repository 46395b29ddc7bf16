package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
)

// SetupCartRoutes registers all “/api/cart/*” endpoints.
func SetupCartRoutes(api *gin.RouterGroup, svc Services) {
	cartGroup := api.Group("/cart")
	cartGroup.Use(middleware.ValidateToken(svc.Accounts))
	{
		client := cartGroup.Group("", middleware.RequireRole(models.RoleClient))
		client.POST("/add", cartControllers.AddCartItem(svc.Carts))
		client.GET("/get", cartControllers.GetUserCart(svc.Carts))
		client.PUT("/update", cartControllers.UpdateCartItem(svc.Carts))
		client.DELETE("/delete/:productId", cartControllers.DeleteCartItem(svc.Carts))
		client.DELETE("/clear", cartControllers.ClearUserCart(svc.Carts))

		cartGroup.GET("/user/:userId", middleware.RequireRole(models.RoleAdmin), cartControllers.GetAdminUserCart(svc.Carts))
	}
}
