package routes

import (
	"github.com/gin-gonic/gin"
	userControllers "github.com/junaidrashid-git/storefront-api/controllers/user"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
)

// SetupUserRoutes registers all “/api/user/*” endpoints. Requires JWT middleware.
func SetupUserRoutes(api *gin.RouterGroup, svc Services) {
	userGroup := api.Group("/user")
	userGroup.Use(middleware.ValidateToken(svc.Accounts))
	{
		userGroup.GET("/me", userControllers.GetUser(svc.Accounts))
		userGroup.GET("/all", middleware.RequireRole(models.RoleAdmin), userControllers.GetAllUsers(svc.Accounts))
		userGroup.PUT("/update/:id", userControllers.UpdateUser(svc.Accounts))
		userGroup.PUT("/update-password/:id", userControllers.UpdatePassword(svc.Accounts))
		userGroup.DELETE("/delete/:id", userControllers.DeleteUser(svc.Accounts))
	}
}
