package routes

import (
	"github.com/gin-gonic/gin"
	userControllers "github.com/junaidrashid-git/storefront-api/controllers/user"
	"github.com/junaidrashid-git/storefront-api/middleware"
)

// SetupAuthRoutes registers all “/api/auth/*” endpoints.
func SetupAuthRoutes(api *gin.RouterGroup, svc Services) {
	authGroup := api.Group("/auth")
	{
		// an admin token lets the caller choose the new user's role
		authGroup.POST("/register", middleware.OptionalToken(svc.Accounts), userControllers.Register(svc.Accounts))
		authGroup.POST("/login", userControllers.Login(svc.Accounts))
	}
}
