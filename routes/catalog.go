package routes

import (
	"github.com/gin-gonic/gin"
	productcontroller "github.com/junaidrashid-git/storefront-api/controllers/product"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
)

// SetupCatalogRoutes registers “/api/category/*” and “/api/product/*”. Reads are public,
// writes need an admin token.
func SetupCatalogRoutes(api *gin.RouterGroup, svc Services) {
	admin := []gin.HandlerFunc{middleware.ValidateToken(svc.Accounts), middleware.RequireRole(models.RoleAdmin)}

	categories := api.Group("/category")
	{
		categories.GET("/get", productcontroller.GetAllCategories(svc.Catalog))
		categories.GET("/get/:id", productcontroller.GetCategoryByID(svc.Catalog))

		categoryAdmin := categories.Group("", admin...)
		categoryAdmin.POST("/save", productcontroller.CreateCategory(svc.Catalog))
		categoryAdmin.PUT("/update/:id", productcontroller.UpdateCategory(svc.Catalog))
		categoryAdmin.DELETE("/delete/:id", productcontroller.DeleteCategory(svc.Catalog))
	}

	products := api.Group("/product")
	{
		products.GET("/getAll", productcontroller.GetProducts(svc.Catalog))
		products.GET("/get/:id", productcontroller.GetProductByID(svc.Catalog))

		productAdmin := products.Group("", admin...)
		productAdmin.POST("/create", productcontroller.CreateProduct(svc.Catalog))
		productAdmin.PUT("/update/:id", productcontroller.UpdateProduct(svc.Catalog))
		productAdmin.PATCH("/stock/:id", productcontroller.AdjustStock(svc.Catalog))
		productAdmin.DELETE("/delete/:id", productcontroller.DeleteProduct(svc.Catalog))
		productAdmin.POST("/import", productcontroller.ImportProductsFromExcel(svc.Catalog))
		productAdmin.GET("/export", productcontroller.ExportProductsToExcel(svc.Catalog))
	}
}
