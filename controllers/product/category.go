package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
)

type CategoryInput struct {
	Name        string `json:"name" binding:"required,min=2,max=50"`
	Description string `json:"description" binding:"required,min=10,max=255"`
}

// POST /api/category/save
func CreateCategory(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CategoryInput
		if !controllers.BindJSON(c, &input) {
			return
		}
		category, err := svc.CreateCategory(c.Request.Context(), catalog.CategoryInput(input))
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Category saved successfully", "category": category})
	}
}

// GET /api/category/get
func GetAllCategories(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := svc.ListCategories(c.Request.Context())
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": categories})
	}
}

// GET /api/category/get/:id
func GetCategoryByID(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		category, err := svc.GetCategory(c.Request.Context(), c.Param("id"))
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"category": category})
	}
}

// PUT /api/category/update/:id
func UpdateCategory(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CategoryInput
		if !controllers.BindJSON(c, &input) {
			return
		}
		category, err := svc.UpdateCategory(c.Request.Context(), c.Param("id"), catalog.CategoryInput(input))
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Category updated successfully", "category": category})
	}
}

// DELETE /api/category/delete/:id
func DeleteCategory(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		moved, err := svc.DeleteCategory(c.Request.Context(), c.Param("id"))
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully", "reassigned_products": moved})
	}
}
