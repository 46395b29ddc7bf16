package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/apperrors"
	"github.com/junaidrashid-git/storefront-api/controllers"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
	"github.com/shopspring/decimal"
)

// ProductUpdateInput has no stock field; stock moves through PATCH /stock/:id.
type ProductUpdateInput struct {
	Name        *string          `json:"name" binding:"omitempty,min=2,max=100"`
	Description *string          `json:"description" binding:"omitempty,min=10,max=500"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Stock       *int             `json:"stock"`
}

type StockInput struct {
	Delta int `json:"delta" binding:"required"`
}

// PUT /api/product/update/:id
func UpdateProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ProductUpdateInput
		if !controllers.BindJSON(c, &input) {
			return
		}
		if input.Stock != nil {
			controllers.Fail(c, apperrors.Validation("Stock cannot be set here, use the stock adjustment endpoint"))
			return
		}

		product, err := svc.UpdateProduct(c.Request.Context(), c.Param("id"), catalog.ProductPatch{
			Name:        input.Name,
			Description: input.Description,
			Price:       input.Price,
			CategoryID:  input.Category,
		})
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
	}
}

// PATCH /api/product/stock/:id
func AdjustStock(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input StockInput
		if !controllers.BindJSON(c, &input) {
			return
		}
		product, err := svc.AdjustStock(c.Request.Context(), c.Param("id"), input.Delta)
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Stock updated successfully", "product": product})
	}
}
