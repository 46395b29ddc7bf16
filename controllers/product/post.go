package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
	"github.com/shopspring/decimal"
)

type ProductInput struct {
	Name        string           `json:"name" binding:"required,min=2,max=100"`
	Description string           `json:"description" binding:"required,min=10,max=500"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Stock       *int             `json:"stock" binding:"required,min=0"`
	Category    string           `json:"category" binding:"required"`
}

// POST /api/product/create
func CreateProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ProductInput
		if !controllers.BindJSON(c, &input) {
			return
		}

		product, err := svc.CreateProduct(c.Request.Context(), catalog.ProductInput{
			Name:        input.Name,
			Description: input.Description,
			Price:       *input.Price,
			Stock:       *input.Stock,
			CategoryID:  input.Category,
		})
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Product created successfully", "product": product})
	}
}
