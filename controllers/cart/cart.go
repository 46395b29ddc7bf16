package cartControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/services/cart"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
)

type CartItemInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// POST /api/cart/add
func AddCartItem(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CartItemInput
		if !controllers.BindJSON(c, &input) {
			return
		}
		view, err := svc.AddItem(c.Request.Context(), middleware.Principal(c).ID, input.ProductID, input.Quantity)
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product added to cart successfully", "cart": view})
	}
}

// PUT /api/cart/update
func UpdateCartItem(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CartItemInput
		if !controllers.BindJSON(c, &input) {
			return
		}
		view, err := svc.UpdateItem(c.Request.Context(), middleware.Principal(c).ID, input.ProductID, input.Quantity)
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart updated successfully", "cart": view})
	}
}

// DELETE /api/cart/delete/:productId
func DeleteCartItem(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.RemoveItem(c.Request.Context(), middleware.Principal(c).ID, c.Param("productId"))
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product removed from cart successfully", "cart": view})
	}
}

// DELETE /api/cart/clear
func ClearUserCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Clear(c.Request.Context(), middleware.Principal(c).ID); err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully"})
	}
}

// GET /api/cart/get
func GetUserCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.GetCart(c.Request.Context(), middleware.Principal(c).ID)
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		body := gin.H{"cart": view}
		if len(view.Items) == 0 {
			body["message"] = "Cart is empty"
		}
		c.JSON(http.StatusOK, body)
	}
}

// GET /api/cart/user/:userId
func GetAdminUserCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := catalog.ParseID("userId", c.Param("userId"))
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		view, err := svc.GetCart(c.Request.Context(), userID)
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cart": view})
	}
}
