package productcontroller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/apperrors"
	"github.com/junaidrashid-git/storefront-api/controllers"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
	"github.com/junaidrashid-git/storefront-api/store"
	"github.com/shopspring/decimal"
)

func priceParam(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperrors.Validation("Invalid %s", name)
	}
	return &d, nil
}

// GET /api/product/getAll?search=&category=&min_price=&max_price=&sort_by=&order=
func GetProducts(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := store.ProductFilter{
			Search:     strings.TrimSpace(c.Query("search")),
			CategoryID: c.DefaultQuery("category", c.Query("category_id")),
			SortBy:     c.DefaultQuery("sort_by", store.SortByCreatedAt),
			Desc:       strings.ToLower(c.DefaultQuery("order", "desc")) != "asc",
		}

		var err error
		if filter.MinPrice, err = priceParam(c, "min_price"); err != nil {
			controllers.Fail(c, err)
			return
		}
		if filter.MaxPrice, err = priceParam(c, "max_price"); err != nil {
			controllers.Fail(c, err)
			return
		}

		products, err := svc.ListProducts(c.Request.Context(), filter)
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}
