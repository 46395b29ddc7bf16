package productcontroller

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/apperrors"
	"github.com/junaidrashid-git/storefront-api/controllers"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
)

// POST /api/product/import (multipart field "file")
func ImportProductsFromExcel(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("file")
		if err != nil {
			controllers.Fail(c, apperrors.Validation("Excel file is required"))
			return
		}
		file, err := header.Open()
		if err != nil {
			controllers.Fail(c, apperrors.Internal(err, "Failed to open Excel file"))
			return
		}
		defer file.Close()

		result, err := svc.ImportProducts(c.Request.Context(), file, header.Size)
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":       "Import completed",
			"created_count": result.Created,
			"updated_count": result.Updated,
			"skipped_count": result.Skipped,
		})
	}
}

// GET /api/product/export
func ExportProductsToExcel(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var buf bytes.Buffer
		if err := svc.ExportProducts(c.Request.Context(), &buf); err != nil {
			controllers.Fail(c, err)
			return
		}
		controllers.Attachment(c, "products.xlsx", buf.Bytes())
	}
}
