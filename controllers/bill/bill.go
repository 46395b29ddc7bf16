package billControllers

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/services/billing"
)

// CreateBillRequest may omit products, in which case the caller's cart is billed.
type CreateBillRequest struct {
	Products []billing.Line `json:"products"`
}

type UpdateBillStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// POST /api/bill/create
func CreateBill(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBillRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			controllers.Fail(c, controllers.BindingError(err))
			return
		}

		bill, err := svc.Checkout(c.Request.Context(), middleware.Principal(c).ID, billing.SourceFor(req.Products))
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": "Purchase completed successfully",
			"billId":  bill.ID,
			"total":   bill.Total,
		})
	}
}

// GET /api/bill/my-bills
func GetMyBills(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		bills, err := svc.ListMine(c.Request.Context(), middleware.Principal(c).ID)
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bills": bills})
	}
}

// GET /api/bill/detail/:id
func GetBillByID(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		bill, err := svc.GetBill(c.Request.Context(), middleware.Principal(c), c.Param("id"))
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bill": bill})
	}
}

// GET /api/bill/all?status=
func GetAllBills(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		bills, err := svc.ListAll(c.Request.Context(), c.Query("status"))
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bills": bills})
	}
}

// PUT /api/bill/update-status/:id
func UpdateBillStatus(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateBillStatusRequest
		if !controllers.BindJSON(c, &req) {
			return
		}
		bill, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Bill status updated successfully", "bill": bill})
	}
}

// DELETE /api/bill/delete/:id
func DeleteBill(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Bill deleted successfully"})
	}
}

// GET /api/bill/export
func ExportBillsToExcel(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var buf bytes.Buffer
		if err := svc.ExportBills(c.Request.Context(), &buf); err != nil {
			controllers.Fail(c, err)
			return
		}
		controllers.Attachment(c, "bills.xlsx", buf.Bytes())
	}
}
