// Package controllers holds the response helpers shared by the HTTP handlers in its
// subpackages.
package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/junaidrashid-git/storefront-api/apperrors"
	"github.com/junaidrashid-git/storefront-api/logging"
)

type ErrorBody struct {
	Kind    apperrors.Kind `json:"kind"`
	Message string         `json:"message"`
}

// Fail renders err as {"error": {"kind", "message"}} and aborts the chain. Internal
// errors are logged in full and rendered with a generic message.
func Fail(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindInternal {
		logging.Log(logging.Fields{Service: "http", Step: c.FullPath(), Status: "internal_error", Error: err.Error()})
	}
	c.AbortWithStatusJSON(apperrors.HTTPStatus(kind), gin.H{
		"error": ErrorBody{Kind: kind, Message: apperrors.PublicMessage(err)},
	})
}

// BindJSON decodes the body into obj. Binding failures become Validation errors.
func BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		Fail(c, BindingError(err))
		return false
	}
	return true
}

// BindingError turns a gin binding error into a Validation error naming the first bad field.
func BindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return apperrors.Validation("%s is required", fe.Field())
		case "min", "max", "gte", "lte":
			return apperrors.Validation("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
		case "email":
			return apperrors.Validation("Invalid email format")
		default:
			return apperrors.Validation("%s is invalid", fe.Field())
		}
	}
	return apperrors.Validation("Invalid request body")
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Attachment sends data as a downloadable xlsx file.
func Attachment(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, xlsxContentType, data)
}
