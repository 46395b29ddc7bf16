package userControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/apperrors"
	"github.com/junaidrashid-git/storefront-api/controllers"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/services/account"
)

type UpdateUserInput struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=50"`
	Surname  *string `json:"surname" binding:"omitempty,min=2,max=50"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"phone" binding:"omitempty,min=7,max=20"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

type UpdatePasswordInput struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// GET /api/user/me
func GetUser(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := svc.Profile(c.Request.Context(), middleware.Principal(c))
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// GET /api/user/all
func GetAllUsers(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := svc.ListUsers(c.Request.Context())
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}

// PUT /api/user/update/:id
func UpdateUser(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input UpdateUserInput
		if !controllers.BindJSON(c, &input) {
			return
		}
		if input.Password != nil {
			controllers.Fail(c, apperrors.Validation("Use the password update function instead"))
			return
		}
		if input.Role != nil {
			controllers.Fail(c, apperrors.Validation("Role cannot be changed"))
			return
		}

		user, err := svc.UpdateUser(c.Request.Context(), middleware.Principal(c), c.Param("id"), account.UserPatch{
			Name:    input.Name,
			Surname: input.Surname,
			Email:   input.Email,
			Phone:   input.Phone,
		})
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User updated successfully", "user": user})
	}
}

// PUT /api/user/update-password/:id
func UpdatePassword(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input UpdatePasswordInput
		if !controllers.BindJSON(c, &input) {
			return
		}
		err := svc.UpdatePassword(c.Request.Context(), middleware.Principal(c), c.Param("id"), input.OldPassword, input.NewPassword)
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
	}
}

// DELETE /api/user/delete/:id
func DeleteUser(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteUser(c.Request.Context(), middleware.Principal(c), c.Param("id")); err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
	}
}
