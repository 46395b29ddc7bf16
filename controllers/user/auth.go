package userControllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/controllers"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/services/account"
)

type RegisterInput struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Surname  string `json:"surname" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=4,max=20"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone" binding:"required,min=7,max=20"`
	Role     string `json:"role"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/register
func Register(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		if !controllers.BindJSON(c, &input) {
			return
		}

		var caller *auth.Principal
		if p, ok := middleware.CurrentPrincipal(c); ok {
			caller = &p
		}
		user, err := svc.Register(c.Request.Context(), caller, account.RegisterInput{
			Name:     input.Name,
			Surname:  input.Surname,
			Username: input.Username,
			Email:    input.Email,
			Password: input.Password,
			Phone:    input.Phone,
			Role:     input.Role,
		})
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": fmt.Sprintf("Registered successfully, can be logged with username: %s", user.Username),
			"user":    user,
		})
	}
}

// POST /api/auth/login
func Login(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if !controllers.BindJSON(c, &input) {
			return
		}
		session, err := svc.Login(c.Request.Context(), input.Username, input.Password)
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":    fmt.Sprintf("Welcome %s", session.User.Name),
			"loggedUser": session.User,
			"token":      session.Token,
		})
	}
}
