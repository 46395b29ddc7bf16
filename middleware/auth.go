package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/apperrors"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/controllers"
	"github.com/junaidrashid-git/storefront-api/models"
)

const principalKey = "principal"

// Authenticator resolves a session token to the caller.
type Authenticator interface {
	Principal(ctx context.Context, token string) (auth.Principal, error)
}

// bearerToken accepts "Bearer <token>" as well as a bare token. Websocket clients,
// which cannot set headers, pass it as ?token=.
func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if header == "" {
		return strings.TrimSpace(c.Query("token"))
	}
	return header
}

// ValidateToken rejects requests without a valid token for an active user.
func ValidateToken(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			controllers.Fail(c, apperrors.Unauthenticated("Authorization header is missing"))
			return
		}
		p, err := a.Principal(c.Request.Context(), token)
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// OptionalToken resolves the caller when a token is present and lets anonymous
// requests through.
func OptionalToken(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if p, err := a.Principal(c.Request.Context(), token); err == nil {
				c.Set(principalKey, p)
			}
		}
		c.Next()
	}
}

// RequireRole must run after ValidateToken.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			controllers.Fail(c, apperrors.Unauthenticated("Authentication required"))
			return
		}
		if err := auth.RequireRole(p, roles...); err != nil {
			controllers.Fail(c, err)
			return
		}
		c.Next()
	}
}

func CurrentPrincipal(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

// Principal returns the caller set by ValidateToken.
func Principal(c *gin.Context) auth.Principal {
	p, _ := CurrentPrincipal(c)
	return p
}
